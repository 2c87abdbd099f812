package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crowdfund/internal/database"
	"crowdfund/internal/model"
)

const descriptionPrefix = "You are signing"

// TxInfoService records the human-readable description of every
// transaction handed out for signing.
type TxInfoService struct {
	db  *database.Database
	st  *database.Store
	now Clock
}

// NewTxInfoService returns a TxInfoService writing to db.
func NewTxInfoService(db *database.Database) *TxInfoService {
	return &TxInfoService{db: db, st: db.Store, now: systemClock}
}

// Within returns a copy that records through st, so the description
// commits or rolls back with the caller's transaction.
func (s *TxInfoService) Within(st *database.Store) *TxInfoService {
	c := *s
	c.st = st
	return &c
}

func formatAmount(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

func (s *TxInfoService) newInfo(t model.TransactionType, title, description string, user uuid.UUID, companion int64) *model.TransactionInfo {
	return &model.TransactionInfo{
		Type:        t,
		Title:       title,
		Description: description,
		UserID:      user,
		CompanionID: &companion,
		CreatedAt:   s.now(),
	}
}

func (s *TxInfoService) save(ctx context.Context, info *model.TransactionInfo) (*model.TransactionInfo, error) {
	if err := s.st.InsertTransactionInfo(ctx, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (s *TxInfoService) ActivateWallet(ctx context.Context, walletType model.WalletType, walletID int64, user uuid.UUID) (*model.TransactionInfo, error) {
	return s.save(ctx, s.newInfo(model.TxWalletActivate, "Wallet Activation",
		fmt.Sprintf("%s transaction to activate wallet type: %s", descriptionPrefix, walletType), user, walletID))
}

func (s *TxInfoService) CreateOrg(ctx context.Context, org model.Organization, user uuid.UUID) (*model.TransactionInfo, error) {
	return s.save(ctx, s.newInfo(model.TxCreateOrg, "Create Organization",
		fmt.Sprintf("%s transaction to create organization: %s", descriptionPrefix, org.Name), user, org.ID))
}

func (s *TxInfoService) CreateProject(ctx context.Context, project model.Project, user uuid.UUID) (*model.TransactionInfo, error) {
	return s.save(ctx, s.newInfo(model.TxCreateProject, "Create Project",
		fmt.Sprintf("%s transaction to create project: %s", descriptionPrefix, project.Name), user, project.ID))
}

func (s *TxInfoService) Invest(ctx context.Context, project model.Project, amount int64, user uuid.UUID) (*model.TransactionInfo, error) {
	return s.save(ctx, s.newInfo(model.TxInvest, "Invest",
		fmt.Sprintf("%s transaction to invest in project: %s with amount %s", descriptionPrefix, project.Name, formatAmount(amount)),
		user, project.ID))
}

func (s *TxInfoService) Mint(ctx context.Context, depositID int64, walletHash string, user uuid.UUID) (*model.TransactionInfo, error) {
	return s.save(ctx, s.newInfo(model.TxMint, "Mint",
		fmt.Sprintf("%s mint transaction for wallet: %s", descriptionPrefix, walletHash), user, depositID))
}

func (s *TxInfoService) BurnApproval(ctx context.Context, withdraw model.Withdraw, user uuid.UUID) (*model.TransactionInfo, error) {
	return s.save(ctx, s.newInfo(model.TxBurnApproval, "Approval",
		fmt.Sprintf("%s approval transaction to burn amount: %s", descriptionPrefix, formatAmount(withdraw.Amount)),
		user, withdraw.ID))
}

func (s *TxInfoService) Burn(ctx context.Context, withdraw model.Withdraw, user uuid.UUID) (*model.TransactionInfo, error) {
	return s.save(ctx, s.newInfo(model.TxBurn, "Burn",
		fmt.Sprintf("%s burn transaction for amount: %s", descriptionPrefix, formatAmount(withdraw.Amount)),
		user, withdraw.ID))
}

func (s *TxInfoService) Find(ctx context.Context, id int64) (*model.TransactionInfo, error) {
	return s.db.GetTransactionInfo(ctx, id)
}

func (s *TxInfoService) Delete(ctx context.Context, id int64) error {
	return s.db.DeleteTransactionInfo(ctx, id)
}
