package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"crowdfund/internal/apperr"
	"crowdfund/internal/database"
	"crowdfund/internal/logger"
	"crowdfund/internal/metrics"
	"crowdfund/internal/model"
	"crowdfund/internal/notify"
	"crowdfund/internal/storage"
)

const depositReferencePrefix = "CF"

// DepositService records bank deposits and mints them onto user wallets.
type DepositService struct {
	db       *database.Database
	ledger   Ledger
	poster   *Poster
	txInfo   *TxInfoService
	notifier notify.Notifier
	docs     storage.DocumentStorage
	log      *logger.Logger
	now      Clock
}

// NewDepositService returns a DepositService backed by db and the ledger.
func NewDepositService(
	db *database.Database,
	l Ledger,
	poster *Poster,
	txInfo *TxInfoService,
	notifier notify.Notifier,
	docs storage.DocumentStorage,
	log *logger.Logger,
) *DepositService {
	return &DepositService{
		db:       db,
		ledger:   l,
		poster:   poster,
		txInfo:   txInfo,
		notifier: notifier,
		docs:     docs,
		log:      log,
		now:      systemClock,
	}
}

// Create opens a deposit and issues the payment reference the user quotes
// on the bank transfer.
func (s *DepositService) Create(ctx context.Context, user uuid.UUID, amount int64) (*model.Deposit, error) {
	const op = "deposit.Create"
	if amount <= 0 {
		return nil, apperr.New(apperr.ValidationFailed, apperr.CodeRequest, op, "amount must be positive")
	}
	if _, err := s.db.GetUserWallet(ctx, user); err != nil {
		return nil, err
	}
	open, err := s.db.GetOpenDeposit(ctx, user)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, apperr.New(apperr.Conflict, apperr.CodeDepositExists, op,
			"user %s already has an unminted deposit %d", user, open.ID)
	}

	now := s.now()
	d := &model.Deposit{
		UserID:    user,
		Amount:    amount,
		Reference: depositReference(user, now.UnixNano()),
		CreatedAt: now,
	}
	if err := s.db.InsertDeposit(ctx, d); err != nil {
		return nil, err
	}
	s.log.WithFields(map[string]interface{}{"deposit": d.ID, "reference": d.Reference}).Info("deposit created")
	metrics.RecordTransition("deposit", "create")
	return d, nil
}

func depositReference(user uuid.UUID, stamp int64) string {
	short := strings.ToUpper(strings.ReplaceAll(user.String(), "-", "")[:8])
	return fmt.Sprintf("%s%s%d", depositReferencePrefix, short, stamp)
}

// GenerateMint builds the mint transaction and records the operator as approver.
func (s *DepositService) GenerateMint(ctx context.Context, id int64, operator uuid.UUID) (*model.TransactionDataAndInfo, error) {
	const op = "deposit.GenerateMint"
	d, err := s.db.GetDeposit(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Minted() {
		return nil, apperr.New(apperr.InvalidState, apperr.CodeDepositMinted, op, "deposit %d is already minted", id)
	}
	_, hash, err := activatedUserWallet(ctx, s.db, op, d.UserID)
	if err != nil {
		return nil, err
	}

	data, err := s.ledger.MintTx(ctx, hash, d.Amount)
	if err != nil {
		return nil, err
	}
	var info *model.TransactionInfo
	err = s.db.WithTx(ctx, func(st *database.Store) error {
		ok, err := st.SetDepositApprovedBy(ctx, id, operator)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.InvalidState, apperr.CodeDepositMinted, op, "deposit %d changed state", id)
		}
		info, err = s.txInfo.Within(st).Mint(ctx, d.ID, hash, operator)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &model.TransactionDataAndInfo{Data: data, Info: *info}, nil
}

// ConfirmMint posts the signed mint and settles the deposit with its hash.
func (s *DepositService) ConfirmMint(ctx context.Context, id int64, signed string) (*model.Deposit, error) {
	const op = "deposit.ConfirmMint"
	d, err := s.db.GetDeposit(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Minted() {
		return nil, apperr.New(apperr.InvalidState, apperr.CodeDepositMinted, op, "deposit %d is already minted", id)
	}

	hash, err := s.poster.Post(ctx, scope(PostMintDeposit, id), signed)
	if err != nil {
		return nil, err
	}
	ok, err := s.db.MintDeposit(ctx, id, hash, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.New(apperr.InvalidState, apperr.CodeDepositMinted, op, "deposit %d is already minted", id)
	}
	s.log.WithFields(map[string]interface{}{"deposit": id, "hash": hash}).Info("deposit minted")
	metrics.RecordTransition("deposit", "mint")

	minted, err := s.db.GetDeposit(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.DepositMinted(ctx, *minted); err != nil {
		s.log.WithError(err).WithField("deposit", id).Warn("failed to send deposit minted notification")
	}
	return minted, nil
}

func (s *DepositService) Delete(ctx context.Context, id int64) error {
	const op = "deposit.Delete"
	d, err := s.db.GetDeposit(ctx, id)
	if err != nil {
		return err
	}
	if d.Minted() {
		return apperr.New(apperr.InvalidState, apperr.CodeDepositMinted, op, "deposit %d is already minted", id)
	}
	deleted, err := s.db.DeleteUnmintedDeposit(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.New(apperr.InvalidState, apperr.CodeDepositMinted, op, "deposit %d can no longer be deleted", id)
	}
	s.log.WithField("deposit", id).Info("deposit deleted")
	return nil
}

// AttachDocument links a payment receipt to the deposit.
func (s *DepositService) AttachDocument(ctx context.Context, id int64, req model.DocumentSaveRequest) (*model.Deposit, error) {
	if _, err := s.db.GetDeposit(ctx, id); err != nil {
		return nil, err
	}
	doc, err := saveDocument(ctx, s.db, s.docs, req, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.db.SetDepositDocument(ctx, id, doc.ID); err != nil {
		return nil, err
	}
	return s.db.GetDeposit(ctx, id)
}

func (s *DepositService) Get(ctx context.Context, id int64) (*model.Deposit, error) {
	return s.db.GetDeposit(ctx, id)
}

func (s *DepositService) ListUnminted(ctx context.Context) ([]model.Deposit, error) {
	return s.db.ListUnmintedDeposits(ctx)
}
