package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"crowdfund/internal/apperr"
	"crowdfund/internal/database"
	"crowdfund/internal/logger"
	"crowdfund/internal/metrics"
	"crowdfund/internal/model"
)

const (
	pairCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	pairCodeLength   = 6
	pairCodeAttempts = 5
)

// Owner identifies who a new wallet belongs to: a user, or an
// organization or project by id.
type Owner struct {
	Type     model.WalletType
	UserID   uuid.UUID
	EntityID int64
}

// UserOwner is the owner of a user wallet.
func UserOwner(id uuid.UUID) Owner { return Owner{Type: model.WalletTypeUser, UserID: id} }

// OrganizationOwner is the owner of an organization wallet.
func OrganizationOwner(id int64) Owner { return Owner{Type: model.WalletTypeOrg, EntityID: id} }

// ProjectOwner is the owner of a project wallet.
func ProjectOwner(id int64) Owner { return Owner{Type: model.WalletTypeProject, EntityID: id} }

func (o Owner) String() string {
	if o.Type == model.WalletTypeUser {
		return "user " + o.UserID.String()
	}
	return fmt.Sprintf("%s %d", o.Type, o.EntityID)
}

// WalletService manages the wallet lifecycle from pair code to activation.
type WalletService struct {
	db     *database.Database
	ledger Ledger
	poster *Poster
	txInfo *TxInfoService
	log    *logger.Logger
	now    Clock

	newPairCode func() (string, error)
}

// NewWalletService wires the wallet lifecycle to storage and the ledger.
func NewWalletService(db *database.Database, l Ledger, poster *Poster, txInfo *TxInfoService, log *logger.Logger) *WalletService {
	return &WalletService{
		db:          db,
		ledger:      l,
		poster:      poster,
		txInfo:      txInfo,
		log:         log,
		now:         systemClock,
		newPairCode: randomPairCode,
	}
}

// CreateWallet inserts the wallet and its owner link in one transaction.
// Any uniqueness violation, including one lost to a concurrent request,
// surfaces as AlreadyExists.
func (s *WalletService) CreateWallet(ctx context.Context, owner Owner, activationData string) (*model.Wallet, error) {
	const op = "wallet.CreateWallet"
	if !owner.Type.Valid() {
		return nil, apperr.New(apperr.ValidationFailed, apperr.CodeRequest, op, "unknown wallet type: %s", owner.Type)
	}

	wallet := &model.Wallet{
		ActivationData: activationData,
		Type:           owner.Type,
		Currency:       model.CurrencyEUR,
		CreatedAt:      s.now(),
	}
	err := s.db.WithTx(ctx, func(st *database.Store) error {
		if err := s.ensureOwnerHasNoWallet(ctx, st, op, owner); err != nil {
			return err
		}
		exists, err := st.WalletActivationDataExists(ctx, activationData)
		if err != nil {
			return err
		}
		if exists {
			return apperr.New(apperr.AlreadyExists, apperr.CodeWalletHashExists, op,
				"wallet with activation data already exists")
		}
		if err := st.InsertWallet(ctx, wallet); err != nil {
			return err
		}
		return s.linkOwner(ctx, st, op, owner, wallet.ID)
	})
	if err != nil {
		return nil, err
	}

	if owner.Type == model.WalletTypeUser {
		// a pending pair code for this key is spent once the wallet exists
		if err := s.db.DeletePairCodeByPublicKey(ctx, activationData); err != nil {
			s.log.WithError(err).Warn("failed to remove pair code")
		}
	}
	s.log.WithFields(map[string]interface{}{"wallet": wallet.ID, "owner": owner.String()}).Info("wallet created")
	metrics.RecordTransition("wallet", "create")
	return wallet, nil
}

func (s *WalletService) ensureOwnerHasNoWallet(ctx context.Context, st *database.Store, op string, owner Owner) error {
	switch owner.Type {
	case model.WalletTypeUser:
		has, err := st.UserHasWallet(ctx, owner.UserID)
		if err != nil {
			return err
		}
		if has {
			return apperr.New(apperr.AlreadyExists, apperr.CodeWalletExists, op, "user %s already has a wallet", owner.UserID)
		}
	case model.WalletTypeOrg:
		org, err := st.GetOrganization(ctx, owner.EntityID)
		if err != nil {
			return err
		}
		if org.WalletID != nil {
			return apperr.New(apperr.AlreadyExists, apperr.CodeWalletExists, op, "organization %d already has a wallet", org.ID)
		}
	case model.WalletTypeProject:
		project, err := st.GetProject(ctx, owner.EntityID)
		if err != nil {
			return err
		}
		if project.WalletID != nil {
			return apperr.New(apperr.AlreadyExists, apperr.CodeWalletExists, op, "project %d already has a wallet", project.ID)
		}
	}
	return nil
}

func (s *WalletService) linkOwner(ctx context.Context, st *database.Store, op string, owner Owner, walletID int64) error {
	var (
		linked bool
		err    error
	)
	switch owner.Type {
	case model.WalletTypeUser:
		return st.LinkUserWallet(ctx, owner.UserID, walletID)
	case model.WalletTypeOrg:
		linked, err = st.SetOrganizationWallet(ctx, owner.EntityID, walletID)
	case model.WalletTypeProject:
		linked, err = st.SetProjectWallet(ctx, owner.EntityID, walletID)
	}
	if err != nil {
		return err
	}
	if !linked {
		return apperr.New(apperr.AlreadyExists, apperr.CodeWalletExists, op, "%s already has a wallet", owner)
	}
	return nil
}

func (s *WalletService) CreateUserWallet(ctx context.Context, user uuid.UUID, publicKey string) (*model.Wallet, error) {
	return s.CreateWallet(ctx, UserOwner(user), publicKey)
}

func (s *WalletService) GetUserWallet(ctx context.Context, user uuid.UUID) (*model.UserWallet, error) {
	return s.db.GetUserWallet(ctx, user)
}

// GetWalletBalance reads the live ledger balance of an activated wallet.
func (s *WalletService) GetWalletBalance(ctx context.Context, wallet model.Wallet) (int64, error) {
	if !wallet.Activated() {
		return 0, apperr.New(apperr.NotActivated, apperr.CodeWalletNotActivated, "wallet.GetWalletBalance",
			"wallet %d is not activated", wallet.ID)
	}
	return s.ledger.GetBalance(ctx, *wallet.Hash)
}

// GenerateActivationTransaction builds the transaction registering the
// wallet on the ledger. Activated wallets are rejected.
func (s *WalletService) GenerateActivationTransaction(ctx context.Context, walletID int64, user uuid.UUID) (*model.TransactionDataAndInfo, error) {
	const op = "wallet.GenerateActivationTransaction"
	wallet, err := s.db.GetWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if wallet.Activated() {
		return nil, apperr.New(apperr.AlreadyExists, apperr.CodeWalletActivated, op, "wallet %d is already activated", walletID)
	}

	data, err := s.ledger.AddWallet(ctx, wallet.ActivationData)
	if err != nil {
		return nil, err
	}
	info, err := s.txInfo.ActivateWallet(ctx, wallet.Type, wallet.ID, user)
	if err != nil {
		return nil, err
	}
	return &model.TransactionDataAndInfo{Data: data, Info: *info}, nil
}

// ConfirmActivation posts the signed activation and stores the resulting
// hash. Of two concurrent confirmations exactly one succeeds.
func (s *WalletService) ConfirmActivation(ctx context.Context, walletID int64, signed string) (*model.Wallet, error) {
	const op = "wallet.ConfirmActivation"
	wallet, err := s.db.GetWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if wallet.Activated() {
		return nil, apperr.New(apperr.AlreadyExists, apperr.CodeWalletActivated, op, "wallet %d is already activated", walletID)
	}

	hash, err := s.poster.Post(ctx, scope(PostActivateWallet, walletID), signed)
	if err != nil {
		return nil, err
	}
	ok, err := s.db.ActivateWallet(ctx, walletID, hash, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.New(apperr.AlreadyExists, apperr.CodeWalletActivated, op, "wallet %d is already activated", walletID)
	}

	s.log.WithFields(map[string]interface{}{"wallet": walletID, "hash": hash}).Info("wallet activated")
	metrics.RecordTransition("wallet", "activate")
	return s.db.GetWallet(ctx, walletID)
}

func (s *WalletService) GenerateOrganizationWalletTransaction(ctx context.Context, orgID int64, user uuid.UUID) (*model.TransactionDataAndInfo, error) {
	const op = "wallet.GenerateOrganizationWalletTransaction"
	org, err := s.db.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org.WalletID != nil {
		return nil, apperr.New(apperr.AlreadyExists, apperr.CodeWalletExists, op, "organization %d already has a wallet", orgID)
	}
	_, userHash, err := activatedUserWallet(ctx, s.db, op, user)
	if err != nil {
		return nil, err
	}

	data, err := s.ledger.CreateOrganizationTx(ctx, userHash)
	if err != nil {
		return nil, err
	}
	info, err := s.txInfo.CreateOrg(ctx, *org, user)
	if err != nil {
		return nil, err
	}
	return &model.TransactionDataAndInfo{Data: data, Info: *info}, nil
}

// CreateOrganizationWallet posts the signed transaction and creates the
// organization wallet keyed by the resulting hash. The wallet stays
// unactivated until a cooperative activates it.
func (s *WalletService) CreateOrganizationWallet(ctx context.Context, orgID int64, signed string) (*model.Wallet, error) {
	const op = "wallet.CreateOrganizationWallet"
	org, err := s.db.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org.WalletID != nil {
		return nil, apperr.New(apperr.AlreadyExists, apperr.CodeWalletExists, op, "organization %d already has a wallet", orgID)
	}

	hash, err := s.poster.Post(ctx, scope(PostCreateOrgWallet, orgID), signed)
	if err != nil {
		return nil, err
	}
	return s.CreateWallet(ctx, OrganizationOwner(orgID), hash)
}

func (s *WalletService) GenerateProjectWalletTransaction(ctx context.Context, projectID int64, user uuid.UUID) (*model.TransactionDataAndInfo, error) {
	const op = "wallet.GenerateProjectWalletTransaction"
	project, err := s.db.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.WalletID != nil {
		return nil, apperr.New(apperr.AlreadyExists, apperr.CodeWalletExists, op, "project %d already has a wallet", projectID)
	}
	_, userHash, err := activatedUserWallet(ctx, s.db, op, user)
	if err != nil {
		return nil, err
	}
	org, err := s.db.GetOrganization(ctx, project.OrganizationID)
	if err != nil {
		return nil, err
	}
	_, orgHash, err := activatedWallet(ctx, s.db, op, org.WalletID, fmt.Sprintf("organization %d", org.ID))
	if err != nil {
		return nil, err
	}

	data, err := s.ledger.CreateProjectTx(ctx, model.ProjectTxRequest{
		UserWalletHash:    userHash,
		OrganizationHash:  orgHash,
		MinPerUser:        project.MinPerUser,
		MaxPerUser:        project.MaxPerUser,
		InvestmentCap:     project.ExpectedFunding,
		EndTimeEpochMilli: project.EndDate.UnixMilli(),
	})
	if err != nil {
		return nil, err
	}
	info, err := s.txInfo.CreateProject(ctx, *project, user)
	if err != nil {
		return nil, err
	}
	return &model.TransactionDataAndInfo{Data: data, Info: *info}, nil
}

// CreateProjectWallet posts the signed transaction and creates the
// project wallet keyed by the resulting hash.
func (s *WalletService) CreateProjectWallet(ctx context.Context, projectID int64, signed string) (*model.Wallet, error) {
	const op = "wallet.CreateProjectWallet"
	project, err := s.db.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.WalletID != nil {
		return nil, apperr.New(apperr.AlreadyExists, apperr.CodeWalletExists, op, "project %d already has a wallet", projectID)
	}

	hash, err := s.poster.Post(ctx, scope(PostCreateProjectWallet, projectID), signed)
	if err != nil {
		return nil, err
	}
	return s.CreateWallet(ctx, ProjectOwner(projectID), hash)
}

// GeneratePairCode replaces any code issued for publicKey with a fresh one.
// A code already held by another key is redrawn; a concurrent request that
// wins the key first leaves this one with AlreadyExists.
func (s *WalletService) GeneratePairCode(ctx context.Context, publicKey string) (*model.PairWalletCode, error) {
	const op = "wallet.GeneratePairCode"
	var issued *model.PairWalletCode
	err := s.db.WithTx(ctx, func(st *database.Store) error {
		if err := st.DeletePairCodeByPublicKey(ctx, publicKey); err != nil {
			return err
		}
		for attempt := 0; attempt < pairCodeAttempts; attempt++ {
			code, err := s.newPairCode()
			if err != nil {
				return apperr.Wrap(apperr.Internal, apperr.CodePairCode, op, err)
			}
			pc := &model.PairWalletCode{PublicKey: publicKey, Code: code, CreatedAt: s.now()}
			ok, err := st.InsertPairCode(ctx, pc)
			if err != nil {
				return err
			}
			if ok {
				issued = pc
				return nil
			}
			s.log.WithField("attempt", attempt+1).Debug("pair code collision, retrying")
		}
		return apperr.New(apperr.Internal, apperr.CodePairCode, op, "could not issue a unique pair code")
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

// ResolvePairCode returns nil when the code is unknown.
func (s *WalletService) ResolvePairCode(ctx context.Context, code string) (*model.PairWalletCode, error) {
	return s.db.GetPairCode(ctx, code)
}

// PurgeExpiredPairCodes removes codes older than ttl.
func (s *WalletService) PurgeExpiredPairCodes(ctx context.Context, ttl time.Duration) (int64, error) {
	n, err := s.db.DeletePairCodesBefore(ctx, s.now().Add(-ttl))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.WithField("count", n).Info("expired pair codes removed")
	}
	return n, nil
}

func (s *WalletService) ListUnactivatedUserWallets(ctx context.Context) ([]model.UserWallet, error) {
	return s.db.ListUnactivatedUserWallets(ctx)
}

func (s *WalletService) ListUnactivatedOrganizations(ctx context.Context) ([]model.OrganizationWithWallet, error) {
	return s.db.ListUnactivatedOrganizations(ctx)
}

func (s *WalletService) ListUnactivatedProjects(ctx context.Context) ([]model.ProjectWithWallet, error) {
	return s.db.ListUnactivatedProjects(ctx)
}

func randomPairCode() (string, error) {
	max := big.NewInt(int64(len(pairCodeAlphabet)))
	buf := make([]byte, pairCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = pairCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
