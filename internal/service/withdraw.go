package service

import (
	"context"

	"github.com/google/uuid"

	"crowdfund/internal/apperr"
	"crowdfund/internal/database"
	"crowdfund/internal/logger"
	"crowdfund/internal/metrics"
	"crowdfund/internal/model"
	"crowdfund/internal/notify"
	"crowdfund/internal/storage"
)

// WithdrawService drives a withdraw from request to burn.
type WithdrawService struct {
	db       *database.Database
	ledger   Ledger
	poster   *Poster
	txInfo   *TxInfoService
	notifier notify.Notifier
	docs     storage.DocumentStorage
	log      *logger.Logger
	now      Clock
}

// NewWithdrawService returns a WithdrawService backed by db and the ledger.
func NewWithdrawService(
	db *database.Database,
	l Ledger,
	poster *Poster,
	txInfo *TxInfoService,
	notifier notify.Notifier,
	docs storage.DocumentStorage,
	log *logger.Logger,
) *WithdrawService {
	return &WithdrawService{
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

func (s *WithdrawService) Create(ctx context.Context, user uuid.UUID, amount int64, bankAccount string) (*model.Withdraw, error) {
	const op = "withdraw.Create"
	if amount <= 0 {
		return nil, apperr.New(apperr.ValidationFailed, apperr.CodeRequest, op, "amount must be positive")
	}
	open, err := s.db.GetOpenWithdraw(ctx, user)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, apperr.New(apperr.Conflict, apperr.CodeWithdrawExists, op,
			"user %s already has an open withdraw %d", user, open.ID)
	}

	_, hash, err := activatedUserWallet(ctx, s.db, op, user)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledger.GetBalance(ctx, hash)
	if err != nil {
		return nil, err
	}
	if balance < amount {
		return nil, apperr.New(apperr.InsufficientFunds, apperr.CodeWalletFunds, op,
			"wallet balance %d is below withdraw amount %d", balance, amount)
	}

	w := &model.Withdraw{UserID: user, Amount: amount, BankAccount: bankAccount, CreatedAt: s.now()}
	if err := s.db.InsertWithdraw(ctx, w); err != nil {
		return nil, err
	}
	s.log.WithFields(map[string]interface{}{"withdraw": w.ID, "user": user}).Info("withdraw created")
	metrics.RecordTransition("withdraw", "create")

	if err := s.notifier.WithdrawRequested(ctx, *w); err != nil {
		s.log.WithError(err).WithField("withdraw", w.ID).Warn("failed to send withdraw request notification")
	}
	return w, nil
}

// Delete removes a withdraw that has not been burned.
func (s *WithdrawService) Delete(ctx context.Context, id int64) error {
	const op = "withdraw.Delete"
	w, err := s.db.GetWithdraw(ctx, id)
	if err != nil {
		return err
	}
	if w.Burned() {
		return apperr.New(apperr.InvalidState, apperr.CodeWithdrawBurned, op, "withdraw %d is already burned", id)
	}
	deleted, err := s.db.DeleteOpenWithdraw(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		// burned or removed between the read and the delete
		return apperr.New(apperr.InvalidState, apperr.CodeWithdrawBurned, op, "withdraw %d can no longer be deleted", id)
	}
	s.log.WithField("withdraw", id).Info("withdraw deleted")
	metrics.RecordTransition("withdraw", "delete")

	if err := s.notifier.WithdrawDeleted(ctx, *w); err != nil {
		s.log.WithError(err).WithField("withdraw", id).Warn("failed to send withdraw deleted notification")
	}
	return nil
}

func (s *WithdrawService) GenerateApproval(ctx context.Context, id int64, user uuid.UUID) (*model.TransactionDataAndInfo, error) {
	const op = "withdraw.GenerateApproval"
	w, err := s.db.GetWithdraw(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.UserID != user {
		return nil, apperr.New(apperr.Forbidden, apperr.CodeWithdrawOwner, op, "withdraw %d belongs to another user", id)
	}
	if w.Approved() {
		return nil, apperr.New(apperr.InvalidState, apperr.CodeWithdrawApproved, op, "withdraw %d is already approved", id)
	}
	_, hash, err := activatedUserWallet(ctx, s.db, op, user)
	if err != nil {
		return nil, err
	}

	data, err := s.ledger.ApproveBurnTx(ctx, hash, w.Amount)
	if err != nil {
		return nil, err
	}
	info, err := s.txInfo.BurnApproval(ctx, *w, user)
	if err != nil {
		return nil, err
	}
	return &model.TransactionDataAndInfo{Data: data, Info: *info}, nil
}

// ConfirmApproval posts the signed approval and records its hash.
func (s *WithdrawService) ConfirmApproval(ctx context.Context, id int64, signed string) (*model.Withdraw, error) {
	const op = "withdraw.ConfirmApproval"
	w, err := s.db.GetWithdraw(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Approved() {
		return nil, apperr.New(apperr.InvalidState, apperr.CodeWithdrawApproved, op, "withdraw %d is already approved", id)
	}

	hash, err := s.poster.Post(ctx, scope(PostApproveWithdraw, id), signed)
	if err != nil {
		return nil, err
	}
	ok, err := s.db.ApproveWithdraw(ctx, id, hash, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.New(apperr.InvalidState, apperr.CodeWithdrawApproved, op, "withdraw %d is already approved", id)
	}
	s.log.WithFields(map[string]interface{}{"withdraw": id, "hash": hash}).Info("withdraw approved")
	metrics.RecordTransition("withdraw", "approve")
	return s.db.GetWithdraw(ctx, id)
}

// GenerateBurn builds the burn transaction. The operator is stored as
// BurnedBy right away, before the burn is confirmed.
func (s *WithdrawService) GenerateBurn(ctx context.Context, id int64, operator uuid.UUID) (*model.TransactionDataAndInfo, error) {
	const op = "withdraw.GenerateBurn"
	w, err := s.db.GetWithdraw(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkBurnable(op, w); err != nil {
		return nil, err
	}
	_, hash, err := activatedUserWallet(ctx, s.db, op, w.UserID)
	if err != nil {
		return nil, err
	}

	data, err := s.ledger.BurnFromTx(ctx, hash)
	if err != nil {
		return nil, err
	}
	var info *model.TransactionInfo
	err = s.db.WithTx(ctx, func(st *database.Store) error {
		ok, err := st.SetWithdrawBurnedBy(ctx, id, operator)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.InvalidState, apperr.CodeWithdrawBurned, op, "withdraw %d changed state", id)
		}
		info, err = s.txInfo.Within(st).Burn(ctx, *w, operator)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &model.TransactionDataAndInfo{Data: data, Info: *info}, nil
}

// ConfirmBurn posts the signed burn and settles the withdraw with its hash.
func (s *WithdrawService) ConfirmBurn(ctx context.Context, id int64, signed string) (*model.Withdraw, error) {
	const op = "withdraw.ConfirmBurn"
	w, err := s.db.GetWithdraw(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkBurnable(op, w); err != nil {
		return nil, err
	}

	hash, err := s.poster.Post(ctx, scope(PostBurnWithdraw, id), signed)
	if err != nil {
		return nil, err
	}
	ok, err := s.db.BurnWithdraw(ctx, id, hash, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.New(apperr.InvalidState, apperr.CodeWithdrawBurned, op, "withdraw %d is already burned", id)
	}
	s.log.WithFields(map[string]interface{}{"withdraw": id, "hash": hash}).Info("withdraw burned")
	metrics.RecordTransition("withdraw", "burn")

	burned, err := s.db.GetWithdraw(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.WithdrawCompleted(ctx, *burned); err != nil {
		s.log.WithError(err).WithField("withdraw", id).Warn("failed to send withdraw completed notification")
	}
	return burned, nil
}

func checkBurnable(op string, w *model.Withdraw) error {
	if !w.Approved() {
		return apperr.New(apperr.InvalidState, apperr.CodeWithdrawNotApproved, op, "withdraw %d is not approved", w.ID)
	}
	if w.Burned() {
		return apperr.New(apperr.InvalidState, apperr.CodeWithdrawBurned, op, "withdraw %d is already burned", w.ID)
	}
	return nil
}

// AttachDocument stores the file and links it to the withdraw in any state.
func (s *WithdrawService) AttachDocument(ctx context.Context, id int64, req model.DocumentSaveRequest) (*model.Withdraw, error) {
	if _, err := s.db.GetWithdraw(ctx, id); err != nil {
		return nil, err
	}
	doc, err := saveDocument(ctx, s.db, s.docs, req, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.db.SetWithdrawDocument(ctx, id, doc.ID); err != nil {
		return nil, err
	}
	return s.db.GetWithdraw(ctx, id)
}

func (s *WithdrawService) Get(ctx context.Context, id int64) (*model.Withdraw, error) {
	return s.db.GetWithdraw(ctx, id)
}

// GetPendingForUser returns the user's open withdraw or nil.
func (s *WithdrawService) GetPendingForUser(ctx context.Context, user uuid.UUID) (*model.Withdraw, error) {
	return s.db.GetOpenWithdraw(ctx, user)
}

func (s *WithdrawService) ListForUser(ctx context.Context, user uuid.UUID) ([]model.Withdraw, error) {
	return s.db.ListWithdrawsForUser(ctx, user)
}

func (s *WithdrawService) ListApproved(ctx context.Context) ([]model.Withdraw, error) {
	return s.db.ListApprovedWithdraws(ctx)
}

func (s *WithdrawService) ListBurned(ctx context.Context) ([]model.Withdraw, error) {
	return s.db.ListBurnedWithdraws(ctx)
}
