package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"crowdfund/internal/apperr"
	"crowdfund/internal/model"
)

const withdrawColumns = `id, user_id, amount, created_at, bank_account, approved_tx_hash, approved_at,
	burned_tx_hash, burned_at, burned_by, document_id`

// InsertWithdraw stores a new request. The partial unique index on open
// withdraws turns a second open request for the same user into Conflict.
func (s *Store) InsertWithdraw(ctx context.Context, w *model.Withdraw) error {
	id, err := s.insert(ctx,
		`INSERT INTO withdraws (user_id, amount, created_at, bank_account) VALUES (?, ?, ?, ?)`,
		w.UserID, w.Amount, w.CreatedAt.UTC(), w.BankAccount)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.Conflict, apperr.CodeWithdrawExists, "database.InsertWithdraw", err)
		}
		return internal("database.InsertWithdraw", err)
	}
	w.ID = id
	return nil
}

func (s *Store) GetWithdraw(ctx context.Context, id int64) (*model.Withdraw, error) {
	var w model.Withdraw
	if err := s.get(ctx, &w, `SELECT `+withdrawColumns+` FROM withdraws WHERE id = ?`, id); err != nil {
		return nil, notFound("database.GetWithdraw", apperr.CodeWithdrawMissing, err)
	}
	return &w, nil
}

// GetOpenWithdraw returns the user's unburned withdraw, or nil when none exists.
func (s *Store) GetOpenWithdraw(ctx context.Context, userID uuid.UUID) (*model.Withdraw, error) {
	var ws []model.Withdraw
	if err := s.list(ctx, &ws, `SELECT `+withdrawColumns+` FROM withdraws WHERE user_id = ? AND burned_tx_hash IS NULL`, userID); err != nil {
		return nil, internal("database.GetOpenWithdraw", err)
	}
	if len(ws) == 0 {
		return nil, nil
	}
	return &ws[0], nil
}

func (s *Store) ListWithdrawsForUser(ctx context.Context, userID uuid.UUID) ([]model.Withdraw, error) {
	ws := []model.Withdraw{}
	if err := s.list(ctx, &ws, `SELECT `+withdrawColumns+` FROM withdraws WHERE user_id = ? ORDER BY id`, userID); err != nil {
		return nil, internal("database.ListWithdrawsForUser", err)
	}
	return ws, nil
}

// ListApprovedWithdraws returns approved withdraws waiting for the burn.
func (s *Store) ListApprovedWithdraws(ctx context.Context) ([]model.Withdraw, error) {
	ws := []model.Withdraw{}
	err := s.list(ctx, &ws,
		`SELECT `+withdrawColumns+` FROM withdraws WHERE approved_tx_hash IS NOT NULL AND burned_tx_hash IS NULL ORDER BY id`)
	if err != nil {
		return nil, internal("database.ListApprovedWithdraws", err)
	}
	return ws, nil
}

func (s *Store) ListBurnedWithdraws(ctx context.Context) ([]model.Withdraw, error) {
	ws := []model.Withdraw{}
	if err := s.list(ctx, &ws, `SELECT `+withdrawColumns+` FROM withdraws WHERE burned_tx_hash IS NOT NULL ORDER BY id`); err != nil {
		return nil, internal("database.ListBurnedWithdraws", err)
	}
	return ws, nil
}

// ApproveWithdraw records the approval hash unless already approved.
func (s *Store) ApproveWithdraw(ctx context.Context, id int64, txHash string, at time.Time) (bool, error) {
	n, err := s.exec(ctx,
		`UPDATE withdraws SET approved_tx_hash = ?, approved_at = ? WHERE id = ? AND approved_tx_hash IS NULL`,
		txHash, at.UTC(), id)
	if err != nil {
		return false, hashTaken("database.ApproveWithdraw", apperr.CodeWithdrawApproved, err)
	}
	return n == 1, nil
}

// SetWithdrawBurnedBy records the operator generating the burn; only approved,
// unburned withdraws qualify.
func (s *Store) SetWithdrawBurnedBy(ctx context.Context, id int64, operator uuid.UUID) (bool, error) {
	n, err := s.exec(ctx,
		`UPDATE withdraws SET burned_by = ? WHERE id = ? AND approved_tx_hash IS NOT NULL AND burned_tx_hash IS NULL`,
		operator, id)
	if err != nil {
		return false, internal("database.SetWithdrawBurnedBy", err)
	}
	return n == 1, nil
}

func (s *Store) BurnWithdraw(ctx context.Context, id int64, txHash string, at time.Time) (bool, error) {
	n, err := s.exec(ctx,
		`UPDATE withdraws SET burned_tx_hash = ?, burned_at = ?
		WHERE id = ? AND approved_tx_hash IS NOT NULL AND burned_tx_hash IS NULL`,
		txHash, at.UTC(), id)
	if err != nil {
		return false, hashTaken("database.BurnWithdraw", apperr.CodeWithdrawNotApproved, err)
	}
	return n == 1, nil
}

// DeleteOpenWithdraw removes a withdraw that has not been burned.
func (s *Store) DeleteOpenWithdraw(ctx context.Context, id int64) (bool, error) {
	n, err := s.exec(ctx, `DELETE FROM withdraws WHERE id = ? AND burned_tx_hash IS NULL`, id)
	if err != nil {
		return false, internal("database.DeleteOpenWithdraw", err)
	}
	return n == 1, nil
}

func (s *Store) SetWithdrawDocument(ctx context.Context, id, documentID int64) error {
	n, err := s.exec(ctx, `UPDATE withdraws SET document_id = ? WHERE id = ?`, documentID, id)
	if err != nil {
		return internal("database.SetWithdrawDocument", err)
	}
	if n == 0 {
		return apperr.New(apperr.NotFound, apperr.CodeWithdrawMissing, "database.SetWithdrawDocument", "missing withdraw: %d", id)
	}
	return nil
}
