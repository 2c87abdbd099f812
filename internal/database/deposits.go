package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"crowdfund/internal/apperr"
	"crowdfund/internal/model"
)

const depositColumns = "id, user_id, amount, reference, created_at, approved_by, minted_tx_hash, minted_at, document_id"

func (s *Store) InsertDeposit(ctx context.Context, d *model.Deposit) error {
	id, err := s.insert(ctx,
		`INSERT INTO deposits (user_id, amount, reference, created_at) VALUES (?, ?, ?, ?)`,
		d.UserID, d.Amount, d.Reference, d.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.Conflict, apperr.CodeDepositExists, "database.InsertDeposit", err)
		}
		return internal("database.InsertDeposit", err)
	}
	d.ID = id
	return nil
}

func (s *Store) GetDeposit(ctx context.Context, id int64) (*model.Deposit, error) {
	var d model.Deposit
	if err := s.get(ctx, &d, `SELECT `+depositColumns+` FROM deposits WHERE id = ?`, id); err != nil {
		return nil, notFound("database.GetDeposit", apperr.CodeDepositMissing, err)
	}
	return &d, nil
}

// GetOpenDeposit returns the user's unminted deposit, or nil.
func (s *Store) GetOpenDeposit(ctx context.Context, userID uuid.UUID) (*model.Deposit, error) {
	var ds []model.Deposit
	if err := s.list(ctx, &ds, `SELECT `+depositColumns+` FROM deposits WHERE user_id = ? AND minted_tx_hash IS NULL`, userID); err != nil {
		return nil, internal("database.GetOpenDeposit", err)
	}
	if len(ds) == 0 {
		return nil, nil
	}
	return &ds[0], nil
}

func (s *Store) ListUnmintedDeposits(ctx context.Context) ([]model.Deposit, error) {
	ds := []model.Deposit{}
	if err := s.list(ctx, &ds, `SELECT `+depositColumns+` FROM deposits WHERE minted_tx_hash IS NULL ORDER BY id`); err != nil {
		return nil, internal("database.ListUnmintedDeposits", err)
	}
	return ds, nil
}

func (s *Store) SetDepositApprovedBy(ctx context.Context, id int64, operator uuid.UUID) (bool, error) {
	n, err := s.exec(ctx, `UPDATE deposits SET approved_by = ? WHERE id = ? AND minted_tx_hash IS NULL`, operator, id)
	if err != nil {
		return false, internal("database.SetDepositApprovedBy", err)
	}
	return n == 1, nil
}

func (s *Store) MintDeposit(ctx context.Context, id int64, txHash string, at time.Time) (bool, error) {
	n, err := s.exec(ctx,
		`UPDATE deposits SET minted_tx_hash = ?, minted_at = ? WHERE id = ? AND minted_tx_hash IS NULL`,
		txHash, at.UTC(), id)
	if err != nil {
		return false, hashTaken("database.MintDeposit", apperr.CodeDepositMinted, err)
	}
	return n == 1, nil
}

func (s *Store) DeleteUnmintedDeposit(ctx context.Context, id int64) (bool, error) {
	n, err := s.exec(ctx, `DELETE FROM deposits WHERE id = ? AND minted_tx_hash IS NULL`, id)
	if err != nil {
		return false, internal("database.DeleteUnmintedDeposit", err)
	}
	return n == 1, nil
}

func (s *Store) SetDepositDocument(ctx context.Context, id, documentID int64) error {
	n, err := s.exec(ctx, `UPDATE deposits SET document_id = ? WHERE id = ?`, documentID, id)
	if err != nil {
		return internal("database.SetDepositDocument", err)
	}
	if n == 0 {
		return apperr.New(apperr.NotFound, apperr.CodeDepositMissing, "database.SetDepositDocument", "missing deposit: %d", id)
	}
	return nil
}
