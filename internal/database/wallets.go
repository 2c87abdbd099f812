package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"crowdfund/internal/apperr"
	"crowdfund/internal/model"
)

const walletColumns = "w.id, w.activation_data, w.type, w.currency, w.created_at, w.hash, w.activated_at"

type userWalletRow struct {
	UserID uuid.UUID `db:"user_id"`
	model.Wallet
}

// InsertWallet stores a new, unactivated wallet. A duplicate activation
// data value yields AlreadyExists.
func (s *Store) InsertWallet(ctx context.Context, w *model.Wallet) error {
	id, err := s.insert(ctx,
		`INSERT INTO wallets (activation_data, type, currency, created_at) VALUES (?, ?, ?, ?)`,
		w.ActivationData, w.Type, w.Currency, w.CreatedAt.UTC())
	if err != nil {
		return classify("database.InsertWallet", apperr.CodeWalletExists, err)
	}
	w.ID = id
	return nil
}

func (s *Store) GetWallet(ctx context.Context, id int64) (*model.Wallet, error) {
	var w model.Wallet
	if err := s.get(ctx, &w, `SELECT `+walletColumns+` FROM wallets w WHERE w.id = ?`, id); err != nil {
		return nil, notFound("database.GetWallet", apperr.CodeWalletMissing, err)
	}
	return &w, nil
}

func (s *Store) GetWalletByHash(ctx context.Context, hash string) (*model.Wallet, error) {
	var w model.Wallet
	if err := s.get(ctx, &w, `SELECT `+walletColumns+` FROM wallets w WHERE w.hash = ?`, hash); err != nil {
		return nil, notFound("database.GetWalletByHash", apperr.CodeWalletMissing, err)
	}
	return &w, nil
}

func (s *Store) WalletActivationDataExists(ctx context.Context, activationData string) (bool, error) {
	var n int
	if err := s.get(ctx, &n, `SELECT COUNT(*) FROM wallets WHERE activation_data = ?`, activationData); err != nil {
		return false, internal("database.WalletActivationDataExists", err)
	}
	return n > 0, nil
}

// ActivateWallet sets hash and activation time in one statement, only when
// the wallet has not been activated yet. It reports whether a row changed.
func (s *Store) ActivateWallet(ctx context.Context, id int64, hash string, at time.Time) (bool, error) {
	n, err := s.exec(ctx,
		`UPDATE wallets SET hash = ?, activated_at = ? WHERE id = ? AND hash IS NULL`,
		hash, at.UTC(), id)
	if err != nil {
		return false, classify("database.ActivateWallet", apperr.CodeWalletHashExists, err)
	}
	return n == 1, nil
}

func (s *Store) LinkUserWallet(ctx context.Context, userID uuid.UUID, walletID int64) error {
	_, err := s.insert(ctx, `INSERT INTO user_wallets (user_id, wallet_id) VALUES (?, ?)`, userID, walletID)
	return classify("database.LinkUserWallet", apperr.CodeWalletExists, err)
}

// GetUserWallet returns NotFound when the user has no wallet.
func (s *Store) GetUserWallet(ctx context.Context, userID uuid.UUID) (*model.UserWallet, error) {
	var row userWalletRow
	err := s.get(ctx, &row,
		`SELECT uw.user_id, `+walletColumns+` FROM user_wallets uw JOIN wallets w ON w.id = uw.wallet_id WHERE uw.user_id = ?`,
		userID)
	if err != nil {
		return nil, notFound("database.GetUserWallet", apperr.CodeWalletMissing, err)
	}
	return &model.UserWallet{UserID: row.UserID, Wallet: row.Wallet}, nil
}

func (s *Store) UserHasWallet(ctx context.Context, userID uuid.UUID) (bool, error) {
	var n int
	if err := s.get(ctx, &n, `SELECT COUNT(*) FROM user_wallets WHERE user_id = ?`, userID); err != nil {
		return false, internal("database.UserHasWallet", err)
	}
	return n > 0, nil
}

func (s *Store) ListUnactivatedUserWallets(ctx context.Context) ([]model.UserWallet, error) {
	var rows []userWalletRow
	err := s.list(ctx, &rows,
		`SELECT uw.user_id, `+walletColumns+` FROM user_wallets uw JOIN wallets w ON w.id = uw.wallet_id
		WHERE w.hash IS NULL ORDER BY w.created_at`)
	if err != nil {
		return nil, internal("database.ListUnactivatedUserWallets", err)
	}
	out := make([]model.UserWallet, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.UserWallet{UserID: r.UserID, Wallet: r.Wallet})
	}
	return out, nil
}

// SetOrganizationWallet links a wallet to an organization that has none.
func (s *Store) SetOrganizationWallet(ctx context.Context, orgID, walletID int64) (bool, error) {
	n, err := s.exec(ctx, `UPDATE organizations SET wallet_id = ? WHERE id = ? AND wallet_id IS NULL`, walletID, orgID)
	if err != nil {
		return false, classify("database.SetOrganizationWallet", apperr.CodeWalletExists, err)
	}
	return n == 1, nil
}

// SetProjectWallet links a wallet to a project that has none.
func (s *Store) SetProjectWallet(ctx context.Context, projectID, walletID int64) (bool, error) {
	n, err := s.exec(ctx, `UPDATE projects SET wallet_id = ? WHERE id = ? AND wallet_id IS NULL`, walletID, projectID)
	if err != nil {
		return false, classify("database.SetProjectWallet", apperr.CodeWalletExists, err)
	}
	return n == 1, nil
}
