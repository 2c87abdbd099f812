package database

import (
	"context"
	"time"

	"crowdfund/internal/apperr"
	"crowdfund/internal/model"
)

func (s *Store) InsertDocument(ctx context.Context, d *model.Document) error {
	id, err := s.insert(ctx,
		`INSERT INTO documents (link, name, type, size, created_by, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		d.Link, d.Name, d.Type, d.Size, d.CreatedBy, d.CreatedAt.UTC())
	if err != nil {
		return internal("database.InsertDocument", err)
	}
	d.ID = id
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id int64) (*model.Document, error) {
	var d model.Document
	if err := s.get(ctx, &d, `SELECT id, link, name, type, size, created_by, created_at FROM documents WHERE id = ?`, id); err != nil {
		return nil, notFound("database.GetDocument", apperr.CodeStorage, err)
	}
	return &d, nil
}

func (s *Store) InsertTransactionInfo(ctx context.Context, info *model.TransactionInfo) error {
	id, err := s.insert(ctx,
		`INSERT INTO transaction_infos (type, title, description, user_id, companion_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		info.Type, info.Title, info.Description, info.UserID, info.CompanionID, info.CreatedAt.UTC())
	if err != nil {
		return internal("database.InsertTransactionInfo", err)
	}
	info.ID = id
	return nil
}

func (s *Store) GetTransactionInfo(ctx context.Context, id int64) (*model.TransactionInfo, error) {
	var info model.TransactionInfo
	err := s.get(ctx, &info,
		`SELECT id, type, title, description, user_id, companion_id, created_at FROM transaction_infos WHERE id = ?`, id)
	if err != nil {
		return nil, notFound("database.GetTransactionInfo", apperr.CodeTxInfoMissing, err)
	}
	return &info, nil
}

func (s *Store) DeleteTransactionInfo(ctx context.Context, id int64) error {
	if _, err := s.exec(ctx, `DELETE FROM transaction_infos WHERE id = ?`, id); err != nil {
		return internal("database.DeleteTransactionInfo", err)
	}
	return nil
}

func (s *Store) DeletePairCodeByPublicKey(ctx context.Context, publicKey string) error {
	if _, err := s.exec(ctx, `DELETE FROM pair_wallet_codes WHERE public_key = ?`, publicKey); err != nil {
		return internal("database.DeletePairCodeByPublicKey", err)
	}
	return nil
}

// InsertPairCode stores pc unless its code or public key is taken. A taken
// code reports false so the caller can draw another; a taken public key is
// AlreadyExists.
func (s *Store) InsertPairCode(ctx context.Context, pc *model.PairWalletCode) (bool, error) {
	const op = "database.InsertPairCode"
	var ids []int64
	err := s.list(ctx, &ids,
		`INSERT INTO pair_wallet_codes (public_key, code, created_at) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING RETURNING id`,
		pc.PublicKey, pc.Code, pc.CreatedAt.UTC())
	if err != nil {
		return false, internal(op, err)
	}
	if len(ids) == 1 {
		pc.ID = ids[0]
		return true, nil
	}

	var held int
	if err := s.get(ctx, &held, `SELECT COUNT(*) FROM pair_wallet_codes WHERE public_key = ?`, pc.PublicKey); err != nil {
		return false, internal(op, err)
	}
	if held > 0 {
		return false, apperr.New(apperr.AlreadyExists, apperr.CodePairCode, op, "public key already holds a pair code")
	}
	return false, nil
}

// GetPairCode returns nil when the code is unknown.
func (s *Store) GetPairCode(ctx context.Context, code string) (*model.PairWalletCode, error) {
	var pcs []model.PairWalletCode
	if err := s.list(ctx, &pcs, `SELECT id, public_key, code, created_at FROM pair_wallet_codes WHERE code = ?`, code); err != nil {
		return nil, internal("database.GetPairCode", err)
	}
	if len(pcs) == 0 {
		return nil, nil
	}
	return &pcs[0], nil
}

func (s *Store) DeletePairCodesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.exec(ctx, `DELETE FROM pair_wallet_codes WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, internal("database.DeletePairCodesBefore", err)
	}
	return n, nil
}

// GetPostedTransaction returns nil when the digest has not been journaled.
func (s *Store) GetPostedTransaction(ctx context.Context, digest string) (*model.PostedTransaction, error) {
	var pts []model.PostedTransaction
	if err := s.list(ctx, &pts, `SELECT digest, action, entity_id, tx_hash, posted_at FROM posted_transactions WHERE digest = ?`, digest); err != nil {
		return nil, internal("database.GetPostedTransaction", err)
	}
	if len(pts) == 0 {
		return nil, nil
	}
	return &pts[0], nil
}

// InsertPostedTransaction journals a posted blob. A concurrent insert of the
// same digest is not an error.
func (s *Store) InsertPostedTransaction(ctx context.Context, pt *model.PostedTransaction) error {
	_, err := s.exec(ctx,
		`INSERT INTO posted_transactions (digest, action, entity_id, tx_hash, posted_at) VALUES (?, ?, ?, ?, ?)`,
		pt.Digest, pt.Action, pt.EntityID, pt.TxHash, pt.PostedAt.UTC())
	if err != nil && !isUniqueViolation(err) {
		return internal("database.InsertPostedTransaction", err)
	}
	return nil
}
