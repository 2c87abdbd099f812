package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"crowdfund/internal/apperr"
	"crowdfund/internal/database"
	"crowdfund/internal/logger"
	"crowdfund/internal/metrics"
	"crowdfund/internal/model"
)

// PostAction names the state change a signed transaction settles.
type PostAction string

const (
	PostActivateWallet      PostAction = "activate_wallet"
	PostCreateOrgWallet     PostAction = "create_org_wallet"
	PostCreateProjectWallet PostAction = "create_project_wallet"
	PostInvest              PostAction = "invest"
	PostApproveWithdraw     PostAction = "approve_withdraw"
	PostBurnWithdraw        PostAction = "burn_withdraw"
	PostMintDeposit         PostAction = "mint_deposit"
)

// PostScope binds a signed blob to one action on one entity.
// EntityID is zero for actions that settle no stored record.
type PostScope struct {
	Action   PostAction
	EntityID int64
}

func scope(action PostAction, entityID int64) PostScope {
	return PostScope{Action: action, EntityID: entityID}
}

// Poster submits signed transactions at most once per distinct blob.
// Re-posting the same blob for the same scope returns the journaled hash
// without a remote call. A blob journaled under another scope is rejected.
type Poster struct {
	db     *database.Database
	ledger Ledger
	log    *logger.Logger
	now    Clock
}

// NewPoster returns a Poster journaling into db.
func NewPoster(db *database.Database, l Ledger, log *logger.Logger) *Poster {
	return &Poster{db: db, ledger: l, log: log, now: systemClock}
}

func digest(signed string) string {
	sum := sha256.Sum256([]byte(signed))
	return hex.EncodeToString(sum[:])
}

// Post submits signed on behalf of sc and returns the ledger hash.
func (p *Poster) Post(ctx context.Context, sc PostScope, signed string) (string, error) {
	const op = "poster.Post"
	d := digest(signed)
	posted, err := p.db.GetPostedTransaction(ctx, d)
	if err != nil {
		return "", err
	}
	if posted != nil {
		if posted.Action != string(sc.Action) || posted.EntityID != sc.EntityID {
			p.log.WithFields(map[string]interface{}{
				"tx_hash":   posted.TxHash,
				"posted_as": posted.Action,
				"posted_id": posted.EntityID,
				"action":    sc.Action,
				"entity":    sc.EntityID,
			}).Warn("signed transaction replayed for another action")
			return "", apperr.New(apperr.InvalidState, apperr.CodeTxReplayed, op,
				"signed transaction was already posted as %s for %d", posted.Action, posted.EntityID)
		}
		p.log.WithField("tx_hash", posted.TxHash).Info("signed transaction already posted")
		metrics.RecordPostReplay()
		return posted.TxHash, nil
	}

	hash, err := p.ledger.PostTransaction(ctx, signed)
	if err != nil {
		return "", err
	}

	// the ledger accepted the blob; a journal failure must not hide the hash
	pt := &model.PostedTransaction{
		Digest:   d,
		Action:   string(sc.Action),
		EntityID: sc.EntityID,
		TxHash:   hash,
		PostedAt: p.now(),
	}
	if err := p.db.InsertPostedTransaction(ctx, pt); err != nil {
		p.log.WithError(err).WithField("tx_hash", hash).Warn("failed to journal posted transaction")
	}
	return hash, nil
}
