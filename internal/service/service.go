// Package service holds the lifecycle managers that pair every ledger
// transaction with its local record: wallets, investments, withdraws,
// deposits and the portfolio view.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"crowdfund/internal/apperr"
	"crowdfund/internal/database"
	"crowdfund/internal/model"
)

// Ledger is the remote transaction builder. *ledger.Client implements it.
type Ledger interface {
	GetBalance(ctx context.Context, hash string) (int64, error)
	AddWallet(ctx context.Context, activationData string) (model.TransactionData, error)
	CreateOrganizationTx(ctx context.Context, userHash string) (model.TransactionData, error)
	CreateProjectTx(ctx context.Context, req model.ProjectTxRequest) (model.TransactionData, error)
	PostTransaction(ctx context.Context, signed string) (string, error)
	InvestTx(ctx context.Context, userHash, projectHash string, amount int64) (model.TransactionData, error)
	MintTx(ctx context.Context, toHash string, amount int64) (model.TransactionData, error)
	BurnFromTx(ctx context.Context, hash string) (model.TransactionData, error)
	ApproveBurnTx(ctx context.Context, hash string, amount int64) (model.TransactionData, error)
	GetPortfolio(ctx context.Context, hash string) ([]model.PortfolioEntry, error)
	GetTransactions(ctx context.Context, hash string) ([]model.LedgerTransaction, error)
	GetInvestmentsInProject(ctx context.Context, userHash, projectHash string) ([]model.LedgerTransaction, error)
}

// Clock returns the current time; tests pin it.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// activatedUserWallet loads the user's wallet and requires a hash.
func activatedUserWallet(ctx context.Context, db *database.Database, op string, user uuid.UUID) (*model.UserWallet, string, error) {
	uw, err := db.GetUserWallet(ctx, user)
	if err != nil {
		return nil, "", err
	}
	if !uw.Wallet.Activated() {
		return nil, "", apperr.New(apperr.NotActivated, apperr.CodeWalletNotActivated, op,
			"user wallet is not activated: %s", user)
	}
	return uw, *uw.Wallet.Hash, nil
}

// activatedWallet loads a wallet referenced by an optional foreign key.
func activatedWallet(ctx context.Context, db *database.Database, op string, walletID *int64, owner string) (*model.Wallet, string, error) {
	if walletID == nil {
		return nil, "", apperr.New(apperr.NotFound, apperr.CodeWalletMissing, op, "missing wallet for %s", owner)
	}
	w, err := db.GetWallet(ctx, *walletID)
	if err != nil {
		return nil, "", err
	}
	if !w.Activated() {
		return nil, "", apperr.New(apperr.NotActivated, apperr.CodeWalletNotActivated, op,
			"wallet for %s is not activated", owner)
	}
	return w, *w.Hash, nil
}
