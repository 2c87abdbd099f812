package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"crowdfund/internal/database"
	"crowdfund/internal/model"
)

// PortfolioService is read-only: it joins ledger holdings with local projects.
type PortfolioService struct {
	db     *database.Database
	ledger Ledger
}

// NewPortfolioService returns a PortfolioService reading from db and the ledger.
func NewPortfolioService(db *database.Database, l Ledger) *PortfolioService {
	return &PortfolioService{db: db, ledger: l}
}

// GetPortfolio lists the projects the user holds. Holdings whose wallet hash
// matches no local project are dropped.
func (s *PortfolioService) GetPortfolio(ctx context.Context, user uuid.UUID) ([]model.ProjectWithInvestment, error) {
	const op = "portfolio.GetPortfolio"
	_, hash, err := activatedUserWallet(ctx, s.db, op, user)
	if err != nil {
		return nil, err
	}
	entries, err := s.ledger.GetPortfolio(ctx, hash)
	if err != nil {
		return nil, err
	}

	hashes := make([]string, 0, len(entries))
	for _, e := range entries {
		hashes = append(hashes, e.ProjectTxHash)
	}
	projects, err := s.db.ProjectsByWalletHashes(ctx, hashes)
	if err != nil {
		return nil, err
	}

	out := make([]model.ProjectWithInvestment, 0, len(entries))
	for _, e := range entries {
		project, ok := projects[e.ProjectTxHash]
		if !ok {
			continue
		}
		out = append(out, model.ProjectWithInvestment{Project: project, Investment: e.Amount})
	}
	return out, nil
}

func (s *PortfolioService) GetPortfolioStats(ctx context.Context, user uuid.UUID) (model.PortfolioStats, error) {
	const op = "portfolio.GetPortfolioStats"
	_, hash, err := activatedUserWallet(ctx, s.db, op, user)
	if err != nil {
		return model.PortfolioStats{}, err
	}
	txs, err := s.ledger.GetTransactions(ctx, hash)
	if err != nil {
		return model.PortfolioStats{}, err
	}

	var stats model.PortfolioStats
	for _, tx := range txs {
		switch tx.Type {
		case model.LedgerTxInvest:
			stats.Investments += tx.Amount
		case model.LedgerTxSharePayout:
			stats.Earnings += tx.Amount
		}
	}
	return stats, nil
}

func (s *PortfolioService) GetInvestmentsInProject(ctx context.Context, user uuid.UUID, projectID int64) ([]model.LedgerTransaction, error) {
	const op = "portfolio.GetInvestmentsInProject"
	_, userHash, err := activatedUserWallet(ctx, s.db, op, user)
	if err != nil {
		return nil, err
	}
	project, err := s.db.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	_, projectHash, err := activatedWallet(ctx, s.db, op, project.WalletID, fmt.Sprintf("project %d", project.ID))
	if err != nil {
		return nil, err
	}
	return s.ledger.GetInvestmentsInProject(ctx, userHash, projectHash)
}
