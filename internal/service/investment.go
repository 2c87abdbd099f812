package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"crowdfund/internal/apperr"
	"crowdfund/internal/database"
	"crowdfund/internal/logger"
	"crowdfund/internal/metrics"
	"crowdfund/internal/model"
)

// InvestmentService validates and posts project investments.
type InvestmentService struct {
	db     *database.Database
	ledger Ledger
	poster *Poster
	txInfo *TxInfoService
	log    *logger.Logger
	now    Clock
}

// NewInvestmentService returns an InvestmentService backed by db and the ledger.
func NewInvestmentService(db *database.Database, l Ledger, poster *Poster, txInfo *TxInfoService, log *logger.Logger) *InvestmentService {
	return &InvestmentService{db: db, ledger: l, poster: poster, txInfo: txInfo, log: log, now: systemClock}
}

// GenerateInvestment validates the request in a fixed order and builds the
// investment transaction. The first failing rule decides the error.
func (s *InvestmentService) GenerateInvestment(ctx context.Context, projectID int64, investor uuid.UUID, amount int64) (*model.TransactionDataAndInfo, error) {
	const op = "investment.GenerateInvestment"
	project, err := s.db.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if err := s.checkProjectOpen(op, project); err != nil {
		return nil, err
	}
	if err := checkAmountLimits(op, project, amount); err != nil {
		return nil, err
	}

	_, userHash, err := activatedUserWallet(ctx, s.db, op, investor)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledger.GetBalance(ctx, userHash)
	if err != nil {
		return nil, err
	}
	if balance < amount {
		return nil, apperr.New(apperr.InsufficientFunds, apperr.CodeWalletFunds, op,
			"wallet balance %d is below investment amount %d", balance, amount)
	}

	_, projectHash, err := activatedWallet(ctx, s.db, op, project.WalletID, fmt.Sprintf("project %d", project.ID))
	if err != nil {
		return nil, err
	}
	funded, err := s.ledger.GetBalance(ctx, projectHash)
	if err != nil {
		return nil, err
	}
	if funded == project.ExpectedFunding {
		return nil, apperr.New(apperr.ValidationFailed, apperr.CodeFundingCap, op,
			"project %d has reached its expected funding", project.ID)
	}

	data, err := s.ledger.InvestTx(ctx, userHash, projectHash, amount)
	if err != nil {
		return nil, err
	}
	info, err := s.txInfo.Invest(ctx, *project, amount, investor)
	if err != nil {
		return nil, err
	}
	return &model.TransactionDataAndInfo{Data: data, Info: *info}, nil
}

func (s *InvestmentService) checkProjectOpen(op string, project *model.Project) error {
	if !project.Active {
		return apperr.New(apperr.ValidationFailed, apperr.CodeNotActive, op, "project %d is not active", project.ID)
	}
	if project.EndDate.Before(s.now()) {
		return apperr.New(apperr.ValidationFailed, apperr.CodeExpired, op, "project %d has expired", project.ID)
	}
	return nil
}

func checkAmountLimits(op string, project *model.Project, amount int64) error {
	if amount < project.MinPerUser {
		return apperr.New(apperr.ValidationFailed, apperr.CodeBelowMinimum, op,
			"amount %d is below the minimum %d", amount, project.MinPerUser)
	}
	if amount > project.MaxPerUser {
		return apperr.New(apperr.ValidationFailed, apperr.CodeAboveMaximum, op,
			"amount %d is above the maximum %d", amount, project.MaxPerUser)
	}
	return nil
}

// ConfirmInvestment posts the signed investment. Validation happened when
// the transaction was generated and is not repeated.
func (s *InvestmentService) ConfirmInvestment(ctx context.Context, signed string) (string, error) {
	hash, err := s.poster.Post(ctx, scope(PostInvest, 0), signed)
	if err != nil {
		return "", err
	}
	s.log.WithField("hash", hash).Info("investment posted")
	metrics.RecordTransition("investment", "confirm")
	return hash, nil
}
