// Package ledger is the typed client of the remote BlockchainService that
// builds unsigned transactions, accepts signed ones and reports balances.
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"crowdfund/internal/apperr"
	"crowdfund/internal/logger"
	"crowdfund/internal/metrics"
	"crowdfund/internal/model"
)

const defaultTimeout = 15 * time.Second

// Client holds no mutable state and is safe for concurrent use.
type Client struct {
	conn    grpc.ClientConnInterface
	timeout time.Duration
	log     *logger.Logger
}

// Dial opens the shared connection to the ledger service at target.
func Dial(target string, timeout time.Duration, log *logger.Logger, opts ...grpc.DialOption) (*Client, *grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("connect ledger %s: %w", target, err)
	}
	return NewClient(conn, timeout, log), conn, nil
}

func NewClient(conn grpc.ClientConnInterface, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = logger.NewDefault("ledger")
	}
	return &Client{conn: conn, timeout: timeout, log: log}
}

func (c *Client) invoke(ctx context.Context, method string, in, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := c.conn.Invoke(ctx, fullMethod(method), in, out, grpc.ForceCodec(Codec()))
	code := "OK"
	if err != nil {
		code = DecodeStatus(err).Code
	}
	metrics.RecordLedgerCall(method, code, time.Since(start))
	return err
}

func (c *Client) GetBalance(ctx context.Context, hash string) (int64, error) {
	const op = "ledger.GetBalance"
	c.log.WithField("hash", hash).Debug("get balance")

	var resp BalanceResponse
	if err := c.invoke(ctx, methodGetBalance, &WalletHashRequest{Hash: hash}, &resp); err != nil {
		return 0, remoteError(op, err, "could not get balance for wallet: %s", hash)
	}
	balance, err := strconv.ParseInt(resp.Balance, 10, 64)
	if err != nil {
		return 0, apperr.Remote(op, apperr.RemoteDetail{Code: CodeUnparsable, Message: "balance is not a number: " + resp.Balance}, err)
	}
	return balance, nil
}

func (c *Client) AddWallet(ctx context.Context, activationData string) (model.TransactionData, error) {
	const op = "ledger.AddWallet"
	c.log.WithField("activation_data", activationData).Debug("generate add wallet transaction")

	var resp TransactionResponse
	if err := c.invoke(ctx, methodAddWallet, &AddWalletRequest{ActivationData: activationData}, &resp); err != nil {
		return model.TransactionData{}, remoteError(op, err, "could not add wallet: %s", activationData)
	}
	return model.TransactionData{Tx: resp.Tx}, nil
}

func (c *Client) CreateOrganizationTx(ctx context.Context, userHash string) (model.TransactionData, error) {
	const op = "ledger.CreateOrganizationTx"
	c.log.WithField("user_hash", userHash).Debug("generate create organization transaction")

	var resp TransactionResponse
	if err := c.invoke(ctx, methodGenerateAddOrganization, &CreateOrganizationRequest{UserHash: userHash}, &resp); err != nil {
		return model.TransactionData{}, remoteError(op, err, "could not generate create organization transaction: %s", userHash)
	}
	return model.TransactionData{Tx: resp.Tx}, nil
}

func (c *Client) CreateProjectTx(ctx context.Context, req model.ProjectTxRequest) (model.TransactionData, error) {
	const op = "ledger.CreateProjectTx"
	c.log.WithFields(map[string]interface{}{
		"user_hash":         req.UserWalletHash,
		"organization_hash": req.OrganizationHash,
	}).Debug("generate create project transaction")

	in := &CreateProjectRequest{
		UserHash:         req.UserWalletHash,
		OrganizationHash: req.OrganizationHash,
		MinPerUser:       strconv.FormatInt(req.MinPerUser, 10),
		MaxPerUser:       strconv.FormatInt(req.MaxPerUser, 10),
		InvestmentCap:    strconv.FormatInt(req.InvestmentCap, 10),
		EndDate:          strconv.FormatInt(req.EndTimeEpochMilli, 10),
	}
	var resp TransactionResponse
	if err := c.invoke(ctx, methodGenerateProjectWallet, in, &resp); err != nil {
		return model.TransactionData{}, remoteError(op, err, "could not generate create project transaction for organization: %s", req.OrganizationHash)
	}
	return model.TransactionData{Tx: resp.Tx}, nil
}

// PostTransaction submits a signed transaction and returns its ledger hash.
func (c *Client) PostTransaction(ctx context.Context, signed string) (string, error) {
	const op = "ledger.PostTransaction"
	c.log.Debug("post signed transaction")

	var resp PostTransactionResponse
	if err := c.invoke(ctx, methodPostTransaction, &PostTransactionRequest{Data: signed}, &resp); err != nil {
		return "", remoteError(op, err, "could not post transaction")
	}
	c.log.WithField("tx_hash", resp.TxHash).Info("transaction posted")
	return resp.TxHash, nil
}

func (c *Client) InvestTx(ctx context.Context, userHash, projectHash string, amount int64) (model.TransactionData, error) {
	const op = "ledger.InvestTx"
	c.log.WithFields(map[string]interface{}{
		"user_hash":    userHash,
		"project_hash": projectHash,
		"amount":       amount,
	}).Debug("generate invest transaction")

	in := &InvestRequest{UserHash: userHash, ProjectHash: projectHash, Amount: strconv.FormatInt(amount, 10)}
	var resp TransactionResponse
	if err := c.invoke(ctx, methodGenerateInvest, in, &resp); err != nil {
		return model.TransactionData{}, remoteError(op, err, "could not invest in project: %s", projectHash)
	}
	return model.TransactionData{Tx: resp.Tx}, nil
}

func (c *Client) MintTx(ctx context.Context, toHash string, amount int64) (model.TransactionData, error) {
	const op = "ledger.MintTx"
	c.log.WithFields(map[string]interface{}{"to_hash": toHash, "amount": amount}).Debug("generate mint transaction")

	var resp TransactionResponse
	if err := c.invoke(ctx, methodGenerateMint, &MintRequest{ToHash: toHash, Amount: strconv.FormatInt(amount, 10)}, &resp); err != nil {
		return model.TransactionData{}, remoteError(op, err, "could not mint to: %s", toHash)
	}
	return model.TransactionData{Tx: resp.Tx}, nil
}

func (c *Client) BurnFromTx(ctx context.Context, hash string) (model.TransactionData, error) {
	const op = "ledger.BurnFromTx"
	c.log.WithField("hash", hash).Debug("generate burn transaction")

	var resp TransactionResponse
	if err := c.invoke(ctx, methodGenerateBurnFrom, &WalletHashRequest{Hash: hash}, &resp); err != nil {
		return model.TransactionData{}, remoteError(op, err, "could not burn from: %s", hash)
	}
	return model.TransactionData{Tx: resp.Tx}, nil
}

func (c *Client) ApproveBurnTx(ctx context.Context, hash string, amount int64) (model.TransactionData, error) {
	const op = "ledger.ApproveBurnTx"
	c.log.WithFields(map[string]interface{}{"hash": hash, "amount": amount}).Debug("generate burn approval transaction")

	var resp TransactionResponse
	if err := c.invoke(ctx, methodGenerateApproveBurn, &ApproveBurnRequest{Hash: hash, Amount: strconv.FormatInt(amount, 10)}, &resp); err != nil {
		return model.TransactionData{}, remoteError(op, err, "could not approve burn for: %s", hash)
	}
	return model.TransactionData{Tx: resp.Tx}, nil
}

func (c *Client) GetPortfolio(ctx context.Context, hash string) ([]model.PortfolioEntry, error) {
	const op = "ledger.GetPortfolio"
	c.log.WithField("hash", hash).Debug("get portfolio")

	var resp PortfolioResponse
	if err := c.invoke(ctx, methodGetPortfolio, &WalletHashRequest{Hash: hash}, &resp); err != nil {
		return nil, remoteError(op, err, "could not get portfolio for wallet: %s", hash)
	}
	entries := make([]model.PortfolioEntry, 0, len(resp.Portfolio))
	for _, item := range resp.Portfolio {
		amount, err := strconv.ParseInt(item.Amount, 10, 64)
		if err != nil {
			return nil, apperr.Remote(op, apperr.RemoteDetail{Code: CodeUnparsable, Message: "amount is not a number: " + item.Amount}, err)
		}
		entries = append(entries, model.PortfolioEntry{ProjectTxHash: item.ProjectTxHash, Amount: amount})
	}
	return entries, nil
}

func (c *Client) GetTransactions(ctx context.Context, hash string) ([]model.LedgerTransaction, error) {
	const op = "ledger.GetTransactions"
	c.log.WithField("hash", hash).Debug("get transactions")

	var resp TransactionsResponse
	if err := c.invoke(ctx, methodGetTransactions, &WalletHashRequest{Hash: hash}, &resp); err != nil {
		return nil, remoteError(op, err, "could not get transactions for wallet: %s", hash)
	}
	return convertTransactions(op, resp.Transactions)
}

func (c *Client) GetInvestmentsInProject(ctx context.Context, userHash, projectHash string) ([]model.LedgerTransaction, error) {
	const op = "ledger.GetInvestmentsInProject"
	c.log.WithFields(map[string]interface{}{"user_hash": userHash, "project_hash": projectHash}).Debug("get investments in project")

	var resp TransactionsResponse
	in := &InvestmentsInProjectRequest{FromTxHash: userHash, ToTxHash: projectHash}
	if err := c.invoke(ctx, methodGetInvestmentsInProject, in, &resp); err != nil {
		return nil, remoteError(op, err, "could not get investments by user: %s in project: %s", userHash, projectHash)
	}
	return convertTransactions(op, resp.Transactions)
}

func convertTransactions(op string, items []TransactionItem) ([]model.LedgerTransaction, error) {
	txs := make([]model.LedgerTransaction, 0, len(items))
	for _, item := range items {
		amount, err := strconv.ParseInt(item.Amount, 10, 64)
		if err != nil {
			return nil, apperr.Remote(op, apperr.RemoteDetail{Code: CodeUnparsable, Message: "amount is not a number: " + item.Amount}, err)
		}
		txs = append(txs, model.LedgerTransaction{
			FromTxHash: item.FromTxHash,
			ToTxHash:   item.ToTxHash,
			Amount:     amount,
			Type:       model.LedgerTxType(item.Type),
		})
	}
	return txs, nil
}
