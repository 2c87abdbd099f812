package ledger

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"crowdfund/internal/apperr"
	"crowdfund/internal/logger"
	"crowdfund/internal/model"
)

type stubServer struct {
	balance    string
	failWith   error
	lastProj   *CreateProjectRequest
	lastInvest *InvestRequest
	delay      time.Duration
}

func (s *stubServer) GetBalance(ctx context.Context, in *WalletHashRequest) (*BalanceResponse, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.failWith != nil {
		return nil, s.failWith
	}
	return &BalanceResponse{Balance: s.balance}, nil
}

func (s *stubServer) AddWallet(_ context.Context, in *AddWalletRequest) (*TransactionResponse, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	return &TransactionResponse{Tx: "add:" + in.ActivationData}, nil
}

func (s *stubServer) GenerateAddOrganizationTx(_ context.Context, in *CreateOrganizationRequest) (*TransactionResponse, error) {
	return &TransactionResponse{Tx: "org:" + in.UserHash}, nil
}

func (s *stubServer) GenerateProjectWalletTx(_ context.Context, in *CreateProjectRequest) (*TransactionResponse, error) {
	s.lastProj = in
	return &TransactionResponse{Tx: "project:" + in.OrganizationHash}, nil
}

func (s *stubServer) PostTransaction(_ context.Context, in *PostTransactionRequest) (*PostTransactionResponse, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	return &PostTransactionResponse{TxHash: "hash-" + in.Data}, nil
}

func (s *stubServer) GenerateInvestTx(_ context.Context, in *InvestRequest) (*TransactionResponse, error) {
	s.lastInvest = in
	return &TransactionResponse{Tx: "invest"}, nil
}

func (s *stubServer) GenerateMintTx(_ context.Context, in *MintRequest) (*TransactionResponse, error) {
	return &TransactionResponse{Tx: "mint:" + in.ToHash + ":" + in.Amount}, nil
}

func (s *stubServer) GenerateBurnFromTx(_ context.Context, in *WalletHashRequest) (*TransactionResponse, error) {
	return &TransactionResponse{Tx: "burn:" + in.Hash}, nil
}

func (s *stubServer) GenerateApproveWithdrawTx(_ context.Context, in *ApproveBurnRequest) (*TransactionResponse, error) {
	return &TransactionResponse{Tx: "approve:" + in.Hash + ":" + in.Amount}, nil
}

func (s *stubServer) GetPortfolio(_ context.Context, in *WalletHashRequest) (*PortfolioResponse, error) {
	return &PortfolioResponse{Portfolio: []PortfolioItem{
		{ProjectTxHash: "p1", Amount: "1500"},
		{ProjectTxHash: "p2", Amount: "25"},
	}}, nil
}

func (s *stubServer) GetTransactions(_ context.Context, in *WalletHashRequest) (*TransactionsResponse, error) {
	return &TransactionsResponse{Transactions: []TransactionItem{
		{FromTxHash: in.Hash, ToTxHash: "p1", Amount: "1500", Type: "INVEST"},
		{FromTxHash: "p1", ToTxHash: in.Hash, Amount: "30", Type: "SHARE_PAYOUT"},
	}}, nil
}

func (s *stubServer) GetInvestmentsInProject(_ context.Context, in *InvestmentsInProjectRequest) (*TransactionsResponse, error) {
	return &TransactionsResponse{Transactions: []TransactionItem{
		{FromTxHash: in.FromTxHash, ToTxHash: in.ToTxHash, Amount: "not-a-number", Type: "INVEST"},
	}}, nil
}

func newTestClient(t *testing.T, srv BlockchainServiceServer, timeout time.Duration) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := NewServer()
	RegisterBlockchainServiceServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewClient(conn, timeout, logger.Discard())
}

func TestGetBalance(t *testing.T) {
	c := newTestClient(t, &stubServer{balance: "12345"}, time.Second)

	balance, err := c.GetBalance(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), balance)
}

func TestGetBalanceNotANumber(t *testing.T) {
	c := newTestClient(t, &stubServer{balance: "lots"}, time.Second)

	_, err := c.GetBalance(context.Background(), "w1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.RemoteServiceFailure))
}

func TestRemoteErrorDecoding(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    string
		message string
	}{
		{"coded", status.Error(codes.InvalidArgument, "50 > Wallet not found"), "50", "Wallet not found"},
		{"empty description", status.Error(codes.Internal, ""), CodeUnparsable, ""},
		{"single field", status.Error(codes.Internal, "boom"), CodeMalformed, ""},
		{"three fields", status.Error(codes.Internal, "1 > 2 > 3"), CodeMalformed, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, &stubServer{failWith: tc.err}, time.Second)

			_, err := c.AddWallet(context.Background(), "pk")
			require.Error(t, err)
			assert.Equal(t, apperr.RemoteServiceFailure, apperr.KindOf(err))
			assert.Equal(t, apperr.CodeLedger, apperr.CodeOf(err))

			detail, ok := apperr.RemoteOf(err)
			require.True(t, ok)
			assert.Equal(t, tc.code, detail.Code)
			if tc.message != "" {
				assert.Equal(t, tc.message, detail.Message)
			}
		})
	}
}

func TestRemoteErrorsAreIndependent(t *testing.T) {
	first := newTestClient(t, &stubServer{failWith: status.Error(codes.Internal, "10 > first")}, time.Second)
	second := newTestClient(t, &stubServer{failWith: status.Error(codes.Internal, "20 > second")}, time.Second)

	_, err1 := first.PostTransaction(context.Background(), "a")
	_, err2 := second.PostTransaction(context.Background(), "b")

	d1, _ := apperr.RemoteOf(err1)
	d2, _ := apperr.RemoteOf(err2)
	assert.Equal(t, "10", d1.Code)
	assert.Equal(t, "20", d2.Code)
}

func TestTimeoutMapsToUnparsable(t *testing.T) {
	c := newTestClient(t, &stubServer{balance: "1", delay: time.Second}, 20*time.Millisecond)

	_, err := c.GetBalance(context.Background(), "w1")
	require.Error(t, err)
	detail, ok := apperr.RemoteOf(err)
	require.True(t, ok)
	assert.Equal(t, CodeUnparsable, detail.Code)
}

func TestNumericFieldsTravelAsStrings(t *testing.T) {
	srv := &stubServer{}
	c := newTestClient(t, srv, time.Second)

	_, err := c.CreateProjectTx(context.Background(), model.ProjectTxRequest{
		UserWalletHash:    "u",
		OrganizationHash:  "o",
		MinPerUser:        100,
		MaxPerUser:        5000,
		InvestmentCap:     100000,
		EndTimeEpochMilli: 1700000000000,
	})
	require.NoError(t, err)
	require.NotNil(t, srv.lastProj)
	assert.Equal(t, "100", srv.lastProj.MinPerUser)
	assert.Equal(t, "5000", srv.lastProj.MaxPerUser)
	assert.Equal(t, "100000", srv.lastProj.InvestmentCap)
	assert.Equal(t, "1700000000000", srv.lastProj.EndDate)

	tx, err := c.InvestTx(context.Background(), "u", "p", 250)
	require.NoError(t, err)
	assert.Equal(t, "invest", tx.Tx)
	assert.Equal(t, "250", srv.lastInvest.Amount)
}

func TestTransactionBuilders(t *testing.T) {
	c := newTestClient(t, &stubServer{}, time.Second)
	ctx := context.Background()

	tx, err := c.MintTx(ctx, "w", 700)
	require.NoError(t, err)
	assert.Equal(t, "mint:w:700", tx.Tx)

	tx, err = c.ApproveBurnTx(ctx, "w", 300)
	require.NoError(t, err)
	assert.Equal(t, "approve:w:300", tx.Tx)

	tx, err = c.BurnFromTx(ctx, "w")
	require.NoError(t, err)
	assert.Equal(t, "burn:w", tx.Tx)

	tx, err = c.CreateOrganizationTx(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "org:u", tx.Tx)

	hash, err := c.PostTransaction(ctx, "signed")
	require.NoError(t, err)
	assert.Equal(t, "hash-signed", hash)
}

func TestPortfolioAndTransactions(t *testing.T) {
	c := newTestClient(t, &stubServer{}, time.Second)
	ctx := context.Background()

	portfolio, err := c.GetPortfolio(ctx, "w")
	require.NoError(t, err)
	assert.Equal(t, []model.PortfolioEntry{{ProjectTxHash: "p1", Amount: 1500}, {ProjectTxHash: "p2", Amount: 25}}, portfolio)

	txs, err := c.GetTransactions(ctx, "w")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, model.LedgerTxInvest, txs[0].Type)
	assert.Equal(t, model.LedgerTxSharePayout, txs[1].Type)
	assert.Equal(t, int64(30), txs[1].Amount)

	_, err = c.GetInvestmentsInProject(ctx, "w", "p1")
	assert.Equal(t, apperr.RemoteServiceFailure, apperr.KindOf(err))
}

func TestDecodeDescription(t *testing.T) {
	assert.Equal(t, apperr.RemoteDetail{Code: "12", Message: "Insufficient funds"}, decodeDescription("12 > Insufficient funds"))
	assert.Equal(t, CodeUnparsable, decodeDescription("").Code)
	assert.Equal(t, CodeMalformed, decodeDescription("no separator").Code)
	assert.Equal(t, CodeUnparsable, DecodeStatus(errors.New("plain")).Code)
}
