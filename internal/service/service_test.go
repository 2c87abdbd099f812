package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"crowdfund/internal/apperr"
	"crowdfund/internal/database"
	"crowdfund/internal/database/dbtest"
	"crowdfund/internal/logger"
	"crowdfund/internal/model"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// fakeLedger builds predictable transactions and counts posts.
type fakeLedger struct {
	mu           sync.Mutex
	balances     map[string]int64
	transactions map[string][]model.LedgerTransaction
	portfolio    map[string][]model.PortfolioEntry
	posts        int
	failWith     error
	lastProject  model.ProjectTxRequest
	// onBuild runs before a built transaction is returned
	onBuild func()
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances:     map[string]int64{},
		transactions: map[string][]model.LedgerTransaction{},
		portfolio:    map[string][]model.PortfolioEntry{},
	}
}

func (f *fakeLedger) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = err
}

func (f *fakeLedger) setBalance(hash string, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[hash] = amount
}

func (f *fakeLedger) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts
}

func (f *fakeLedger) tx(format string, args ...any) (model.TransactionData, error) {
	f.mu.Lock()
	err, hook := f.failWith, f.onBuild
	f.mu.Unlock()
	if err != nil {
		return model.TransactionData{}, err
	}
	if hook != nil {
		hook()
	}
	return model.TransactionData{Tx: fmt.Sprintf(format, args...)}, nil
}

func (f *fakeLedger) GetBalance(_ context.Context, hash string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	return f.balances[hash], nil
}

func (f *fakeLedger) AddWallet(_ context.Context, activationData string) (model.TransactionData, error) {
	return f.tx("add-wallet:%s", activationData)
}

func (f *fakeLedger) CreateOrganizationTx(_ context.Context, userHash string) (model.TransactionData, error) {
	return f.tx("create-org:%s", userHash)
}

func (f *fakeLedger) CreateProjectTx(_ context.Context, req model.ProjectTxRequest) (model.TransactionData, error) {
	f.mu.Lock()
	f.lastProject = req
	f.mu.Unlock()
	return f.tx("create-project:%s", req.OrganizationHash)
}

// PostTransaction derives the hash from the blob so tests can predict it.
func (f *fakeLedger) PostTransaction(_ context.Context, signed string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return "", f.failWith
	}
	f.posts++
	return "hash:" + signed, nil
}

func (f *fakeLedger) InvestTx(_ context.Context, userHash, projectHash string, amount int64) (model.TransactionData, error) {
	return f.tx("invest:%s:%s:%d", userHash, projectHash, amount)
}

func (f *fakeLedger) MintTx(_ context.Context, toHash string, amount int64) (model.TransactionData, error) {
	return f.tx("mint:%s:%d", toHash, amount)
}

func (f *fakeLedger) BurnFromTx(_ context.Context, hash string) (model.TransactionData, error) {
	return f.tx("burn:%s", hash)
}

func (f *fakeLedger) ApproveBurnTx(_ context.Context, hash string, amount int64) (model.TransactionData, error) {
	return f.tx("approve:%s:%d", hash, amount)
}

func (f *fakeLedger) GetPortfolio(_ context.Context, hash string) ([]model.PortfolioEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.portfolio[hash], nil
}

func (f *fakeLedger) GetTransactions(_ context.Context, hash string) ([]model.LedgerTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.transactions[hash], nil
}

func (f *fakeLedger) GetInvestmentsInProject(_ context.Context, userHash, projectHash string) ([]model.LedgerTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.LedgerTransaction
	for _, tx := range f.transactions[userHash] {
		if tx.ToTxHash == projectHash && tx.Type == model.LedgerTxInvest {
			out = append(out, tx)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	requested []int64
	completed []int64
	deleted   []int64
	minted    []int64
	err       error
}

func (n *recordingNotifier) WithdrawRequested(_ context.Context, w model.Withdraw) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requested = append(n.requested, w.ID)
	return n.err
}

func (n *recordingNotifier) WithdrawCompleted(_ context.Context, w model.Withdraw) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, w.ID)
	return n.err
}

func (n *recordingNotifier) WithdrawDeleted(_ context.Context, w model.Withdraw) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, w.ID)
	return n.err
}

func (n *recordingNotifier) DepositMinted(_ context.Context, d model.Deposit) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minted = append(n.minted, d.ID)
	return n.err
}

type memoryDocs struct {
	saved map[string][]byte
}

func (m *memoryDocs) Save(_ context.Context, name string, data []byte) (string, error) {
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	link := "/documents/" + name
	m.saved[link] = data
	return link, nil
}

type testEnv struct {
	db         *database.Database
	ledger     *fakeLedger
	notifier   *recordingNotifier
	docs       *memoryDocs
	txInfo     *TxInfoService
	poster     *Poster
	wallets    *WalletService
	projects   *ProjectService
	investment *InvestmentService
	withdraws  *WithdrawService
	portfolio  *PortfolioService
	deposits   *DepositService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	l := newFakeLedger()
	log := logger.Discard()
	n := &recordingNotifier{}
	docs := &memoryDocs{}

	txInfo := NewTxInfoService(db)
	txInfo.now = fixedClock
	poster := NewPoster(db, l, log)
	poster.now = fixedClock

	env := &testEnv{
		db:         db,
		ledger:     l,
		notifier:   n,
		docs:       docs,
		txInfo:     txInfo,
		poster:     poster,
		wallets:    NewWalletService(db, l, poster, txInfo, log),
		projects:   NewProjectService(db, log),
		investment: NewInvestmentService(db, l, poster, txInfo, log),
		withdraws:  NewWithdrawService(db, l, poster, txInfo, n, docs, log),
		portfolio:  NewPortfolioService(db, l),
		deposits:   NewDepositService(db, l, poster, txInfo, n, docs, log),
	}
	env.wallets.now = fixedClock
	env.projects.now = fixedClock
	env.investment.now = fixedClock
	env.withdraws.now = fixedClock
	env.deposits.now = fixedClock
	return env
}

// activeUser creates a user with an activated wallet and returns the user
// and the wallet hash.
func (e *testEnv) activeUser(t *testing.T, publicKey string) (uuid.UUID, string) {
	t.Helper()
	ctx := context.Background()
	user := uuid.New()
	w, err := e.wallets.CreateUserWallet(ctx, user, publicKey)
	require.NoError(t, err)
	activated, err := e.wallets.ConfirmActivation(ctx, w.ID, "activate:"+publicKey)
	require.NoError(t, err)
	return user, *activated.Hash
}

type projectOpts struct {
	active          bool
	endDate         time.Time
	minPerUser      int64
	maxPerUser      int64
	expectedFunding int64
	withWallet      bool
}

func defaultProjectOpts() projectOpts {
	return projectOpts{
		active:          true,
		endDate:         testNow.Add(30 * 24 * time.Hour),
		minPerUser:      100,
		maxPerUser:      10000,
		expectedFunding: 100000,
		withWallet:      true,
	}
}

// project creates an organization with an activated wallet and a project,
// optionally with an activated wallet of its own.
func (e *testEnv) project(t *testing.T, owner uuid.UUID, opts projectOpts) (*model.Project, string) {
	t.Helper()
	ctx := context.Background()

	org, err := e.projects.CreateOrganization(ctx, "Coop "+uuid.NewString()[:6], owner)
	require.NoError(t, err)
	orgWallet, err := e.wallets.CreateOrganizationWallet(ctx, org.ID, "org-signed:"+uuid.NewString())
	require.NoError(t, err)
	_, err = e.wallets.ConfirmActivation(ctx, orgWallet.ID, "org-activate:"+uuid.NewString())
	require.NoError(t, err)

	p := &model.Project{
		OrganizationID:  org.ID,
		Name:            "Solar " + uuid.NewString()[:6],
		Active:          opts.active,
		EndDate:         opts.endDate,
		MinPerUser:      opts.minPerUser,
		MaxPerUser:      opts.maxPerUser,
		ExpectedFunding: opts.expectedFunding,
		Currency:        model.CurrencyEUR,
		CreatedBy:       owner,
		CreatedAt:       testNow,
	}
	require.NoError(t, e.db.InsertProject(ctx, p))
	if !opts.withWallet {
		return p, ""
	}

	pw, err := e.wallets.CreateProjectWallet(ctx, p.ID, "project-signed:"+uuid.NewString())
	require.NoError(t, err)
	activated, err := e.wallets.ConfirmActivation(ctx, pw.ID, "project-activate:"+uuid.NewString())
	require.NoError(t, err)

	p, err = e.db.GetProject(ctx, p.ID)
	require.NoError(t, err)
	return p, *activated.Hash
}

func requireKind(t *testing.T, err error, kind apperr.Kind, code apperr.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperr.KindOf(err), "unexpected error: %v", err)
	if code != "" {
		require.Equal(t, code, apperr.CodeOf(err), "unexpected error: %v", err)
	}
}
