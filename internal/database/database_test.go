package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdfund/internal/apperr"
	"crowdfund/internal/database"
	"crowdfund/internal/database/dbtest"
	"crowdfund/internal/model"
)

func newWallet(data string, kind model.WalletType) *model.Wallet {
	return &model.Wallet{
		ActivationData: data,
		Type:           kind,
		Currency:       model.CurrencyEUR,
		CreatedAt:      time.Now(),
	}
}

func TestWalletActivation(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	w := newWallet("pk-1", model.WalletTypeUser)
	require.NoError(t, db.InsertWallet(ctx, w))
	require.NotZero(t, w.ID)

	ok, err := db.ActivateWallet(ctx, w.ID, "hash-1", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.ActivateWallet(ctx, w.ID, "hash-2", time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "second activation must not change the row")

	got, err := db.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Hash)
	require.NotNil(t, got.ActivatedAt)
	assert.Equal(t, "hash-1", *got.Hash)

	byHash, err := db.GetWalletByHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, w.ID, byHash.ID)
}

func TestWalletUniqueness(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	require.NoError(t, db.InsertWallet(ctx, newWallet("dup", model.WalletTypeUser)))
	err := db.InsertWallet(ctx, newWallet("dup", model.WalletTypeOrg))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.AlreadyExists))

	user := uuid.New()
	w1 := newWallet("a", model.WalletTypeUser)
	w2 := newWallet("b", model.WalletTypeUser)
	require.NoError(t, db.InsertWallet(ctx, w1))
	require.NoError(t, db.InsertWallet(ctx, w2))
	require.NoError(t, db.LinkUserWallet(ctx, user, w1.ID))
	err = db.LinkUserWallet(ctx, user, w2.ID)
	assert.True(t, errors.Is(err, apperr.AlreadyExists))

	uw, err := db.GetUserWallet(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, w1.ID, uw.Wallet.ID)
	assert.Equal(t, user, uw.UserID)

	_, err = db.GetUserWallet(ctx, uuid.New())
	assert.True(t, errors.Is(err, apperr.NotFound))
}

func TestHashAndActivationTimeTogether(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	w := newWallet("pk", model.WalletTypeUser)
	require.NoError(t, db.InsertWallet(ctx, w))

	_, err := db.DB().ExecContext(ctx, `UPDATE wallets SET hash = 'x' WHERE id = ?`, w.ID)
	assert.Error(t, err)
}

func TestWithTxRollsBack(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(s *database.Store) error {
		if err := s.InsertWallet(ctx, newWallet("rolled-back", model.WalletTypeUser)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	exists, err := db.WalletActivationDataExists(ctx, "rolled-back")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWithdrawConstraints(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	user := uuid.New()

	w := &model.Withdraw{UserID: user, Amount: 100, BankAccount: "HR123", CreatedAt: time.Now()}
	require.NoError(t, db.InsertWithdraw(ctx, w))

	err := db.InsertWithdraw(ctx, &model.Withdraw{UserID: user, Amount: 50, BankAccount: "HR123", CreatedAt: time.Now()})
	assert.True(t, errors.Is(err, apperr.Conflict))

	burned, err := db.BurnWithdraw(ctx, w.ID, "burn", time.Now())
	require.NoError(t, err)
	assert.False(t, burned, "burn requires approval")

	ok, err := db.ApproveWithdraw(ctx, w.ID, "approve", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = db.ApproveWithdraw(ctx, w.ID, "approve-again", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	approved, err := db.ListApprovedWithdraws(ctx)
	require.NoError(t, err)
	require.Len(t, approved, 1)

	operator := uuid.New()
	ok, err = db.SetWithdrawBurnedBy(ctx, w.ID, operator)
	require.NoError(t, err)
	assert.True(t, ok)

	burned, err = db.BurnWithdraw(ctx, w.ID, "burn", time.Now())
	require.NoError(t, err)
	assert.True(t, burned)

	deleted, err := db.DeleteOpenWithdraw(ctx, w.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err := db.GetWithdraw(ctx, w.ID)
	require.NoError(t, err)
	require.NotNil(t, got.BurnedBy)
	assert.Equal(t, operator, *got.BurnedBy)

	open, err := db.GetOpenWithdraw(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, open)

	// a burned withdraw no longer blocks a new one
	require.NoError(t, db.InsertWithdraw(ctx, &model.Withdraw{UserID: user, Amount: 10, BankAccount: "HR123", CreatedAt: time.Now()}))
}

func TestSettlementHashesAreUnique(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	a := &model.Withdraw{UserID: uuid.New(), Amount: 100, BankAccount: "HR1", CreatedAt: time.Now()}
	b := &model.Withdraw{UserID: uuid.New(), Amount: 200, BankAccount: "HR2", CreatedAt: time.Now()}
	require.NoError(t, db.InsertWithdraw(ctx, a))
	require.NoError(t, db.InsertWithdraw(ctx, b))

	ok, err := db.ApproveWithdraw(ctx, a.ID, "h-approve", time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	_, err = db.ApproveWithdraw(ctx, b.ID, "h-approve", time.Now())
	assert.True(t, errors.Is(err, apperr.InvalidState))
	assert.Equal(t, apperr.CodeTxReplayed, apperr.CodeOf(err))

	ok, err = db.ApproveWithdraw(ctx, b.ID, "h-approve-b", time.Now())
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = db.BurnWithdraw(ctx, a.ID, "h-burn", time.Now())
	require.NoError(t, err)
	require.True(t, ok)
	_, err = db.BurnWithdraw(ctx, b.ID, "h-burn", time.Now())
	assert.Equal(t, apperr.CodeTxReplayed, apperr.CodeOf(err))

	d1 := &model.Deposit{UserID: uuid.New(), Amount: 10, Reference: "CF1", CreatedAt: time.Now()}
	d2 := &model.Deposit{UserID: uuid.New(), Amount: 20, Reference: "CF2", CreatedAt: time.Now()}
	require.NoError(t, db.InsertDeposit(ctx, d1))
	require.NoError(t, db.InsertDeposit(ctx, d2))
	ok, err = db.MintDeposit(ctx, d1.ID, "h-mint", time.Now())
	require.NoError(t, err)
	require.True(t, ok)
	_, err = db.MintDeposit(ctx, d2.ID, "h-mint", time.Now())
	assert.True(t, errors.Is(err, apperr.InvalidState))
	assert.Equal(t, apperr.CodeTxReplayed, apperr.CodeOf(err))
}

func TestPostedTransactionJournal(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	pt := &model.PostedTransaction{Digest: "abc", Action: "mint_deposit", EntityID: 7, TxHash: "h1", PostedAt: time.Now()}
	require.NoError(t, db.InsertPostedTransaction(ctx, pt))
	require.NoError(t, db.InsertPostedTransaction(ctx, pt))

	got, err := db.GetPostedTransaction(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "h1", got.TxHash)
	assert.Equal(t, "mint_deposit", got.Action)
	assert.Equal(t, int64(7), got.EntityID)

	missing, err := db.GetPostedTransaction(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPairCodes(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	old := &model.PairWalletCode{PublicKey: "pk-old", Code: "AAAAAA", CreatedAt: time.Now().Add(-time.Hour)}
	fresh := &model.PairWalletCode{PublicKey: "pk-new", Code: "BBBBBB", CreatedAt: time.Now()}
	for _, pc := range []*model.PairWalletCode{old, fresh} {
		ok, err := db.InsertPairCode(ctx, pc)
		require.NoError(t, err)
		require.True(t, ok)
		assert.NotZero(t, pc.ID)
	}

	// a taken code is reported for a redraw
	ok, err := db.InsertPairCode(ctx, &model.PairWalletCode{PublicKey: "pk-other", Code: "BBBBBB", CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, ok)

	// a taken public key is not
	ok, err = db.InsertPairCode(ctx, &model.PairWalletCode{PublicKey: "pk-new", Code: "CCCCCC", CreatedAt: time.Now()})
	assert.False(t, ok)
	assert.True(t, errors.Is(err, apperr.AlreadyExists))
	assert.Equal(t, apperr.CodePairCode, apperr.CodeOf(err))

	n, err := db.DeletePairCodesBefore(ctx, time.Now().Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := db.GetPairCode(ctx, "BBBBBB")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "pk-new", got.PublicKey)

	gone, err := db.GetPairCode(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestProjectsByWalletHashes(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	owner := uuid.New()

	org := &model.Organization{Name: "Coop", CreatedBy: owner, CreatedAt: time.Now()}
	require.NoError(t, db.InsertOrganization(ctx, org))

	project := &model.Project{
		OrganizationID:  org.ID,
		Name:            "Solar",
		Active:          true,
		EndDate:         time.Now().Add(24 * time.Hour),
		MinPerUser:      100,
		MaxPerUser:      10000,
		ExpectedFunding: 1000000,
		Currency:        model.CurrencyEUR,
		CreatedBy:       owner,
		CreatedAt:       time.Now(),
	}
	require.NoError(t, db.InsertProject(ctx, project))

	w := newWallet("project-tx", model.WalletTypeProject)
	require.NoError(t, db.InsertWallet(ctx, w))
	ok, err := db.SetProjectWallet(ctx, project.ID, w.ID)
	require.NoError(t, err)
	require.True(t, ok)

	unactivated, err := db.ListUnactivatedProjects(ctx)
	require.NoError(t, err)
	require.Len(t, unactivated, 1)
	assert.Equal(t, w.ID, unactivated[0].Wallet.ID)

	_, err = db.ActivateWallet(ctx, w.ID, "project-hash", time.Now())
	require.NoError(t, err)

	byHash, err := db.ProjectsByWalletHashes(ctx, []string{"project-hash", "unknown"})
	require.NoError(t, err)
	require.Len(t, byHash, 1)
	assert.Equal(t, "Solar", byHash["project-hash"].Name)
	assert.True(t, byHash["project-hash"].Active)

	ok, err = db.SetProjectWallet(ctx, project.ID, w.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDriverErrorsAreInternal(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db := database.NewWithDB(sqlx.NewDb(mockDB, "sqlite3"))
	mock.ExpectQuery("SELECT (.+) FROM wallets w WHERE w.id = ?").
		WithArgs(int64(7)).
		WillReturnError(errors.New("connection reset"))

	_, err = db.GetWallet(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
	assert.Equal(t, apperr.CodeDatabase, apperr.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxCommitFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db := database.NewWithDB(sqlx.NewDb(mockDB, "sqlite3"))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM transaction_infos").WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	err = db.WithTx(context.Background(), func(s *database.Store) error {
		return s.DeleteTransactionInfo(context.Background(), 3)
	})
	require.Error(t, err)
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
