package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/linkcart/affiliate_backend/internal/app/domain/category"
	"github.com/linkcart/affiliate_backend/internal/app/domain/ledger"
	"github.com/linkcart/affiliate_backend/internal/app/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return New(db), mock
}

func TestCreateCategory_DuplicateName(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO categories")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "categories_name_key"})

	_, err := s.CreateCategory(context.Background(), category.Rule{Name: "Electronics", Percent: 4})
	require.ErrorIs(t, err, storage.ErrConflict)
}

func TestGetCategory_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM categories WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetCategory(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFindCategoryByText_ScansKeywordArray(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	cols := []string{"id", "name", "search_index", "percent", "keywords", "active", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM categories")).
		WithArgs("cookware").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("c1", "Home & Kitchen", "HomeAndKitchen", 3, "{cookware,utensils}", true, now, now))

	rule, found, err := s.FindCategoryByText(context.Background(), "cookware")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"cookware", "utensils"}, rule.Keywords)
	require.Equal(t, 3, rule.Percent)
}

func TestFindCategoryByText_NoMatch(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM categories")).
		WithArgs("automotive").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, found, err := s.FindCategoryByText(context.Background(), "automotive")
	require.NoError(t, err)
	require.False(t, found)
}

func TestDebitBalance_Insufficient(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("SET balance = balance - $2")).
		WithArgs("u1", 50.0).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// Zero rows means either a missing user or a short balance; the follow-up
	// lookup decides which.
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "password_hash", "name", "role",
			"referral_code", "referrer_id", "balance", "total_earnings", "created_at", "updated_at",
		}).AddRow("u1", "a@example.com", "x", "A", "agent", "CODE", "", 10.0, 10.0, now, now))

	err := s.DebitBalance(context.Background(), "u1", 50)
	require.ErrorIs(t, err, storage.ErrInsufficientBalance)
}

func TestDebitBalance_UnknownUser(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("SET balance = balance - $2")).
		WithArgs("ghost", 5.0).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := s.DebitBalance(context.Background(), "ghost", 5)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIncrementEarnings_UpdatesBothCounters(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("SET balance = balance + $2, total_earnings = total_earnings + $2")).
		WithArgs("u1", 12.5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.IncrementEarnings(context.Background(), "u1", 12.5))
}

func txRows(now time.Time, status string) *sqlmock.Rows {
	cols := []string{"id", "agent_id", "type", "amount", "status", "description",
		"ref_id", "ref_kind", "created_at", "updated_at"}
	return sqlmock.NewRows(cols).
		AddRow("t1", "a1", "earnings", 20.0, status, "", "click-1", "click", now, now)
}

func TestTransitionTransaction_GuardsStatus(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET status = $3")).
		WithArgs("t1", "pending", "completed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE id = $1")).
		WithArgs("t1").
		WillReturnRows(txRows(now, "completed"))

	tx, err := s.TransitionTransaction(context.Background(), "t1", ledger.StatusPending, ledger.StatusCompleted)
	require.NoError(t, err)
	require.Equal(t, ledger.StatusCompleted, tx.Status)
}

func TestTransitionTransaction_ConflictWhenAlreadyMoved(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET status = $3")).
		WithArgs("t1", "pending", "completed").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE id = $1")).
		WithArgs("t1").
		WillReturnRows(txRows(now, "completed"))

	_, err := s.TransitionTransaction(context.Background(), "t1", ledger.StatusPending, ledger.StatusCompleted)
	require.ErrorIs(t, err, storage.ErrConflict)
}

func TestGetTransactionByRef_NotFoundIsNotAnError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE ref_kind = $1 AND ref_id = $2")).
		WithArgs("click", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, found, err := s.GetTransactionByRef(context.Background(), ledger.RefClick, "missing")
	require.NoError(t, err)
	require.False(t, found)
}

func TestListClicks_FilterPassedThrough(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	cols := []string{"id", "asin", "product_name", "input_category", "price", "category",
		"commission_rate", "agent_id", "user_id", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM clicks")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("c1", "B000", "TV", "", 500.0, "Electronics", 0.04, "a1", "", now))

	out, err := s.ListClicks(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "a1", out[0].AgentID)
}

func TestTranslateErr(t *testing.T) {
	require.NoError(t, translateErr(nil))
	require.ErrorIs(t, translateErr(&pq.Error{Code: "23505"}), storage.ErrConflict)

	plain := errors.New("connection reset")
	require.Equal(t, plain, translateErr(plain))
}
