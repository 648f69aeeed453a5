package postgres

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokobesi/terminal/internal/domain"
	"tokobesi/terminal/internal/store"
)

var heldColumns = []string{"id", "store_id", "terminal_id", "cashier_name", "note", "cart", "held_at"}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewWithDB(db), mock
}

func cartJSON(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal(domain.CartState{
		Lines:          []domain.CartLine{{ProductID: "p-1", Name: "Pipa PVC 3m", UnitPriceCents: 45000, Qty: 3}},
		IdempotencyKey: "sale-1",
	})
	require.NoError(t, err)
	return raw
}

func TestMigrateAppliesSchema(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS terminal_sessions")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Migrate(context.Background()))
}

func TestSaveAndGetSession(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	expires := time.Date(2026, 5, 1, 17, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO terminal_sessions")).
		WithArgs("sess-1", "jwt", "u-1", "kasir1", "Kasir Satu", "cashier", "store-1", "t-1",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.SaveSession(ctx, domain.Session{
		ID: "sess-1", Token: "jwt", UserID: "u-1", Username: "kasir1", Name: "Kasir Satu",
		Role: "cashier", StoreID: "store-1", TerminalID: "t-1", ExpiresAt: expires,
	})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "token", "user_id", "username", "name", "role", "store_id", "terminal_id", "cart", "created_at", "expires_at"}).
		AddRow("sess-1", "jwt", "u-1", "kasir1", "Kasir Satu", "cashier", "store-1", "t-1", cartJSON(t), expires.Add(-time.Hour), expires)
	mock.ExpectQuery(regexp.QuoteMeta("FROM terminal_sessions")).
		WithArgs("sess-1").
		WillReturnRows(rows)

	session, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "jwt", session.Token)
	assert.Equal(t, expires, session.ExpiresAt)
	require.Len(t, session.Cart.Lines, 1)
	assert.Equal(t, 3, session.Cart.Lines[0].Qty)
}

func TestGetSessionNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM terminal_sessions")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetSession(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteSessionMissingRow(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM terminal_sessions WHERE id = $1")).
		WithArgs("sess-x").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, s.DeleteSession(context.Background(), "sess-x"), store.ErrNotFound)
}

func TestDeleteExpiredSessions(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM terminal_sessions")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	removed, err := s.DeleteExpiredSessions(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)
}

func TestCreateHeldSale(t *testing.T) {
	s, mock := newMockStore(t)
	heldAt := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO held_sales")).
		WithArgs("hold-1", "store-1", "t-1", "Kasir Satu", "customer fetching ladder", sqlmock.AnyArg(), heldAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	var cart domain.CartState
	require.NoError(t, json.Unmarshal(cartJSON(t), &cart))
	held, err := s.CreateHeldSale(context.Background(), domain.HeldSale{
		ID: "hold-1", StoreID: "store-1", TerminalID: "t-1", CashierName: "Kasir Satu",
		Note: "customer fetching ladder", Cart: cart, HeldAt: heldAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "hold-1", held.ID)

	_, err = s.CreateHeldSale(context.Background(), domain.HeldSale{StoreID: "store-1", TerminalID: "t-1"})
	require.ErrorIs(t, err, store.ErrInvalidHold)
}

func TestListHeldSales(t *testing.T) {
	s, mock := newMockStore(t)
	heldAt := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(heldColumns).
		AddRow("hold-2", "store-1", "t-1", "Kasir Satu", "", cartJSON(t), heldAt.Add(time.Minute)).
		AddRow("hold-1", "store-1", "t-1", "Kasir Satu", "", cartJSON(t), heldAt)

	mock.ExpectQuery(regexp.QuoteMeta("FROM held_sales")).
		WithArgs("store-1", "t-1", store.DefaultHeldLimit).
		WillReturnRows(rows)

	helds, err := s.ListHeldSales(context.Background(), "store-1", "t-1", 0)
	require.NoError(t, err)
	require.Len(t, helds, 2)
	assert.Equal(t, "hold-2", helds[0].ID)
	assert.Equal(t, int64(45000), helds[1].Cart.Lines[0].UnitPriceCents)
}

func TestPopHeldSaleLocksAndDeletes(t *testing.T) {
	s, mock := newMockStore(t)
	heldAt := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND store_id = $2 AND terminal_id = $3")).
		WithArgs("hold-1", "store-1", "t-1").
		WillReturnRows(sqlmock.NewRows(heldColumns).AddRow("hold-1", "store-1", "t-1", "Kasir Satu", "", cartJSON(t), heldAt))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM held_sales WHERE id = $1")).
		WithArgs("hold-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	held, err := s.PopHeldSale(context.Background(), "store-1", "t-1", "hold-1")
	require.NoError(t, err)
	assert.Equal(t, "hold-1", held.ID)
	assert.Equal(t, "sale-1", held.Cart.IdempotencyKey)
}

func TestPopHeldSaleNotFoundRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("hold-x", "store-1", "t-2").
		WillReturnRows(sqlmock.NewRows(heldColumns))
	mock.ExpectRollback()

	_, err := s.PopHeldSale(context.Background(), "store-1", "t-2", "hold-x")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteHeldSaleScopedToTerminal(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM held_sales WHERE id = $1 AND store_id = $2 AND terminal_id = $3")).
		WithArgs("hold-1", "store-1", "t-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.DeleteHeldSale(context.Background(), "store-1", "t-2", "hold-1")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
