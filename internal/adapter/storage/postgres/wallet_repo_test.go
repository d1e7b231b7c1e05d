package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(userID uuid.UUID) *domain.Wallet {
	now := time.Now().UTC().Truncate(time.Microsecond)
	w := &domain.Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	w.Balances = []*domain.WalletBalance{
		{ID: uuid.New(), WalletID: w.ID, CurrencyCode: "NGN", Amount: decimal.RequireFromString("10000.00"), Version: 3, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), WalletID: w.ID, CurrencyCode: "USD", Amount: decimal.Zero, Version: 0, CreatedAt: now, UpdatedAt: now},
	}
	return w
}

func walletRow(w *domain.Wallet) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "user_id", "version", "created_at", "updated_at"}).
		AddRow(w.ID, w.UserID, w.Version, w.CreatedAt, w.UpdatedAt)
}

func balanceRows(bs ...*domain.WalletBalance) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{"id", "wallet_id", "currency_code", "amount", "version", "created_at", "updated_at"})
	for _, b := range bs {
		rows.AddRow(b.ID, b.WalletID, b.CurrencyCode, b.Amount, b.Version, b.CreatedAt, b.UpdatedAt)
	}
	return rows
}

func TestWalletRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.ID, w.UserID, w.Version, w.CreatedAt, w.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	for _, b := range w.Balances {
		mock.ExpectExec("INSERT INTO wallet_balances").
			WithArgs(b.ID, b.WalletID, b.CurrencyCode, b.Amount, b.Version, b.CreatedAt, b.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, w)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByUserID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE user_id").
		WithArgs(w.UserID).
		WillReturnRows(walletRow(w))
	mock.ExpectQuery("SELECT .+ FROM wallet_balances WHERE wallet_id").
		WithArgs(w.ID).
		WillReturnRows(balanceRows(w.Balances...))

	result, err := repo.GetByUserID(context.Background(), w.UserID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	require.Len(t, result.Balances, 2)
	ngn := result.Balance("NGN")
	require.NotNil(t, ngn)
	assert.True(t, ngn.Amount.Equal(decimal.RequireFromString("10000")))
	assert.Equal(t, int64(3), ngn.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByUserID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	userID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE user_id").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "version", "created_at", "updated_at"}))

	result, err := repo.GetByUserID(context.Background(), userID)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByUserIDTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM wallets WHERE user_id").
		WithArgs(w.UserID).
		WillReturnRows(walletRow(w))
	mock.ExpectQuery("SELECT .+ FROM wallet_balances WHERE wallet_id").
		WithArgs(w.ID).
		WillReturnRows(balanceRows(w.Balances[0]))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByUserIDTx(context.Background(), tx, w.UserID)
	require.NoError(t, err)
	require.Len(t, result.Balances, 1)
	assert.Nil(t, result.Balance("USD"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_CreateBalance_Conflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	b := domain.NewBalance(uuid.New(), "EUR")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO wallet_balances .+ ON CONFLICT").
		WithArgs(b.ID, b.WalletID, b.CurrencyCode, b.Amount, b.Version, b.CreatedAt, b.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.CreateBalance(context.Background(), tx, b)
	assert.ErrorIs(t, err, ports.ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_UpdateBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	b := &domain.WalletBalance{ID: uuid.New(), Amount: decimal.RequireFromString("12.5"), Version: 7}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallet_balances SET amount .+ WHERE id .+ AND version").
		WithArgs(b.Amount, pgxmock.AnyArg(), b.ID, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateBalance(context.Background(), tx, b)
	require.NoError(t, err)
	assert.Equal(t, int64(8), b.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_UpdateBalance_StaleVersion(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	b := &domain.WalletBalance{ID: uuid.New(), Amount: decimal.NewFromInt(1), Version: 2}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallet_balances SET amount").
		WithArgs(b.Amount, pgxmock.AnyArg(), b.ID, int64(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateBalance(context.Background(), tx, b)
	assert.ErrorIs(t, err, ports.ErrVersionConflict)
	assert.Equal(t, int64(2), b.Version, "version must not advance on a rejected write")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_UpdateBalance_SerializationFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	b := &domain.WalletBalance{ID: uuid.New(), Amount: decimal.NewFromInt(1), Version: 2}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallet_balances SET amount").
		WithArgs(b.Amount, pgxmock.AnyArg(), b.ID, int64(2)).
		WillReturnError(&pgconn.PgError{Code: "40P01", Message: "deadlock detected"})

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateBalance(context.Background(), tx, b)
	assert.ErrorIs(t, err, ports.ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_UpdateBalance_DBError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	b := &domain.WalletBalance{ID: uuid.New(), Amount: decimal.NewFromInt(1), Version: 2}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallet_balances SET amount").
		WithArgs(b.Amount, pgxmock.AnyArg(), b.ID, int64(2)).
		WillReturnError(errors.New("connection reset"))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateBalance(context.Background(), tx, b)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
