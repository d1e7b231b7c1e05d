package ports

import (
	"context"
	"errors"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

//go:generate mockgen -source=repositories.go -destination=mocks/repositories_mock.go -package=mocks

// ErrVersionConflict is returned by a conditional write whose expected row
// version no longer matches. The caller retries the whole transaction.
var ErrVersionConflict = errors.New("row version conflict")

// ErrDuplicateEmail is returned by UserRepository.Create for a registered email.
var ErrDuplicateEmail = errors.New("email already registered")

// CurrencyRepository defines persistence operations for the currency catalog.
type CurrencyRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Currency, error)
	List(ctx context.Context) ([]domain.Currency, error)
	// CreateIfAbsent inserts the currency unless its code exists. Reports whether a row was written.
	CreateIfAbsent(ctx context.Context, tx pgx.Tx, currency *domain.Currency) (bool, error)
}

// UserRepository defines persistence operations for wallet owners.
type UserRepository interface {
	Create(ctx context.Context, tx pgx.Tx, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// WalletRepository defines persistence operations for the wallet aggregate.
// Methods accepting pgx.Tx run inside the caller's transaction.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	// GetByUserID loads the wallet with all of its balances.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetByUserIDTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error)
	// CreateBalance inserts a balance row. It returns ErrVersionConflict when
	// the wallet already holds a row for the currency.
	CreateBalance(ctx context.Context, tx pgx.Tx, balance *domain.WalletBalance) error
	// UpdateBalance writes balance.Amount if the stored version still equals
	// balance.Version, then advances balance.Version. A stale version yields ErrVersionConflict.
	UpdateBalance(ctx context.Context, tx pgx.Tx, balance *domain.WalletBalance) error
}

// TransactionRepository defines persistence operations for the transaction log.
type TransactionRepository interface {
	// Create appends a record and fills in its ID and CreatedAt.
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
// Nil filters are not applied.
type TransactionListParams struct {
	WalletID uuid.UUID
	Type     *domain.TransactionType
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
