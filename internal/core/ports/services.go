package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=services.go -destination=mocks/services_mock.go -package=mocks

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
}

// --- Service Ports (Business Logic) ---

// CurrencyRegistry resolves currency codes against the catalog.
type CurrencyRegistry interface {
	Validate(ctx context.Context, code string) (*domain.Currency, error)
	// Default returns the configured default currency, or a Misconfigured error.
	Default(ctx context.Context) (*domain.Currency, error)
	List(ctx context.Context) ([]domain.Currency, error)
	// Seed inserts the given currencies, skipping codes already present.
	Seed(ctx context.Context, currencies []domain.Currency) (int, error)
}

// RateService resolves conversion rates through the cache.
type RateService interface {
	Rate(ctx context.Context, base, target string) (*domain.Rate, error)
	// WarmAll fetches every ordered pair of the catalog. Any failure fails the whole call.
	WarmAll(ctx context.Context) ([]domain.Rate, error)
}

// LedgerService defines the balance-mutating operations.
type LedgerService interface {
	Deposit(ctx context.Context, userID uuid.UUID, currencyCode string, amount decimal.Decimal) (*domain.WalletBalance, error)
	Withdraw(ctx context.Context, userID uuid.UUID, currencyCode string, amount decimal.Decimal) (*domain.WalletBalance, error)
	Swap(ctx context.Context, userID uuid.UUID, fromCode, toCode string, amount decimal.Decimal) (*ConversionResult, error)
	Trade(ctx context.Context, userID uuid.UUID, targetCode string, amount decimal.Decimal) (*ConversionResult, error)
	GetBalance(ctx context.Context, userID uuid.UUID, currencyCode string) (*domain.WalletBalance, error)
	GetBalances(ctx context.Context, userID uuid.UUID) ([]*domain.WalletBalance, error)
}

// ConversionResult is returned by Swap and Trade.
type ConversionResult struct {
	From      *domain.WalletBalance `json:"from"`
	To        *domain.WalletBalance `json:"to"`
	Rate      decimal.Decimal       `json:"rate"`
	Converted decimal.Decimal       `json:"converted"`
}

// ProvisioningService creates a user together with a fully provisioned wallet.
type ProvisioningService interface {
	Provision(ctx context.Context, account NewAccount) (*ProvisionedAccount, error)
}

// NewAccount holds validated input for account creation. The password is already hashed.
type NewAccount struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	PhoneNumber  string
}

// ProvisionedAccount is the result of a successful provisioning.
type ProvisionedAccount struct {
	User    *domain.User
	Wallet  *domain.Wallet
	Opening *domain.Transaction
}

// TransactionQueryService is the read side of the transaction log.
type TransactionQueryService interface {
	ListTransactions(ctx context.Context, userID uuid.UUID, filter TransactionFilter) (*TransactionPage, error)
}

// TransactionFilter holds caller-supplied filters. Zero Limit means the default.
type TransactionFilter struct {
	Type      string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// TransactionPage is one window of the log, newest first.
type TransactionPage struct {
	Items  []domain.Transaction
	Limit  int
	Offset int
}

// AuthService defines authentication business logic.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*ProvisionedAccount, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for user registration.
type RegisterRequest struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// AuditService records audit entries without blocking the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
