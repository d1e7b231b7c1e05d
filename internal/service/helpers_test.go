package service

import (
	"context"
	"io"
	"testing"

	"wallet-ledger/internal/adapter/storage/memory"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// mockTx implements pgx.Tx for testing. A non-nil commitErr fails Commit.
type mockTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (m *mockTx) Commit(_ context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(_ context.Context) error {
	if m.committed {
		return pgx.ErrTxClosed
	}
	m.rolledBack = true
	return nil
}

// stubRates is a fixed RateService keyed by "BASE:TARGET".
type stubRates struct {
	rates map[string]decimal.Decimal
}

func (s *stubRates) Rate(_ context.Context, base, target string) (*domain.Rate, error) {
	r, ok := s.rates[base+":"+target]
	if !ok {
		return nil, apperror.ErrRateNotFound(base, target)
	}
	return &domain.Rate{Base: base, Target: target, Rate: r}, nil
}

func (s *stubRates) WarmAll(context.Context) ([]domain.Rate, error) { return nil, nil }

// ledgerFixture wires the real services over the in-memory store.
type ledgerFixture struct {
	store        *memory.Store
	wallets      *memory.WalletRepo
	transactions *memory.TransactionRepo
	currencies   *CurrencyServiceImpl
	rates        *stubRates
	ledger       *LedgerServiceImpl
	provisioning *ProvisioningServiceImpl
	query        *QueryServiceImpl
}

func newLedgerFixture(t *testing.T, opts LedgerOptions) *ledgerFixture {
	t.Helper()
	log := newTestLogger()

	store := memory.NewStore()
	transactor := memory.NewTransactor(store)
	f := &ledgerFixture{
		store:        store,
		wallets:      memory.NewWalletRepo(store),
		transactions: memory.NewTransactionRepo(store),
		rates: &stubRates{rates: map[string]decimal.Decimal{
			"NGN:USD": dec("0.0013"),
			"USD:NGN": dec("1550"),
			"NGN:EUR": dec("0.0011"),
			"EUR:USD": dec("1.08"),
			"USD:EUR": dec("0.92"),
		}},
	}
	f.currencies = NewCurrencyService(memory.NewCurrencyRepo(store), transactor, "NGN", log)

	_, err := f.currencies.Seed(context.Background(), []domain.Currency{
		{Code: "NGN", Name: "Nigerian Naira"},
		{Code: "USD", Name: "US Dollar"},
		{Code: "EUR", Name: "Euro"},
	})
	require.NoError(t, err)

	if opts.SettlementCurrency == "" {
		opts.SettlementCurrency = "NGN"
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	f.ledger = NewLedgerService(f.wallets, f.transactions, f.currencies, f.rates, transactor, opts, log)
	f.provisioning = NewProvisioningService(
		memory.NewUserRepo(store), f.wallets, f.transactions, f.currencies, transactor,
		ProvisioningOptions{OpeningBalance: decimal.Zero}, log,
	)
	f.query = NewQueryService(f.wallets, f.transactions, log)
	return f
}

// newUser provisions a user and deposits opening amounts per currency.
func (f *ledgerFixture) newUser(t *testing.T, opening map[string]string) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	acct, err := f.provisioning.Provision(ctx, ports.NewAccount{
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "h",
		FirstName:    "Test",
		LastName:     "User",
	})
	require.NoError(t, err)

	for code, amount := range opening {
		_, err := f.ledger.Deposit(ctx, acct.User.ID, code, dec(amount))
		require.NoError(t, err)
	}
	return acct.User.ID
}

func (f *ledgerFixture) balance(t *testing.T, userID uuid.UUID, code string) *domain.WalletBalance {
	t.Helper()
	b, err := f.ledger.GetBalance(context.Background(), userID, code)
	require.NoError(t, err)
	return b
}

func (f *ledgerFixture) log(t *testing.T, userID uuid.UUID) []domain.Transaction {
	t.Helper()
	page, err := f.query.ListTransactions(context.Background(), userID, ports.TransactionFilter{Limit: MaxPageLimit})
	require.NoError(t, err)
	return page.Items
}
