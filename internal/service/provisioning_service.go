package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Mock opening balances are drawn in cents from [mockMinCents, mockMaxCents).
const (
	mockMinCents = 10_000 * 100
	mockMaxCents = 10_000_000 * 100
)

// ProvisioningOptions controls the opening balance of new wallets.
type ProvisioningOptions struct {
	OpeningBalance decimal.Decimal
	MockBalance    bool
}

// ProvisioningServiceImpl implements ports.ProvisioningService.
type ProvisioningServiceImpl struct {
	userRepo   ports.UserRepository
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	currencies ports.CurrencyRegistry
	transactor ports.DBTransactor
	opts       ProvisioningOptions
	log        zerolog.Logger
}

// NewProvisioningService creates a new ProvisioningServiceImpl.
func NewProvisioningService(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	currencies ports.CurrencyRegistry,
	transactor ports.DBTransactor,
	opts ProvisioningOptions,
	log zerolog.Logger,
) *ProvisioningServiceImpl {
	if opts.MockBalance {
		log.Warn().Msg("mock opening balances are enabled; new wallets receive random funds")
	}
	return &ProvisioningServiceImpl{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		currencies: currencies,
		transactor: transactor,
		opts:       opts,
		log:        log,
	}
}

// Provision creates the user, the wallet, one balance per catalog currency
// and the opening DEPOSIT in a single transaction. Nothing survives a failure.
func (s *ProvisioningServiceImpl) Provision(ctx context.Context, acct ports.NewAccount) (*ports.ProvisionedAccount, error) {
	def, err := s.currencies.Default(ctx)
	if err != nil {
		return nil, err
	}
	catalog, err := s.currencies.List(ctx)
	if err != nil {
		return nil, err
	}

	opening := s.openingAmount()
	now := time.Now().UTC()

	user := &domain.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(acct.Email)),
		PasswordHash: acct.PasswordHash,
		FirstName:    acct.FirstName,
		LastName:     acct.LastName,
		PhoneNumber:  acct.PhoneNumber,
		CreatedAt:    now,
	}

	wallet := &domain.Wallet{
		ID:        uuid.New(),
		UserID:    user.ID,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, c := range catalog {
		b := domain.NewBalance(wallet.ID, c.Code)
		if c.Code == def.Code {
			b.Amount = opening
		}
		wallet.Balances = append(wallet.Balances, b)
	}
	if wallet.Balance(def.Code) == nil {
		b := domain.NewBalance(wallet.ID, def.Code)
		b.Amount = opening
		wallet.Balances = append(wallet.Balances, b)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.userRepo.Create(ctx, dbTx, user); err != nil {
		return nil, provisionError("create user", err)
	}
	if err := s.walletRepo.Create(ctx, dbTx, wallet); err != nil {
		return nil, provisionError("create wallet", err)
	}

	deposit := &domain.Transaction{
		WalletID:     wallet.ID,
		CurrencyCode: def.Code,
		Amount:       opening,
		Type:         domain.TransactionTypeDeposit,
	}
	if err := s.txRepo.Create(ctx, dbTx, deposit); err != nil {
		return nil, provisionError("append opening deposit", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, provisionError("commit tx", err)
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Str("wallet_id", wallet.ID.String()).
		Int("balances", len(wallet.Balances)).
		Str("opening", opening.String()).
		Str("currency", def.Code).
		Msg("account provisioned")

	return &ports.ProvisionedAccount{User: user, Wallet: wallet, Opening: deposit}, nil
}

func (s *ProvisioningServiceImpl) openingAmount() decimal.Decimal {
	if !s.opts.MockBalance {
		return s.opts.OpeningBalance
	}
	cents := mockMinCents + rand.Int64N(mockMaxCents-mockMinCents)
	return decimal.New(cents, -2)
}

func provisionError(op string, err error) error {
	if errors.Is(err, ports.ErrDuplicateEmail) {
		return apperror.ErrEmailExists()
	}
	return storeError(op, err)
}
