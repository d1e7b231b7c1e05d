package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerOptions tunes the ledger's retry loop and trade source.
type LedgerOptions struct {
	SettlementCurrency string
	MaxRetries         int
	RetryBackoff       time.Duration
}

// LedgerServiceImpl implements ports.LedgerService on top of optimistic
// balance versions: every attempt reads the wallet, writes conditionally and
// commits; a version conflict restarts the whole attempt.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	currencies ports.CurrencyRegistry
	rates      ports.RateService
	transactor ports.DBTransactor
	opts       LedgerOptions
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	currencies ports.CurrencyRegistry,
	rates ports.RateService,
	transactor ports.DBTransactor,
	opts LedgerOptions,
	log zerolog.Logger,
) *LedgerServiceImpl {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		currencies: currencies,
		rates:      rates,
		transactor: transactor,
		opts:       opts,
		log:        log,
	}
}

// Deposit credits amount to the user's existing balance in currencyCode.
func (s *LedgerServiceImpl) Deposit(ctx context.Context, userID uuid.UUID, currencyCode string, amount decimal.Decimal) (*domain.WalletBalance, error) {
	return s.single(ctx, userID, currencyCode, amount, domain.TransactionTypeDeposit)
}

// Withdraw debits amount from the user's balance in currencyCode.
func (s *LedgerServiceImpl) Withdraw(ctx context.Context, userID uuid.UUID, currencyCode string, amount decimal.Decimal) (*domain.WalletBalance, error) {
	return s.single(ctx, userID, currencyCode, amount, domain.TransactionTypeWithdraw)
}

// Swap converts amount of fromCode into toCode at the live rate.
func (s *LedgerServiceImpl) Swap(ctx context.Context, userID uuid.UUID, fromCode, toCode string, amount decimal.Decimal) (*ports.ConversionResult, error) {
	return s.convert(ctx, userID, fromCode, toCode, amount, domain.TransactionTypeSwap)
}

// Trade is a swap whose source is the settlement currency.
func (s *LedgerServiceImpl) Trade(ctx context.Context, userID uuid.UUID, targetCode string, amount decimal.Decimal) (*ports.ConversionResult, error) {
	if targetCode == s.opts.SettlementCurrency {
		return nil, apperror.Validation(fmt.Sprintf("cannot trade %s into itself", targetCode))
	}
	return s.convert(ctx, userID, s.opts.SettlementCurrency, targetCode, amount, domain.TransactionTypeTrade)
}

func (s *LedgerServiceImpl) GetBalance(ctx context.Context, userID uuid.UUID, currencyCode string) (*domain.WalletBalance, error) {
	if _, err := s.currencies.Validate(ctx, currencyCode); err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}

	balance := wallet.Balance(currencyCode)
	if balance == nil {
		return nil, apperror.ErrNotFound(fmt.Sprintf("Balance %s", currencyCode))
	}
	return balance, nil
}

func (s *LedgerServiceImpl) GetBalances(ctx context.Context, userID uuid.UUID) ([]*domain.WalletBalance, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}
	if wallet.Balances == nil {
		return []*domain.WalletBalance{}, nil
	}
	return wallet.Balances, nil
}

func (s *LedgerServiceImpl) single(
	ctx context.Context,
	userID uuid.UUID,
	code string,
	amount decimal.Decimal,
	typ domain.TransactionType,
) (*domain.WalletBalance, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if _, err := s.currencies.Validate(ctx, code); err != nil {
		return nil, err
	}

	var result *domain.WalletBalance
	err := s.withRetry(ctx, string(typ), func(ctx context.Context) error {
		b, err := s.applySingle(ctx, userID, code, amount, typ)
		if err != nil {
			return err
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("type", string(typ)).
		Str("currency", code).
		Str("amount", amount.String()).
		Int64("version", result.Version).
		Msg("ledger write committed")

	return result, nil
}

func (s *LedgerServiceImpl) applySingle(
	ctx context.Context,
	userID uuid.UUID,
	code string,
	amount decimal.Decimal,
	typ domain.TransactionType,
) (*domain.WalletBalance, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByUserIDTx(ctx, dbTx, userID)
	if err != nil {
		return nil, storeError("load wallet", err)
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}

	balance := wallet.Balance(code)
	if balance == nil {
		return nil, apperror.ErrNotFound(fmt.Sprintf("Balance %s", code))
	}

	switch typ {
	case domain.TransactionTypeDeposit:
		balance.Amount = balance.Amount.Add(amount)
	case domain.TransactionTypeWithdraw:
		if !balance.CanDebit(amount) {
			return nil, apperror.ErrInsufficientFunds()
		}
		balance.Amount = balance.Amount.Sub(amount)
	default:
		return nil, apperror.InternalError(fmt.Errorf("unsupported single-balance type %s", typ))
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, balance); err != nil {
		return nil, storeError("update balance", err)
	}

	record := &domain.Transaction{
		WalletID:     wallet.ID,
		CurrencyCode: code,
		Amount:       amount,
		Type:         typ,
	}
	if err := s.txRepo.Create(ctx, dbTx, record); err != nil {
		return nil, storeError("append transaction", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, storeError("commit tx", err)
	}
	return balance, nil
}

func (s *LedgerServiceImpl) convert(
	ctx context.Context,
	userID uuid.UUID,
	fromCode, toCode string,
	amount decimal.Decimal,
	typ domain.TransactionType,
) (*ports.ConversionResult, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if fromCode == toCode {
		return nil, apperror.Validation("source and target currencies must differ")
	}
	if _, err := s.currencies.Validate(ctx, fromCode); err != nil {
		return nil, err
	}
	if _, err := s.currencies.Validate(ctx, toCode); err != nil {
		return nil, err
	}

	// The rate is resolved before any transaction opens.
	rate, err := s.rates.Rate(ctx, fromCode, toCode)
	if err != nil {
		return nil, err
	}

	converted := money.Convert(amount, rate.Rate)
	if !converted.IsPositive() {
		return nil, apperror.Wrap(apperror.CodeInvalidAmount,
			fmt.Sprintf("Amount converts to zero %s", toCode), http.StatusBadRequest, nil)
	}

	var result *ports.ConversionResult
	err = s.withRetry(ctx, string(typ), func(ctx context.Context) error {
		from, to, err := s.applyConversion(ctx, userID, fromCode, toCode, amount, converted, typ)
		if err != nil {
			return err
		}
		result = &ports.ConversionResult{From: from, To: to, Rate: rate.Rate, Converted: converted}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("type", string(typ)).
		Str("from", fromCode).
		Str("to", toCode).
		Str("amount", amount.String()).
		Str("rate", rate.Rate.String()).
		Str("converted", converted.String()).
		Msg("ledger conversion committed")

	return result, nil
}

func (s *LedgerServiceImpl) applyConversion(
	ctx context.Context,
	userID uuid.UUID,
	fromCode, toCode string,
	amount, converted decimal.Decimal,
	typ domain.TransactionType,
) (*domain.WalletBalance, *domain.WalletBalance, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByUserIDTx(ctx, dbTx, userID)
	if err != nil {
		return nil, nil, storeError("load wallet", err)
	}
	if wallet == nil {
		return nil, nil, apperror.ErrNotFound("Wallet")
	}

	from := wallet.Balance(fromCode)
	if from == nil {
		return nil, nil, apperror.ErrNotFound(fmt.Sprintf("Balance %s", fromCode))
	}
	if !from.CanDebit(amount) {
		return nil, nil, apperror.ErrInsufficientFunds()
	}
	from.Amount = from.Amount.Sub(amount)

	to := wallet.Balance(toCode)
	createTo := to == nil
	if createTo {
		// First receipt of this currency: the row is born holding the credit.
		to = domain.NewBalance(wallet.ID, toCode)
		to.Amount = converted
		to.Version = 1
	} else {
		to.Amount = to.Amount.Add(converted)
	}

	// Rows are always written in code order so opposite-direction swaps
	// touch them in the same sequence.
	codes := []string{fromCode, toCode}
	sort.Strings(codes)
	for _, code := range codes {
		switch {
		case code == fromCode:
			err = s.walletRepo.UpdateBalance(ctx, dbTx, from)
		case createTo:
			err = s.walletRepo.CreateBalance(ctx, dbTx, to)
		default:
			err = s.walletRepo.UpdateBalance(ctx, dbTx, to)
		}
		if err != nil {
			return nil, nil, storeError("write balance "+code, err)
		}
	}

	record := &domain.Transaction{
		WalletID:       wallet.ID,
		CurrencyCode:   fromCode,
		Amount:         amount,
		Type:           typ,
		ToCurrencyCode: toCode,
	}
	if err := s.txRepo.Create(ctx, dbTx, record); err != nil {
		return nil, nil, storeError("append transaction", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, nil, storeError("commit tx", err)
	}
	return from, to, nil
}

// withRetry runs attempt until it succeeds, fails with anything other than a
// version conflict, or the retry budget is spent.
func (s *LedgerServiceImpl) withRetry(ctx context.Context, op string, attempt func(ctx context.Context) error) error {
	var lastErr error
	for n := 1; n <= s.opts.MaxRetries; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := attempt(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ports.ErrVersionConflict) {
			return err
		}
		lastErr = err

		s.log.Warn().
			Err(err).
			Str("op", op).
			Int("attempt", n).
			Int("max_attempts", s.opts.MaxRetries).
			Msg("optimistic lock conflict, retrying")

		if n < s.opts.MaxRetries && s.opts.RetryBackoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.opts.RetryBackoff * time.Duration(n)):
			}
		}
	}
	return apperror.ErrConflict(lastErr)
}

// storeError passes version conflicts through untouched so withRetry can
// see them, and wraps everything else as an internal error.
func storeError(op string, err error) error {
	if errors.Is(err, ports.ErrVersionConflict) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}

func validateAmount(amount decimal.Decimal) error {
	switch err := money.Validate(amount); {
	case err == nil:
		return nil
	case errors.Is(err, money.ErrTooPrecise):
		return apperror.Wrap(apperror.CodeInvalidAmount,
			fmt.Sprintf("Amount supports at most %d fractional digits", money.Scale), http.StatusBadRequest, err)
	default:
		return apperror.ErrInvalidAmount()
	}
}
