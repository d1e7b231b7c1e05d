package service

import (
	"context"
	"fmt"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// CurrencyServiceImpl implements ports.CurrencyRegistry.
type CurrencyServiceImpl struct {
	repo        ports.CurrencyRepository
	transactor  ports.DBTransactor
	defaultCode string
	log         zerolog.Logger
}

// NewCurrencyService creates a new CurrencyServiceImpl. defaultCode is the
// configured default currency; it is checked lazily by Default.
func NewCurrencyService(
	repo ports.CurrencyRepository,
	transactor ports.DBTransactor,
	defaultCode string,
	log zerolog.Logger,
) *CurrencyServiceImpl {
	return &CurrencyServiceImpl{
		repo:        repo,
		transactor:  transactor,
		defaultCode: defaultCode,
		log:         log,
	}
}

// Validate resolves code against the catalog. Matching is exact and case-sensitive.
func (s *CurrencyServiceImpl) Validate(ctx context.Context, code string) (*domain.Currency, error) {
	if code == "" {
		return nil, apperror.Validation("currency code is required")
	}

	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get currency %s: %w", code, err))
	}
	if c == nil {
		return nil, apperror.ErrNotFound(fmt.Sprintf("Currency %s", code))
	}
	return c, nil
}

// Default returns the configured default currency. A default that is missing
// from the catalog is a deployment error, not a lookup miss.
func (s *CurrencyServiceImpl) Default(ctx context.Context) (*domain.Currency, error) {
	if s.defaultCode == "" {
		return nil, apperror.Misconfigured("default currency is not configured", nil)
	}

	c, err := s.repo.GetByCode(ctx, s.defaultCode)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get default currency: %w", err))
	}
	if c == nil {
		return nil, apperror.Misconfigured(
			fmt.Sprintf("default currency %s is not in the catalog", s.defaultCode), nil)
	}
	return c, nil
}

func (s *CurrencyServiceImpl) List(ctx context.Context) ([]domain.Currency, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list currencies: %w", err))
	}
	if list == nil {
		list = []domain.Currency{}
	}
	return list, nil
}

// Seed inserts currencies in one transaction, skipping codes already present.
// It returns the number of rows written. Malformed entries fail the whole seed.
func (s *CurrencyServiceImpl) Seed(ctx context.Context, currencies []domain.Currency) (int, error) {
	seen := make(map[string]struct{}, len(currencies))
	for i, c := range currencies {
		if c.Code == "" || c.Name == "" {
			return 0, apperror.Misconfigured(fmt.Sprintf("currency seed entry %d: code and name are required", i), nil)
		}
		if _, dup := seen[c.Code]; dup {
			return 0, apperror.Misconfigured(fmt.Sprintf("currency seed entry %d: duplicate code %s", i, c.Code), nil)
		}
		seen[c.Code] = struct{}{}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	inserted := 0
	for i := range currencies {
		created, err := s.repo.CreateIfAbsent(ctx, dbTx, &currencies[i])
		if err != nil {
			return 0, apperror.InternalError(fmt.Errorf("seed currency %s: %w", currencies[i].Code, err))
		}
		if created {
			inserted++
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Int("requested", len(currencies)).
		Int("inserted", inserted).
		Msg("currency catalog seeded")

	return inserted, nil
}
