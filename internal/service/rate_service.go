package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const warmConcurrency = 8

// RateCacheKey is the cache key for the ordered pair base -> target.
func RateCacheKey(base, target string) string {
	return "fxrate:" + base + ":" + target
}

// RateServiceImpl implements ports.RateService: cache first, provider on miss.
type RateServiceImpl struct {
	cache      ports.Cache
	provider   ports.RateProvider
	currencies ports.CurrencyRegistry
	ttl        time.Duration
	timeout    time.Duration
	log        zerolog.Logger
}

// NewRateService creates a new RateServiceImpl. Every provider call is bounded by timeout.
func NewRateService(
	cache ports.Cache,
	provider ports.RateProvider,
	currencies ports.CurrencyRegistry,
	ttl time.Duration,
	timeout time.Duration,
	log zerolog.Logger,
) *RateServiceImpl {
	return &RateServiceImpl{
		cache:      cache,
		provider:   provider,
		currencies: currencies,
		ttl:        ttl,
		timeout:    timeout,
		log:        log,
	}
}

// Rate returns the positive conversion rate for base -> target.
// Cache failures are logged and fall through to the provider.
func (s *RateServiceImpl) Rate(ctx context.Context, base, target string) (*domain.Rate, error) {
	if base == "" || target == "" {
		return nil, apperror.Validation("base and target currencies are required")
	}
	if base == target {
		return nil, apperror.Validation("base and target currencies must differ")
	}

	key := RateCacheKey(base, target)

	if cached, ok := s.fromCache(ctx, key); ok {
		return &domain.Rate{Base: base, Target: target, Rate: cached, FetchedAt: time.Now().UTC()}, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rate, err := s.provider.Fetch(fetchCtx, base, target)
	if err != nil {
		return nil, s.mapProviderError(ctx, base, target, err)
	}
	if !rate.IsPositive() {
		return nil, apperror.ErrRateNotFound(base, target)
	}

	if err := s.cache.Set(ctx, key, rate.String(), s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache fx rate")
	}

	return &domain.Rate{Base: base, Target: target, Rate: rate, FetchedAt: time.Now().UTC()}, nil
}

// fromCache reads a cached rate. A value that is not a positive decimal is
// evicted and reported as a miss.
func (s *RateServiceImpl) fromCache(ctx context.Context, key string) (decimal.Decimal, bool) {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("fx rate cache read failed, falling through to provider")
		return decimal.Zero, false
	}
	if !ok {
		return decimal.Zero, false
	}

	rate, err := decimal.NewFromString(raw)
	if err == nil && rate.IsPositive() {
		return rate, true
	}

	s.log.Warn().Str("key", key).Str("value", raw).Msg("evicting corrupt fx rate from cache")
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to evict corrupt fx rate")
	}
	return decimal.Zero, false
}

func (s *RateServiceImpl) mapProviderError(ctx context.Context, base, target string, err error) error {
	switch {
	case errors.Is(err, ports.ErrRateNotFound):
		return apperror.ErrRateNotFound(base, target)
	case ctx.Err() != nil:
		// Caller went away; the provider did nothing wrong.
		return ctx.Err()
	default:
		s.log.Warn().Err(err).Str("base", base).Str("target", target).Msg("fx provider unavailable")
		return apperror.ErrRateUnavailable(err)
	}
}

// WarmAll fetches every ordered pair of distinct catalog currencies
// concurrently. The first failure cancels the rest and fails the call.
func (s *RateServiceImpl) WarmAll(ctx context.Context) ([]domain.Rate, error) {
	list, err := s.currencies.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) < 2 {
		return nil, apperror.Misconfigured(
			fmt.Sprintf("fx warm-up needs at least 2 currencies, catalog has %d", len(list)), nil)
	}

	type pair struct{ base, target string }
	pairs := make([]pair, 0, len(list)*(len(list)-1))
	for _, b := range list {
		for _, t := range list {
			if b.Code != t.Code {
				pairs = append(pairs, pair{b.Code, t.Code})
			}
		}
	}

	rates := make([]domain.Rate, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmConcurrency)
	for i, p := range pairs {
		g.Go(func() error {
			r, err := s.Rate(gctx, p.base, p.target)
			if err != nil {
				return fmt.Errorf("warm %s/%s: %w", p.base, p.target, err)
			}
			rates[i] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.Info().Int("pairs", len(rates)).Msg("fx rate cache warmed")
	return rates, nil
}
