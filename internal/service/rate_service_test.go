package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/core/ports/mocks"
	"wallet-ledger/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testRateTTL = 300 * time.Second

type rateTestDeps struct {
	svc        *RateServiceImpl
	cache      *mocks.MockCache
	provider   *mocks.MockRateProvider
	currencies *mocks.MockCurrencyRegistry
}

func setupRateService(t *testing.T) *rateTestDeps {
	ctrl := gomock.NewController(t)
	d := &rateTestDeps{
		cache:      mocks.NewMockCache(ctrl),
		provider:   mocks.NewMockRateProvider(ctrl),
		currencies: mocks.NewMockCurrencyRegistry(ctrl),
	}
	d.svc = NewRateService(d.cache, d.provider, d.currencies, testRateTTL, time.Second, newTestLogger())
	return d
}

func TestRateCacheKey(t *testing.T) {
	assert.Equal(t, "fxrate:NGN:USD", RateCacheKey("NGN", "USD"))
	assert.NotEqual(t, RateCacheKey("NGN", "USD"), RateCacheKey("USD", "NGN"))
}

func TestRateService_CacheHit(t *testing.T) {
	d := setupRateService(t)
	ctx := context.Background()

	d.cache.EXPECT().Get(ctx, "fxrate:NGN:USD").Return("0.0013", true, nil)
	// Provider must not be called

	r, err := d.svc.Rate(ctx, "NGN", "USD")
	require.NoError(t, err)
	assert.True(t, r.Rate.Equal(dec("0.0013")))
	assert.Equal(t, "NGN", r.Base)
	assert.Equal(t, "USD", r.Target)
}

func TestRateService_CacheMissFetchesAndStores(t *testing.T) {
	d := setupRateService(t)
	ctx := context.Background()

	d.cache.EXPECT().Get(ctx, "fxrate:USD:NGN").Return("", false, nil)
	d.provider.EXPECT().Fetch(gomock.Any(), "USD", "NGN").DoAndReturn(
		func(ctx context.Context, _, _ string) (decimal.Decimal, error) {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline, "provider call must be bounded")
			return dec("1550.25"), nil
		})
	d.cache.EXPECT().Set(ctx, "fxrate:USD:NGN", "1550.25", testRateTTL).Return(nil)

	r, err := d.svc.Rate(ctx, "USD", "NGN")
	require.NoError(t, err)
	assert.True(t, r.Rate.Equal(dec("1550.25")))
}

func TestRateService_CorruptCacheEntryIsEvicted(t *testing.T) {
	for _, corrupt := range []string{"-1", "0", "abc", ""} {
		t.Run(fmt.Sprintf("%q", corrupt), func(t *testing.T) {
			d := setupRateService(t)
			ctx := context.Background()

			gomock.InOrder(
				d.cache.EXPECT().Get(ctx, "fxrate:NGN:USD").Return(corrupt, true, nil),
				d.cache.EXPECT().Delete(ctx, "fxrate:NGN:USD").Return(nil),
				d.provider.EXPECT().Fetch(gomock.Any(), "NGN", "USD").Return(dec("0.0013"), nil),
				d.cache.EXPECT().Set(ctx, "fxrate:NGN:USD", "0.0013", testRateTTL).Return(nil),
			)

			r, err := d.svc.Rate(ctx, "NGN", "USD")
			require.NoError(t, err)
			assert.True(t, r.Rate.Equal(dec("0.0013")))
		})
	}
}

func TestRateService_CacheFailuresAreBestEffort(t *testing.T) {
	d := setupRateService(t)
	ctx := context.Background()

	d.cache.EXPECT().Get(ctx, gomock.Any()).Return("", false, errors.New("redis down"))
	d.provider.EXPECT().Fetch(gomock.Any(), "NGN", "EUR").Return(dec("0.0011"), nil)
	d.cache.EXPECT().Set(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	r, err := d.svc.Rate(ctx, "NGN", "EUR")
	require.NoError(t, err)
	assert.True(t, r.Rate.Equal(dec("0.0011")))
}

func TestRateService_ProviderErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"not found", fmt.Errorf("status 404: %w", ports.ErrRateNotFound), apperror.CodeRateNotFound},
		{"unavailable", fmt.Errorf("dial: %w", ports.ErrRateUnavailable), apperror.CodeRateUnavailable},
		{"deadline", context.DeadlineExceeded, apperror.CodeRateUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupRateService(t)
			d.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", false, nil)
			d.provider.EXPECT().Fetch(gomock.Any(), "NGN", "USD").Return(decimal.Zero, tt.err)
			// Nothing is cached on failure

			_, err := d.svc.Rate(context.Background(), "NGN", "USD")
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestRateService_NonPositiveProviderRate(t *testing.T) {
	d := setupRateService(t)
	d.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", false, nil)
	d.provider.EXPECT().Fetch(gomock.Any(), "NGN", "USD").Return(decimal.Zero, nil)

	_, err := d.svc.Rate(context.Background(), "NGN", "USD")
	assert.True(t, apperror.HasCode(err, apperror.CodeRateNotFound))
}

func TestRateService_InvalidPair(t *testing.T) {
	d := setupRateService(t)

	_, err := d.svc.Rate(context.Background(), "USD", "USD")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = d.svc.Rate(context.Background(), "", "USD")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestRateService_WarmAll(t *testing.T) {
	d := setupRateService(t)
	ctx := context.Background()

	d.currencies.EXPECT().List(ctx).Return([]domain.Currency{{Code: "NGN"}, {Code: "USD"}, {Code: "EUR"}}, nil)
	d.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", false, nil).Times(6)

	var mu sync.Mutex
	fetched := map[string]bool{}
	d.provider.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, base, target string) (decimal.Decimal, error) {
			mu.Lock()
			fetched[base+target] = true
			mu.Unlock()
			return dec("2"), nil
		}).Times(6)
	d.cache.EXPECT().Set(gomock.Any(), gomock.Any(), "2", testRateTTL).Return(nil).Times(6)

	rates, err := d.svc.WarmAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rates, 6)
	assert.Len(t, fetched, 6)
	assert.False(t, fetched["NGNNGN"])
	for _, r := range rates {
		assert.NotEqual(t, r.Base, r.Target)
	}
}

func TestRateService_WarmAll_AnyFailureFailsAll(t *testing.T) {
	d := setupRateService(t)

	d.currencies.EXPECT().List(gomock.Any()).Return([]domain.Currency{{Code: "NGN"}, {Code: "USD"}}, nil)
	d.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", false, nil).AnyTimes()
	d.provider.EXPECT().Fetch(gomock.Any(), "NGN", "USD").Return(dec("0.0013"), nil).AnyTimes()
	d.provider.EXPECT().Fetch(gomock.Any(), "USD", "NGN").Return(decimal.Zero, ports.ErrRateNotFound).AnyTimes()
	d.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	rates, err := d.svc.WarmAll(context.Background())
	require.Error(t, err)
	assert.Nil(t, rates)
	assert.True(t, apperror.HasCode(err, apperror.CodeRateNotFound))
}

func TestRateService_WarmAll_NeedsTwoCurrencies(t *testing.T) {
	d := setupRateService(t)
	d.currencies.EXPECT().List(gomock.Any()).Return([]domain.Currency{{Code: "NGN"}}, nil)

	_, err := d.svc.WarmAll(context.Background())
	assert.True(t, apperror.HasCode(err, apperror.CodeMisconfigured))
}
