package ports

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=collaborators.go -destination=mocks/collaborators_mock.go -package=mocks

var (
	// ErrRateNotFound means the provider answered but had no rate for the pair.
	ErrRateNotFound = errors.New("rate not found")
	// ErrRateUnavailable means the provider could not be reached in time.
	ErrRateUnavailable = errors.New("rate provider unavailable")
)

// Cache is a string key-value store with expiry. Get reports a miss with ok=false.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RateProvider fetches a live conversion rate for an ordered currency pair.
type RateProvider interface {
	Fetch(ctx context.Context, base, target string) (decimal.Decimal, error)
}

// RateLimitStore counts requests per key in fixed windows.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}
