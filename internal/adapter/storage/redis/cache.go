package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Cache implements ports.Cache on top of plain Redis strings. It also
// reports as a health dependency, since the limiter shares its client.
type Cache struct {
	client *goredis.Client
}

// NewCache creates a new Redis-backed key-value cache.
func NewCache(client *goredis.Client) *Cache {
	return &Cache{client: client}
}

// Get returns the stored value. A missing key is reported with ok=false and no error.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis cache get: %w", err)
	}
	return val, true, nil
}

// Set stores value under key. A zero ttl keeps the key until deleted.
func (c *Cache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis cache set: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis cache delete: %w", err)
	}
	return nil
}

// Ping implements ports.HealthChecker.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Name implements ports.HealthChecker.
func (c *Cache) Name() string {
	return "rate_cache"
}
