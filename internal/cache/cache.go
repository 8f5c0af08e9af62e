package cache

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/jansetu/backend/internal/logger"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL keeps dashboard responses hot for a short window; the case
// collection stays the only source of truth.
const DefaultTTL = 30 * time.Second

// Cache is a nil-safe redis wrapper for read-side payloads. A nil *Cache
// (no REDIS_URL configured) turns every operation into a no-op miss.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFromEnv connects using REDIS_URL, returning nil when unset so callers
// can run without redis entirely.
func NewFromEnv() *Cache {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.WithError(err, "cache").Warn("invalid REDIS_URL, running without cache")
		return nil
	}
	return &Cache{client: redis.NewClient(opts), ttl: DefaultTTL}
}

// GetJSON unmarshals a cached payload into dest; ok is false on miss or
// when the cache is disabled.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// SetJSON stores a payload under the default TTL; failures are logged and
// swallowed, the cache is best-effort.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.WithError(err, "cache").Debug("cache set failed")
	}
}

// Ping reports connectivity for health checks.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}
