package http

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/library-ledger/pkg/logger"
)

// ReportCache caches rendered report responses in Redis. A nil client turns
// the cache into a no-op so the service runs without Redis.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a report cache with the given TTL
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

// Get returns the cached body for key, if present.
func (c *ReportCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	body, err := c.client.Get(ctx, key).Bytes()
	if err != nil || len(body) == 0 {
		return nil, false
	}
	logger.Debug(ctx).Str("cache_key", key).Msg("Cache hit")
	return body, true
}

// Set stores body under key for the configured TTL.
func (c *ReportCache) Set(ctx context.Context, key string, body []byte) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Failed to cache response")
	}
}
