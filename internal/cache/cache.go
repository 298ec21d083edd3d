// Package cache provides a best-effort JSON cache in front of a key-value
// store. Cache failures are logged and reported as misses, never returned.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"sellerdesk/internal/metrics"
)

// Common TTLs.
const (
	TTLCompetitorKeywords = time.Hour
	TTLSeedExpansion      = 24 * time.Hour
	TTLListingDraft       = time.Hour
)

// Store is the raw key-value backend. Get returns nil, nil on a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	InvalidatePattern(ctx context.Context, pattern string) (int, error)
}

// Result reports the outcome of a cache read.
type Result int

const (
	Miss Result = iota
	Hit
)

// Cache encodes values as JSON on top of a Store. A nil Store disables
// caching entirely.
type Cache struct {
	store  Store
	logger *slog.Logger
}

// New creates a cache over store.
func New(store Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, logger: logger}
}

// Enabled reports whether a backing store is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.store != nil
}

// Get decodes the value at key into dest. Any failure is a Miss.
func (c *Cache) Get(ctx context.Context, key string, dest any) Result {
	if !c.Enabled() {
		return Miss
	}
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		metrics.RecordCacheOp("get", metrics.OutcomeError)
		return Miss
	}
	if raw == nil {
		metrics.RecordCacheOp("get", metrics.OutcomeMiss)
		return Miss
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("cache decode failed", "key", key, "error", err)
		metrics.RecordCacheOp("get", metrics.OutcomeError)
		return Miss
	}
	metrics.RecordCacheOp("get", metrics.OutcomeHit)
	return Hit
}

// Set stores value at key for ttl. Errors are logged and dropped.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		metrics.RecordCacheOp("set", metrics.OutcomeError)
		return
	}
	if err := c.store.Set(ctx, key, raw, ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
		metrics.RecordCacheOp("set", metrics.OutcomeError)
		return
	}
	metrics.RecordCacheOp("set", metrics.OutcomeOK)
}

// Del removes key. Errors are logged and dropped.
func (c *Cache) Del(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("cache delete failed", "key", key, "error", err)
		metrics.RecordCacheOp("del", metrics.OutcomeError)
		return
	}
	metrics.RecordCacheOp("del", metrics.OutcomeOK)
}

// InvalidatePattern deletes every key matching a glob pattern and returns
// how many were removed. Errors are logged and reported as zero.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) int {
	if !c.Enabled() {
		return 0
	}
	n, err := c.store.InvalidatePattern(ctx, pattern)
	if err != nil {
		c.logger.Warn("cache invalidation failed", "pattern", pattern, "error", err)
		metrics.RecordCacheOp("invalidate", metrics.OutcomeError)
		return 0
	}
	metrics.RecordCacheOp("invalidate", metrics.OutcomeOK)
	return n
}
