// Package cache provides an optional Redis-backed cache of per-item
// summaries. Re-runs over an unchanged backlog skip their LLM calls,
// which keeps repeated generation cheap and the non-prose parts of the
// output stable.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/valter-silva-au/relnotes/pkg/models"
)

// SummaryCache caches item summaries in Redis. Keys incorporate a
// content hash, so an edited title or description naturally misses and
// the item is re-summarized.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a SummaryCache from the cache configuration.
func New(cfg models.CacheConfig) *SummaryCache {
	ttl := time.Duration(cfg.TTLDays) * 24 * time.Hour
	if cfg.TTLDays <= 0 {
		ttl = 0 // no expiry
	}
	return &SummaryCache{
		client: redis.NewClient(&redis.Options{
			Addr: cfg.Addr,
			DB:   cfg.DB,
		}),
		ttl: ttl,
	}
}

// NewWithClient wraps an existing Redis client. Used by tests against
// miniredis.
func NewWithClient(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

// Ping verifies the Redis connection so a misconfigured cache fails
// loudly at startup instead of silently missing on every item.
func (c *SummaryCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connecting to summary cache: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (c *SummaryCache) Close() error {
	return c.client.Close()
}

// Key returns the cache key for an item: its id plus a SHA-256 of the
// title and description.
func Key(item models.WorkItem) string {
	h := sha256.Sum256([]byte(item.Title + "\x00" + item.Description))
	return fmt.Sprintf("relnotes:summary:%d:%s", item.ID, hex.EncodeToString(h[:]))
}

// Get returns the cached summary for the item, if present. Errors are
// treated as misses: a flaky cache must never degrade the run beyond
// costing an extra LLM call.
func (c *SummaryCache) Get(ctx context.Context, item models.WorkItem) (string, bool) {
	text, err := c.client.Get(ctx, Key(item)).Result()
	if err != nil || text == "" {
		return "", false
	}
	return text, true
}

// Put stores the summary for the item. Write failures are ignored for
// the same reason Get treats errors as misses.
func (c *SummaryCache) Put(ctx context.Context, item models.WorkItem, text string) {
	if text == "" {
		return
	}
	_ = c.client.Set(ctx, Key(item), text, c.ttl).Err()
}
