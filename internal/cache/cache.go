// Package cache keeps storefront slug lookups in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"local-marketplace/internal/config"
	"local-marketplace/internal/domain"
	"local-marketplace/internal/metrics"
)

const keyPrefix = "marketplace"

// NewRedisClient creates the go-redis client for the storefront cache.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// SlugCache stores JSON-encoded documents keyed by collection and slug.
// Only found documents are cached; misses always reach the store.
type SlugCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSlugCache wraps rdb. A zero ttl keeps entries until invalidated.
func NewSlugCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *SlugCache {
	return &SlugCache{rdb: rdb, ttl: ttl, logger: logger.Named("cache")}
}

// key normalizes slug the way the store does, so lookups and evictions agree on one entry.
func key(collection, slug string) string {
	return fmt.Sprintf("%s:%s:slug:%s", keyPrefix, collection, domain.NormalizeSlug(slug))
}

// Get decodes the cached document into dst. It reports false on a miss.
func (c *SlugCache) Get(ctx context.Context, collection, slug string, dst any) (bool, error) {
	raw, err := c.rdb.Get(ctx, key(collection, slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookupsTotal.WithLabelValues(collection, "miss").Inc()
		return false, nil
	}
	if err != nil {
		metrics.CacheLookupsTotal.WithLabelValues(collection, "error").Inc()
		return false, fmt.Errorf("cache: get %s/%s: %w", collection, slug, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		metrics.CacheLookupsTotal.WithLabelValues(collection, "error").Inc()
		return false, fmt.Errorf("cache: decode %s/%s: %w", collection, slug, err)
	}
	metrics.CacheLookupsTotal.WithLabelValues(collection, "hit").Inc()
	return true, nil
}

// Set stores v under collection/slug.
func (c *SlugCache) Set(ctx context.Context, collection, slug string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode %s/%s: %w", collection, slug, err)
	}
	if err := c.rdb.Set(ctx, key(collection, slug), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s/%s: %w", collection, slug, err)
	}
	return nil
}

// Invalidate drops the given slugs; empty slugs are skipped.
func (c *SlugCache) Invalidate(ctx context.Context, collection string, slugs ...string) error {
	keys := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if domain.NormalizeSlug(s) != "" {
			keys = append(keys, key(collection, s))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: invalidate %s: %w", collection, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *SlugCache) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *SlugCache) Close() error {
	return c.rdb.Close()
}
