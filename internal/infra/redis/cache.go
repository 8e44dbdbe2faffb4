package redis

import (
	"context"
	"errors"
	"time"

	"newsmap/internal/domain/ports/adapter"
	"newsmap/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ adapter.Cache = (*Cache)(nil)

// Cache is the fail-open tiered cache. Every store error is logged and
// reported as a miss or a no-op. A nil client gives a cache that always misses.
type Cache struct {
	cli RedisClient
	log *zerolog.Logger
}

func NewCache(cli RedisClient, logger *zerolog.Logger) *Cache {
	l := logger.With().Str("component", "Cache").Logger()
	return &Cache{cli: cli, log: &l}
}

func (c *Cache) enabled() bool { return c != nil && c.cli != nil }

func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if !c.enabled() {
		return "", false
	}
	v, err := c.cli.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, Nil) {
			c.fail("get", key, err)
		}
		return "", false
	}
	return v, true
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !c.enabled() {
		return
	}
	if ttl <= 0 {
		c.log.Warn().Str("key", key).Msg("cache write without ttl ignored")
		return
	}
	if err := c.cli.Set(ctx, key, value, ttl); err != nil {
		c.fail("set", key, err)
	}
}

func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.enabled() || len(keys) == 0 {
		return
	}
	if err := c.cli.Del(ctx, keys...); err != nil {
		c.fail("del", keys[0], err)
	}
}

func (c *Cache) Exists(ctx context.Context, key string) bool {
	if !c.enabled() {
		return false
	}
	ok, err := c.cli.Exists(ctx, key)
	if err != nil {
		c.fail("exists", key, err)
		return false
	}
	return ok
}

func (c *Cache) TTLRemaining(ctx context.Context, key string) int64 {
	if !c.enabled() {
		return -1
	}
	d, err := c.cli.TTL(ctx, key)
	if err != nil {
		c.fail("ttl", key, err)
		return -1
	}
	if d < 0 {
		return -1
	}
	return int64(d / time.Second)
}

func (c *Cache) fail(op, key string, err error) {
	metrics.IncCacheError(op)
	c.log.Warn().Err(err).Str("op", op).Str("key", key).Msg("cache unavailable, degrading")
}
