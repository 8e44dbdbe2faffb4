package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"newsmap/internal/domain/ports/repository"
	"newsmap/internal/infra/metrics"
	red "newsmap/internal/infra/redis"

	"github.com/rs/zerolog"
)

var _ repository.BiasResultRepository = (*biasResultCacheDecorator)(nil)

// biasResultCacheDecorator serves stored results from the ai_summary:<key> namespace
// before touching the inner store. Cache errors never fail a call.
type biasResultCacheDecorator struct {
	inner repository.BiasResultRepository
	cache red.RedisClient
	keys  red.KeyBuilder
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewBiasResultCacheDecorator(inner repository.BiasResultRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.BiasResultRepository {
	if cache == nil {
		return inner
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	l := logger.With().Str("component", "BiasResultCache").Logger()
	return &biasResultCacheDecorator{inner: inner, cache: cache, keys: red.Keys, ttl: ttl, log: &l}
}

func (d *biasResultCacheDecorator) GetByContentKey(ctx context.Context, tx repository.Tx, key string) (*repository.StoredResult, error) {
	ck := d.keys.Summary(key)
	val, err := d.cache.Get(ctx, ck)
	if err == nil {
		var res repository.StoredResult
		if json.Unmarshal([]byte(val), &res) == nil {
			metrics.IncCacheRequest("ai_summary", "hit")
			return &res, nil
		}
	} else if !errors.Is(err, red.Nil) {
		d.log.Warn().Err(err).Str("key", ck).Msg("summary cache read failed")
	}

	metrics.IncCacheRequest("ai_summary", "miss")
	res, err := d.inner.GetByContentKey(ctx, tx, key)
	if err != nil {
		return nil, err
	}
	d.put(ctx, ck, res)
	return res, nil
}

func (d *biasResultCacheDecorator) Save(ctx context.Context, tx repository.Tx, res *repository.StoredResult) error {
	if err := d.inner.Save(ctx, tx, res); err != nil {
		return err
	}
	// re-read so the cache holds the winning row when another writer got there first
	stored, err := d.inner.GetByContentKey(ctx, tx, res.ContentKey)
	if err != nil {
		stored = res
	}
	d.put(ctx, d.keys.Summary(res.ContentKey), stored)
	return nil
}

func (d *biasResultCacheDecorator) put(ctx context.Context, key string, res *repository.StoredResult) {
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, key, b, d.ttl); err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("summary cache write failed")
	}
}
