package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/adapter"
	"newsmap/internal/domain/ports/repository"
	"newsmap/internal/infra/metrics"
	red "newsmap/internal/infra/redis"
)

// Analyzer returns the bias result for a piece of content, calling the
// classifier at most once per content key. Concurrent callers in one process
// share a single call; across processes an optional lock makes late workers
// wait for the holder's stored result instead.
type Analyzer struct {
	results    repository.BiasResultRepository
	classifier adapter.Classifier
	locker     red.Locker
	lockTTL    time.Duration
	pollEvery  time.Duration
	group      singleflight.Group
	now        func() time.Time
	log        *zerolog.Logger
}

// NewAnalyzer builds an Analyzer. locker may be nil.
func NewAnalyzer(results repository.BiasResultRepository, classifier adapter.Classifier, locker red.Locker, lockTTL time.Duration, logger *zerolog.Logger) *Analyzer {
	l := logger.With().Str("component", "Analyzer").Logger()
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &Analyzer{
		results:    results,
		classifier: classifier,
		locker:     locker,
		lockTTL:    lockTTL,
		pollEvery:  100 * time.Millisecond,
		now:        time.Now,
		log:        &l,
	}
}

func (a *Analyzer) Analyze(ctx context.Context, contentKey, text string) (model.BiasResult, error) {
	if stored, ok := a.lookup(ctx, contentKey); ok {
		metrics.IncClassifierDedupe("store")
		return stored.Result, nil
	}
	v, err, shared := a.group.Do(contentKey, func() (interface{}, error) {
		return a.classifyOnce(ctx, contentKey, text)
	})
	if err != nil {
		return model.BiasResult{}, err
	}
	if shared {
		metrics.IncClassifierDedupe("shared")
	}
	return v.(model.BiasResult), nil
}

func (a *Analyzer) classifyOnce(ctx context.Context, contentKey, text string) (model.BiasResult, error) {
	if a.locker != nil {
		lockKey := red.Keys.ContentLock(contentKey)
	acquire:
		for round := 1; ; round++ {
			token, err := a.locker.TryLock(ctx, lockKey, a.lockTTL)
			switch {
			case err == nil:
				defer func() {
					if err := a.locker.Unlock(context.Background(), lockKey, token); err != nil {
						a.log.Warn().Err(err).Str("content_key", contentKey).Msg("unlock failed")
					}
				}()
				break acquire
			case ctx.Err() != nil:
				return model.BiasResult{}, ctx.Err()
			case !errors.Is(err, domain.ErrLockNotAcquired):
				a.log.Warn().Err(err).Str("content_key", contentKey).Msg("content lock unavailable")
				break acquire
			}

			// the holder is classifying; its lock lapses after lockTTL at the latest
			a.log.Debug().Str("content_key", contentKey).Int("round", round).Msg("content lock busy, waiting for holder")
			if stored, ok := a.awaitStored(ctx, contentKey, a.lockTTL); ok {
				metrics.IncClassifierDedupe("store")
				return stored.Result, nil
			}
			if ctx.Err() != nil {
				return model.BiasResult{}, ctx.Err()
			}
			if round == 2 {
				a.log.Warn().Str("content_key", contentKey).Msg("content lock still held, classifying without it")
				break acquire
			}
		}
		// another worker may have finished while we waited
		if stored, ok := a.lookup(ctx, contentKey); ok {
			metrics.IncClassifierDedupe("store")
			return stored.Result, nil
		}
	}

	res, err := a.classifier.Classify(ctx, text)
	if err != nil {
		return model.BiasResult{}, err
	}
	if !res.Prediction.Valid() || res.Confidence < 0 || res.Confidence > 1 {
		return model.BiasResult{}, domain.ErrClassifierOutput
	}

	rec := &repository.StoredResult{
		ContentKey: contentKey,
		Result:     res,
		Classifier: a.classifier.Name(),
		CreatedAt:  a.now(),
	}
	if err := a.results.Save(ctx, nil, rec); err != nil {
		a.log.Warn().Err(err).Str("content_key", contentKey).Msg("result not stored")
		return res, nil
	}
	// first write wins; answer with whatever the store kept
	if stored, ok := a.lookup(ctx, contentKey); ok {
		return stored.Result, nil
	}
	return res, nil
}

// awaitStored polls the result store until a result appears, wait elapses or
// ctx is done.
func (a *Analyzer) awaitStored(ctx context.Context, contentKey string, wait time.Duration) (*repository.StoredResult, bool) {
	deadline := a.now().Add(wait)
	ticker := time.NewTicker(a.pollEvery)
	defer ticker.Stop()
	for {
		if stored, ok := a.lookup(ctx, contentKey); ok {
			return stored, true
		}
		if !a.now().Before(deadline) {
			return nil, false
		}
		select {
		case <-ctx.Done():
			return nil, false
		case <-ticker.C:
		}
	}
}

func (a *Analyzer) lookup(ctx context.Context, contentKey string) (*repository.StoredResult, bool) {
	stored, err := a.results.GetByContentKey(ctx, nil, contentKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			a.log.Warn().Err(err).Str("content_key", contentKey).Msg("result store lookup failed")
		}
		return nil, false
	}
	return stored, true
}
