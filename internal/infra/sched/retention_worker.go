package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"newsmap/internal/domain/ports/repository"
	"newsmap/internal/infra/metrics"
)

// RetentionWorker periodically drops terminal jobs outside the retention
// window from stores that do not expire records on their own.
type RetentionWorker struct {
	interval time.Duration
	jobs     repository.PrunableJobRepository
	maxAge   time.Duration
	keep     int
	now      func() time.Time
	log      *zerolog.Logger
}

func NewRetentionWorker(interval time.Duration, jobs repository.PrunableJobRepository, maxAge time.Duration, keep int, logger *zerolog.Logger) *RetentionWorker {
	l := logger.With().Str("component", "RetentionWorker").Logger()
	if interval <= 0 {
		interval = time.Minute
	}
	return &RetentionWorker{
		interval: interval,
		jobs:     jobs,
		maxAge:   maxAge,
		keep:     keep,
		now:      time.Now,
		log:      &l,
	}
}

func (w *RetentionWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("max_age", w.maxAge).Int("keep", w.keep).Msg("Starting retention worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping retention worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *RetentionWorker) sweep(ctx context.Context) {
	n, err := w.jobs.PruneTerminal(ctx, w.now().Add(-w.maxAge), w.keep)
	if err != nil {
		w.log.Error().Err(err).Msg("retention sweep error")
		return
	}
	if n > 0 {
		metrics.AddBiasJobsPruned(n)
		w.log.Info().Int("count", n).Msg("terminal jobs pruned")
	}
}
