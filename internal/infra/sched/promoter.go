package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"newsmap/internal/domain/ports/adapter"
	"newsmap/internal/infra/metrics"
)

// DelayedPromoter moves retries whose backoff has elapsed back onto the
// broker's waiting list.
type DelayedPromoter struct {
	interval time.Duration
	queue    adapter.JobQueue
	now      func() time.Time
	log      *zerolog.Logger
}

func NewDelayedPromoter(interval time.Duration, queue adapter.JobQueue, logger *zerolog.Logger) *DelayedPromoter {
	l := logger.With().Str("component", "DelayedPromoter").Logger()
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &DelayedPromoter{interval: interval, queue: queue, now: time.Now, log: &l}
}

func (p *DelayedPromoter) Run(ctx context.Context) error {
	p.log.Info().Dur("interval", p.interval).Msg("Starting delayed promoter")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("Stopping delayed promoter")
			return ctx.Err()
		case <-ticker.C:
			p.promote(ctx)
		}
	}
}

func (p *DelayedPromoter) promote(ctx context.Context) {
	n, err := p.queue.PromoteDue(ctx, p.now())
	if err != nil {
		if ctx.Err() == nil {
			p.log.Warn().Err(err).Msg("promote failed")
		}
		return
	}
	if n > 0 {
		metrics.AddBiasJobsPromoted(n)
		p.log.Debug().Int("count", n).Msg("retries promoted")
	}
}
