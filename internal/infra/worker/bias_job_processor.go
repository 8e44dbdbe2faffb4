package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"newsmap/internal/domain"
	"newsmap/internal/domain/ports/adapter"
)

// JobHandler runs one delivery of a job.
type JobHandler interface {
	Process(ctx context.Context, jobID string) error
}

// BiasJobProcessor pulls job ids off the broker and hands them to the pool.
// A shared limiter caps how many jobs start per second across all workers.
type BiasJobProcessor struct {
	queue       adapter.JobQueue
	handler     JobHandler
	limiter     *rate.Limiter
	pollTimeout time.Duration
	errBackoff  time.Duration
	log         *zerolog.Logger
}

func NewBiasJobProcessor(queue adapter.JobQueue, handler JobHandler, perSecond int, logger *zerolog.Logger) *BiasJobProcessor {
	l := logger.With().Str("component", "BiasJobProcessor").Logger()
	lim := rate.NewLimiter(rate.Inf, 1)
	if perSecond > 0 {
		lim = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
	return &BiasJobProcessor{
		queue:       queue,
		handler:     handler,
		limiter:     lim,
		pollTimeout: time.Second,
		errBackoff:  time.Second,
		log:         &l,
	}
}

// Start blocks until ctx is cancelled or the pool stops. Run it in a goroutine.
func (p *BiasJobProcessor) Start(ctx context.Context, pool *Pool) {
	p.log.Info().Int("workers", pool.Size()).Msg("bias job processor started")
	defer p.log.Info().Msg("bias job processor stopped")

	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return
		}
		id, err := p.queue.Dequeue(ctx, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, domain.ErrQueueEmpty) {
				p.log.Error().Err(err).Msg("dequeue failed")
				select {
				case <-ctx.Done():
					return
				case <-time.After(p.errBackoff):
				}
			}
			continue
		}

		jobID := id
		task := func(ctx context.Context) error { return p.handler.Process(ctx, jobID) }
		if err := pool.SubmitWait(ctx, task); err != nil {
			// hand the job back so another process picks it up
			if rerr := p.queue.RetryAt(context.Background(), jobID, time.Now()); rerr != nil {
				p.log.Error().Err(rerr).Str("job_id", jobID).Msg("could not return job to the broker")
			}
			return
		}
	}
}
