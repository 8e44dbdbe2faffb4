package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/adapter"
	"newsmap/internal/domain/ports/repository"
	"newsmap/internal/infra/logging"
	"newsmap/internal/infra/metrics"
)

var _ Dispatcher = (*DurableDispatcher)(nil)

// DurableDispatcher enqueues jobs on the broker; workers call Process.
// Failed attempts are parked with exponential backoff and the job stays
// active until its final attempt.
type DurableDispatcher struct {
	jobs        repository.JobRepository
	queue       adapter.JobQueue
	analyzer    *Analyzer
	events      adapter.Broadcaster
	maxAttempts int
	backoffBase time.Duration
	dev         bool
	now         func() time.Time
	log         *zerolog.Logger
}

func NewDurableDispatcher(
	jobs repository.JobRepository,
	queue adapter.JobQueue,
	analyzer *Analyzer,
	events adapter.Broadcaster,
	maxAttempts int,
	backoffBase time.Duration,
	dev bool,
	logger *zerolog.Logger,
) *DurableDispatcher {
	l := logger.With().Str("component", "DurableDispatcher").Logger()
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoffBase <= 0 {
		backoffBase = time.Second
	}
	return &DurableDispatcher{
		jobs:        jobs,
		queue:       queue,
		analyzer:    analyzer,
		events:      events,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		dev:         dev,
		now:         time.Now,
		log:         &l,
	}
}

func (d *DurableDispatcher) Mode() model.DispatchMode { return model.ModeDurable }

func (d *DurableDispatcher) Submit(ctx context.Context, req model.SubmitRequest) (*model.Job, error) {
	job, err := newJob(req, d.now())
	if err != nil {
		metrics.IncBiasSubmit(string(model.ModeDurable), "rejected")
		return nil, err
	}
	if err := d.jobs.Create(ctx, job); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			metrics.IncBiasSubmit(string(model.ModeDurable), "rejected")
			return nil, err
		}
		metrics.IncBiasSubmit(string(model.ModeDurable), "error")
		return nil, fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
	}
	log := logging.With(logging.WithJobID(ctx, job.ID), d.log)

	// queued goes out before the job is visible to workers so it always
	// precedes the terminal event
	d.events.Broadcast(model.EventForJob(job, d.now()))

	if err := d.queue.Enqueue(ctx, job.ID); err != nil {
		metrics.IncBiasSubmit(string(model.ModeDurable), "error")
		log.Error().Err(err).Msg("enqueue failed")
		_ = job.Fail("queue unavailable", d.now())
		if serr := d.jobs.Save(ctx, job); serr != nil {
			log.Error().Err(serr).Msg("failed to persist job")
		}
		d.events.Broadcast(model.EventForJob(job, d.now()))
		return nil, fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
	}
	metrics.IncBiasSubmit(string(model.ModeDurable), "accepted")
	log.Info().Str("text", logging.Redact(job.Text, d.dev)).Msg("job queued")
	return job, nil
}

// Process runs one delivery of jobID. It returns an error only when the job
// record or the broker could not be updated.
func (d *DurableDispatcher) Process(ctx context.Context, jobID string) error {
	log := logging.With(logging.WithJobID(ctx, jobID), d.log)

	job, err := d.jobs.FindByID(ctx, jobID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn().Msg("job record gone, dropping delivery")
		return d.queue.Finish(ctx, jobID, true)
	}
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		// already counted when it finished
		log.Debug().Str("status", string(job.Status)).Msg("duplicate delivery of finished job")
		return d.queue.Release(ctx, jobID)
	}

	if err := job.Transition(model.JobStatusActive, d.now()); err != nil {
		return err
	}
	job.Attempts++
	if err := d.jobs.Save(ctx, job); err != nil {
		return err
	}

	res, cerr := d.analyzer.Analyze(ctx, job.ContentKey(), job.Text)
	if cerr == nil {
		_ = job.Complete(res, d.now())
		return d.finish(ctx, job, log)
	}
	if ctx.Err() != nil {
		// shutdown mid-attempt: park for a quick retry without spending it
		job.Attempts--
		_ = d.jobs.Save(context.Background(), job)
		return d.queue.RetryAt(context.Background(), job.ID, d.now().Add(d.backoffBase))
	}

	if job.Attempts < d.maxAttempts {
		delay := d.Backoff(job.Attempts)
		log.Warn().Err(cerr).Int("attempt", job.Attempts).Dur("retry_in", delay).Msg("attempt failed, retrying")
		metrics.IncBiasJobRetry()
		return d.queue.RetryAt(ctx, job.ID, d.now().Add(delay))
	}
	_ = job.Fail(cerr.Error(), d.now())
	log.Warn().Err(cerr).Int("attempts", job.Attempts).Msg("job failed")
	return d.finish(ctx, job, log)
}

func (d *DurableDispatcher) finish(ctx context.Context, job *model.Job, log *zerolog.Logger) error {
	if err := d.jobs.Save(ctx, job); err != nil {
		return err
	}
	failed := job.Status == model.JobStatusFailed
	if err := d.queue.Finish(ctx, job.ID, failed); err != nil {
		log.Error().Err(err).Msg("broker finish failed")
	}
	metrics.IncBiasJob(string(model.ModeDurable), string(job.Status))
	if !failed {
		log.Info().Str("prediction", string(job.Result.Prediction)).Msg("job completed")
	}
	d.events.Broadcast(model.EventForJob(job, d.now()))
	return nil
}

// Backoff is the wait after the given failed attempt: base, 2*base, 4*base...
func (d *DurableDispatcher) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return d.backoffBase << (attempt - 1)
}

func (d *DurableDispatcher) Status(ctx context.Context, id string) model.JobView {
	v, err := statusOf(ctx, d.jobs, id)
	if err != nil {
		d.log.Warn().Err(err).Str("job_id", id).Msg("job lookup failed")
	}
	return v
}

func (d *DurableDispatcher) Stats(ctx context.Context) model.QueueStats {
	st, err := d.queue.Stats(ctx)
	if err != nil {
		d.log.Warn().Err(err).Msg("queue stats unavailable")
		return model.QueueStats{}
	}
	return st
}
