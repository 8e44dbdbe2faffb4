package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/adapter"
	"newsmap/internal/domain/ports/repository"
	"newsmap/internal/infra/logging"
	"newsmap/internal/infra/metrics"
)

var _ Dispatcher = (*ImmediateDispatcher)(nil)

// ImmediateDispatcher classifies inside Submit. There is no retry; the
// first failure is final.
type ImmediateDispatcher struct {
	jobs     repository.JobRepository
	analyzer *Analyzer
	events   adapter.Broadcaster
	dev      bool

	completed atomic.Int64
	failed    atomic.Int64

	now func() time.Time
	log *zerolog.Logger
}

func NewImmediateDispatcher(jobs repository.JobRepository, analyzer *Analyzer, events adapter.Broadcaster, dev bool, logger *zerolog.Logger) *ImmediateDispatcher {
	l := logger.With().Str("component", "ImmediateDispatcher").Logger()
	return &ImmediateDispatcher{
		jobs:     jobs,
		analyzer: analyzer,
		events:   events,
		dev:      dev,
		now:      time.Now,
		log:      &l,
	}
}

func (d *ImmediateDispatcher) Mode() model.DispatchMode { return model.ModeImmediate }

func (d *ImmediateDispatcher) Submit(ctx context.Context, req model.SubmitRequest) (*model.Job, error) {
	job, err := newJob(req, d.now())
	if err != nil {
		metrics.IncBiasSubmit(string(model.ModeImmediate), "rejected")
		return nil, err
	}
	if err := d.jobs.Create(ctx, job); err != nil {
		outcome := "error"
		if errors.Is(err, domain.ErrAlreadyExists) {
			outcome = "rejected"
		}
		metrics.IncBiasSubmit(string(model.ModeImmediate), outcome)
		return nil, err
	}
	metrics.IncBiasSubmit(string(model.ModeImmediate), "accepted")
	log := logging.With(logging.WithJobID(ctx, job.ID), d.log)
	log.Info().Str("text", logging.Redact(job.Text, d.dev)).Msg("job accepted")
	d.events.Broadcast(model.EventForJob(job, d.now()))

	_ = job.Transition(model.JobStatusActive, d.now())
	job.Attempts = 1
	d.save(ctx, job, log)

	res, err := d.analyzer.Analyze(ctx, job.ContentKey(), job.Text)

	if err != nil {
		_ = job.Fail(err.Error(), d.now())
		d.failed.Add(1)
		log.Warn().Err(err).Msg("job failed")
	} else {
		_ = job.Complete(res, d.now())
		d.completed.Add(1)
		log.Info().Str("prediction", string(res.Prediction)).Msg("job completed")
	}
	d.save(ctx, job, log)
	metrics.IncBiasJob(string(model.ModeImmediate), string(job.Status))
	d.events.Broadcast(model.EventForJob(job, d.now()))
	return job, nil
}

func (d *ImmediateDispatcher) save(ctx context.Context, job *model.Job, log *zerolog.Logger) {
	if err := d.jobs.Save(ctx, job); err != nil {
		log.Error().Err(err).Str("status", string(job.Status)).Msg("failed to persist job")
	}
}

func (d *ImmediateDispatcher) Status(ctx context.Context, id string) model.JobView {
	v, err := statusOf(ctx, d.jobs, id)
	if err != nil {
		d.log.Warn().Err(err).Str("job_id", id).Msg("job lookup failed")
	}
	return v
}

// Stats has no waiting, delayed or active work to report: a job only exists
// inside the Submit call that runs it.
func (d *ImmediateDispatcher) Stats(ctx context.Context) model.QueueStats {
	return model.QueueStats{
		Completed: d.completed.Load(),
		Failed:    d.failed.Load(),
	}
}
