package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/repository"
)

// Dispatcher accepts bias jobs and answers status polls. The durable and
// immediate implementations are chosen once at startup.
type Dispatcher interface {
	Mode() model.DispatchMode
	// Submit validates and registers the job. Validation problems are
	// returned wrapping domain.ErrInvalidArgument and nothing is enqueued.
	Submit(ctx context.Context, req model.SubmitRequest) (*model.Job, error)
	// Status never fails: unknown ids answer with the not_found status.
	Status(ctx context.Context, id string) model.JobView
	Stats(ctx context.Context) model.QueueStats
}

// newJob validates req and builds the queued job. Uniqueness of a
// caller-chosen id is enforced by JobRepository.Create.
func newJob(req model.SubmitRequest, now time.Time) (*model.Job, error) {
	if msg := req.Validate(); msg != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidArgument, msg)
	}
	id := strings.TrimSpace(req.JobID)
	if id == "" {
		id = ulid.Make().String()
	}
	return &model.Job{
		ID:        id,
		Text:      req.Text,
		ArticleID: req.ArticleID,
		Status:    model.JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func statusOf(ctx context.Context, jobs repository.JobRepository, id string) (model.JobView, error) {
	j, err := jobs.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return model.NotFoundView(id), nil
	}
	if err != nil {
		return model.NotFoundView(id), err
	}
	return j.View(), nil
}
