package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*JobStore)(nil)

// JobStore keeps job records as JSON under job:<id>. The retention window is the key ttl,
// so old terminal jobs disappear without a sweeper.
type JobStore struct {
	cli       RedisClient
	retention time.Duration
}

func NewJobStore(cli RedisClient, retention time.Duration) *JobStore {
	return &JobStore{cli: cli, retention: retention}
}

func jobKey(id string) string { return "job:" + id }

func (s *JobStore) Create(ctx context.Context, job *model.Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	ok, err := s.cli.SetNX(ctx, jobKey(job.ID), b, s.retention)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: job %s", domain.ErrAlreadyExists, job.ID)
	}
	return nil
}

func (s *JobStore) Save(ctx context.Context, job *model.Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return s.cli.Set(ctx, jobKey(job.ID), b, s.retention)
}

func (s *JobStore) FindByID(ctx context.Context, id string) (*model.Job, error) {
	v, err := s.cli.Get(ctx, jobKey(id))
	if errors.Is(err, Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var job model.Job
	if err := json.Unmarshal([]byte(v), &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}
