package repository

import (
	"context"
	"time"

	"newsmap/internal/domain/model"
)

// JobRepository keeps job records for status polling.
// FindByID returns domain.ErrNotFound for unknown or expired ids.
type JobRepository interface {
	// Create stores a new job and returns domain.ErrAlreadyExists when the id is taken.
	Create(ctx context.Context, job *model.Job) error
	Save(ctx context.Context, job *model.Job) error
	FindByID(ctx context.Context, id string) (*model.Job, error)
}

// PrunableJobRepository is implemented by stores that need explicit retention sweeps.
type PrunableJobRepository interface {
	JobRepository
	PruneTerminal(ctx context.Context, olderThan time.Time, keep int) (int, error)
}
