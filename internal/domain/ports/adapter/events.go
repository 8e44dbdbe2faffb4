package adapter

import (
	"context"
	"time"

	"newsmap/internal/domain/model"
)

// Broadcaster fans an event out to every live subscriber without blocking.
type Broadcaster interface {
	Broadcast(evt model.Event)
}

// JobQueue is the durable broker used in durable dispatch mode.
type JobQueue interface {
	Ping(ctx context.Context) error
	Enqueue(ctx context.Context, jobID string) error
	// Dequeue blocks up to timeout and returns domain.ErrQueueEmpty when nothing arrived.
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
	// Finish removes the job from the active set and counts the outcome.
	Finish(ctx context.Context, jobID string, failed bool) error
	// Release removes the job from the active set without counting it.
	Release(ctx context.Context, jobID string) error
	// RetryAt parks the job until at, keeping it out of the waiting list.
	RetryAt(ctx context.Context, jobID string, at time.Time) error
	// PromoteDue moves parked jobs whose time has come back to waiting.
	PromoteDue(ctx context.Context, now time.Time) (int, error)
	Stats(ctx context.Context) (model.QueueStats, error)
}
