package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Jobs
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrQueueEmpty        = errors.New("queue empty")
	ErrQueueUnavailable  = errors.New("job queue unavailable")
	ErrLockNotAcquired   = errors.New("lock not acquired")

	// Upstreams
	ErrEmptyResult      = errors.New("upstream returned no results")
	ErrProviderDisabled = errors.New("provider disabled")
	ErrClassifierOutput = errors.New("classifier returned malformed output")
	ErrStoreUnavailable = errors.New("store unavailable")
)
