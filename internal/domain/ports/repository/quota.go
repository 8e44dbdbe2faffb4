package repository

import (
	"context"
	"time"
)

// QuotaCounter stores per-day call counters.
// Reserve increments key only while the result stays within ceiling and
// sets the key to expire at expireAt on first use. It must be atomic.
type QuotaCounter interface {
	Reserve(ctx context.Context, key string, ceiling int, expireAt time.Time) (bool, error)
	Used(ctx context.Context, key string) (int, error)
}
