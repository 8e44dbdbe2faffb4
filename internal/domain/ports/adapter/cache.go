package adapter

import (
	"context"
	"time"
)

// Cache is a fail-open key/value store with per-key expiry.
// Implementations never surface store errors: an unreachable store reads
// as a miss and writes become no-ops.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	// Set stores value under key. A non-positive ttl is rejected as a no-op.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	Exists(ctx context.Context, key string) bool
	// TTLRemaining returns whole seconds left, or -1 when the key is missing,
	// has no expiry, or the store is down.
	TTLRemaining(ctx context.Context, key string) int64
}
