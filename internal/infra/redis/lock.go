// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"time"

	"newsmap/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Locker guards one content key across processes while it is being classified.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

type RedisLocker struct {
	cli      *redis.Client
	attempts int
	wait     time.Duration
}

// NewLocker polls up to attempts times, wait apart, before giving up.
func NewLocker(c *Client, attempts int, wait time.Duration) *RedisLocker {
	if attempts <= 0 {
		attempts = 5
	}
	if wait <= 0 {
		wait = 50 * time.Millisecond
	}
	return &RedisLocker{cli: c.cli, attempts: attempts, wait: wait}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	for i := 0; i < l.attempts; i++ {
		ok, err := l.cli.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(l.wait):
		}
	}
	return "", domain.ErrLockNotAcquired
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{key}, token).Result()
	return err
}
