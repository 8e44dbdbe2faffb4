package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"newsmap/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var _ repository.QuotaCounter = (*QuotaCounter)(nil)

// QuotaCounter keeps daily counters with a single server-side script so
// concurrent reservations across processes never over-grant.
type QuotaCounter struct {
	cli *redis.Client
}

func NewQuotaCounter(c *Client) *QuotaCounter {
	return &QuotaCounter{cli: c.cli}
}

// KEYS[1] counter, ARGV[1] ceiling, ARGV[2] expire-at unix seconds.
// Returns 1 when granted, 0 when the ceiling is already reached.
var luaReserve = redis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
if cur >= tonumber(ARGV[1]) then
	return 0
end
redis.call("INCR", KEYS[1])
if cur == 0 then
	redis.call("EXPIREAT", KEYS[1], ARGV[2])
end
return 1`)

func (q *QuotaCounter) Reserve(ctx context.Context, key string, ceiling int, expireAt time.Time) (bool, error) {
	n, err := luaReserve.Run(ctx, q.cli, []string{key}, ceiling, expireAt.Unix()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (q *QuotaCounter) Used(ctx context.Context, key string) (int, error) {
	v, err := q.cli.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}
