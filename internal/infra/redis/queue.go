package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/adapter"

	"github.com/go-redis/redis/v8"
)

var _ adapter.JobQueue = (*Queue)(nil)

// Queue is a reliable list-based broker:
//
//	wait    LIST  ids ready to run (LPUSH in, BRPOPLPUSH out)
//	active  LIST  ids claimed by a worker
//	delayed ZSET  ids parked until their retry time (score = unix ms)
//	completed/failed  counters
type Queue struct {
	cli    *redis.Client
	prefix string
}

func NewQueue(c *Client, prefix string) *Queue {
	if prefix == "" {
		prefix = "biasq"
	}
	return &Queue{cli: c.cli, prefix: prefix}
}

func (q *Queue) key(name string) string { return q.prefix + ":" + name }

func (q *Queue) Ping(ctx context.Context) error { return q.cli.Ping(ctx).Err() }

func (q *Queue) Enqueue(ctx context.Context, jobID string) error {
	return q.cli.LPush(ctx, q.key("wait"), jobID).Err()
}

func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	id, err := q.cli.BRPopLPush(ctx, q.key("wait"), q.key("active"), timeout).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrQueueEmpty
	}
	return id, err
}

func (q *Queue) Finish(ctx context.Context, jobID string, failed bool) error {
	counter := q.key("completed")
	if failed {
		counter = q.key("failed")
	}
	_, err := q.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LRem(ctx, q.key("active"), 1, jobID)
		p.Incr(ctx, counter)
		return nil
	})
	return err
}

func (q *Queue) Release(ctx context.Context, jobID string) error {
	return q.cli.LRem(ctx, q.key("active"), 1, jobID).Err()
}

func (q *Queue) RetryAt(ctx context.Context, jobID string, at time.Time) error {
	_, err := q.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LRem(ctx, q.key("active"), 1, jobID)
		p.ZAdd(ctx, q.key("delayed"), &redis.Z{Score: float64(at.UnixMilli()), Member: jobID})
		return nil
	})
	return err
}

// KEYS[1] delayed, KEYS[2] wait, ARGV[1] now ms, ARGV[2] batch size.
var luaPromote = redis.NewScript(`
local due = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, tonumber(ARGV[2]))
for _, id in ipairs(due) do
	redis.call("ZREM", KEYS[1], id)
	redis.call("LPUSH", KEYS[2], id)
end
return #due`)

func (q *Queue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	return luaPromote.Run(ctx, q.cli, []string{q.key("delayed"), q.key("wait")}, now.UnixMilli(), 100).Int()
}

// Stats counts parked retries as active: they belong to a job that is still in flight.
func (q *Queue) Stats(ctx context.Context) (model.QueueStats, error) {
	var (
		wait, active, delayed *redis.IntCmd
		done, failed          *redis.StringCmd
	)
	_, err := q.cli.Pipelined(ctx, func(p redis.Pipeliner) error {
		wait = p.LLen(ctx, q.key("wait"))
		active = p.LLen(ctx, q.key("active"))
		delayed = p.ZCard(ctx, q.key("delayed"))
		done = p.Get(ctx, q.key("completed"))
		failed = p.Get(ctx, q.key("failed"))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return model.QueueStats{}, err
	}
	return model.QueueStats{
		Waiting:   wait.Val(),
		Active:    active.Val() + delayed.Val(),
		Completed: counterVal(done),
		Failed:    counterVal(failed),
	}, nil
}

func counterVal(c *redis.StringCmd) int64 {
	n, err := strconv.ParseInt(c.Val(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
