// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
)

var nopLogger = zerolog.Nop()

// fakeClassifier counts calls and can be told to fail or block.
type fakeClassifier struct {
	calls   int32
	result  model.BiasResult
	err     error
	failFor int32 // fail the first n calls, then succeed
	gate    chan struct{}
}

func (f *fakeClassifier) Name() string { return "fake" }

func (f *fakeClassifier) Classify(ctx context.Context, text string) (model.BiasResult, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return model.BiasResult{}, ctx.Err()
		}
	}
	if f.err != nil && (f.failFor == 0 || n <= f.failFor) {
		return model.BiasResult{}, f.err
	}
	return f.result, nil
}

func (f *fakeClassifier) Calls() int { return int(atomic.LoadInt32(&f.calls)) }

// recordingBroadcaster keeps every event in order.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recordingBroadcaster) Broadcast(ev model.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingBroadcaster) forJob(id string) []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.EventType
	for _, ev := range r.events {
		if ev.JobID == id {
			out = append(out, ev.Type)
		}
	}
	return out
}

// fakeQueue records broker calls.
type fakeQueue struct {
	mu         sync.Mutex
	enqueued   []string
	retries    map[string]time.Time
	finished   map[string]bool
	finishes   int
	released   []string
	enqueueErr error
	statsFn    func() (model.QueueStats, error)
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{retries: map[string]time.Time{}, finished: map[string]bool{}}
}

func (q *fakeQueue) Ping(ctx context.Context) error { return nil }

func (q *fakeQueue) Enqueue(ctx context.Context, id string) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, id)
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	return "", domain.ErrQueueEmpty
}

func (q *fakeQueue) Finish(ctx context.Context, id string, failed bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.finished[id] = failed
	q.finishes++
	return nil
}

func (q *fakeQueue) Release(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.released = append(q.released, id)
	return nil
}

func (q *fakeQueue) RetryAt(ctx context.Context, id string, at time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.retries[id] = at
	return nil
}

func (q *fakeQueue) PromoteDue(ctx context.Context, now time.Time) (int, error) { return 0, nil }

func (q *fakeQueue) Stats(ctx context.Context) (model.QueueStats, error) {
	if q.statsFn != nil {
		return q.statsFn()
	}
	return model.QueueStats{}, nil
}

// fakeProvider returns canned articles or an error and counts calls.
type fakeProvider struct {
	name     string
	articles []model.Article
	err      error
	calls    int32
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Fetch(ctx context.Context, c model.Criteria) ([]model.Article, error) {
	atomic.AddInt32(&p.calls, 1)
	return p.articles, p.err
}

// mapCache is an in-memory adapter.Cache that ignores ttl.
type mapCache struct {
	mu   sync.Mutex
	data map[string]string
	sets int
}

func newMapCache() *mapCache { return &mapCache{data: map[string]string{}} }

func (c *mapCache) Get(ctx context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = string(value)
	c.sets++
}

func (c *mapCache) Delete(ctx context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
}

func (c *mapCache) Exists(ctx context.Context, key string) bool {
	_, ok := c.Get(ctx, key)
	return ok
}

func (c *mapCache) TTLRemaining(ctx context.Context, key string) int64 { return -1 }

// fixedQuota grants a fixed number of reservations.
type fixedQuota struct {
	left  int32
	calls int32
}

func (q *fixedQuota) Reserve(ctx context.Context) bool {
	atomic.AddInt32(&q.calls, 1)
	return atomic.AddInt32(&q.left, -1) >= 0
}

func (q *fixedQuota) Status(ctx context.Context) model.QuotaStatus { return model.QuotaStatus{} }

// brokenCounter fails every operation.
type brokenCounter struct{}

var errStoreDown = errors.New("store down")

func (brokenCounter) Reserve(ctx context.Context, key string, ceiling int, expireAt time.Time) (bool, error) {
	return false, errStoreDown
}

func (brokenCounter) Used(ctx context.Context, key string) (int, error) { return 0, errStoreDown }

// busyLocker never grants the lock.
type busyLocker struct{ tries int32 }

func (l *busyLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	atomic.AddInt32(&l.tries, 1)
	return "", domain.ErrLockNotAcquired
}

func (l *busyLocker) Unlock(ctx context.Context, key, token string) error { return nil }

// sharedLocker is an in-process lock table with expiry, shared by several
// analyzers the way replicas share Redis.
type sharedLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	tries int32
}

func newSharedLocker() *sharedLocker { return &sharedLocker{held: map[string]time.Time{}} }

func (l *sharedLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	atomic.AddInt32(&l.tries, 1)
	l.mu.Lock()
	defer l.mu.Unlock()
	if until, ok := l.held[key]; ok && time.Now().Before(until) {
		return "", domain.ErrLockNotAcquired
	}
	l.held[key] = time.Now().Add(ttl)
	return key, nil
}

func (l *sharedLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	delete(l.held, key)
	l.mu.Unlock()
	return nil
}
