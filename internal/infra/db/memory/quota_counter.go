package memory

import (
	"context"
	"sync"
	"time"

	"newsmap/internal/domain/ports/repository"
)

var _ repository.QuotaCounter = (*QuotaCounter)(nil)

// QuotaCounter serializes reservations behind a mutex. It only protects a
// single process; run with Redis when more than one instance shares a quota.
type QuotaCounter struct {
	mu      sync.Mutex
	entries map[string]quotaEntry
	now     func() time.Time
}

type quotaEntry struct {
	n        int
	expireAt time.Time
}

func NewQuotaCounter() *QuotaCounter {
	return &QuotaCounter{entries: make(map[string]quotaEntry), now: time.Now}
}

func (q *QuotaCounter) Reserve(ctx context.Context, key string, ceiling int, expireAt time.Time) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e := q.live(key)
	if e.n >= ceiling {
		return false, nil
	}
	if e.n == 0 {
		e.expireAt = expireAt
	}
	e.n++
	q.entries[key] = e
	return true, nil
}

func (q *QuotaCounter) Used(ctx context.Context, key string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.live(key).n, nil
}

// live returns the entry for key, dropping it first when expired. Caller holds mu.
func (q *QuotaCounter) live(key string) quotaEntry {
	e, ok := q.entries[key]
	if ok && !e.expireAt.IsZero() && !q.now().Before(e.expireAt) {
		delete(q.entries, key)
		return quotaEntry{}
	}
	return e
}
