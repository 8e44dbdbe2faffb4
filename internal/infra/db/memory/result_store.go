package memory

import (
	"context"
	"sync"
	"time"

	"newsmap/internal/domain"
	"newsmap/internal/domain/ports/repository"
	"newsmap/internal/infra/metrics"
)

var _ repository.BiasResultRepository = (*ResultStore)(nil)

// ResultStore is the in-process result cache used when no database is configured.
type ResultStore struct {
	mu   sync.RWMutex
	data map[string]repository.StoredResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{data: make(map[string]repository.StoredResult)}
}

func (s *ResultStore) GetByContentKey(ctx context.Context, tx repository.Tx, key string) (*repository.StoredResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.data[key]
	if !ok {
		metrics.IncResultStoreOp("memory", "get", "miss")
		return nil, domain.ErrNotFound
	}
	metrics.IncResultStoreOp("memory", "get", "hit")
	return &r, nil
}

// Save keeps the first stored result for a key.
func (s *ResultStore) Save(ctx context.Context, tx repository.Tx, res *repository.StoredResult) error {
	if res == nil || res.ContentKey == "" || !res.Result.Prediction.Valid() {
		return domain.ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[res.ContentKey]; ok {
		return nil
	}
	r := *res
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.data[res.ContentKey] = r
	metrics.IncResultStoreOp("memory", "save", "ok")
	return nil
}
