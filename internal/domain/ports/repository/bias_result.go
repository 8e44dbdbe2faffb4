package repository

import (
	"context"
	"time"

	"newsmap/internal/domain/model"
)

// StoredResult is a classification remembered for one content key.
type StoredResult struct {
	ContentKey string
	Result     model.BiasResult
	Classifier string
	CreatedAt  time.Time
}

// BiasResultRepository is the result cache keyed by content identity.
// GetByContentKey returns domain.ErrNotFound when nothing is stored.
type BiasResultRepository interface {
	GetByContentKey(ctx context.Context, tx Tx, key string) (*StoredResult, error)
	Save(ctx context.Context, tx Tx, res *StoredResult) error
}
