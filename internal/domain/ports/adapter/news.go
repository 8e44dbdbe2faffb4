package adapter

import (
	"context"

	"newsmap/internal/domain/model"
)

// NewsProvider is one upstream tier of the aggregator.
// Fetch returns domain.ErrEmptyResult when the upstream answered with nothing usable.
type NewsProvider interface {
	Name() string
	Fetch(ctx context.Context, c model.Criteria) ([]model.Article, error)
}
