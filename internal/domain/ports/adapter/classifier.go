package adapter

import (
	"context"

	"newsmap/internal/domain/model"
)

// Classifier is the opaque bias scoring function.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string) (model.BiasResult, error)
}
