package classifier

import (
	"context"

	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/adapter"
)

var _ adapter.Classifier = (*limitedClassifier)(nil)

type limitedClassifier struct {
	inner adapter.Classifier
	sem   chan struct{}
}

// NewLimitedClassifier caps in-flight calls to inner at maxConcurrent.
func NewLimitedClassifier(inner adapter.Classifier, maxConcurrent int) adapter.Classifier {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedClassifier{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedClassifier) Name() string { return l.inner.Name() }

func (l *limitedClassifier) Classify(ctx context.Context, text string) (model.BiasResult, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return model.BiasResult{}, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Classify(ctx, text)
}
