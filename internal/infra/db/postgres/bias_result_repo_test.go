//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/repository"
)

func TestBiasResultRepo(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewBiasResultRepo(testPool)

	if _, err := repo.GetByContentKey(ctx, nil, "article-42"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	first := &repository.StoredResult{
		ContentKey: "article-42",
		Result:     model.BiasResult{Prediction: model.PredictionLeft, Confidence: 0.8, Summary: "first"},
		Classifier: "heuristic",
	}
	if err := repo.Save(ctx, nil, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := &repository.StoredResult{
		ContentKey: "article-42",
		Result:     model.BiasResult{Prediction: model.PredictionRight, Confidence: 0.9, Summary: "second"},
	}
	if err := repo.Save(ctx, nil, second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := repo.GetByContentKey(ctx, nil, "article-42")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Result.Prediction != model.PredictionLeft || got.Result.Summary != "first" {
		t.Errorf("first write should win, got %+v", got.Result)
	}

	if err := repo.Save(ctx, nil, &repository.StoredResult{ContentKey: "x"}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for an empty prediction, got %v", err)
	}
}
