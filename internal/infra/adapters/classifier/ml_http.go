package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/adapter"
)

var _ adapter.Classifier = (*MLClassifier)(nil)

// MLClassifier calls a hosted bias model over HTTP:
// POST {endpoint}/predict {"text": ...} -> {"prediction", "confidence", "summary"}.
type MLClassifier struct {
	http *resty.Client
}

func NewMLClassifier(endpoint, apiKey string, timeout time.Duration) *MLClassifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(endpoint, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &MLClassifier{http: c}
}

func (m *MLClassifier) Name() string { return "ml" }

func (m *MLClassifier) Classify(ctx context.Context, text string) (model.BiasResult, error) {
	var out rawResult
	resp, err := m.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": text}).
		SetResult(&out).
		Post("/predict")
	if err != nil {
		return model.BiasResult{}, fmt.Errorf("ml classifier: %w", err)
	}
	if resp.IsError() {
		return model.BiasResult{}, fmt.Errorf("ml classifier http %d", resp.StatusCode())
	}
	return out.toResult()
}
