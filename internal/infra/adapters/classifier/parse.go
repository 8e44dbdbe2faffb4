package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"newsmap/internal/domain"
	"newsmap/internal/domain/model"
)

const systemPrompt = `You are a media-bias analyst. Classify the political leaning of the news text the user sends.

Output JSON only, no other text:
{
  "prediction": "one of: left, center, right",
  "confidence": number between 0 and 1,
  "summary": "one or two neutral sentences summarizing the text"
}`

// cleanJSONResponse strips markdown code fences some models wrap around JSON.
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// normalizePrediction maps the label variants upstream models emit onto ours.
func normalizePrediction(label string) (model.Prediction, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	l = strings.NewReplacer("-", " ", "_", " ").Replace(l)
	switch l {
	case "left", "lean left", "left leaning", "liberal":
		return model.PredictionLeft, true
	case "center", "centre", "neutral", "least biased", "centrist":
		return model.PredictionCenter, true
	case "right", "lean right", "right leaning", "conservative":
		return model.PredictionRight, true
	}
	return "", false
}

type rawResult struct {
	Prediction string  `json:"prediction"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Summary    string  `json:"summary"`
}

func (r rawResult) toResult() (model.BiasResult, error) {
	label := r.Prediction
	if label == "" {
		label = r.Label
	}
	p, ok := normalizePrediction(label)
	if !ok {
		return model.BiasResult{}, fmt.Errorf("%w: unknown label %q", domain.ErrClassifierOutput, label)
	}
	c := r.Confidence
	if c > 1 && c <= 100 {
		c /= 100
	}
	if c < 0 || c > 1 {
		return model.BiasResult{}, fmt.Errorf("%w: confidence %v out of range", domain.ErrClassifierOutput, r.Confidence)
	}
	return model.BiasResult{Prediction: p, Confidence: c, Summary: strings.TrimSpace(r.Summary)}, nil
}

func parseLLMJSON(content string) (model.BiasResult, error) {
	var raw rawResult
	if err := json.Unmarshal([]byte(cleanJSONResponse(content)), &raw); err != nil {
		return model.BiasResult{}, fmt.Errorf("%w: %v", domain.ErrClassifierOutput, err)
	}
	return raw.toResult()
}
