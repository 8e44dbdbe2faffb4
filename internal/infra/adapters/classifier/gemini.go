package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/adapter"
	"newsmap/internal/infra/metrics"
)

var _ adapter.Classifier = (*GeminiClassifier)(nil)

type GeminiClassifier struct {
	client *genai.Client
	model  string
}

// NewGeminiClassifier creates a Gemini-backed classifier using the official SDK.
func NewGeminiClassifier(ctx context.Context, apiKey, baseURL, modelName string) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = "gemini-2.0-flash"
	}
	return &GeminiClassifier{client: c, model: modelName}, nil
}

func (g *GeminiClassifier) Name() string { return "gemini" }

func (g *GeminiClassifier) Classify(ctx context.Context, text string) (model.BiasResult, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(text), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return model.BiasResult{}, fmt.Errorf("gemini: %w", err)
	}
	if resp.UsageMetadata != nil {
		metrics.AddClassifierPromptTokens(g.Name(), int(resp.UsageMetadata.PromptTokenCount))
	}
	out := resp.Text()
	if out == "" {
		return model.BiasResult{}, errors.New("gemini: empty response")
	}
	return parseLLMJSON(out)
}
