package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkoukk/tiktoken-go"

	"newsmap/internal/domain/model"
	"newsmap/internal/domain/ports/adapter"
	"newsmap/internal/infra/metrics"
)

var _ adapter.Classifier = (*OpenAIClassifier)(nil)

// OpenAIClassifier asks a chat completion model for a JSON verdict.
type OpenAIClassifier struct {
	client    openai.Client
	model     string
	maxTokens int
	enc       *tiktoken.Tiktoken
}

func NewOpenAIClassifier(apiKey, modelName string, maxInputTokens int, opts ...option.RequestOption) (*OpenAIClassifier, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if modelName == "" {
		modelName = string(openai.ChatModelGPT4oMini)
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	o := &OpenAIClassifier{
		client:    openai.NewClient(opts...),
		model:     modelName,
		maxTokens: maxInputTokens,
	}
	if maxInputTokens > 0 {
		o.enc = encodingFor(modelName)
	}
	return o, nil
}

func (o *OpenAIClassifier) Name() string { return "openai" }

func (o *OpenAIClassifier) Classify(ctx context.Context, text string) (model.BiasResult, error) {
	prompt := truncateTokens(o.enc, text, o.maxTokens)

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return model.BiasResult{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.BiasResult{}, errors.New("no response from openai")
	}
	metrics.AddClassifierPromptTokens(o.Name(), int(resp.Usage.PromptTokens))
	return parseLLMJSON(resp.Choices[0].Message.Content)
}

// encodingFor returns nil when no encoding can be loaded; truncation then
// falls back to a rune budget.
func encodingFor(modelName string) *tiktoken.Tiktoken {
	if enc, err := tiktoken.EncodingForModel(modelName); err == nil {
		return enc
	}
	if enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE); err == nil {
		return enc
	}
	return nil
}

// truncateTokens keeps at most max tokens of text. Without an encoder it
// assumes roughly four runes per token.
func truncateTokens(enc *tiktoken.Tiktoken, text string, max int) string {
	if max <= 0 {
		return text
	}
	if enc == nil {
		r := []rune(text)
		if len(r) > max*4 {
			return string(r[:max*4])
		}
		return text
	}
	toks := enc.Encode(text, nil, nil)
	if len(toks) <= max {
		return text
	}
	return enc.Decode(toks[:max])
}
