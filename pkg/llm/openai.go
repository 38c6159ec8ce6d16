package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is the model used when none is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// Known OpenAI model pricing (per token, USD)
var openaiModels = []ModelInfo{
	{ID: "gpt-4o", Name: "GPT-4o", ContextLength: 128000, PromptPrice: 2.50 / 1_000_000, CompletionPrice: 10.0 / 1_000_000},
	{ID: "gpt-4o-mini", Name: "GPT-4o Mini", ContextLength: 128000, PromptPrice: 0.15 / 1_000_000, CompletionPrice: 0.60 / 1_000_000},
	{ID: "gpt-4.1", Name: "GPT-4.1", ContextLength: 1047576, PromptPrice: 2.0 / 1_000_000, CompletionPrice: 8.0 / 1_000_000},
	{ID: "gpt-4.1-mini", Name: "GPT-4.1 Mini", ContextLength: 1047576, PromptPrice: 0.40 / 1_000_000, CompletionPrice: 1.60 / 1_000_000},
	{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", ContextLength: 16385, PromptPrice: 0.50 / 1_000_000, CompletionPrice: 1.50 / 1_000_000},
}

// OpenAIProvider implements Provider for direct OpenAI API access.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key required")
	}

	// The SDK retries by default; extraction calls are billed, so one attempt only.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Execute sends a completion request to OpenAI.
func (p *OpenAIProvider) Execute(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.model),
		Messages:    messages,
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(req.Temperature),
	}

	if req.JSONSchema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "extraction_result",
					Schema: req.JSONSchema,
					Strict: openai.Bool(req.StrictMode),
				},
			},
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices in response")
	}

	usage := Usage{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}

	return &Response{
		Content:      resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage:        usage,
		Model:        resp.Model,
		Cost:         p.EstimateCost(p.model, usage.InputTokens, usage.OutputTokens),
		Duration:     time.Since(start),
	}, nil
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model returns the configured model name.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// ListModels returns the OpenAI models with known pricing.
func (p *OpenAIProvider) ListModels(_ context.Context) ([]ModelInfo, error) {
	return append([]ModelInfo(nil), openaiModels...), nil
}

// EstimateCost calculates cost based on known OpenAI pricing, falling back to
// gpt-4o-mini rates for unknown models.
func (p *OpenAIProvider) EstimateCost(modelID string, inputTokens, outputTokens int) float64 {
	m, ok := lookupPrice(openaiModels, modelID)
	if !ok {
		m, _ = lookupPrice(openaiModels, DefaultOpenAIModel)
	}
	return m.Cost(inputTokens, outputTokens)
}

var (
	_ Provider      = (*OpenAIProvider)(nil)
	_ ModelLister   = (*OpenAIProvider)(nil)
	_ CostEstimator = (*OpenAIProvider)(nil)
)
