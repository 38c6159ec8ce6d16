package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is the model used when none is configured.
const DefaultAnthropicModel = "claude-3-5-haiku-20241022"

// extractTool is the tool the model is forced to call when a JSON schema is
// requested. Anthropic has no response_format; tool input is the structured output.
const extractTool = "extract_records"

// Known Anthropic model pricing (per token, USD)
var anthropicModels = []ModelInfo{
	{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", ContextLength: 200000, PromptPrice: 3.0 / 1_000_000, CompletionPrice: 15.0 / 1_000_000},
	{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", ContextLength: 200000, PromptPrice: 3.0 / 1_000_000, CompletionPrice: 15.0 / 1_000_000},
	{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", ContextLength: 200000, PromptPrice: 0.80 / 1_000_000, CompletionPrice: 4.0 / 1_000_000},
	{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku", ContextLength: 200000, PromptPrice: 0.25 / 1_000_000, CompletionPrice: 1.25 / 1_000_000},
}

// AnthropicProvider implements Provider for the Anthropic Messages API.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg ProviderConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic API key required")
	}

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
		model = DefaultAnthropicModel
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

// Execute sends a completion request to Anthropic.
func (p *AnthropicProvider) Execute(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	var systemPrompt string

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			systemPrompt = msg.Content
		case RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(maxTokens),
		Messages:    messages,
		Temperature: anthropic.Float(req.Temperature),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	if req.JSONSchema != nil {
		properties, _ := req.JSONSchema["properties"].(map[string]any)
		params.Tools = []anthropic.ToolUnionParam{
			{
				OfTool: &anthropic.ToolParam{
					Name:        extractTool,
					Description: anthropic.String("Return the records extracted from the content"),
					InputSchema: anthropic.ToolInputSchemaParam{
						Properties: properties,
						Required:   requiredFields(req.JSONSchema["required"]),
					},
				},
			},
		}
		params.ToolChoice = anthropic.ToolChoiceParamOfTool(extractTool)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			content = b.Text
		case anthropic.ToolUseBlock:
			raw, err := json.Marshal(b.Input)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tool input: %w", err)
			}
			content = string(raw)
		}
	}

	usage := Usage{
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}

	return &Response{
		Content:      content,
		FinishReason: string(resp.StopReason),
		Usage:        usage,
		Model:        string(resp.Model),
		Cost:         p.EstimateCost(p.model, usage.InputTokens, usage.OutputTokens),
		Duration:     time.Since(start),
	}, nil
}

// requiredFields accepts both []string (built in Go) and []any (decoded JSON).
func requiredFields(v any) []string {
	switch r := v.(type) {
	case []string:
		return r
	case []any:
		out := make([]string, 0, len(r))
		for _, item := range r {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Model returns the configured model name.
func (p *AnthropicProvider) Model() string {
	return p.model
}

// ListModels returns the Anthropic models with known pricing.
func (p *AnthropicProvider) ListModels(_ context.Context) ([]ModelInfo, error) {
	return append([]ModelInfo(nil), anthropicModels...), nil
}

// EstimateCost calculates cost based on known Anthropic pricing.
func (p *AnthropicProvider) EstimateCost(modelID string, inputTokens, outputTokens int) float64 {
	m, ok := lookupPrice(anthropicModels, modelID)
	if !ok {
		// Sonnet rates for unknown models
		m = anthropicModels[0]
	}
	return m.Cost(inputTokens, outputTokens)
}

var (
	_ Provider      = (*AnthropicProvider)(nil)
	_ ModelLister   = (*AnthropicProvider)(nil)
	_ CostEstimator = (*AnthropicProvider)(nil)
)
