// Package llm provides a unified interface for the LLM providers that back
// table extraction and the browser agent.
package llm

import (
	"context"
	"strings"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    Role
	Content string
}

// Request represents a completion request to the LLM.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONSchema  map[string]any // For structured output
	StrictMode  bool           // Use strict JSON schema validation (only for supported models)
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Add accumulates u2 into u.
func (u *Usage) Add(u2 Usage) {
	u.InputTokens += u2.InputTokens
	u.OutputTokens += u2.OutputTokens
}

// Total returns input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Response represents the result of an LLM execution.
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
	Model        string // Actual model used
	Cost         float64
	Duration     time.Duration
}

// Provider is the core interface that all LLM backends must implement.
type Provider interface {
	// Execute sends a completion request and returns the response.
	// Implementations never retry on their own; one call is one billed request.
	Execute(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string

	// Model returns the configured model name.
	Model() string
}

// ModelInfo contains pricing metadata about a model.
type ModelInfo struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ContextLength   int     `json:"context_length"`
	PromptPrice     float64 `json:"prompt_price"`     // Price per token (USD)
	CompletionPrice float64 `json:"completion_price"` // Price per token (USD)
}

// Cost returns the USD cost of a call with the given token counts.
func (m ModelInfo) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*m.PromptPrice + float64(outputTokens)*m.CompletionPrice
}

// ModelLister is an optional interface for providers that know their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// CostEstimator is an optional interface for providers that can estimate
// costs based on token counts without making an API call.
type CostEstimator interface {
	EstimateCost(modelID string, inputTokens, outputTokens int) float64
}

// ProviderConfig holds common configuration for providers.
type ProviderConfig struct {
	APIKey  string
	BaseURL string // For custom or proxied endpoints
	Model   string
	Timeout time.Duration
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout: 120 * time.Second,
	}
}

// AsCostEstimator returns the provider as a CostEstimator if it implements the interface.
func AsCostEstimator(p Provider) (CostEstimator, bool) {
	ce, ok := p.(CostEstimator)
	return ce, ok
}

// lookupPrice finds a model in a pricing table, trying an exact match and
// then the longest id that prefixes modelID (for dated model versions).
func lookupPrice(table []ModelInfo, modelID string) (ModelInfo, bool) {
	var best ModelInfo
	found := false
	for _, m := range table {
		if m.ID == modelID {
			return m, true
		}
		if strings.HasPrefix(modelID, m.ID) && len(m.ID) > len(best.ID) {
			best, found = m, true
		}
	}
	return best, found
}
