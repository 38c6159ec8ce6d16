package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmylchreest/tabula/internal/logger"
	"github.com/jmylchreest/tabula/pkg/llm"
	"github.com/jmylchreest/tabula/pkg/schema"
)

// LLMExtractor extracts records with a single LLM call per block.
type LLMExtractor struct {
	provider llm.Provider
	config   LLMConfig
}

// NewLLMExtractor creates an extractor over provider. A nil provider yields an
// extractor that is not Available and fails every call with ErrNoProvider.
func NewLLMExtractor(provider llm.Provider, cfg LLMConfig) *LLMExtractor {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultLLMConfig().MaxTokens
	}
	return &LLMExtractor{provider: provider, config: cfg}
}

// Name returns the provider name.
func (e *LLMExtractor) Name() string {
	if e.provider == nil {
		return "llm"
	}
	return e.provider.Name()
}

// Available returns true when a provider is configured.
func (e *LLMExtractor) Available() bool {
	return e.provider != nil
}

// Extract performs one LLM call. Failures are returned as-is and never retried;
// a failed call costs one request and yields no records.
func (e *LLMExtractor) Extract(ctx context.Context, content string, s schema.Schema, hints Hints) (*Result, error) {
	if e.provider == nil {
		return nil, ErrNoProvider
	}

	log := logger.Component("extract")
	prompt := BuildPrompt(content, s, hints, e.config.MaxContentSize)
	log.Debug("calling LLM",
		"provider", e.provider.Name(),
		"model", e.provider.Model(),
		"schema", s.Name,
		"content_size", len(content),
		"prompt_size", len(prompt))

	resp, err := llm.Observe(ctx, e.provider, e.config.Observer, "extract", len(content), llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
		JSONSchema:  s.ExtractionJSONSchema(),
		StrictMode:  e.config.StrictMode,
	})
	if err != nil {
		log.Debug("LLM completion failed", "error", err)
		return nil, fmt.Errorf("LLM completion failed: %w", err)
	}

	result := &Result{
		Raw:      resp.Content,
		Usage:    resp.Usage,
		Model:    resp.Model,
		Provider: e.provider.Name(),
		Cost:     resp.Cost,
		Duration: resp.Duration,
	}

	records, err := ParseRecords(resp.Content)
	if err != nil {
		log.Debug("failed to parse response", "error", err)
		return result, fmt.Errorf("failed to parse response as JSON: %w (response: %s)", err, truncateForError(resp.Content))
	}
	result.Records = records

	log.Debug("LLM response parsed",
		"records", len(records),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens)
	return result, nil
}

// ParseRecords decodes a model response into records. It accepts
// {"records": [...]}, a bare array, or a single object, optionally wrapped in
// a markdown code block. Array items that are not objects are skipped.
func ParseRecords(content string) ([]Record, error) {
	content = StripMarkdownCodeBlock(content)
	if content == "" {
		return nil, fmt.Errorf("empty response")
	}

	var items []json.RawMessage
	switch content[0] {
	case '[':
		if err := json.Unmarshal([]byte(content), &items); err != nil {
			return nil, err
		}
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal([]byte(content), &wrapper); err != nil {
			return nil, err
		}
		raw, ok := wrapper[schema.RecordsKey]
		if !ok {
			items = []json.RawMessage{json.RawMessage(content)}
			break
		}
		if string(raw) == "null" {
			return []Record{}, nil
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%s: %w", schema.RecordsKey, err)
		}
	default:
		return nil, fmt.Errorf("expected JSON object or array, got %q", truncateForError(content))
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		var rec Record
		if err := json.Unmarshal(item, &rec); err != nil || rec == nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// truncateForError truncates content for error messages.
func truncateForError(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 200 {
		return s
	}
	return s[:200] + "..."
}

var _ Extractor = (*LLMExtractor)(nil)
