package extractor

import (
	"strings"

	"github.com/jmylchreest/tabula/pkg/llm"
	"github.com/jmylchreest/tabula/pkg/schema"
)

// LLMConfig holds configuration for LLM-based extraction.
type LLMConfig struct {
	// Temperature for LLM responses (default: 0).
	Temperature float64

	// MaxTokens for LLM responses (default: 4096).
	MaxTokens int

	// MaxContentSize limits input content in bytes (default: 100000, 0 = unlimited).
	MaxContentSize int

	// StrictMode enables strict JSON schema validation in the API request.
	// Only supported by OpenAI models.
	StrictMode bool

	// Observer is called after every LLM call (success or failure).
	Observer llm.LLMObserver
}

// DefaultLLMConfig returns the defaults for table extraction.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Temperature:    0,
		MaxTokens:      4096,
		MaxContentSize: 100000, // ~100KB
	}
}

// SystemPrompt is the system prompt for every extraction call.
const SystemPrompt = `You are a data extraction assistant. Extract table rows from webpage content.

Content may be provided as Markdown, HTML, or plain text.

Respond with ONLY valid JSON of the form {"records": [...]}, one object per table row. No explanations.

Rules:
1. Extract every row you can find; return an empty list if there are none
2. Use the field names exactly as given
3. Numbers: extract the numeric value only (no units, no thousands separators)
4. Never invent rows that are not in the content`

// BuildPrompt creates the extraction prompt from content, schema and hints.
func BuildPrompt(content string, s schema.Schema, hints Hints, maxContentSize int) string {
	var prompt strings.Builder

	if hints.Instructions != "" {
		prompt.WriteString(strings.TrimSpace(hints.Instructions))
		prompt.WriteString("\n\n")
	}

	prompt.WriteString(s.ToPromptDescription())

	if len(hints.Valid) > 0 {
		prompt.WriteString("\n## Valid Names\n")
		prompt.WriteString("Only rows for these entities belong in the table: ")
		prompt.WriteString(strings.Join(hints.Valid, ", "))
		prompt.WriteString("\n")
	}
	if len(hints.Forbidden) > 0 {
		prompt.WriteString("\n## Never Extract\n")
		prompt.WriteString("These names belong to a different table and must be ignored: ")
		prompt.WriteString(strings.Join(hints.Forbidden, ", "))
		prompt.WriteString("\n")
	}
	if len(hints.Keywords) > 0 {
		prompt.WriteString("\n## Section\n")
		prompt.WriteString("Look for the section titled or described as: ")
		prompt.WriteString(strings.Join(hints.Keywords, ", "))
		prompt.WriteString("\n")
	}

	prompt.WriteString("\n## Webpage Content\n")
	prompt.WriteString("```\n")
	prompt.WriteString(TruncateContent(content, maxContentSize))
	prompt.WriteString("\n```\n")

	return prompt.String()
}

// TruncateContent limits content size to avoid token limits.
// maxLen of 0 means no limit.
func TruncateContent(content string, maxLen int) string {
	if maxLen <= 0 || len(content) <= maxLen {
		return content
	}
	// Back off to a rune boundary so the prompt stays valid UTF-8.
	cut := maxLen
	for cut > 0 && !isRuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "\n\n[Content truncated due to length...]"
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// StripMarkdownCodeBlock removes markdown code block wrappers from JSON responses.
// Some models wrap their JSON output in ```json ... ``` blocks.
func StripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	} else {
		return s
	}

	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
