// Package tabula is the public entry point: it runs a domain's fetch,
// locate, extract and reconcile pipeline over a set of URLs.
package tabula

import (
	"time"

	"github.com/jmylchreest/tabula/pkg/extractor"
	"github.com/jmylchreest/tabula/pkg/fetcher"
	"github.com/jmylchreest/tabula/pkg/llm"
)

// Config holds all Scraper configuration. The credential is passed in
// explicitly; nothing is read from the environment here.
type Config struct {
	// LLM settings
	Provider string
	Model    string
	APIKey   string
	BaseURL  string

	// Fetch settings. FetchMode overrides the domain's declared mode.
	FetchMode string
	UserAgent string
	Timeout   time.Duration
	Stealth   bool

	// Extraction settings
	Temperature    float64
	MaxTokens      int
	MaxContentSize int
	StrictMode     bool

	// Injected collaborators, mostly for tests.
	Fetcher   fetcher.Fetcher
	Extractor extractor.Extractor
	Observer  llm.LLMObserver
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	llmCfg := extractor.DefaultLLMConfig()
	return Config{
		Provider:       "openai",
		Timeout:        30 * time.Second,
		Temperature:    llmCfg.Temperature,
		MaxTokens:      llmCfg.MaxTokens,
		MaxContentSize: llmCfg.MaxContentSize,
	}
}

// Option configures a Scraper.
type Option func(*Config)

// WithProvider sets the LLM provider.
func WithProvider(provider string) Option {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithModel sets the LLM model.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL sets a custom API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithFetchMode forces the fetch mode (static, dynamic) for every domain.
func WithFetchMode(mode string) Option {
	return func(c *Config) {
		c.FetchMode = mode
	}
}

// WithUserAgent sets the HTTP user agent.
func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.UserAgent = ua
	}
}

// WithStealth masks headless Chrome in dynamic fetches.
func WithStealth(enabled bool) Option {
	return func(c *Config) {
		c.Stealth = enabled
	}
}

// WithTimeout sets the page fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithTemperature sets the LLM temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithMaxTokens sets the response token limit per extraction call.
func WithMaxTokens(n int) Option {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// WithMaxContentSize limits the block size sent to the model, in bytes.
func WithMaxContentSize(n int) Option {
	return func(c *Config) {
		c.MaxContentSize = n
	}
}

// WithStrictMode enables strict JSON schema output where supported.
func WithStrictMode(enabled bool) Option {
	return func(c *Config) {
		c.StrictMode = enabled
	}
}

// WithFetcher injects a fetcher used for every URL.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *Config) {
		c.Fetcher = f
	}
}

// WithExtractor injects an extractor. No credential is needed then.
func WithExtractor(e extractor.Extractor) Option {
	return func(c *Config) {
		c.Extractor = e
	}
}

// WithObserver sets a hook called after every LLM call.
func WithObserver(obs llm.LLMObserver) Option {
	return func(c *Config) {
		c.Observer = obs
	}
}
