package fetcher

import "time"

// Config holds configuration shared by the fetchers.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// Headers are sent with every static request.
	Headers map[string]string
	// Stealth masks headless Chrome for dynamic fetches.
	Stealth bool
}

// DefaultConfig returns sensible defaults. The Accept-Language header asks
// Brazilian sites for their pt-BR rendering, which is what the domain
// vocabularies are written in.
func DefaultConfig() Config {
	return Config{
		UserAgent: defaultUserAgent,
		Timeout:   30 * time.Second,
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "pt-BR,pt;q=0.9,en;q=0.8",
		},
	}
}

// Chrome user agent for better compatibility
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.Headers == nil {
		c.Headers = d.Headers
	}
	return c
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
