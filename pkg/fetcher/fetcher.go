// Package fetcher defines the interface for web page fetching.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static", "dynamic").
	Type() string
}

// Options controls fetching behavior.
type Options struct {
	UserAgent       string
	Timeout         time.Duration
	WaitForSelector string        // CSS selector to wait for (dynamic fetchers)
	WaitDuration    time.Duration // Additional wait after load
	Headers         map[string]string
}

// Content represents fetched page data.
type Content struct {
	URL         string
	HTML        string
	Text        string // Extracted readable text
	Title       string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
	Links       []string // Links found on the page
}

// Document parses the fetched HTML.
func (c Content) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(c.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.URL, err)
	}
	return doc, nil
}

// Error types for distinguishing failure reasons.
// Check with errors.Is(err, fetcher.ErrAntiBot).
var (
	// ErrAntiBot indicates the site's anti-bot protection blocked the request.
	ErrAntiBot = errors.New("anti-bot protection detected")
	// ErrChallengeTimeout indicates a timeout while waiting for the page to render.
	ErrChallengeTimeout = errors.New("challenge timeout")
	// ErrHTTPStatus indicates a non-success HTTP status code.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)

// Mode names accepted by New.
const (
	ModeStatic  = "static"
	ModeDynamic = "dynamic"
)

// New creates a fetcher for the given mode.
func New(mode string, cfg Config) (Fetcher, error) {
	switch mode {
	case "", ModeStatic:
		return NewStatic(cfg), nil
	case ModeDynamic:
		return NewDynamic(cfg)
	default:
		return nil, fmt.Errorf("unknown fetch mode: %s (available: static, dynamic)", mode)
	}
}
