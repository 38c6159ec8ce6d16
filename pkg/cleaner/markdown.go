package cleaner

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// MarkdownCleaner converts HTML to Markdown, rendering tables as pipe tables.
type MarkdownCleaner struct {
	conv   *converter.Converter
	domain string
}

// MarkdownOption configures the markdown cleaner.
type MarkdownOption func(*MarkdownCleaner)

// WithDomain resolves relative links against domain.
func WithDomain(domain string) MarkdownOption {
	return func(c *MarkdownCleaner) { c.domain = domain }
}

// NewMarkdown creates a new Markdown cleaner.
func NewMarkdown(opts ...MarkdownOption) *MarkdownCleaner {
	c := &MarkdownCleaner{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean converts HTML to Markdown.
func (c *MarkdownCleaner) Clean(html string) (string, error) {
	var (
		markdown string
		err      error
	)
	if c.domain != "" {
		markdown, err = c.conv.ConvertString(html, converter.WithDomain(c.domain))
	} else {
		markdown, err = c.conv.ConvertString(html)
	}
	if err != nil {
		return "", err
	}
	return cleanWhitespace(markdown), nil
}

// Name returns the cleaner type.
func (c *MarkdownCleaner) Name() string {
	return "markdown"
}

// cleanWhitespace collapses runs of blank lines to one.
func cleanWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if !blank {
				result = append(result, "")
			}
			blank = true
			continue
		}
		blank = false
		result = append(result, strings.TrimRight(line, " \t"))
	}

	return strings.TrimSpace(strings.Join(result, "\n"))
}
