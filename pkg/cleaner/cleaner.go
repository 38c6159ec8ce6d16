// Package cleaner transforms fetched HTML into content suited to LLM
// extraction. Table pages are reduced to their <table> elements and rendered
// as Markdown, which keeps row and column structure in very few tokens.
package cleaner

// Cleaner transforms HTML content into a cleaner format for extraction.
type Cleaner interface {
	// Clean transforms the input HTML. The output format depends on the
	// implementation (HTML subset, markdown, plain text).
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}

// NoopCleaner passes content through without modification.
type NoopCleaner struct{}

// NewNoop creates a new no-op cleaner.
func NewNoop() *NoopCleaner {
	return &NoopCleaner{}
}

// Clean returns the input unchanged.
func (c *NoopCleaner) Clean(html string) (string, error) {
	return html, nil
}

// Name returns the cleaner type.
func (c *NoopCleaner) Name() string {
	return "noop"
}

// Tables returns the chain used for table pages: keep the tables, then
// convert them to markdown.
func Tables() Cleaner {
	return NewChain(NewTable(), NewMarkdown())
}
