// Package output serializes reconciled rows: JSON, JSONL and YAML writers,
// an aligned terminal table, and the per-domain JSON dump file.
//
// Writers never reorder or modify the rows they are given.
package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/tabula/pkg/table"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatTable, FormatJSON, FormatJSONL, FormatYAML}

// Writer handles output serialization.
type Writer interface {
	// Write outputs a single row.
	Write(row table.Row) error

	// WriteAll outputs rows in order.
	WriteAll(rows []table.Row) error

	// Flush ensures all data is written.
	Flush() error

	// Close releases resources.
	Close() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty    bool
	indent    string
	columns   []table.Column
	zones     []table.Zone
	rankField string
}

// WithPretty enables pretty-printing.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// WithColumns sets the table columns and their display labels.
func WithColumns(cols []table.Column) WriterOption {
	return func(c *writerConfig) {
		c.columns = cols
	}
}

// WithZones adds a zone label column to tables, looked up by rankField.
func WithZones(rankField string, zones []table.Zone) WriterOption {
	return func(c *writerConfig) {
		c.rankField = rankField
		c.zones = zones
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return NewJSONWriter(w, cfg.pretty, cfg.indent), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	case FormatTable:
		return NewTableWriter(w, cfg.columns, cfg.rankField, cfg.zones), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
