// Package extractor turns a block of page text into loosely typed records
// matching a schema.
//
// Extraction output is untrusted: values may have the wrong type, be missing
// or name entities that do not belong in the table. Nothing here validates
// record contents; that is left to the reconcile package.
package extractor

import (
	"context"
	"errors"
	"time"

	"github.com/jmylchreest/tabula/pkg/llm"
	"github.com/jmylchreest/tabula/pkg/schema"
)

// ErrNoProvider is returned when an LLM extractor has no provider configured.
var ErrNoProvider = errors.New("extractor: no LLM provider configured")

// Record is one extracted row, keyed by schema field name.
type Record map[string]any

// Extractor extracts structured data from content.
type Extractor interface {
	// Extract performs one extraction call over content. It never retries.
	Extract(ctx context.Context, content string, s schema.Schema, hints Hints) (*Result, error)

	// Name returns the extractor identifier.
	Name() string

	// Available returns true if the extractor is properly configured.
	Available() bool
}

// Hints steer the model towards the right entities. They only shape the
// prompt; nothing is enforced here.
type Hints struct {
	// Instructions is free text prepended to the field list.
	Instructions string
	// Valid lists the entity names that are expected in the table.
	Valid []string
	// Forbidden lists names of the wrong kind of entity.
	Forbidden []string
	// Keywords describe the section the rows come from.
	Keywords []string
}

// Result holds the extraction output.
type Result struct {
	Records []Record

	// Raw is the raw response from the model.
	Raw string

	Usage    llm.Usage
	Model    string
	Provider string
	Cost     float64
	Duration time.Duration
}

// Func adapts a plain function to the Extractor interface.
type Func func(ctx context.Context, content string, s schema.Schema, hints Hints) ([]Record, error)

// Extract calls f.
func (f Func) Extract(ctx context.Context, content string, s schema.Schema, hints Hints) (*Result, error) {
	start := time.Now()
	records, err := f(ctx, content, s, hints)
	if err != nil {
		return nil, err
	}
	return &Result{Records: records, Provider: "func", Duration: time.Since(start)}, nil
}

// Name returns "func".
func (f Func) Name() string { return "func" }

// Available reports whether f is non-nil.
func (f Func) Available() bool { return f != nil }
