// Package domain holds the declared data behind each scraping target: the
// record schema, vocabularies, reconciliation rules, locator settings,
// display labels and the reference dataset used when live extraction
// degrades.
//
// Built-in domains are embedded YAML documents; custom domains are loaded
// from files with the same layout.
package domain

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/tabula/pkg/extractor"
	"github.com/jmylchreest/tabula/pkg/locator"
	"github.com/jmylchreest/tabula/pkg/reconcile"
	"github.com/jmylchreest/tabula/pkg/schema"
	"github.com/jmylchreest/tabula/pkg/table"
)

//go:embed domains/*.yaml
var builtin embed.FS

// ErrUnknownDomain is returned by Load for a name with no built-in domain.
var ErrUnknownDomain = errors.New("unknown domain")

// Strategy selects how candidate blocks are produced from a page.
type Strategy string

const (
	// StrategySections locates labelled page sections (standings, scorers).
	StrategySections Strategy = "sections"
	// StrategyChunks keeps the page's tables as Markdown and splits them.
	StrategyChunks Strategy = "chunks"
)

// Chunking configures StrategyChunks.
type Chunking struct {
	// Size is the chunk size in estimated tokens.
	Size int `yaml:"size" json:"size" validate:"gte=0"`
	// Overlap is repeated between consecutive chunks, in estimated tokens.
	Overlap int `yaml:"overlap" json:"overlap" validate:"omitempty,ltfield=Size"`
	// MaxChunks caps the number of chunks sent for extraction.
	MaxChunks int `yaml:"max_chunks" json:"max_chunks" validate:"gte=0"`
}

// Domain is one scraping target.
type Domain struct {
	Name        string   `yaml:"name" json:"name" validate:"required,lowercase"`
	Title       string   `yaml:"title" json:"title" validate:"required"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	URLs        []string `yaml:"urls" json:"urls" validate:"dive,url"`
	// DumpFile is the JSON file the reconciled rows are written to.
	DumpFile string   `yaml:"dump_file" json:"dump_file" validate:"required,endswith=.json"`
	Strategy Strategy `yaml:"strategy" json:"strategy" validate:"required,oneof=sections chunks"`
	Fetch    string   `yaml:"fetch" json:"fetch" validate:"omitempty,oneof=static dynamic"`
	// WaitSelector is the element a dynamic fetch waits for.
	WaitSelector string `yaml:"wait_selector,omitempty" json:"wait_selector,omitempty"`

	Schema     schema.Schema        `yaml:"schema" json:"schema"`
	Rules      reconcile.Rules      `yaml:"rules" json:"rules"`
	Vocabulary reconcile.Vocabulary `yaml:"vocabulary" json:"vocabulary"`
	Locator    locator.Config       `yaml:"locator" json:"locator"`
	Chunking   Chunking             `yaml:"chunking" json:"chunking"`

	// Instructions and Keywords go into every extraction prompt.
	Instructions string   `yaml:"instructions,omitempty" json:"instructions,omitempty"`
	Keywords     []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`

	Columns []table.Column `yaml:"columns" json:"columns" validate:"dive"`
	Zones   []table.Zone   `yaml:"zones,omitempty" json:"zones,omitempty" validate:"dive"`

	// Companion names a domain shown next to this one in the UI.
	Companion string `yaml:"companion,omitempty" json:"companion,omitempty"`
	// StatsField is counted for distinct values in the UI (e.g. sector).
	StatsField string `yaml:"stats_field,omitempty" json:"stats_field,omitempty"`

	Reference []table.Row `yaml:"reference,omitempty" json:"reference,omitempty"`
}

// Load returns the built-in domain called name.
func Load(name string) (*Domain, error) {
	data, err := builtin.ReadFile(path.Join("domains", name+".yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownDomain, name, strings.Join(Names(), ", "))
		}
		return nil, err
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("built-in domain %s: %w", name, err)
	}
	return d, nil
}

// FromFile loads and validates a domain document.
func FromFile(p string) (*Domain, error) {
	data, err := os.ReadFile(p) //#nosec G304 -- user-specified domain file
	if err != nil {
		return nil, fmt.Errorf("failed to read domain file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML domain document.
func Parse(data []byte) (*Domain, error) {
	var d Domain
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse domain: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Names lists the built-in domains, sorted.
func Names() []string {
	entries, _ := fs.ReadDir(builtin, "domains")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Validate checks struct tags and cross-field consistency.
func (d *Domain) Validate() error {
	if err := validator.New().Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, e := range verrs {
				msgs[i] = fmt.Sprintf("%s %s", e.Namespace(), formatValidationError(e))
			}
			return fmt.Errorf("domain %q: %s", d.Name, strings.Join(msgs, "; "))
		}
		return err
	}

	if _, err := d.Reconciler(); err != nil {
		return fmt.Errorf("domain %q: %w", d.Name, err)
	}
	if _, err := locator.New(d.Locator); err != nil {
		return fmt.Errorf("domain %q: %w", d.Name, err)
	}
	for _, c := range d.Columns {
		if _, ok := d.Schema.Field(c.Field); !ok {
			return fmt.Errorf("domain %q: column %q is not a schema field", d.Name, c.Field)
		}
	}
	if d.StatsField != "" {
		if _, ok := d.Schema.Field(d.StatsField); !ok {
			return fmt.Errorf("domain %q: stats field %q is not a schema field", d.Name, d.StatsField)
		}
	}
	for i, row := range d.Reference {
		name := row.String(d.Rules.IdentityField)
		if name == "" {
			return fmt.Errorf("domain %q: reference row %d has no %s", d.Name, i, d.Rules.IdentityField)
		}
		for _, k := range row.Keys() {
			if _, ok := d.Schema.Field(k); !ok {
				return fmt.Errorf("domain %q: reference row %d has unknown field %q", d.Name, i, k)
			}
		}
	}
	return nil
}

// Reconciler builds the reconciler for the domain's rules and data.
func (d *Domain) Reconciler() (*reconcile.Reconciler, error) {
	return reconcile.New(d.Schema, d.Rules, d.Vocabulary, d.Reference)
}

// Hints returns the extraction prompt hints.
func (d *Domain) Hints() extractor.Hints {
	return extractor.Hints{
		Instructions: d.Instructions,
		Valid:        d.Vocabulary.Canonical,
		Forbidden:    d.Vocabulary.Excluded,
		Keywords:     d.Keywords,
	}
}

// LocatorConfig returns the locator settings with the canonical vocabulary
// as probe hints.
func (d *Domain) LocatorConfig() locator.Config {
	cfg := d.Locator
	cfg.Hints = d.Vocabulary.Canonical
	return cfg
}

// DisplayColumns returns the declared columns, or one column per schema
// field labelled with the field name.
func (d *Domain) DisplayColumns() []table.Column {
	if len(d.Columns) > 0 {
		return d.Columns
	}
	return table.ColumnsFor(d.Schema.FieldNames())
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "endswith":
		return fmt.Sprintf("must end with %s", e.Param())
	case "lowercase":
		return "must be lowercase"
	case "gte", "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "lte", "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}
