// Package reconcile turns untrusted extracted records into a clean result
// set: excluded names are dropped, raw names are mapped onto a canonical
// vocabulary, numeric fields are coerced, duplicates are merged and the
// rows are ordered by rank.
//
// When too few canonical entities survive, the whole result is replaced by
// a literal reference dataset. A result is always entirely live or entirely
// reference, never a mix of both.
package reconcile

import (
	"fmt"
	"math"
	"sort"

	"github.com/jmylchreest/tabula/internal/logger"
	"github.com/jmylchreest/tabula/pkg/extractor"
	"github.com/jmylchreest/tabula/pkg/schema"
	"github.com/jmylchreest/tabula/pkg/table"
)

// Source tells where the rows of a result came from.
type Source string

const (
	SourceLive      Source = "live"
	SourceReference Source = "reference"
)

// Rules names the fields reconciliation works on.
type Rules struct {
	// IdentityField holds the entity name (e.g. "time").
	IdentityField string `yaml:"identity" json:"identity" validate:"required"`
	// RankField orders the result ascending. Empty keeps arrival order.
	RankField string `yaml:"rank,omitempty" json:"rank,omitempty"`
	// TieBreakField picks the winner among duplicates: higher wins.
	// Empty keeps the first record.
	TieBreakField string `yaml:"tie_break,omitempty" json:"tie_break,omitempty"`
	// SignedFields are numeric fields that keep their sign.
	SignedFields []string `yaml:"signed,omitempty" json:"signed,omitempty"`
	// MinCoverage is the fraction of the canonical vocabulary that must be
	// matched before live rows are trusted over the reference dataset.
	MinCoverage float64 `yaml:"min_coverage" json:"min_coverage" validate:"gte=0,lte=1"`
}

// Vocabulary is the declared allow-list and deny-list of entity names.
type Vocabulary struct {
	Canonical []string `yaml:"canonical,omitempty" json:"canonical,omitempty"`
	Excluded  []string `yaml:"excluded,omitempty" json:"excluded,omitempty"`
}

// Stats counts what happened to the input records.
type Stats struct {
	Input      int `json:"input"`
	Excluded   int `json:"excluded"`
	Unmatched  int `json:"unmatched"`
	Duplicates int `json:"duplicates"`
	// Distinct is the number of canonical entities matched by live records.
	Distinct int `json:"distinct"`
	// Required is the coverage threshold Distinct was compared against.
	Required int `json:"required"`
}

// Result is a reconciled result set.
type Result struct {
	Rows   []table.Row
	Source Source
	Stats  Stats
	// Insufficient is set when coverage fell short but no reference
	// dataset was declared, so the live rows were kept.
	Insufficient bool
}

// Reconciler applies Rules and a Vocabulary to extracted records.
// It holds no mutable state and is safe for concurrent use.
type Reconciler struct {
	schema    schema.Schema
	rules     Rules
	vocab     Vocabulary
	signed    map[string]bool
	reference []table.Row
}

// New creates a reconciler. Reference rows are normalized to the schema's
// field order and types once, up front.
func New(s schema.Schema, rules Rules, vocab Vocabulary, reference []table.Row) (*Reconciler, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}
	if _, ok := s.Field(rules.IdentityField); !ok {
		return nil, fmt.Errorf("identity field %q is not in schema %q", rules.IdentityField, s.Name)
	}
	for _, name := range []string{rules.RankField, rules.TieBreakField} {
		if name == "" {
			continue
		}
		if f, ok := s.Field(name); !ok || !f.IsNumeric() {
			return nil, fmt.Errorf("field %q must be a numeric field of schema %q", name, s.Name)
		}
	}
	if rules.MinCoverage < 0 || rules.MinCoverage > 1 {
		return nil, fmt.Errorf("min coverage %v out of range [0,1]", rules.MinCoverage)
	}

	r := &Reconciler{
		schema: s,
		rules:  rules,
		vocab:  vocab,
		signed: make(map[string]bool, len(rules.SignedFields)),
	}
	for _, name := range rules.SignedFields {
		r.signed[name] = true
	}
	for _, row := range reference {
		r.reference = append(r.reference, r.coerce(row.Map(), row.String(rules.IdentityField)))
	}
	r.sort(r.reference)
	return r, nil
}

// Reference returns a copy of the reference dataset.
func (r *Reconciler) Reference() []table.Row {
	return table.CloneRows(r.reference)
}

// Required returns the number of distinct canonical entities live rows
// must cover.
func (r *Reconciler) Required() int {
	return int(math.Ceil(r.rules.MinCoverage * float64(len(r.vocab.Canonical))))
}

// Reconcile runs the full algorithm, falling back to the reference dataset
// when coverage is insufficient.
func (r *Reconciler) Reconcile(records []extractor.Record) Result {
	log := logger.Component("reconcile")

	rows, stats := r.filter(records)
	stats.Required = r.Required()

	res := Result{Rows: rows, Source: SourceLive, Stats: stats}
	if stats.Distinct >= stats.Required {
		log.Debug("live rows accepted", "rows", len(rows), "required", stats.Required)
		return res
	}

	if len(r.reference) == 0 {
		log.Warn("coverage insufficient and no reference dataset",
			"distinct", stats.Distinct, "required", stats.Required)
		res.Insufficient = true
		return res
	}

	log.Info("coverage insufficient, using reference dataset",
		"distinct", stats.Distinct, "required", stats.Required, "reference", len(r.reference))
	res.Rows = r.Reference()
	res.Source = SourceReference
	return res
}

// Filter runs exclusion, canonicalization, coercion, deduplication and
// ordering without the coverage fallback.
func (r *Reconciler) Filter(records []extractor.Record) []table.Row {
	rows, _ := r.filter(records)
	return rows
}

func (r *Reconciler) filter(records []extractor.Record) ([]table.Row, Stats) {
	log := logger.Component("reconcile")
	stats := Stats{Input: len(records)}

	var rows []table.Row
	index := make(map[string]int)

	for _, rec := range records {
		raw := identity(rec[r.rules.IdentityField])
		if raw == "" {
			stats.Unmatched++
			continue
		}
		if term, ok := excluded(raw, r.vocab.Excluded); ok {
			log.Debug("record excluded", "identity", raw, "term", term)
			stats.Excluded++
			continue
		}
		name, ok := canonicalize(raw, r.vocab.Canonical)
		if !ok {
			log.Debug("record not in vocabulary", "identity", raw)
			stats.Unmatched++
			continue
		}

		row := r.coerce(rec, name)
		if i, seen := index[name]; seen {
			stats.Duplicates++
			if r.rules.TieBreakField != "" && row.Int(r.rules.TieBreakField) > rows[i].Int(r.rules.TieBreakField) {
				rows[i] = row
			}
			continue
		}
		index[name] = len(rows)
		rows = append(rows, row)
	}

	r.sort(rows)
	stats.Distinct = len(rows)
	return rows, stats
}

func (r *Reconciler) sort(rows []table.Row) {
	if r.rules.RankField == "" {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Int(r.rules.RankField) < rows[j].Int(r.rules.RankField)
	})
}

// coerce builds a row in schema field order with the identity set to name.
func (r *Reconciler) coerce(rec map[string]any, name string) table.Row {
	var row table.Row
	for _, f := range r.schema.Fields {
		if f.Name == r.rules.IdentityField {
			row.Set(f.Name, name)
			continue
		}
		v := rec[f.Name]
		switch f.Type {
		case schema.TypeInteger:
			n := toInt(v)
			if n < 0 && !r.signed[f.Name] {
				n = 0
			}
			row.Set(f.Name, n)
		case schema.TypeNumber:
			n := toFloat(v)
			if n < 0 && !r.signed[f.Name] {
				n = 0
			}
			row.Set(f.Name, n)
		case schema.TypeBoolean:
			row.Set(f.Name, toBool(v))
		default:
			row.Set(f.Name, toString(v))
		}
	}
	return row
}
