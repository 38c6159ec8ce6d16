// Package locator finds the regions of a page likely to hold a target table.
//
// Candidates are produced lazily and in document order. Each one is a plain
// text block ready to hand to an extractor; since every extraction is a billed
// call, the number of candidates is capped.
package locator

import (
	"fmt"
	"iter"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/tabula/internal/logger"
)

// Defaults applied by New for zero-valued settings.
const (
	DefaultProbeCount    = 5
	DefaultMinLength     = 200
	DefaultMaxCandidates = 3
)

// DefaultTags are the elements inspected for a section heading.
var DefaultTags = []string{"div", "section", "table"}

// Config describes how to find the target section.
type Config struct {
	// SectionPattern is a case-insensitive regular expression matched
	// against the own text of each tag, e.g. "classificação|tabela".
	SectionPattern string `yaml:"section_pattern" json:"section_pattern"`

	// Tags are the elements checked against SectionPattern.
	Tags []string `yaml:"tags" json:"tags,omitempty"`

	// ExcludeKeywords reject a block whose text contains any of them,
	// case-insensitively (e.g. "artilh" when standings are wanted).
	ExcludeKeywords []string `yaml:"exclude_keywords" json:"exclude_keywords,omitempty"`

	// Hints are canonical entity names probed when no section matched.
	Hints []string `yaml:"-" json:"-"`

	// ProbeCount is how many leading Hints are probed.
	ProbeCount int `yaml:"probe_count" json:"probe_count,omitempty" validate:"gte=0"`

	// MinLength is the minimum block length in characters.
	MinLength int `yaml:"min_length" json:"min_length,omitempty" validate:"gte=0"`

	// MaxCandidates caps the number of blocks yielded.
	MaxCandidates int `yaml:"max_candidates" json:"max_candidates,omitempty" validate:"gte=0"`
}

// Locator yields candidate blocks for one Config.
type Locator struct {
	cfg     Config
	section *regexp.Regexp
	exclude []string
}

// New compiles cfg, applying defaults to zero values.
func New(cfg Config) (*Locator, error) {
	if len(cfg.Tags) == 0 {
		cfg.Tags = DefaultTags
	}
	if cfg.ProbeCount == 0 {
		cfg.ProbeCount = DefaultProbeCount
	}
	if cfg.MinLength == 0 {
		cfg.MinLength = DefaultMinLength
	}
	if cfg.MaxCandidates == 0 {
		cfg.MaxCandidates = DefaultMaxCandidates
	}

	l := &Locator{cfg: cfg}
	if cfg.SectionPattern != "" {
		re, err := regexp.Compile("(?i)" + cfg.SectionPattern)
		if err != nil {
			return nil, fmt.Errorf("section pattern %q: %w", cfg.SectionPattern, err)
		}
		l.section = re
	}
	for _, kw := range cfg.ExcludeKeywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			l.exclude = append(l.exclude, strings.ToLower(kw))
		}
	}
	return l, nil
}

// Config returns the effective configuration.
func (l *Locator) Config() Config {
	return l.cfg
}

// Locate returns the candidate blocks of doc.
//
// Blocks whose own text matches the section pattern contribute their parent's
// text. When none is accepted, the first ProbeCount hints are searched and the
// parent of the first acceptable element naming each hint is taken. A block
// is acceptable when it is at least MinLength characters long and contains no
// exclusion keyword. At most MaxCandidates blocks are yielded. An empty
// sequence is not an error.
func (l *Locator) Locate(doc *goquery.Document) iter.Seq[string] {
	return func(yield func(string) bool) {
		log := logger.Component("locate")
		root := doc.Selection.Clone()
		root.Find("script, style, noscript, template").Remove()

		yielded := 0
		emit := func(text string) bool {
			yielded++
			return yield(text) && yielded < l.cfg.MaxCandidates
		}

		if l.section != nil {
			stopped := false
			root.Find(strings.Join(l.cfg.Tags, ", ")).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				if !l.section.MatchString(ownText(s)) {
					return true
				}
				parent := s.Parent()
				if parent.Length() == 0 {
					return true
				}
				text := BlockText(parent)
				if !l.acceptable(text) {
					log.Debug("section candidate rejected", "tag", goquery.NodeName(s), "length", utf8.RuneCountInString(text))
					return true
				}
				if !emit(text) {
					stopped = true
					return false
				}
				return true
			})
			if stopped || yielded > 0 {
				return
			}
		}

		hints := l.cfg.Hints
		if len(hints) > l.cfg.ProbeCount {
			hints = hints[:l.cfg.ProbeCount]
		}
		for _, hint := range hints {
			needle := strings.ToLower(strings.TrimSpace(hint))
			if needle == "" {
				continue
			}
			var found string
			root.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
				if !strings.Contains(strings.ToLower(ownText(s)), needle) {
					return true
				}
				container := s.Parent()
				if container.Length() == 0 {
					return true
				}
				text := BlockText(container)
				if !l.acceptable(text) {
					return true
				}
				found = text
				return false
			})
			if found == "" {
				continue
			}
			log.Debug("hint candidate found", "hint", hint)
			if !emit(found) {
				return
			}
		}
	}
}

// Collect runs Locate and gathers the candidates.
func (l *Locator) Collect(doc *goquery.Document) []string {
	var out []string
	for block := range l.Locate(doc) {
		out = append(out, block)
	}
	return out
}

func (l *Locator) acceptable(text string) bool {
	if utf8.RuneCountInString(text) < l.cfg.MinLength {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range l.exclude {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}
