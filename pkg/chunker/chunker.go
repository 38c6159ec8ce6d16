// Package chunker splits long text into pieces that fit one extraction call.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// CharsPerToken is the rough chars-per-token ratio used to size chunks.
const CharsPerToken = 4

// DefaultSeparators are tried in order: paragraphs, lines, words, runes.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter recursively splits text on a list of separators so each chunk
// stays within Size estimated tokens, preferring the coarsest separator that
// works. Markdown table rows are single lines, so a table is cut between
// rows before it is ever cut inside one.
type Splitter struct {
	// Size is the maximum chunk size in estimated tokens (default 2000).
	Size int
	// Overlap is the number of estimated tokens repeated between chunks.
	Overlap int
	// Separators overrides DefaultSeparators.
	Separators []string
}

// New creates a splitter with the given size and overlap in tokens.
func New(size, overlap int) *Splitter {
	return &Splitter{Size: size, Overlap: overlap}
}

// Split returns the chunks of text, skipping blank ones.
func (s *Splitter) Split(text string) []string {
	maxChars := s.Size * CharsPerToken
	if maxChars <= 0 {
		maxChars = 2000 * CharsPerToken
	}
	overlap := s.Overlap * CharsPerToken
	if overlap < 0 || overlap >= maxChars {
		overlap = 0
	}
	seps := s.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators
	}

	var chunks []string
	for _, c := range split(text, seps, maxChars, overlap) {
		if c = strings.TrimSpace(c); c != "" {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

func split(text string, seps []string, maxChars, overlap int) []string {
	// First separator present in text; "" always matches.
	sep, rest := seps[len(seps)-1], []string(nil)
	for i, candidate := range seps {
		if candidate == "" || strings.Contains(text, candidate) {
			sep, rest = candidate, seps[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = strings.Split(text, "")
	} else {
		pieces = strings.Split(text, sep)
	}

	var out, fitting []string
	for _, p := range pieces {
		if length(p) <= maxChars {
			fitting = append(fitting, p)
			continue
		}
		if len(fitting) > 0 {
			out = append(out, merge(fitting, sep, maxChars, overlap)...)
			fitting = nil
		}
		if len(rest) == 0 {
			out = append(out, p)
		} else {
			out = append(out, split(p, rest, maxChars, overlap)...)
		}
	}
	if len(fitting) > 0 {
		out = append(out, merge(fitting, sep, maxChars, overlap)...)
	}
	return out
}

// merge packs pieces joined by sep into chunks of at most maxChars, carrying
// up to overlap chars of trailing pieces into the next chunk.
func merge(pieces []string, sep string, maxChars, overlap int) []string {
	sepLen := length(sep)
	var (
		out     []string
		current []string
		total   int
	)

	for _, p := range pieces {
		n := length(p)
		joinCost := 0
		if len(current) > 0 {
			joinCost = sepLen
		}
		if total+n+joinCost > maxChars && len(current) > 0 {
			out = append(out, strings.Join(current, sep))
			// Drop from the front until within the overlap budget and room for p.
			for len(current) > 0 && (total > overlap || total+n+sepLen > maxChars) {
				total -= length(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, p)
		total += n
	}
	if len(current) > 0 {
		out = append(out, strings.Join(current, sep))
	}
	return out
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}

// EstimateTokens returns the approximate token count of text.
func EstimateTokens(text string) int {
	return (length(text) + CharsPerToken - 1) / CharsPerToken
}
