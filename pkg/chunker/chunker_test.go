package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func markdownTable(rows int) string {
	var sb strings.Builder
	sb.WriteString("| Símbolo | Preço | Setor |\n|---|---|---|\n")
	for i := range rows {
		fmt.Fprintf(&sb, "| ACAO%02d | %d.50 BRL | Finanças |\n", i, 10+i)
	}
	return sb.String()
}

func TestSplit_ShortTextIsOneChunk(t *testing.T) {
	got := New(2000, 0).Split("| PETR4 | 38.50 |")
	if len(got) != 1 || got[0] != "| PETR4 | 38.50 |" {
		t.Errorf("Split() = %q", got)
	}
}

func TestSplit_Empty(t *testing.T) {
	if got := New(10, 0).Split("  \n\n "); len(got) != 0 {
		t.Errorf("Split() = %q, want none", got)
	}
}

func TestSplit_TableCutBetweenRows(t *testing.T) {
	text := markdownTable(60)
	s := New(100, 0) // 400 chars

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}

	var rows int
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 400 {
			t.Errorf("chunk %d has %d chars, limit 400", i, n)
		}
		for _, line := range strings.Split(c, "\n") {
			if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") {
				t.Errorf("chunk %d has a partial row: %q", i, line)
			}
			if strings.HasPrefix(line, "| ACAO") {
				rows++
			}
		}
	}
	if rows != 60 {
		t.Errorf("rows across chunks = %d, want 60 (no loss, no overlap)", rows)
	}
}

func TestSplit_Overlap(t *testing.T) {
	text := markdownTable(30)
	chunks := New(60, 10).Split(text) // 240 chars, 40 overlap

	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev := strings.Split(chunks[i-1], "\n")
		first := strings.Split(chunks[i], "\n")[0]
		if prev[len(prev)-1] != first {
			t.Errorf("chunk %d does not start with the last row of chunk %d", i, i-1)
		}
	}
}

func TestSplit_FallsBackToRunes(t *testing.T) {
	word := strings.Repeat("ã", 30)
	chunks := (&Splitter{Size: 2}).Split(word) // 8 chars

	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}
	if strings.Join(chunks, "") != word {
		t.Error("rune split lost characters")
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := map[string]int{"": 0, "abc": 1, "abcd": 1, "abcde": 2, "São Paulo": 3}
	for in, want := range tests {
		if got := EstimateTokens(in); got != want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", in, got, want)
		}
	}
}
