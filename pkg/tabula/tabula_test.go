package tabula

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jmylchreest/tabula/pkg/domain"
	"github.com/jmylchreest/tabula/pkg/extractor"
	"github.com/jmylchreest/tabula/pkg/fetcher"
	"github.com/jmylchreest/tabula/pkg/reconcile"
	"github.com/jmylchreest/tabula/pkg/schema"
)

// fakeFetcher serves canned pages by URL.
type fakeFetcher struct {
	pages  map[string]string
	errs   map[string]error
	closed bool
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, _ fetcher.Options) (fetcher.Content, error) {
	if err, ok := f.errs[url]; ok {
		return fetcher.Content{}, err
	}
	html, ok := f.pages[url]
	if !ok {
		return fetcher.Content{}, fmt.Errorf("%w: 404", fetcher.ErrHTTPStatus)
	}
	return fetcher.Content{URL: url, HTML: html, StatusCode: 200}, nil
}

func (f *fakeFetcher) Close() error {
	f.closed = true
	return nil
}

func (f *fakeFetcher) Type() string { return "fake" }

func loadDomain(t *testing.T, name string) *domain.Domain {
	t.Helper()
	d, err := domain.Load(name)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

// standingsPage renders n teams under a "Classificação" heading, plus a
// scorers box that must be ignored.
func standingsPage(d *domain.Domain, n int) string {
	var sb strings.Builder
	sb.WriteString("<html><body><section><div>Classificação</div><table>")
	for i, team := range d.Vocabulary.Canonical[:n] {
		fmt.Fprintf(&sb, "<tr><td>%d</td><td>%s</td><td>%d</td><td>24</td><td>11</td><td>7</td><td>3</td><td>24</td><td>4</td><td>20</td></tr>", i+1, team, 72-3*i)
	}
	sb.WriteString("</table></section>")
	sb.WriteString("<aside><div>Artilharia</div><p>Arrascaeta 9 gols, Vegetti 8 gols</p></aside>")
	sb.WriteString("</body></html>")
	return sb.String()
}

// tableReader returns one record per canonical name found in the block,
// plus a scorer that reconciliation must drop.
func tableReader(calls *atomic.Int32) extractor.Func {
	return func(_ context.Context, content string, _ schema.Schema, hints extractor.Hints) ([]extractor.Record, error) {
		calls.Add(1)
		var recs []extractor.Record
		for i, name := range hints.Valid {
			if strings.Contains(content, name) {
				recs = append(recs, extractor.Record{
					"posicao": fmt.Sprint(i + 1),
					"time":    name,
					"pontos":  fmt.Sprint(72 - 3*i),
				})
			}
		}
		recs = append(recs, extractor.Record{"time": "Arrascaeta", "posicao": "1", "pontos": "9"})
		return recs, nil
	}
}

func TestNew_MissingCredential(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{"openai", nil, "OPENAI_API_KEY"},
		{"anthropic", []Option{WithProvider("anthropic")}, "ANTHROPIC_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			if !errors.Is(err, ErrMissingCredential) {
				t.Fatalf("err = %v, want ErrMissingCredential", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	s, err := New(WithAPIKey("sk-test-0123456789abcdefghij"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Provider() != "openai" {
		t.Errorf("Provider() = %q", s.Provider())
	}

	if _, err := New(WithProvider("cohere"), WithAPIKey("x")); err == nil {
		t.Error("expected error for unknown provider")
	}

	var calls atomic.Int32
	s, err = New(WithExtractor(tableReader(&calls)))
	if err != nil {
		t.Fatalf("New() with extractor error = %v", err)
	}
	if s.Provider() != "func" {
		t.Errorf("Provider() = %q", s.Provider())
	}
}

func TestRun_StandingsLive(t *testing.T) {
	d := loadDomain(t, "standings")
	f := &fakeFetcher{pages: map[string]string{"https://ge.test/tabela": standingsPage(d, 20)}}
	var calls atomic.Int32

	s, err := New(WithFetcher(f), WithExtractor(tableReader(&calls)))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	report, err := s.Run(context.Background(), d, []string{"https://ge.test/tabela"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !report.Live() {
		t.Fatalf("Source = %q, want live (failures: %v)", report.Source, report.Warnings())
	}
	if report.Blocks != 1 || calls.Load() != 1 {
		t.Errorf("blocks = %d, calls = %d, want 1 each", report.Blocks, calls.Load())
	}
	if report.Records != 21 {
		t.Errorf("Records = %d, want 21", report.Records)
	}
	if len(report.Rows) != 20 {
		t.Fatalf("got %d rows, want 20", len(report.Rows))
	}
	for i, row := range report.Rows {
		if row.Int("posicao") != i+1 {
			t.Errorf("row %d posicao = %d", i, row.Int("posicao"))
		}
		if row.String("time") == "Arrascaeta" {
			t.Error("scorer leaked into standings")
		}
	}
	if report.Stats.Excluded != 1 {
		t.Errorf("Stats.Excluded = %d, want 1", report.Stats.Excluded)
	}
	if len(report.Failures) != 0 {
		t.Errorf("Failures = %v", report.Warnings())
	}
}

func TestRun_FetchFailureAbsorbed(t *testing.T) {
	d := loadDomain(t, "standings")
	f := &fakeFetcher{
		pages: map[string]string{"https://ge.test/ok": standingsPage(d, 20)},
		errs:  map[string]error{"https://ge.test/blocked": fetcher.ErrAntiBot},
	}
	var calls atomic.Int32
	s, err := New(WithFetcher(f), WithExtractor(tableReader(&calls)))
	if err != nil {
		t.Fatal(err)
	}

	report, err := s.Run(context.Background(), d, []string{"https://ge.test/blocked", "https://ge.test/missing", "https://ge.test/ok"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(report.Failures) != 2 {
		t.Fatalf("Failures = %v, want 2", report.Warnings())
	}
	if f0 := report.Failures[0]; f0.Stage != StageFetch || !errors.Is(f0, fetcher.ErrAntiBot) {
		t.Errorf("first failure = %v", f0)
	}
	if !errors.Is(report.Failures[1], fetcher.ErrHTTPStatus) {
		t.Errorf("second failure = %v", report.Failures[1])
	}
	if !report.Live() || len(report.Rows) != 20 {
		t.Errorf("Source = %q, rows = %d", report.Source, len(report.Rows))
	}
}

func TestRun_ExtractionFailureFallsBack(t *testing.T) {
	d := loadDomain(t, "standings")
	f := &fakeFetcher{pages: map[string]string{"https://ge.test/tabela": standingsPage(d, 20)}}
	failing := extractor.Func(func(context.Context, string, schema.Schema, extractor.Hints) ([]extractor.Record, error) {
		return nil, errors.New("429 too many requests")
	})
	s, err := New(WithFetcher(f), WithExtractor(failing))
	if err != nil {
		t.Fatal(err)
	}

	report, err := s.Run(context.Background(), d, []string{"https://ge.test/tabela"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Source != reconcile.SourceReference {
		t.Errorf("Source = %q, want reference", report.Source)
	}
	if len(report.Rows) != 20 || report.Rows[0].String("time") != "Flamengo" {
		t.Errorf("rows = %d, first = %q", len(report.Rows), report.Rows[0].String("time"))
	}
	if report.FailedBlocks() != 1 {
		t.Errorf("FailedBlocks() = %d, want 1", report.FailedBlocks())
	}
	if w := report.Warnings(); len(w) != 1 || !strings.Contains(w[0], "block 0") || !strings.Contains(w[0], "429") {
		t.Errorf("Warnings() = %v", w)
	}
}

func TestRun_PartialCoverageFallsBack(t *testing.T) {
	d := loadDomain(t, "standings")
	f := &fakeFetcher{pages: map[string]string{"https://ge.test/tabela": standingsPage(d, 10)}}
	var calls atomic.Int32
	s, err := New(WithFetcher(f), WithExtractor(tableReader(&calls)))
	if err != nil {
		t.Fatal(err)
	}

	report, err := s.Run(context.Background(), d, []string{"https://ge.test/tabela"})
	if err != nil {
		t.Fatal(err)
	}
	if report.Live() || len(report.Rows) != 20 {
		t.Errorf("Source = %q, rows = %d, want 20 reference rows", report.Source, len(report.Rows))
	}
	if report.Stats.Distinct != 10 || report.Stats.Required != 15 {
		t.Errorf("Stats = %+v", report.Stats)
	}
	if len(report.Failures) != 0 {
		t.Errorf("insufficient coverage is not a failure: %v", report.Warnings())
	}
}

func TestRun_NoCandidateBlocks(t *testing.T) {
	d := loadDomain(t, "standings")
	f := &fakeFetcher{pages: map[string]string{"https://ge.test/empty": "<html><body><p>em breve</p></body></html>"}}
	var calls atomic.Int32
	s, err := New(WithFetcher(f), WithExtractor(tableReader(&calls)))
	if err != nil {
		t.Fatal(err)
	}

	report, err := s.Run(context.Background(), d, []string{"https://ge.test/empty"})
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 0 {
		t.Errorf("extractor called %d times with no blocks", calls.Load())
	}
	if report.Source != reconcile.SourceReference {
		t.Errorf("Source = %q, want reference", report.Source)
	}
}

func TestRun_StocksChunks(t *testing.T) {
	d := loadDomain(t, "stocks")
	d.Chunking.Size = 100
	d.Chunking.MaxChunks = 2

	var sb strings.Builder
	sb.WriteString("<html><body><nav>Menu</nav><table><tr><th>Símbolo</th><th>Preço</th><th>Setor</th></tr>")
	for i := range 80 {
		fmt.Fprintf(&sb, "<tr><td>ACAO%02d</td><td>%d.50 BRL</td><td>Finanças</td></tr>", i, 10+i)
	}
	sb.WriteString("</table></body></html>")
	f := &fakeFetcher{pages: map[string]string{"https://tv.test/large-cap": sb.String()}}

	var calls atomic.Int32
	var sawMenu atomic.Bool
	reader := extractor.Func(func(_ context.Context, content string, _ schema.Schema, _ extractor.Hints) ([]extractor.Record, error) {
		calls.Add(1)
		if strings.Contains(content, "Menu") {
			sawMenu.Store(true)
		}
		return []extractor.Record{
			{"simbolo_empresa": "PETR4", "setor_empresa": "Energia"},
			{"simbolo_empresa": fmt.Sprintf("CHUNK%d", calls.Load()), "setor_empresa": "Finanças"},
		}, nil
	})

	s, err := New(WithFetcher(f), WithExtractor(reader))
	if err != nil {
		t.Fatal(err)
	}
	report, err := s.Run(context.Background(), d, []string{"https://tv.test/large-cap"})
	if err != nil {
		t.Fatal(err)
	}

	if calls.Load() != 2 || report.Blocks != 2 {
		t.Errorf("calls = %d, blocks = %d, want 2 (capped)", calls.Load(), report.Blocks)
	}
	if sawMenu.Load() {
		t.Error("non-table content reached the extractor")
	}
	if !report.Live() || len(report.Rows) != 3 {
		t.Errorf("Source = %q, rows = %d, want 3 live rows", report.Source, len(report.Rows))
	}
	if report.Rows[0].String("simbolo_empresa") != "PETR4" {
		t.Errorf("first row = %v", report.Rows[0].Map())
	}
}

func TestRun_CancelledContext(t *testing.T) {
	d := loadDomain(t, "standings")
	var calls atomic.Int32
	s, err := New(WithFetcher(&fakeFetcher{}), WithExtractor(tableReader(&calls)))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Run(ctx, d, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRun_StaticFetchOverHTTP(t *testing.T) {
	d := loadDomain(t, "standings")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(standingsPage(d, 20)))
	}))
	defer srv.Close()

	var calls atomic.Int32
	s, err := New(WithFetchMode(fetcher.ModeStatic), WithExtractor(tableReader(&calls)))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	report, err := s.Run(context.Background(), d, []string{srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if !report.Live() || len(report.Rows) != 20 {
		t.Errorf("Source = %q, rows = %d, failures = %v", report.Source, len(report.Rows), report.Warnings())
	}
}

func TestClose(t *testing.T) {
	f := &fakeFetcher{}
	var calls atomic.Int32
	s, err := New(WithFetcher(f), WithExtractor(tableReader(&calls)))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if !f.closed {
		t.Error("injected fetcher not closed")
	}
}
