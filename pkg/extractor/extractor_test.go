package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jmylchreest/tabula/pkg/llm"
	"github.com/jmylchreest/tabula/pkg/schema"
)

type fakeProvider struct {
	content string
	err     error
	calls   int
	last    llm.Request
}

func (f *fakeProvider) Execute(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.content, Model: "fake-1", Usage: llm.Usage{InputTokens: 100, OutputTokens: 20}}, nil
}
func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-1" }

func standingsSchema(t *testing.T) schema.Schema {
	t.Helper()
	s, err := schema.New("standings",
		schema.Field{Name: "posicao", Type: schema.TypeInteger},
		schema.Field{Name: "time", Type: schema.TypeString, Description: "Nome do TIME"},
		schema.Field{Name: "pontos", Type: schema.TypeInteger},
	)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestParseRecords(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{"wrapped", `{"records":[{"time":"Flamengo"},{"time":"Bahia"}]}`, 2, false},
		{"bare_array", `[{"time":"Flamengo"}]`, 1, false},
		{"fenced", "```json\n{\"records\":[{\"time\":\"Flamengo\"}]}\n```", 1, false},
		{"single_object", `{"time":"Flamengo","pontos":"72"}`, 1, false},
		{"null_records", `{"records":null}`, 0, false},
		{"skips_non_objects", `[{"time":"A"}, 3, "x", null]`, 1, false},
		{"empty", "  ", 0, true},
		{"prose", "Here is the table", 0, true},
		{"broken", `{"records":[{"time":`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecords(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRecords() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("ParseRecords() = %d records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestLLMExtractor_SingleCallNoRetry(t *testing.T) {
	p := &fakeProvider{err: errors.New("429 rate limit")}
	ext := NewLLMExtractor(p, DefaultLLMConfig())

	_, err := ext.Extract(context.Background(), "page", standingsSchema(t), Hints{})
	if err == nil {
		t.Fatal("expected error")
	}
	if p.calls != 1 {
		t.Errorf("provider called %d times, want exactly 1", p.calls)
	}
}

func TestLLMExtractor_Extract(t *testing.T) {
	p := &fakeProvider{content: `{"records":[{"time":"Flamengo","pontos":"72","posicao":"1"}]}`}
	var observed []llm.LLMCallEvent
	cfg := DefaultLLMConfig()
	cfg.Observer = llm.ObserverFunc(func(_ context.Context, e llm.LLMCallEvent) {
		observed = append(observed, e)
	})
	ext := NewLLMExtractor(p, cfg)

	hints := Hints{
		Instructions: "Extraia APENAS TIMES.",
		Valid:        []string{"Flamengo", "Palmeiras"},
		Forbidden:    []string{"Arrascaeta"},
		Keywords:     []string{"classificação"},
	}
	res, err := ext.Extract(context.Background(), "Flamengo 72 pts", standingsSchema(t), hints)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(res.Records) != 1 || res.Records[0]["time"] != "Flamengo" {
		t.Errorf("unexpected records: %v", res.Records)
	}
	if res.Usage.InputTokens != 100 {
		t.Errorf("usage not carried: %+v", res.Usage)
	}
	if len(observed) != 1 || observed[0].Stage != "extract" {
		t.Errorf("observer events = %+v", observed)
	}

	prompt := p.last.Messages[1].Content
	for _, want := range []string{"Extraia APENAS TIMES.", "Flamengo, Palmeiras", "Arrascaeta", "classificação", "Flamengo 72 pts"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if p.last.JSONSchema == nil {
		t.Error("expected JSON schema on request")
	}
}

func TestLLMExtractor_ParseFailureKeepsRaw(t *testing.T) {
	p := &fakeProvider{content: "sorry, no table"}
	ext := NewLLMExtractor(p, DefaultLLMConfig())

	res, err := ext.Extract(context.Background(), "page", standingsSchema(t), Hints{})
	if err == nil {
		t.Fatal("expected parse error")
	}
	if res == nil || res.Raw != "sorry, no table" {
		t.Errorf("expected raw response on failure, got %+v", res)
	}
}

func TestLLMExtractor_NoProvider(t *testing.T) {
	ext := NewLLMExtractor(nil, LLMConfig{})
	if ext.Available() {
		t.Error("expected unavailable")
	}
	if _, err := ext.Extract(context.Background(), "x", standingsSchema(t), Hints{}); !errors.Is(err, ErrNoProvider) {
		t.Errorf("Extract() error = %v, want ErrNoProvider", err)
	}
}

func TestExtractBlocks_DistinguishesFailureFromEmpty(t *testing.T) {
	boom := errors.New("upstream 500")
	ext := Func(func(_ context.Context, content string, _ schema.Schema, _ Hints) ([]Record, error) {
		switch content {
		case "fail":
			return nil, boom
		case "empty":
			return []Record{}, nil
		default:
			return []Record{{"time": content}}, nil
		}
	})

	outcomes := ExtractBlocks(context.Background(), ext, []string{"Flamengo", "fail", "empty", "Bahia"}, standingsSchema(t), Hints{})
	if len(outcomes) != 4 {
		t.Fatalf("got %d outcomes, want 4", len(outcomes))
	}
	if !outcomes[1].Failed() || !errors.Is(outcomes[1].Err, boom) {
		t.Errorf("block 1 should carry the failure: %+v", outcomes[1])
	}
	if outcomes[2].Failed() || len(outcomes[2].Records) != 0 {
		t.Errorf("block 2 should be empty but successful: %+v", outcomes[2])
	}

	recs := Records(outcomes)
	if len(recs) != 2 || recs[0]["time"] != "Flamengo" || recs[1]["time"] != "Bahia" {
		t.Errorf("Records() = %v", recs)
	}
}

func TestExtractBlocks_CancelledContext(t *testing.T) {
	calls := 0
	ext := Func(func(context.Context, string, schema.Schema, Hints) ([]Record, error) {
		calls++
		return nil, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := ExtractBlocks(ctx, ext, []string{"a", "b"}, standingsSchema(t), Hints{})
	if calls != 0 {
		t.Errorf("extractor called %d times after cancel", calls)
	}
	for _, o := range outcomes {
		if !errors.Is(o.Err, context.Canceled) {
			t.Errorf("outcome %d error = %v", o.Block, o.Err)
		}
	}
}

func TestTruncateContent(t *testing.T) {
	if got := TruncateContent("short", 0); got != "short" {
		t.Errorf("unlimited: %q", got)
	}
	got := TruncateContent("São Paulo", 2) // cut lands inside "ã"
	if !strings.HasPrefix(got, "S\n") {
		t.Errorf("TruncateContent() = %q, want cut at rune boundary", got)
	}
}
