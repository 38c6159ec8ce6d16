package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/tabula/pkg/table"
)

func testRows() []table.Row {
	return []table.Row{
		table.NewRow("posicao", 1, "time", "Flamengo", "pontos", 72),
		table.NewRow("posicao", 2, "time", "São Paulo", "pontos", 70),
		table.NewRow("posicao", 18, "time", "Grêmio", "pontos", 38),
	}
}

// --- NewWriter Factory Tests ---

func TestNewWriter(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, "*output.JSONWriter"},
		{FormatJSONL, "*output.JSONLWriter"},
		{FormatYAML, "*output.YAMLWriter"},
		{FormatTable, "*output.TableWriter"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			w, err := NewWriter(&bytes.Buffer{}, tt.format)
			if err != nil {
				t.Fatalf("NewWriter() error = %v", err)
			}
			var got string
			switch w.(type) {
			case *JSONWriter:
				got = "*output.JSONWriter"
			case *JSONLWriter:
				got = "*output.JSONLWriter"
			case *YAMLWriter:
				got = "*output.YAMLWriter"
			case *TableWriter:
				got = "*output.TableWriter"
			}
			if got != tt.want {
				t.Errorf("NewWriter() = %T, want %s", w, tt.want)
			}
		})
	}
}

func TestNewWriter_UnsupportedFormat(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, Format("unsupported"))
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected error containing 'unsupported', got %v", err)
	}
}

// --- JSONWriter Tests ---

func TestJSONWriter_KeepsOrderAndAccents(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, false, "")

	if err := w.WriteAll(testRows()); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, `[{"posicao":1,"time":"Flamengo","pontos":72}`) {
		t.Errorf("unexpected output prefix: %s", out)
	}
	if !strings.Contains(out, "São Paulo") || !strings.Contains(out, "Grêmio") {
		t.Errorf("accented names were escaped: %s", out)
	}

	var decoded []table.Row
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("decoded %d rows, want 3", len(decoded))
	}
	if decoded[2].String("time") != "Grêmio" {
		t.Errorf("row order changed: %v", decoded[2].Keys())
	}
}

func TestJSONWriter_SingleRowIsArray(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, true, "  ")

	if err := w.Write(testRows()[0]); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "[") {
		t.Errorf("expected an array, got %s", buf.String())
	}
	if !strings.Contains(buf.String(), "\n  {") {
		t.Errorf("expected indented output, got %s", buf.String())
	}
}

func TestJSONWriter_Empty(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, true, "  ")
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("empty output = %q, want []", got)
	}
}

// --- JSONLWriter Tests ---

func TestJSONLWriter_OneRowPerLine(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONLWriter(buf)

	if err := w.WriteAll(testRows()); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for i, line := range lines {
		var row table.Row
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if row.Int("posicao") != testRows()[i].Int("posicao") {
			t.Errorf("line %d posicao = %d", i, row.Int("posicao"))
		}
	}
}

// --- YAMLWriter Tests ---

func TestYAMLWriter_Sequence(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewYAMLWriter(buf)

	if err := w.WriteAll(testRows()); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "- posicao: 1\n  time: Flamengo\n  pontos: 72\n") {
		t.Errorf("unexpected yaml:\n%s", out)
	}

	var decoded []table.Row
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if len(decoded) != 3 || decoded[1].String("time") != "São Paulo" {
		t.Errorf("decoded = %v", decoded)
	}
}

// --- TableWriter Tests ---

func TestTableWriter_LabelsAndZones(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, FormatTable,
		WithColumns([]table.Column{
			{Field: "posicao", Label: "Pos"},
			{Field: "time", Label: "Time"},
			{Field: "pontos", Label: "Pts"},
		}),
		WithZones("posicao", []table.Zone{
			{From: 1, To: 4, Label: "Libertadores", Color: "#d4edda"},
			{From: 17, To: 20, Label: "Rebaixamento", Color: "#f8d7da"},
		}),
	)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	rows := append(testRows(), table.NewRow("posicao", 10, "time", "Bahia", "pontos", 50))
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5:\n%s", len(lines), buf.String())
	}
	if fields := strings.Fields(lines[0]); strings.Join(fields, ",") != "Pos,Time,Pts" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "Libertadores") {
		t.Errorf("first row missing zone: %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], "Libertadores") {
		t.Errorf("second row missing zone: %q", lines[2])
	}
	if !strings.HasSuffix(lines[3], "Rebaixamento") {
		t.Errorf("third row missing zone: %q", lines[3])
	}
	if strings.Contains(lines[4], "Libertadores") || strings.Contains(lines[4], "Rebaixamento") {
		t.Errorf("row ranked 10 is outside every zone: %q", lines[4])
	}
}

func TestTableWriter_DefaultColumns(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewTableWriter(buf, nil, "", nil)
	_ = w.Write(table.NewRow("simbolo", "PETR4", "setor", ""))
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if got := strings.Join(strings.Fields(lines[0]), ","); got != "simbolo,setor" {
		t.Errorf("header = %q", got)
	}
	if got := strings.Join(strings.Fields(lines[1]), ","); got != "PETR4,-" {
		t.Errorf("row = %q", got)
	}
}

// --- Dump Tests ---

func TestWriteDump(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := WriteDump(dir, "data_brasileirao.json", testRows())
	if err != nil {
		t.Fatalf("WriteDump() error = %v", err)
	}
	if filepath.Base(path) != "data_brasileirao.json" {
		t.Errorf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n    {\n        \"posicao\": 1,") {
		t.Errorf("dump is not 4-space indented:\n%s", data)
	}
	if !strings.Contains(string(data), "São Paulo") {
		t.Errorf("dump escaped accents:\n%s", data)
	}

	rows, err := ReadDump(path)
	if err != nil {
		t.Fatalf("ReadDump() error = %v", err)
	}
	if len(rows) != 3 || rows[0].Int("pontos") != 72 {
		t.Errorf("ReadDump() = %v", rows)
	}

	// A second write replaces the previous dump.
	if _, err := WriteDump(dir, "data_brasileirao.json", nil); err != nil {
		t.Fatalf("WriteDump() error = %v", err)
	}
	rows, err = ReadDump(path)
	if err != nil {
		t.Fatalf("ReadDump() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected empty dump, got %d rows", len(rows))
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestReadDump_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadDump(path); err == nil {
		t.Error("expected error for invalid dump")
	}
	if _, err := ReadDump(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing dump")
	}
}
