package schema

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// --- Loading Tests ---

func TestFromYAML_PropertiesKeepOrder(t *testing.T) {
	data := []byte(`
name: standings
properties:
  posicao:
    type: integer
    description: Posição do time na tabela
  time:
    type: string
    description: Nome do TIME de futebol (NÃO jogador)
  pontos:
    type: integer
  saldo_gols:
    type: integer
`)
	s, err := FromYAML(data)
	if err != nil {
		t.Fatalf("FromYAML() error = %v", err)
	}

	want := []string{"posicao", "time", "pontos", "saldo_gols"}
	if got := s.FieldNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("FieldNames() = %v, want %v", got, want)
	}

	f, ok := s.Field("time")
	if !ok {
		t.Fatal("expected field 'time'")
	}
	if f.Type != TypeString || !strings.Contains(f.Description, "TIME") {
		t.Errorf("unexpected field: %+v", f)
	}
}

func TestFromYAML_FieldsList(t *testing.T) {
	data := []byte(`
name: stocks
fields:
  - name: simbolo_empresa
    type: string
  - name: preco
    type: string
`)
	s, err := FromYAML(data)
	if err != nil {
		t.Fatalf("FromYAML() error = %v", err)
	}
	if len(s.Fields) != 2 || s.Fields[0].Name != "simbolo_empresa" {
		t.Errorf("unexpected fields: %+v", s.Fields)
	}
}

func TestFromJSON_PropertiesKeepOrder(t *testing.T) {
	data := []byte(`{"name":"scorers","properties":{
		"posicao":{"type":"integer"},
		"jogador":{"type":"string"},
		"time":{"type":"string"},
		"gols":{"type":"integer"}
	}}`)
	s, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}

	want := []string{"posicao", "jogador", "time", "gols"}
	if got := s.FieldNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("FieldNames() = %v, want %v", got, want)
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "schema.yaml")
	if err := os.WriteFile(yamlPath, []byte("name: x\nfields:\n  - {name: a, type: string}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := FromFile(yamlPath); err != nil {
		t.Errorf("FromFile(yaml) error = %v", err)
	}

	txtPath := filepath.Join(dir, "schema.txt")
	if err := os.WriteFile(txtPath, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := FromFile(txtPath); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected unsupported format error, got %v", err)
	}
}

// --- Check Tests ---

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		fields  []Field
		wantErr string
	}{
		{"ok", []Field{{Name: "a", Type: TypeString}}, ""},
		{"empty", nil, "no fields"},
		{"unnamed", []Field{{Type: TypeString}}, "no name"},
		{"duplicate", []Field{{Name: "a", Type: TypeString}, {Name: "a", Type: TypeInteger}}, "duplicate"},
		{"bad_type", []Field{{Name: "a", Type: "date"}}, "unsupported type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("test", tt.fields...)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("New() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNumericFields(t *testing.T) {
	s, err := New("t",
		Field{Name: "time", Type: TypeString},
		Field{Name: "pontos", Type: TypeInteger},
		Field{Name: "ratio", Type: TypeNumber},
	)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.NumericFields(); !reflect.DeepEqual(got, []string{"pontos", "ratio"}) {
		t.Errorf("NumericFields() = %v", got)
	}
}

// --- JSON Schema Tests ---

func TestExtractionJSONSchema(t *testing.T) {
	s, _ := New("t",
		Field{Name: "time", Type: TypeString, Description: "team", Required: true},
		Field{Name: "pontos", Type: TypeInteger},
	)

	js := s.ExtractionJSONSchema()
	props := js["properties"].(map[string]any)
	records := props[RecordsKey].(map[string]any)
	if records["type"] != "array" {
		t.Fatalf("records type = %v, want array", records["type"])
	}

	item := records["items"].(map[string]any)
	itemProps := item["properties"].(map[string]any)
	if _, ok := itemProps["pontos"]; !ok {
		t.Error("expected pontos in item properties")
	}
	if req := item["required"].([]string); len(req) != 1 || req[0] != "time" {
		t.Errorf("required = %v, want [time]", req)
	}
}

func TestToPromptDescription(t *testing.T) {
	s, _ := New("t",
		Field{Name: "time", Type: TypeString, Description: "Nome do TIME", Required: true},
		Field{Name: "pontos", Type: TypeInteger, Examples: []string{"72"}},
	)
	s.Description = "Tabela de classificação"

	got := s.ToPromptDescription()
	for _, want := range []string{
		"Tabela de classificação",
		"- time (string, required): Nome do TIME",
		"- pontos (integer) e.g. 72",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt description missing %q:\n%s", want, got)
		}
	}
}
