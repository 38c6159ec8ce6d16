package table

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestRow_MarshalJSONKeepsOrder(t *testing.T) {
	r := NewRow("posicao", 1, "time", "São Paulo", "pontos", 72, "saldo_gols", -6)

	got, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"posicao":1,"time":"São Paulo","pontos":72,"saldo_gols":-6}`
	if string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestRow_SetExistingKeepsPosition(t *testing.T) {
	r := NewRow("a", 1, "b", 2)
	r.Set("a", 3)

	if !reflect.DeepEqual(r.Keys(), []string{"a", "b"}) {
		t.Errorf("Keys() = %v", r.Keys())
	}
	if r.Int("a") != 3 {
		t.Errorf("Int(a) = %d, want 3", r.Int("a"))
	}
}

func TestRow_JSONRoundTripKeepsIntegers(t *testing.T) {
	in := []byte(`{"time":"Bahia","pontos":42,"ratio":1.5}`)

	var r Row
	if err := json.Unmarshal(in, &r); err != nil {
		t.Fatal(err)
	}
	if v, _ := r.Get("pontos"); v != 42 {
		t.Errorf("pontos = %#v, want int 42", v)
	}
	if v, _ := r.Get("ratio"); v != 1.5 {
		t.Errorf("ratio = %#v, want 1.5", v)
	}
	if !reflect.DeepEqual(r.Keys(), []string{"time", "pontos", "ratio"}) {
		t.Errorf("Keys() = %v", r.Keys())
	}
}

func TestRow_YAML(t *testing.T) {
	var r Row
	if err := yaml.Unmarshal([]byte("posicao: 2\ntime: Cruzeiro\n"), &r); err != nil {
		t.Fatal(err)
	}
	if r.Int("posicao") != 2 || r.String("time") != "Cruzeiro" {
		t.Errorf("unexpected row: %v", r.Map())
	}

	out, err := yaml.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(out), "posicao: 2\ntime: Cruzeiro") {
		t.Errorf("Marshal() = %q", out)
	}
}

func TestRow_CloneIsIndependent(t *testing.T) {
	r := NewRow("pontos", 1)
	c := r.Clone()
	c.Set("pontos", 2)
	c.Set("extra", true)

	if r.Int("pontos") != 1 || r.Len() != 1 {
		t.Errorf("original mutated: %v", r.Map())
	}
}

func TestRow_String(t *testing.T) {
	r := NewRow("n", 7, "s", "x", "f", 1.5)
	for key, want := range map[string]string{"n": "7", "s": "x", "f": "1.5", "missing": ""} {
		if got := r.String(key); got != want {
			t.Errorf("String(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestZoneFor(t *testing.T) {
	zones := []Zone{
		{From: 1, To: 4, Label: "Libertadores", Color: "green"},
		{From: 5, To: 6, Label: "Sul-Americana", Color: "yellow"},
		{From: 17, To: 20, Label: "Rebaixamento", Color: "red"},
	}

	tests := []struct {
		rank int
		want string
	}{
		{1, "Libertadores"},
		{4, "Libertadores"},
		{6, "Sul-Americana"},
		{10, ""},
		{20, "Rebaixamento"},
	}
	for _, tt := range tests {
		z, _ := ZoneFor(zones, tt.rank)
		if z.Label != tt.want {
			t.Errorf("ZoneFor(%d) = %q, want %q", tt.rank, z.Label, tt.want)
		}
	}
}
