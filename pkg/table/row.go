// Package table holds reconciled rows and the presentation metadata that
// travels with them: column labels and rank highlight zones.
package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Row is an ordered field set. Keys keep insertion order, which is the
// schema's field order once a row has been reconciled.
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow creates a row from alternating key, value pairs.
func NewRow(kv ...any) Row {
	var r Row
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("table.NewRow: key %v is not a string", kv[i]))
		}
		r.Set(key, kv[i+1])
	}
	return r
}

// Set assigns a value, appending the key if it is new.
func (r *Row) Set(key string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value stored under key.
func (r Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Value returns the value under key or nil. Convenient from templates.
func (r Row) Value(key string) any {
	return r.values[key]
}

// Int returns the value under key as an int, or 0.
func (r Row) Int(key string) int {
	switch v := r.values[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// String returns the value under key formatted as text.
func (r Row) String(key string) string {
	switch v := r.values[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

// Keys returns the field names in order.
func (r Row) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of fields.
func (r Row) Len() int {
	return len(r.keys)
}

// Clone returns a copy that shares no state with r.
func (r Row) Clone() Row {
	out := Row{keys: r.Keys(), values: make(map[string]any, len(r.values))}
	for k, v := range r.values {
		out.values[k] = v
	}
	return out
}

// Map returns the fields as an unordered map.
func (r Row) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// MarshalJSON writes fields in key order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		// SetEscapeHTML(false) keeps accented team names and symbols readable.
		var val bytes.Buffer
		enc := json.NewEncoder(&val)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(r.values[k]); err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(bytes.TrimRight(val.Bytes(), "\n"))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping key order. Whole numbers decode as int.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row: expected object, got %v", tok)
	}

	*r = Row{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)

		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("row field %q: %w", key, err)
		}
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				v = int(i)
			} else if f, err := n.Float64(); err == nil {
				v = f
			}
		}
		r.Set(key, v)
	}
	return nil
}

// MarshalYAML writes fields as an ordered mapping.
func (r Row) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range r.keys {
		var val yaml.Node
		if err := val.Encode(r.values[k]); err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&val,
		)
	}
	return node, nil
}

// UnmarshalYAML reads a mapping keeping key order.
func (r *Row) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: row must be a mapping", node.Line)
	}
	*r = Row{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var v any
		if err := node.Content[i+1].Decode(&v); err != nil {
			return err
		}
		r.Set(node.Content[i].Value, v)
	}
	return nil
}
