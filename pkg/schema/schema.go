package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schema defines the record shape for data extraction.
//
// Two document layouts are accepted. The list layout names each field:
//
//	name: standings
//	fields:
//	  - {name: posicao, type: integer}
//
// The properties layout keys fields by name, keeping declaration order:
//
//	properties:
//	  posicao: {type: integer, description: "Posição do time"}
type Schema struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field `json:"fields" yaml:"fields"`
}

// New creates a schema from fields, rejecting duplicates and unknown types.
func New(name string, fields ...Field) (Schema, error) {
	s := Schema{Name: name, Fields: fields}
	if err := s.Check(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// FromFile loads a schema from a JSON or YAML file.
func FromFile(path string) (Schema, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-specified schema file
	if err != nil {
		return Schema{}, fmt.Errorf("failed to read schema file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FromJSON(data)
	case ".yaml", ".yml":
		return FromYAML(data)
	default:
		return Schema{}, fmt.Errorf("unsupported schema file format: %s", ext)
	}
}

// FromJSON creates a schema from JSON data.
func FromJSON(data []byte) (Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return Schema{}, fmt.Errorf("failed to parse JSON schema: %w", err)
	}
	if err := s.Check(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// FromYAML creates a schema from YAML data.
func FromYAML(data []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schema{}, fmt.Errorf("failed to parse YAML schema: %w", err)
	}
	if err := s.Check(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// Check validates field names and types.
func (s Schema) Check() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema %q has no fields", s.Name)
	}
	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema %q: field %d has no name", s.Name, i)
		}
		if seen[f.Name] {
			return fmt.Errorf("schema %q: duplicate field %q", s.Name, f.Name)
		}
		seen[f.Name] = true
		if !f.Type.Valid() {
			return fmt.Errorf("schema %q: field %q has unsupported type %q", s.Name, f.Name, f.Type)
		}
	}
	return nil
}

// Field returns the named field.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns field names in declaration order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// NumericFields returns the names of integer and number fields.
func (s Schema) NumericFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.IsNumeric() {
			names = append(names, f.Name)
		}
	}
	return names
}

// schemaDoc mirrors Schema with a raw properties block.
type schemaDoc struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Fields      []Field   `yaml:"fields"`
	Properties  yaml.Node `yaml:"properties"`
}

// UnmarshalYAML accepts both the fields list and the properties mapping.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	var doc schemaDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}
	s.Name = doc.Name
	s.Description = doc.Description
	s.Fields = doc.Fields

	if doc.Properties.Kind == 0 {
		return nil
	}
	if doc.Properties.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: properties must be a mapping", doc.Properties.Line)
	}
	// Mapping nodes alternate key, value.
	for i := 0; i+1 < len(doc.Properties.Content); i += 2 {
		var f Field
		if err := doc.Properties.Content[i+1].Decode(&f); err != nil {
			return err
		}
		f.Name = doc.Properties.Content[i].Value
		s.Fields = append(s.Fields, f)
	}
	return nil
}

// UnmarshalJSON accepts both the fields list and the properties object.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var doc struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Fields      []Field         `json:"fields"`
		Properties  json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	s.Name = doc.Name
	s.Description = doc.Description
	s.Fields = doc.Fields

	if len(doc.Properties) == 0 {
		return nil
	}
	props, err := orderedProperties(doc.Properties)
	if err != nil {
		return fmt.Errorf("properties: %w", err)
	}
	s.Fields = append(s.Fields, props...)
	return nil
}

// orderedProperties decodes a JSON object of fields keeping key order,
// which encoding/json maps would lose.
func orderedProperties(raw json.RawMessage) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected field name, got %v", tok)
		}
		var f Field
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		f.Name = name
		fields = append(fields, f)
	}
	return fields, nil
}
