// Package schema describes the record fields an extraction run asks for.
//
// A schema is an ordered list of fields, each with a type and a free-text
// description that is forwarded to the model. Field order is significant: it
// drives prompt layout, output column order and JSON key order.
package schema

// FieldType represents the type of a schema field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
)

// Field represents a single field in the schema.
type Field struct {
	Name        string    `json:"name" yaml:"name"`
	Type        FieldType `json:"type" yaml:"type"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Examples    []string  `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// IsNumeric reports whether values of the field are coerced to numbers.
func (f Field) IsNumeric() bool {
	return f.Type == TypeInteger || f.Type == TypeNumber
}

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean:
		return true
	}
	return false
}
