package schema

import (
	"strings"
)

// RecordsKey is the property that wraps the extracted record list.
const RecordsKey = "records"

// ToJSONSchema converts a single record to JSON Schema format.
func (s Schema) ToJSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Fields))
	required := make([]string, 0)

	for _, field := range s.Fields {
		properties[field.Name] = fieldToJSONSchema(field)
		if field.Required {
			required = append(required, field.Name)
		}
	}

	out := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false, // Required for strict mode (OpenAI)
	}
	if len(required) > 0 {
		out["required"] = required
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	return out
}

// ExtractionJSONSchema wraps the record schema in an object holding a list,
// so one model call can return every row found in a block.
func (s Schema) ExtractionJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			RecordsKey: map[string]any{
				"type":  "array",
				"items": s.ToJSONSchema(),
			},
		},
		"required":             []string{RecordsKey},
		"additionalProperties": false,
	}
}

func fieldToJSONSchema(f Field) map[string]any {
	out := map[string]any{
		"type": string(f.Type),
	}
	if f.Description != "" {
		out["description"] = f.Description
	}
	if len(f.Examples) > 0 {
		out["examples"] = f.Examples
	}
	return out
}

// ToPromptDescription generates a human-readable description for the LLM prompt.
func (s Schema) ToPromptDescription() string {
	var sb strings.Builder

	sb.WriteString("## Content Type\n")
	if s.Description != "" {
		sb.WriteString(s.Description)
	} else {
		sb.WriteString("Extract every matching row as a separate record.")
	}
	sb.WriteString("\n\n## Fields to Extract (per record)\n")

	for _, f := range s.Fields {
		sb.WriteString("- ")
		sb.WriteString(f.Name)
		sb.WriteString(" (")
		sb.WriteString(string(f.Type))
		if f.Required {
			sb.WriteString(", required")
		}
		sb.WriteString(")")
		if f.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(f.Description)
		}
		if len(f.Examples) > 0 {
			sb.WriteString(" e.g. ")
			sb.WriteString(strings.Join(f.Examples, ", "))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
