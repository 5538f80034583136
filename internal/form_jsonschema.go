package internal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/maisondudroit/entretien"
)

// FormJSONSchema renders a parent form as a JSON Schema document: one property
// per field, not-null columns required, choice fields restricted to their codes.
// Properties carry x-rubrique, x-sql-type and x-widget annotations for renderers.
func FormJSONSchema(schema entretien.FormSchema) map[string]any {
	return formJSONSchema(schema, true)
}

func formJSONSchema(schema entretien.FormSchema, annotate bool) map[string]any {
	properties := make(map[string]any)
	required := []string{}
	for _, group := range schema.Groups {
		for _, field := range group.Fields {
			prop := fieldJSONSchema(field)
			if annotate {
				prop["x-rubrique"] = group.Name
				prop["x-sql-type"] = field.DeclaredType
				prop["x-widget"] = string(field.Widget())
			}
			properties[field.Name] = prop
			if field.Required {
				required = append(required, field.Name)
			}
		}
	}
	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"title":                schema.Table,
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

func fieldJSONSchema(field entretien.FieldDescriptor) map[string]any {
	prop := map[string]any{"title": field.Name}

	if !field.Choices.IsEmpty() {
		options := make([]any, 0, field.Choices.Len()+1)
		for _, c := range field.Choices.Choices() {
			options = append(options, map[string]any{"const": c.Code, "title": c.Label})
		}
		if !field.Required {
			options = append(options, map[string]any{"type": "null"})
		}
		prop["oneOf"] = options
		return prop
	}

	jsonType, format := jsonTypeFor(field.DeclaredType)
	if format != "" {
		prop["format"] = format
	}
	if field.Required {
		prop["type"] = jsonType
	} else {
		prop["type"] = []any{jsonType, "null"}
	}
	return prop
}

func jsonTypeFor(declared string) (string, string) {
	declared = strings.ToLower(declared)
	switch {
	case strings.Contains(declared, "timestamp"):
		return "string", "date-time"
	case strings.Contains(declared, "date"):
		return "string", "date"
	case strings.Contains(declared, "int"):
		return "integer", ""
	case strings.Contains(declared, "numeric"),
		strings.Contains(declared, "double"),
		strings.Contains(declared, "real"),
		strings.Contains(declared, "decimal"):
		return "number", ""
	case strings.Contains(declared, "bool"):
		return "boolean", ""
	default:
		return "string", ""
	}
}

// ValidateParentRecord checks raw submitted values against the form's JSON
// Schema. Only what the catalog encodes is checked: types, required fields,
// and membership in a choice list.
func ValidateParentRecord(schema entretien.FormSchema, values map[string]any) error {
	schemaBytes, err := json.Marshal(formJSONSchema(schema, false))
	if err != nil {
		return fmt.Errorf("failed to marshal schema for validation: %w", err)
	}
	var js jsonschema.Schema
	if err := json.Unmarshal(schemaBytes, &js); err != nil {
		return fmt.Errorf("failed to unmarshal into jsonschema.Schema: %w", err)
	}
	resolved, err := js.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return fmt.Errorf("failed to resolve JSON schema: %w", err)
	}

	instance := make(map[string]any, len(values))
	for k, v := range values {
		instance[k] = v
	}
	if err := resolved.Validate(instance); err != nil {
		return entretien.NewValidationError("", err.Error()).WithCause(err)
	}
	return nil
}
