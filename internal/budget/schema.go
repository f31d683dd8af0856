package budget

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var numericColumns = map[string]bool{"cantidad": true, "precio_unitario": true, "total": true}

// RecordSchema returns the JSON Schema of a record list as produced by
// MarshalJSON: every column present, numerics either a number or "".
func RecordSchema() map[string]any {
	props := make(map[string]any, len(Columns))
	for _, c := range Columns {
		if numericColumns[c] {
			props[c] = map[string]any{
				"anyOf": []any{
					map[string]any{"type": "number"},
					map[string]any{"const": ""},
				},
			}
			continue
		}
		props[c] = map[string]any{"type": "string"}
	}
	required := make([]any, len(Columns))
	for i, c := range Columns {
		required[i] = c
	}
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "array",
		"items": map[string]any{
			"type":                 "object",
			"properties":           props,
			"required":             required,
			"additionalProperties": false,
		},
	}
}

// ValidateRecordsJSON checks that data is a JSON array of records matching
// RecordSchema.
func ValidateRecordsJSON(data []byte) error {
	b, err := json.Marshal(RecordSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("records.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("records.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal records: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("records do not match schema: %w", err)
	}
	return nil
}
