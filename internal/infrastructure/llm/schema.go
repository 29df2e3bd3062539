// Package llm reads proposed invoice line items out of free-text work
// descriptions using an OpenAI-compatible chat completions API.
package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildExtractionSchema returns the JSON schema the model output must satisfy.
// Items carry a reference and a quantity only; any price-like field fails
// validation because additional properties are rejected.
func BuildExtractionSchema() map[string]any {
	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"item_ref": map[string]any{"type": "string", "minLength": 1, "maxLength": 200},
			"quantity": map[string]any{"type": "number"},
			"unit":     map[string]any{"type": "string", "maxLength": 30},
			"notes":    map[string]any{"type": "string", "maxLength": 500},
		},
		"required": []string{"item_ref", "quantity"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"items":            map[string]any{"type": "array", "maxItems": 100, "items": item},
			"client_name_hint": map[string]any{"type": "string", "maxLength": 200},
			"work_date_hint":   map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"notes":            map[string]any{"type": "string", "maxLength": 2000},
		},
		"required": []string{"items"},
	}
}

// ValidateExtraction validates data against schemaMap
func ValidateExtraction(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("extraction.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("extraction.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("extraction does not match schema: %w", err)
	}
	return nil
}
