package validate

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildExtractedDataSchema returns the JSON-Schema (draft 2020-12 subset)
// that every extracted-data payload must satisfy, as a generic map.
func buildExtractedDataSchema() map[string]any {
	confidence := map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"document_id": map[string]any{"type": "string", "minLength": 36, "maxLength": 36},
			"amounts": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"raw":      map[string]any{"type": "string", "minLength": 1},
						"value":    map[string]any{"type": "number"},
						"currency": map[string]any{"type": "string", "maxLength": 3},
					},
					"required": []string{"raw", "value"},
				},
			},
			"dates": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"raw":        map[string]any{"type": "string", "minLength": 1},
						"value":      map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
						"confidence": confidence,
					},
					"required": []string{"raw", "value"},
				},
			},
			"names": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"value":      map[string]any{"type": "string", "minLength": 1},
						"role":       map[string]any{"type": "string", "enum": []string{"company", "person"}},
						"confidence": confidence,
					},
					"required": []string{"value", "role"},
				},
			},
			"accounts": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"number":     map[string]any{"type": "string", "minLength": 4},
						"confidence": confidence,
					},
					"required": []string{"number"},
				},
			},
			"extraction_confidence": confidence,
		},
		"required": []string{"document_id", "amounts", "dates", "names", "accounts", "extraction_confidence"},
	}
}

// compileSchema compiles the extracted-data schema once at engine build.
func compileSchema() (*jsonschema.Schema, error) {
	raw, err := json.Marshal(buildExtractedDataSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	schema, err := jsonschema.CompileString("extracted_data.json", string(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
