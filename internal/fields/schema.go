package fields

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildInvoiceJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. The parse stage validates extractor output against it before
// persisting; violations flag the job for review rather than rejecting it.
func BuildInvoiceJSONSchema() map[string]any {
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"quantity":    map[string]any{"type": "number"},
			"unit_price":  map[string]any{"type": "number"},
			"amount":      map[string]any{"type": "number"},
		},
		"required": []string{"description", "quantity", "unit_price", "amount"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"invoice_number": map[string]any{"type": "string"},
			"date":           map[string]any{"type": "string"},
			"due_date":       map[string]any{"type": "string"},
			"supplier":       partyProp(),
			"customer":       partyProp(),
			"items":          map[string]any{"type": "array", "items": item, "minItems": 1},
			"subtotal":       map[string]any{"type": "number", "minimum": 0.0},
			"tax_amount":     map[string]any{"type": "number"},
			"total":          map[string]any{"type": "number", "minimum": 0.0},
			"currency":       map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
			"confidence":     map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		"required": []string{"supplier", "customer", "items", "currency", "confidence"},
	}
}

func partyProp() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":    map[string]any{"type": "string"},
			"address": map[string]any{"type": "string"},
			"tax_id":  map[string]any{"type": "string"},
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
