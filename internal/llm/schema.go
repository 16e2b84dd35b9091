package llm

// BuildExtractionJSONSchema returns the structural schema (draft 2020-12
// subset) an extraction payload must satisfy before field coercion runs.
// It is deliberately loose about value types: models sometimes return numbers
// as strings, and the coercion layer downstream handles that. What it does
// pin down is the overall shape: a JSON object whose line_items, when
// present, is an array of objects.
func BuildExtractionJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"vendor_name":    map[string]any{"type": []string{"string", "null"}},
			"invoice_number": map[string]any{"type": []string{"string", "number", "null"}},
			"invoice_date":   map[string]any{"type": []string{"string", "null"}},
			"line_items": map[string]any{
				"type":  []string{"array", "null"},
				"items": map[string]any{"type": "object"},
			},
			"subtotal":         looseNumberProp(),
			"tax_amount":       looseNumberProp(),
			"total_amount":     looseNumberProp(),
			"confidence_score": looseNumberProp(),
		},
	}
}

// BuildAnomalyJSONSchema returns the structural schema for the fraud-analysis
// payload: anomalies must be an array of strings when present.
func BuildAnomalyJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"anomalies": map[string]any{
				"type":  []string{"array", "null"},
				"items": map[string]any{"type": "string"},
			},
			"risk_score": looseNumberProp(),
			"risk_level": map[string]any{"type": []string{"string", "null"}},
		},
	}
}

func looseNumberProp() map[string]any {
	return map[string]any{"type": []string{"number", "string", "null"}}
}
