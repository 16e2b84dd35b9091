package llm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderExtractionPrompt(t *testing.T) {
	out := RenderExtractionPrompt("Before\n{raw_text}\nAfter", "INVOICE 42")
	assert.Equal(t, "Before\nINVOICE 42\nAfter", out)
	assert.NotContains(t, out, RawTextPlaceholder)
}

func TestLoadExtractionPrompt_DefaultWhenNoPath(t *testing.T) {
	prompt := LoadExtractionPrompt("", nil)
	assert.Contains(t, prompt, RawTextPlaceholder)
	assert.Contains(t, prompt, "vendor_name")
}

func TestLoadExtractionPrompt_OverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("Custom prompt: {raw_text}"), 0o644))

	prompt := LoadExtractionPrompt(path, nil)
	assert.Equal(t, "Custom prompt: {raw_text}", prompt)
}

func TestLoadExtractionPrompt_FallbackOnMissingPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("No placeholder here"), 0o644))

	prompt := LoadExtractionPrompt(path, nil)
	assert.Contains(t, prompt, RawTextPlaceholder, "override without placeholder falls back to the default")
}

func TestLoadExtractionPrompt_FallbackOnUnreadableFile(t *testing.T) {
	prompt := LoadExtractionPrompt(filepath.Join(t.TempDir(), "missing.txt"), nil)
	assert.Contains(t, prompt, RawTextPlaceholder)
}

func TestBuildAnomalyPrompt_FillsUnknowns(t *testing.T) {
	prompt := BuildAnomalyPrompt(AnomalyInput{
		InvoiceNumber: "INV-7",
		TotalAmount:   110,
		LineItemsJSON: "[]",
	})

	assert.Contains(t, prompt, "- Vendor Name: Unknown")
	assert.Contains(t, prompt, "- Invoice Number: INV-7")
	assert.Contains(t, prompt, "- Total Amount: 110.00")
	assert.Contains(t, prompt, "- Tax Exempt: no")
	assert.Contains(t, prompt, `"risk_score"`)
}

func TestBuildAnomalyPrompt_TaxExemptReason(t *testing.T) {
	prompt := BuildAnomalyPrompt(AnomalyInput{
		VendorName:      "Acme Corp",
		IsTaxExempt:     true,
		TaxExemptReason: "non-profit",
		LineItemsJSON:   "[]",
	})

	assert.Contains(t, prompt, "- Tax Exempt: yes (reason: non-profit)")
}

func TestValidateJSONAgainstSchema(t *testing.T) {
	schema := BuildExtractionJSONSchema()

	assert.NoError(t, ValidateJSONAgainstSchema(schema, []byte(`{"vendor_name": "Acme", "subtotal": "100.00"}`)))
	assert.NoError(t, ValidateJSONAgainstSchema(schema, []byte(`{"line_items": null}`)))
	assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(`{"line_items": ["not an object"]}`)))
	assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(`[1, 2, 3]`)))
}

func TestValidateAnomalySchema(t *testing.T) {
	schema := BuildAnomalyJSONSchema()

	assert.NoError(t, ValidateJSONAgainstSchema(schema, []byte(`{"anomalies": [], "risk_score": 0.0, "risk_level": "low"}`)))
	assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(`{"anomalies": [42]}`)))
}
