package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoiceguard/invoiceguard/internal/entity"
)

func TestDecodeExtractionPayload_CoercesStringAmounts(t *testing.T) {
	payload, err := decodeExtractionPayload(`{
		"vendor_name": "Acme Corp",
		"invoice_number": 12345,
		"invoice_date": "2024-03-15",
		"subtotal": "1,234.50",
		"tax_amount": "$123.45",
		"total_amount": 1357.95,
		"confidence_score": 0.8,
		"line_items": []
	}`)
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", payload.vendorName)
	assert.Equal(t, "12345", payload.invoiceNumber)
	require.NotNil(t, payload.subtotal)
	assert.InDelta(t, 1234.50, *payload.subtotal, 0.001)
	require.NotNil(t, payload.taxAmount)
	assert.InDelta(t, 123.45, *payload.taxAmount, 0.001)
}

func TestDecodeExtractionPayload_NullsStayAbsent(t *testing.T) {
	payload, err := decodeExtractionPayload(`{
		"vendor_name": null,
		"invoice_number": "INV-9",
		"invoice_date": null,
		"subtotal": null,
		"tax_amount": null,
		"total_amount": null,
		"confidence_score": null
	}`)
	require.NoError(t, err)

	assert.Empty(t, payload.vendorName)
	assert.Nil(t, payload.subtotal)
	assert.Nil(t, payload.taxAmount)
	assert.Nil(t, payload.totalAmount)
	assert.Nil(t, payload.confidence)
}

func TestDecodeExtractionPayload_RecoversFromCodeFence(t *testing.T) {
	payload, err := decodeExtractionPayload("Here you go:\n```json\n{\"vendor_name\": \"Acme\", \"invoice_number\": \"1\", \"invoice_date\": \"2024-01-01\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Acme", payload.vendorName)
}

func TestDecodeExtractionPayload_RejectsNonJSON(t *testing.T) {
	_, err := decodeExtractionPayload("I could not read this invoice, sorry.")
	assert.Error(t, err)
}

func TestNormalizeLineItems_AliasKeysAndDefaults(t *testing.T) {
	items := normalizeLineItems([]any{
		map[string]any{"description": "Widget", "qty": 3.0, "rate": 10.0, "amount": 30.0},
		map[string]any{"item": "Gadget", "price": "5.50"},
		map[string]any{"description": "Mystery"},
		"not an object",
	})

	require.Len(t, items, 3)

	assert.Equal(t, "Widget", items[0].Description)
	assert.InDelta(t, 3, items[0].Quantity, 0.001)
	assert.InDelta(t, 10, items[0].UnitPrice, 0.001)
	assert.InDelta(t, 30, items[0].Total, 0.001)

	assert.Equal(t, "Gadget", items[1].Description)
	assert.InDelta(t, 1, items[1].Quantity, 0.001, "missing quantity defaults to 1")
	assert.InDelta(t, 5.50, items[1].UnitPrice, 0.001)

	assert.InDelta(t, 1, items[2].Quantity, 0.001)
	assert.InDelta(t, 0, items[2].UnitPrice, 0.001)
	assert.InDelta(t, 0, items[2].Total, 0.001)
}

func TestRepairLineItemMath_FillsMissingLeg(t *testing.T) {
	items := repairLineItemMath([]entity.LineItem{
		{Description: "A", Quantity: 2, UnitPrice: 9.99, Total: 0},
		{Description: "B", Quantity: 4, UnitPrice: 0, Total: 20},
	})

	assert.InDelta(t, 19.98, items[0].Total, 0.001)
	assert.InDelta(t, 5.0, items[1].UnitPrice, 0.001)
}

func TestRepairLineItemMath_Idempotent(t *testing.T) {
	items := []entity.LineItem{
		{Description: "A", Quantity: 2, UnitPrice: 9.99, Total: 19.98},
		{Description: "B", Quantity: 1, UnitPrice: 5, Total: 5},
	}
	once := repairLineItemMath(append([]entity.LineItem(nil), items...))
	twice := repairLineItemMath(append([]entity.LineItem(nil), once...))

	assert.Equal(t, items, once)
	assert.Equal(t, once, twice)
}

func TestReconcileSubtotal_CorrectsLastRow(t *testing.T) {
	subtotal := 150.0
	// Model duplicated the first row's total into the last row.
	items := reconcileSubtotal([]entity.LineItem{
		{Description: "A", Quantity: 1, UnitPrice: 100, Total: 100},
		{Description: "B", Quantity: 1, UnitPrice: 100, Total: 100},
	}, &subtotal)

	assert.InDelta(t, 100, items[0].Total, 0.001)
	assert.InDelta(t, 50, items[1].Total, 0.001)
	assert.InDelta(t, 50, items[1].UnitPrice, 0.001)
}

func TestReconcileSubtotal_NeverGoesNegative(t *testing.T) {
	subtotal := 50.0
	orig := []entity.LineItem{
		{Description: "A", Quantity: 1, UnitPrice: 100, Total: 100},
		{Description: "B", Quantity: 1, UnitPrice: 10, Total: 10},
	}
	items := reconcileSubtotal(append([]entity.LineItem(nil), orig...), &subtotal)

	// Correcting the last row would need -50; rows stay untouched instead.
	assert.Equal(t, orig, items)
}

func TestReconcileSubtotal_WithinToleranceUnchanged(t *testing.T) {
	subtotal := 100.01
	orig := []entity.LineItem{{Description: "A", Quantity: 1, UnitPrice: 100, Total: 100}}
	items := reconcileSubtotal(append([]entity.LineItem(nil), orig...), &subtotal)
	assert.Equal(t, orig, items)
}

func TestAsFloat(t *testing.T) {
	f, ok := asFloat("$1,299.00")
	require.True(t, ok)
	assert.InDelta(t, 1299.0, f, 0.001)

	_, ok = asFloat("n/a")
	assert.False(t, ok)

	_, ok = asFloat(nil)
	assert.False(t, ok)
}
