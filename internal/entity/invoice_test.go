package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoiceguard/invoiceguard/constants"
)

func TestNewInvoiceRecord_Defaults(t *testing.T) {
	rec := NewInvoiceRecord("/tmp/a.pdf", []string{"acme"}, true, "non-profit")

	assert.Equal(t, constants.StatusPending, rec.Status)
	assert.Equal(t, 0, rec.RetryCount)
	assert.NotNil(t, rec.LineItems)
	assert.NotNil(t, rec.ValidationErrors)
	assert.NotNil(t, rec.AnomalyFlags)
	assert.True(t, rec.IsTaxExempt)
	assert.Equal(t, "non-profit", rec.TaxExemptReason)
}

func TestClone_IsDeep(t *testing.T) {
	sub := 100.0
	rec := NewInvoiceRecord("/tmp/a.pdf", []string{"acme"}, false, "")
	rec.Subtotal = &sub
	rec.LineItems = []LineItem{{Description: "Widget", Quantity: 1, UnitPrice: 100, Total: 100}}
	rec.ValidationErrors = []string{"Missing tax amount"}

	clone := rec.Clone()
	clone.LineItems[0].Description = "changed"
	clone.ValidationErrors[0] = "changed"
	clone.WhitelistedVendors[0] = "changed"
	*clone.Subtotal = 999

	assert.Equal(t, "Widget", rec.LineItems[0].Description)
	assert.Equal(t, "Missing tax amount", rec.ValidationErrors[0])
	assert.Equal(t, "acme", rec.WhitelistedVendors[0])
	require.NotNil(t, rec.Subtotal)
	assert.InDelta(t, 100.0, *rec.Subtotal, 0.001)
}
