package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoiceguard/invoiceguard/internal/entity"
)

func fptr(v float64) *float64 { return &v }

// newRecord returns a record that passes every validation rule.
func newRecord(t *testing.T) entity.InvoiceRecord {
	t.Helper()
	rec := entity.NewInvoiceRecord("/tmp/inv.pdf", nil, false, "")
	rec.VendorName = "Acme Corp"
	rec.InvoiceNumber = "INV-001"
	rec.InvoiceDate = "2024-03-15"
	rec.Subtotal = fptr(100)
	rec.TaxAmount = fptr(10)
	rec.TotalAmount = fptr(110)
	rec.ConfidenceScore = fptr(0.9)
	return rec
}

func TestValidateRecord_CleanRecordHasNoErrors(t *testing.T) {
	assert.Empty(t, validateRecord(newRecord(t), 0.60))
}

func TestValidateRecord_RequiredFields(t *testing.T) {
	rec := newRecord(t)
	rec.VendorName = ""
	rec.InvoiceNumber = ""
	rec.InvoiceDate = ""
	rec.TotalAmount = nil

	errs := validateRecord(rec, 0.60)
	assert.Contains(t, errs, "Missing vendor name")
	assert.Contains(t, errs, "Missing invoice number")
	assert.Contains(t, errs, "Missing invoice date")
	assert.Contains(t, errs, "Missing total amount")
}

func TestValidateRecord_ZeroTotalTreatedAsMissing(t *testing.T) {
	rec := newRecord(t)
	rec.TotalAmount = fptr(0)
	assert.Contains(t, validateRecord(rec, 0.60), "Missing total amount")
}

func TestValidateRecord_TotalMismatch(t *testing.T) {
	rec := newRecord(t)
	rec.TotalAmount = fptr(109.50)

	errs := validateRecord(rec, 0.60)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Total mismatch")

	// Within the 0.01 tolerance is fine.
	rec.TotalAmount = fptr(110.005)
	assert.Empty(t, validateRecord(rec, 0.60))
}

func TestValidateRecord_MissingTax(t *testing.T) {
	rec := newRecord(t)
	rec.TaxAmount = nil
	rec.TotalAmount = fptr(100)

	errs := validateRecord(rec, 0.60)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Missing tax amount")

	rec.IsTaxExempt = true
	assert.Empty(t, validateRecord(rec, 0.60), "tax exempt records skip the tax check")
}

func TestValidateRecord_NegativeAmounts(t *testing.T) {
	rec := newRecord(t)
	rec.Subtotal = fptr(-100)
	rec.TaxAmount = fptr(-10)
	rec.TotalAmount = fptr(-110)

	errs := validateRecord(rec, 0.60)
	var negatives int
	for _, e := range errs {
		if strings.HasPrefix(e, "Negative amount detected") {
			negatives++
		}
	}
	assert.Equal(t, 3, negatives, "one error per negative field")
}

func TestValidateRecord_ConfidenceFloor(t *testing.T) {
	rec := newRecord(t)

	rec.ConfidenceScore = fptr(0.59)
	errs := validateRecord(rec, 0.60)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Low confidence score: 0.59")

	rec.ConfidenceScore = nil
	errs = validateRecord(rec, 0.60)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Missing confidence score")

	rec.ConfidenceScore = fptr(0.60)
	assert.Empty(t, validateRecord(rec, 0.60))
}

func TestValidateRecord_LineItemsMustSumToSubtotal(t *testing.T) {
	rec := newRecord(t)
	rec.LineItems = []entity.LineItem{
		{Description: "A", Quantity: 1, UnitPrice: 60, Total: 60},
		{Description: "B", Quantity: 1, UnitPrice: 30, Total: 30},
	}

	errs := validateRecord(rec, 0.60)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "does not match subtotal")

	rec.LineItems = append(rec.LineItems, entity.LineItem{Description: "C", Quantity: 1, UnitPrice: 10, Total: 10})
	assert.Empty(t, validateRecord(rec, 0.60))
}

func TestValidateRecord_AllRulesRunEveryPass(t *testing.T) {
	rec := entity.NewInvoiceRecord("/tmp/inv.pdf", nil, false, "")

	errs := validateRecord(rec, 0.60)
	// Missing vendor, number, date, total, tax, confidence.
	assert.Len(t, errs, 6)
}
