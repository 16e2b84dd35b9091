package pipeline

import (
	"fmt"
	"math"

	"github.com/invoiceguard/invoiceguard/constants"
	"github.com/invoiceguard/invoiceguard/internal/entity"
)

// runValidation is Stage 3: pure rule checks over the extracted fields, no
// external calls. Every rule runs every pass so a retry sees the full error
// list, not just the first offender.
func (p *Pipeline) runValidation(rec entity.InvoiceRecord) entity.InvoiceRecord {
	if rec.Status == constants.StatusFailed {
		p.logger.Warn("pipeline.validate.skipped", "reason", "already failed")
		return rec
	}

	out := rec.Clone()
	errs := validateRecord(out, p.minConfidence)
	if len(errs) > 0 {
		p.logger.Warn("pipeline.validate.errors", "count", len(errs), "errors", errs)
		out.ValidationErrors = errs
		return out
	}

	p.logger.Info("pipeline.validate.ok")
	out.ValidationErrors = []string{}
	out.Status = constants.StatusValidated
	return out
}

func validateRecord(rec entity.InvoiceRecord, minConfidence float64) []string {
	var errs []string

	// Required fields. A zero total is treated the same as an absent one;
	// no real invoice totals to exactly 0.00.
	if rec.VendorName == "" {
		errs = append(errs, "Missing vendor name")
	}
	if rec.InvoiceNumber == "" {
		errs = append(errs, "Missing invoice number")
	}
	if rec.TotalAmount == nil || *rec.TotalAmount == 0 {
		errs = append(errs, "Missing total amount")
	}
	if rec.InvoiceDate == "" {
		errs = append(errs, "Missing invoice date")
	}

	// Math consistency across the three amounts when all are present.
	if rec.Subtotal != nil && rec.TaxAmount != nil && rec.TotalAmount != nil {
		expected := round2(*rec.Subtotal + *rec.TaxAmount)
		actual := round2(*rec.TotalAmount)
		if math.Abs(expected-actual) > 0.01 {
			errs = append(errs, fmt.Sprintf(
				"Total mismatch: subtotal(%v) + tax(%v) = %v but total is %v",
				*rec.Subtotal, *rec.TaxAmount, expected, actual))
		}
	}

	// Missing tax is only suspicious for non-exempt invoices.
	if rec.TaxAmount == nil && !rec.IsTaxExempt {
		errs = append(errs, "Missing tax amount - if tax exempt please mark invoice as tax exempt")
	}

	for _, amt := range []struct {
		name  string
		value *float64
	}{
		{"subtotal", rec.Subtotal},
		{"tax_amount", rec.TaxAmount},
		{"total_amount", rec.TotalAmount},
	} {
		if amt.value != nil && *amt.value < 0 {
			errs = append(errs, fmt.Sprintf("Negative amount detected in %s: %v", amt.name, *amt.value))
		}
	}

	// Confidence floor. Missing counts as below the floor, not as no opinion.
	if rec.ConfidenceScore == nil {
		errs = append(errs, fmt.Sprintf("Missing confidence score (minimum: %.2f)", minConfidence))
	} else if *rec.ConfidenceScore < minConfidence {
		errs = append(errs, fmt.Sprintf("Low confidence score: %.2f (minimum: %.2f)", *rec.ConfidenceScore, minConfidence))
	}

	// Line items must sum to the declared subtotal.
	if len(rec.LineItems) > 0 && rec.Subtotal != nil && *rec.Subtotal != 0 {
		var sum float64
		for _, it := range rec.LineItems {
			sum += it.Total
		}
		lineTotal := round2(sum)
		subtotal := round2(*rec.Subtotal)
		if math.Abs(lineTotal-subtotal) > 0.01 {
			errs = append(errs, fmt.Sprintf(
				"Line items total (%v) does not match subtotal (%v)", lineTotal, subtotal))
		}
	}

	return errs
}
