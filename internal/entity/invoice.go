package entity

import (
	"slices"

	"github.com/invoiceguard/invoiceguard/constants"
)

// LineItem is a single invoice row after normalization.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// InvoiceRecord is the work record threaded through every pipeline stage for
// one document. Stages never mutate a record another component still holds;
// each stage returns a copy derived from its input (see Clone).
type InvoiceRecord struct {
	SourcePath string `json:"source_path"`
	RawText    string `json:"raw_text"`

	VendorName    string     `json:"vendor_name,omitempty"`
	InvoiceNumber string     `json:"invoice_number,omitempty"`
	InvoiceDate   string     `json:"invoice_date,omitempty"` // YYYY-MM-DD
	LineItems     []LineItem `json:"line_items"`
	Subtotal      *float64   `json:"subtotal,omitempty"`
	TaxAmount     *float64   `json:"tax_amount,omitempty"`
	TotalAmount   *float64   `json:"total_amount,omitempty"`

	ConfidenceScore  *float64                 `json:"confidence_score,omitempty"`
	RetryCount       int                      `json:"retry_count"`
	ValidationErrors []string                 `json:"validation_errors"`
	AnomalyFlags     []string                 `json:"anomaly_flags"`
	Status           constants.PipelineStatus `json:"status"`

	// Caller-supplied inputs; the pipeline never mutates these.
	IsTaxExempt     bool   `json:"is_tax_exempt"`
	TaxExemptReason string `json:"tax_exempt_reason,omitempty"`

	// Lower-cased, trimmed vendor names captured once at pipeline entry.
	// Whitelist changes during a run never apply to that run.
	WhitelistedVendors []string `json:"whitelisted_vendors"`
}

// NewInvoiceRecord builds the initial work record for a pipeline run. Every
// field gets an explicit default so stages can read any field without nil
// checks on the slices.
func NewInvoiceRecord(sourcePath string, whitelistedVendors []string, isTaxExempt bool, taxExemptReason string) InvoiceRecord {
	return InvoiceRecord{
		SourcePath:         sourcePath,
		LineItems:          []LineItem{},
		ValidationErrors:   []string{},
		AnomalyFlags:       []string{},
		Status:             constants.StatusPending,
		IsTaxExempt:        isTaxExempt,
		TaxExemptReason:    taxExemptReason,
		WhitelistedVendors: whitelistedVendors,
	}
}

// Clone returns a deep copy; slices are copied so stage outputs never alias
// the input record.
func (r InvoiceRecord) Clone() InvoiceRecord {
	out := r
	out.LineItems = slices.Clone(r.LineItems)
	out.ValidationErrors = slices.Clone(r.ValidationErrors)
	out.AnomalyFlags = slices.Clone(r.AnomalyFlags)
	out.WhitelistedVendors = slices.Clone(r.WhitelistedVendors)
	if r.Subtotal != nil {
		v := *r.Subtotal
		out.Subtotal = &v
	}
	if r.TaxAmount != nil {
		v := *r.TaxAmount
		out.TaxAmount = &v
	}
	if r.TotalAmount != nil {
		v := *r.TotalAmount
		out.TotalAmount = &v
	}
	if r.ConfidenceScore != nil {
		v := *r.ConfidenceScore
		out.ConfidenceScore = &v
	}
	return out
}
