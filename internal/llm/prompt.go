package llm

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// RawTextPlaceholder is the substitution marker a prompt override file must
// contain exactly once for the raw invoice text.
const RawTextPlaceholder = "{raw_text}"

// VisionTranscriptionPrompt asks a vision-capable model to act as an OCR engine.
const VisionTranscriptionPrompt = "Transcribe all text from this document image exactly as it appears. " +
	"Preserve layout, numbers, and structure. Output only the transcribed text, " +
	"no commentary or explanation."

const defaultExtractionPrompt = `You are an expert invoice parser with years of experience
extracting structured data from invoices.

Extract the following fields from the invoice text below.
Return ONLY valid JSON with these exact keys.
If a field is not found, return null for that field.

{
    "vendor_name": "string or null",
    "invoice_number": "string or null",
    "invoice_date": "YYYY-MM-DD format or null",
    "line_items": [
        {
            "description": "string",
            "quantity": number,
            "unit_price": number,
            "total": number
        }
    ],
    "subtotal": number or null,
    "tax_amount": number or null,
    "total_amount": number or null,
    "confidence_score": number between 0.0 and 1.0
}

Field mapping (use these to find vendor_name):
- vendor_name: the seller or biller. Extract from any of: "Account Name", "Bill From", "Seller", "Vendor", "From", "Company Name", "Client" (when it means the billing party), "Name" in the header/from section, or the main business name at the top of the invoice. Use the exact name as shown.

Important rules:
- confidence_score should reflect how complete the extraction is
- All amounts should be numbers not strings
- invoice_date must be in YYYY-MM-DD format
- Return empty list for line_items if none found

Invoice Text:
{raw_text}
`

// LoadExtractionPrompt returns the extraction prompt template. If path is
// non-empty, readable, and contains the raw-text placeholder it wins;
// otherwise the built-in template is used.
func LoadExtractionPrompt(path string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return defaultExtractionPrompt
	}
	b, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("llm.prompt.override_unreadable", "path", path, "error", err)
		return defaultExtractionPrompt
	}
	text := string(b)
	if !strings.Contains(text, RawTextPlaceholder) {
		logger.Warn("llm.prompt.override_missing_placeholder", "path", path, "placeholder", RawTextPlaceholder)
		return defaultExtractionPrompt
	}
	logger.Info("llm.prompt.override_loaded", "path", path, "bytes", len(text))
	return text
}

// RenderExtractionPrompt substitutes the raw invoice text into a template.
func RenderExtractionPrompt(template, rawText string) string {
	return strings.ReplaceAll(template, RawTextPlaceholder, rawText)
}

// AnomalyInput carries the structured fields the fraud-analysis prompt reasons
// about. Missing numbers should be passed as 0, missing strings as "Unknown".
type AnomalyInput struct {
	VendorName      string
	InvoiceNumber   string
	InvoiceDate     string
	Subtotal        float64
	TaxAmount       float64
	TotalAmount     float64
	IsTaxExempt     bool
	TaxExemptReason string
	LineItemsJSON   string
}

// BuildAnomalyPrompt composes the fraud-analysis prompt over clean structured
// fields rather than raw text; models judge structured data more reliably.
func BuildAnomalyPrompt(in AnomalyInput) string {
	var b strings.Builder
	b.WriteString("You are a senior financial fraud analyst with 20 years\n")
	b.WriteString("of experience detecting invoice fraud and anomalies.\n\n")
	b.WriteString("Carefully analyze this invoice data and identify ANY\n")
	b.WriteString("suspicious patterns or anomalies.\n\n")
	b.WriteString("Invoice Data:\n")
	writeField(&b, "Vendor Name", in.VendorName)
	writeField(&b, "Invoice Number", in.InvoiceNumber)
	writeField(&b, "Invoice Date", in.InvoiceDate)
	writeAmount(&b, "Subtotal", in.Subtotal)
	writeAmount(&b, "Tax Amount", in.TaxAmount)
	writeAmount(&b, "Total Amount", in.TotalAmount)
	if in.IsTaxExempt {
		reason := strings.TrimSpace(in.TaxExemptReason)
		if reason == "" {
			reason = "not given"
		}
		b.WriteString("- Tax Exempt: yes (reason: " + reason + ")\n")
	} else {
		b.WriteString("- Tax Exempt: no\n")
	}
	b.WriteString("- Line Items: " + in.LineItemsJSON + "\n\n")
	b.WriteString(`Check specifically for:
1. Suspiciously round numbers (e.g. exactly $10,000.00)
2. Vague or generic line item descriptions
3. Invoice dates on weekends or public holidays
4. Vendor names that look misspelled or suspicious
5. Amounts just below common approval thresholds
   (e.g. $9,999 when threshold is $10,000)
6. Missing or duplicate invoice numbers
7. Tax amounts that seem incorrect for the region
8. Line items with unusually high unit prices

Return ONLY valid JSON:
{
    "anomalies": [
        "clear description of each anomaly found"
    ],
    "risk_score": number between 0.0 and 1.0,
    "risk_level": "low" or "medium" or "high"
}

If no anomalies found return empty list for anomalies,
0.0 for risk_score and "low" for risk_level.
`)
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		value = "Unknown"
	}
	b.WriteString("- " + label + ": " + value + "\n")
}

func writeAmount(b *strings.Builder, label string, value float64) {
	fmt.Fprintf(b, "- %s: %.2f\n", label, value)
}
