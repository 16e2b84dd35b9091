package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/invoiceguard/invoiceguard/constants"
	"github.com/invoiceguard/invoiceguard/internal/entity"
	"github.com/invoiceguard/invoiceguard/internal/llm"
)

// runFieldExtraction is Stage 2: raw text -> typed invoice fields via the
// language model, plus the deterministic repair passes over what comes back.
// Skipped entirely when a previous stage already failed.
func (p *Pipeline) runFieldExtraction(ctx context.Context, rec entity.InvoiceRecord) entity.InvoiceRecord {
	if rec.Status == constants.StatusFailed {
		p.logger.Warn("pipeline.extract.skipped", "reason", "already failed")
		return rec
	}

	out := rec.Clone()
	prompt := llm.RenderExtractionPrompt(p.prompt, rec.RawText)

	content, err := p.client.Complete(ctx, llm.CompletionRequest{Prompt: prompt})
	if err != nil {
		return p.failExtraction(out, fmt.Errorf("llm call: %w", err))
	}

	payload, err := decodeExtractionPayload(content)
	if err != nil {
		return p.failExtraction(out, err)
	}

	out.VendorName = payload.vendorName
	out.InvoiceNumber = payload.invoiceNumber
	out.InvoiceDate = payload.invoiceDate
	out.Subtotal = payload.subtotal
	out.TaxAmount = payload.taxAmount
	out.TotalAmount = payload.totalAmount
	out.ConfidenceScore = payload.confidence

	items := normalizeLineItems(payload.lineItems)
	items = repairLineItemMath(items)
	items = reconcileSubtotal(items, out.Subtotal)
	out.LineItems = items

	out.Status = constants.StatusExtracted
	p.logger.Info("pipeline.extract.ok",
		"vendor", out.VendorName,
		"invoice_number", out.InvoiceNumber,
		"line_items", len(out.LineItems),
		"confidence", confidenceOrZero(out.ConfidenceScore),
	)
	return out
}

// failExtraction converts an LLM/parse problem into a terminal failure
// without populating any extracted fields.
func (p *Pipeline) failExtraction(rec entity.InvoiceRecord, err error) entity.InvoiceRecord {
	p.logger.Error("pipeline.extract.failed", "error", err)
	rec.Status = constants.StatusFailed
	rec.ValidationErrors = append(rec.ValidationErrors, fmt.Sprintf("Extraction failed: %v", err))
	return rec
}

type extractionPayload struct {
	vendorName    string
	invoiceNumber string
	invoiceDate   string
	lineItems     []any
	subtotal      *float64
	taxAmount     *float64
	totalAmount   *float64
	confidence    *float64
}

// decodeExtractionPayload recovers the JSON object from model output,
// validates its shape, and reads the fields with type coercion (models
// sometimes return numbers as strings and vice versa).
func decodeExtractionPayload(content string) (extractionPayload, error) {
	var p extractionPayload

	obj, err := llm.RecoverJSONObject(content)
	if err != nil {
		return p, err
	}
	if err := llm.ValidateJSONAgainstSchema(llm.BuildExtractionJSONSchema(), []byte(obj)); err != nil {
		return p, err
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(obj), &m); err != nil {
		return p, fmt.Errorf("decode extraction payload: %w", err)
	}

	p.vendorName, _ = asString(m["vendor_name"])
	p.invoiceNumber, _ = asString(m["invoice_number"])
	p.invoiceDate, _ = asString(m["invoice_date"])
	p.subtotal = asFloatPtr(m["subtotal"])
	p.taxAmount = asFloatPtr(m["tax_amount"])
	p.totalAmount = asFloatPtr(m["total_amount"])
	p.confidence = asFloatPtr(m["confidence_score"])
	if items, ok := m["line_items"].([]any); ok {
		p.lineItems = items
	}
	return p, nil
}

// normalizeLineItems maps loose LLM line items into typed rows. Alternate key
// names are accepted (amount -> total, qty -> quantity, rate/price ->
// unit_price) and missing or non-numeric numbers get defaults: quantity 1,
// unit price 0, total 0.
func normalizeLineItems(raw []any) []entity.LineItem {
	items := make([]entity.LineItem, 0, len(raw))
	for _, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		desc, _ := asString(firstPresent(m, "description", "item", "name"))
		item := entity.LineItem{
			Description: desc,
			Quantity:    floatOr(firstPresent(m, "quantity", "qty"), 1),
			UnitPrice:   floatOr(firstPresent(m, "unit_price", "unitPrice", "rate", "price"), 0),
			Total:       floatOr(firstPresent(m, "total", "amount"), 0),
		}
		items = append(items, item)
	}
	return items
}

// repairLineItemMath fills one missing leg of quantity*unitPrice=total per
// row. Idempotent: rows that already satisfy the identity are untouched.
func repairLineItemMath(items []entity.LineItem) []entity.LineItem {
	for i, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		if it.Total == 0 && it.UnitPrice > 0 {
			items[i].Total = round2(it.Quantity * it.UnitPrice)
		} else if it.UnitPrice == 0 && it.Total > 0 {
			items[i].UnitPrice = round2(it.Total / it.Quantity)
		}
	}
	return items
}

// reconcileSubtotal corrects the one observed model failure mode of a
// duplicated value copied into the trailing row: when the item sum misses the
// declared subtotal by more than 0.02, only the LAST row is rewritten so that
// the rows sum to the subtotal. A correction that would go negative leaves
// the rows unchanged.
func reconcileSubtotal(items []entity.LineItem, subtotal *float64) []entity.LineItem {
	if len(items) == 0 || subtotal == nil {
		return items
	}
	var sum float64
	for _, it := range items {
		sum += it.Total
	}
	if math.Abs(round2(sum)-round2(*subtotal)) <= 0.02 {
		return items
	}

	last := len(items) - 1
	corrected := round2(*subtotal - (sum - items[last].Total))
	if corrected < 0 {
		return items
	}
	items[last].Total = corrected
	if items[last].Quantity > 0 {
		items[last].UnitPrice = round2(corrected / items[last].Quantity)
	}
	return items
}

// --- coercion helpers ---

func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

func asFloatPtr(v any) *float64 {
	if f, ok := asFloat(v); ok {
		return &f
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		s = strings.TrimPrefix(s, "$")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func floatOr(v any, def float64) float64 {
	if f, ok := asFloat(v); ok {
		return f
	}
	return def
}

func confidenceOrZero(c *float64) float64 {
	if c == nil {
		return 0
	}
	return *c
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
