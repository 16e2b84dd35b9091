package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/invoiceguard/invoiceguard/constants"
	"github.com/invoiceguard/invoiceguard/internal/entity"
	"github.com/invoiceguard/invoiceguard/internal/llm"
)

// vendorAnomalyMarkers flag anomaly strings that are about the vendor's
// identity. Only those are suppressed for whitelisted vendors; math or
// duplicate-number findings always survive the filter.
var vendorAnomalyMarkers = []string{
	"vendor",
	"vendor name",
	"company name",
	"generic name",
	"suspicious name",
}

// runAnomalyDetection is Stage 4: LLM fraud screening over the structured
// fields. It only runs on validated records and it never fails the pipeline;
// any error from the model is absorbed and the record completes clean.
func (p *Pipeline) runAnomalyDetection(ctx context.Context, rec entity.InvoiceRecord) entity.InvoiceRecord {
	if rec.Status == constants.StatusFailed {
		p.logger.Warn("pipeline.anomaly.skipped", "reason", "pipeline failed")
		return rec
	}
	if rec.Status != constants.StatusValidated {
		p.logger.Warn("pipeline.anomaly.skipped", "reason", "not validated", "status", rec.Status)
		return rec
	}

	out := rec.Clone()

	anomalies, err := p.detectAnomalies(ctx, out)
	if err != nil {
		// Anomaly detection is a bonus check. The field data already
		// passed validation, so a model failure here completes the
		// record instead of failing it.
		p.logger.Error("pipeline.anomaly.failed", "error", err)
		out.AnomalyFlags = []string{}
		out.Status = constants.StatusCompleted
		return out
	}

	anomalies = filterVendorAnomalies(anomalies, out.VendorName, out.WhitelistedVendors, p.logger)

	out.AnomalyFlags = anomalies
	if len(anomalies) > 0 {
		out.Status = constants.StatusAnomalyFlagged
		p.logger.Warn("pipeline.anomaly.flagged", "count", len(anomalies))
	} else {
		out.Status = constants.StatusCompleted
		p.logger.Info("pipeline.anomaly.clean")
	}
	return out
}

func (p *Pipeline) detectAnomalies(ctx context.Context, rec entity.InvoiceRecord) ([]string, error) {
	itemsJSON, err := json.Marshal(rec.LineItems)
	if err != nil {
		return nil, err
	}

	prompt := llm.BuildAnomalyPrompt(llm.AnomalyInput{
		VendorName:    rec.VendorName,
		InvoiceNumber: rec.InvoiceNumber,
		InvoiceDate:   rec.InvoiceDate,
		Subtotal:      amountOrZero(rec.Subtotal),
		TaxAmount:     amountOrZero(rec.TaxAmount),
		TotalAmount:   amountOrZero(rec.TotalAmount),
		IsTaxExempt:   rec.IsTaxExempt,
		TaxExemptReason: rec.TaxExemptReason,
		LineItemsJSON: string(itemsJSON),
	})

	content, err := p.client.Complete(ctx, llm.CompletionRequest{Prompt: prompt})
	if err != nil {
		return nil, err
	}

	obj, err := llm.RecoverJSONObject(content)
	if err != nil {
		return nil, err
	}
	if err := llm.ValidateJSONAgainstSchema(llm.BuildAnomalyJSONSchema(), []byte(obj)); err != nil {
		return nil, err
	}

	var result struct {
		Anomalies []string `json:"anomalies"`
		RiskScore float64  `json:"risk_score"`
		RiskLevel string   `json:"risk_level"`
	}
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		return nil, err
	}

	p.logger.Info("pipeline.anomaly.result",
		"anomalies", len(result.Anomalies),
		"risk_score", result.RiskScore,
		"risk_level", result.RiskLevel,
	)
	return result.Anomalies, nil
}

// filterVendorAnomalies drops vendor-identity anomalies when the extracted
// vendor matches the whitelist snapshot. The snapshot entries arrive already
// lower-cased and trimmed.
func filterVendorAnomalies(anomalies []string, vendorName string, whitelist []string, logger *slog.Logger) []string {
	if vendorName == "" || len(anomalies) == 0 {
		return anomalies
	}
	if !vendorWhitelisted(vendorName, whitelist) {
		return anomalies
	}

	filtered := make([]string, 0, len(anomalies))
	for _, a := range anomalies {
		lower := strings.ToLower(a)
		vendorRelated := false
		for _, marker := range vendorAnomalyMarkers {
			if strings.Contains(lower, marker) {
				vendorRelated = true
				break
			}
		}
		if !vendorRelated {
			filtered = append(filtered, a)
		}
	}

	if len(filtered) < len(anomalies) {
		logger.Info("pipeline.anomaly.whitelist_filtered",
			"vendor", vendorName,
			"removed", len(anomalies)-len(filtered),
		)
	}
	return filtered
}

// vendorWhitelisted checks the extracted vendor against the snapshot: an
// exact match or either name containing the other counts. "acme" matches
// "Acme Corp" and vice versa.
func vendorWhitelisted(vendorName string, whitelist []string) bool {
	vendor := strings.ToLower(strings.TrimSpace(vendorName))
	if vendor == "" {
		return false
	}
	for _, w := range whitelist {
		if w == "" {
			continue
		}
		if vendor == w || strings.Contains(vendor, w) || strings.Contains(w, vendor) {
			return true
		}
	}
	return false
}

func amountOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
