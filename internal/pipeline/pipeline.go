package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/invoiceguard/invoiceguard/internal/entity"
	"github.com/invoiceguard/invoiceguard/internal/extract"
	"github.com/invoiceguard/invoiceguard/internal/llm"
)

// Config holds pipeline behavior knobs.
type Config struct {
	PromptFile    string  // optional extraction prompt override, see llm.LoadExtractionPrompt
	MaxRetries    int     // validation-driven re-extraction attempts, default 2
	MinConfidence float64 // confidence floor for validation, default 0.60
}

// Pipeline wires the stages into a state machine and owns one record's
// lifecycle from intake to terminal status. Per-document problems become
// state transitions, never Go errors; only construction can fail.
type Pipeline struct {
	logger        *slog.Logger
	text          extract.TextExtractor
	client        llm.Client
	prompt        string
	maxRetries    int
	minConfidence float64
}

func New(cfg Config, text extract.TextExtractor, client llm.Client, logger *slog.Logger) (*Pipeline, error) {
	if text == nil {
		return nil, fmt.Errorf("pipeline: text extractor is required")
	}
	if client == nil {
		return nil, fmt.Errorf("pipeline: llm client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.60
	}
	return &Pipeline{
		logger:        logger,
		text:          text,
		client:        client,
		prompt:        llm.LoadExtractionPrompt(cfg.PromptFile, logger),
		maxRetries:    cfg.MaxRetries,
		minConfidence: cfg.MinConfidence,
	}, nil
}

// Process runs one document through the pipeline and returns the record in a
// terminal status. The whitelist snapshot is captured here, once; whitelist
// changes during the run never apply to it.
func (p *Pipeline) Process(ctx context.Context, sourcePath string, whitelistedVendors []string, isTaxExempt bool, taxExemptReason string) entity.InvoiceRecord {
	start := time.Now()
	rec := entity.NewInvoiceRecord(sourcePath, normalizeWhitelist(whitelistedVendors), isTaxExempt, taxExemptReason)
	p.logger.Info("pipeline.start",
		"path", sourcePath,
		"whitelist_size", len(rec.WhitelistedVendors),
		"tax_exempt", isTaxExempt,
	)

	for n := nodeExtractText; n != nodeDone; {
		n, rec = p.step(ctx, n, rec)
	}

	p.logger.Info("pipeline.done",
		"path", sourcePath,
		"status", rec.Status,
		"vendor", rec.VendorName,
		"retries", rec.RetryCount,
		"validation_errors", len(rec.ValidationErrors),
		"anomalies", len(rec.AnomalyFlags),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec
}

// step is the transition function: (node, record) -> (next node, record).
func (p *Pipeline) step(ctx context.Context, n node, rec entity.InvoiceRecord) (node, entity.InvoiceRecord) {
	switch n {
	case nodeExtractText:
		return nodeExtractFields, p.runTextExtraction(ctx, rec)

	case nodeExtractFields:
		return nodeValidate, p.runFieldExtraction(ctx, rec)

	case nodeValidate:
		rec = p.runValidation(rec)
		switch Decide(rec, p.maxRetries) {
		case DecisionProceed:
			return nodeAnomaly, rec
		case DecisionRetry:
			p.logger.Info("pipeline.retry",
				"attempt", rec.RetryCount+1,
				"max", p.maxRetries,
				"errors", rec.ValidationErrors,
			)
			return nodeExtractFields, prepareRetry(rec)
		default:
			return nodeFail, rec
		}

	case nodeAnomaly:
		return nodeDone, p.runAnomalyDetection(ctx, rec)

	case nodeFail:
		rec = markFailed(rec)
		p.logger.Error("pipeline.failed",
			"path", rec.SourcePath,
			"retries", rec.RetryCount,
			"errors", rec.ValidationErrors,
		)
		return nodeDone, rec

	default:
		return nodeDone, rec
	}
}

// normalizeWhitelist lower-cases and trims the caller-supplied vendor names,
// dropping blanks. This is the immutable snapshot for the run.
func normalizeWhitelist(vendors []string) []string {
	out := make([]string, 0, len(vendors))
	for _, v := range vendors {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
