package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/invoiceguard/invoiceguard/constants"
	"github.com/invoiceguard/invoiceguard/internal/entity"
)

// runTextExtraction is Stage 1: obtain raw text from the source document.
// No text (or a backend error) is a terminal failure; retries only ever apply
// to validation defects, not extraction problems.
func (p *Pipeline) runTextExtraction(ctx context.Context, rec entity.InvoiceRecord) entity.InvoiceRecord {
	out := rec.Clone()

	res, err := p.text.Extract(ctx, rec.SourcePath)
	if err != nil {
		p.logger.Error("pipeline.ocr.failed", "path", rec.SourcePath, "error", err)
		out.RawText = ""
		out.Status = constants.StatusFailed
		out.ValidationErrors = append(out.ValidationErrors, fmt.Sprintf("Text extraction failed: %v", err))
		return out
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		p.logger.Error("pipeline.ocr.no_text", "path", rec.SourcePath, "method", res.Method)
		out.RawText = ""
		out.Status = constants.StatusFailed
		out.ValidationErrors = append(out.ValidationErrors, "No text could be extracted from file")
		return out
	}

	p.logger.Info("pipeline.ocr.ok",
		"path", rec.SourcePath,
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(text),
	)
	out.RawText = text
	return out
}
