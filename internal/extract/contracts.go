package extract

import (
	"context"
	"time"
)

// TextExtractor is Stage 1: file -> raw text. An empty string signals
// "no text found", not an error. Layout-aware backends (configured as an
// optional first choice) implement this same contract.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // "PDF" | "IMAGE"
	Method     string // "layout" | "pdf-text" | "pdf-ocr" | "pdf-vision" | "image-ocr" | "image-vision"
	Duration   time.Duration
	Warnings   []string
}
