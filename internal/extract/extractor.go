package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/invoiceguard/invoiceguard/constants"
	"github.com/invoiceguard/invoiceguard/internal/ocr"
)

// Config for backend selection.
type Config struct {
	DPI       float64 // rasterization DPI for scanned PDFs, default 200
	MaxPages  int     // 0 = no limit
	UseVision bool    // prefer the vision model over tesseract for page images
}

// Extractor picks a text-extraction backend per document, first applicable
// wins:
//  1. the layout-aware backend when configured, accepted only if its output
//     is non-empty after trimming;
//  2. for PDFs, the embedded text layer, else page rendering plus vision
//     model or OCR engine per config;
//  3. for images, the vision model or OCR engine directly.
type Extractor struct {
	cfg    Config
	layout TextExtractor // optional
	engine *ocr.Engine
	vision *Transcriber // required when cfg.UseVision
	logger *slog.Logger
}

func NewExtractor(cfg Config, layout TextExtractor, engine *ocr.Engine, vision *Transcriber, logger *slog.Logger) (*Extractor, error) {
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.UseVision && vision == nil {
		return nil, fmt.Errorf("vision transcriber required when UseVision is set")
	}
	if !cfg.UseVision && engine == nil {
		return nil, fmt.Errorf("ocr engine required when UseVision is not set")
	}
	return &Extractor{cfg: cfg, layout: layout, engine: engine, vision: vision, logger: logger}, nil
}

func (e *Extractor) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("extract.start", "path", path, "ext", ext)

	if e.layout != nil {
		res, err := e.layout.Extract(ctx, path)
		if err != nil {
			return res, err
		}
		if strings.TrimSpace(res.Text) != "" {
			res.Duration = time.Since(start)
			e.logger.Info("extract.layout.ok", "path", path, "bytes", len(res.Text))
			return res, nil
		}
		e.logger.Info("extract.layout.empty", "path", path)
	}

	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err := e.extractPDF(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		res, err := e.extractImage(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	default:
		e.logger.Error("extract.unsupported_extension", "extension", ext)
		return TextExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}
}

func (e *Extractor) extractPDF(ctx context.Context, path string) (TextExtractionResult, error) {
	text, pages, err := pdfTextLayer(path)
	if err != nil {
		return TextExtractionResult{SourceType: constants.PDF}, err
	}
	if strings.TrimSpace(text) != "" {
		e.logger.Info("extract.pdf_text.ok", "path", path, "pages", pages, "bytes", len(text))
		return TextExtractionResult{
			Text:       text,
			Pages:      pages,
			SourceType: constants.PDF,
			Method:     "pdf-text",
		}, nil
	}

	// No text layer: rasterize and read each page.
	e.logger.Info("extract.pdf.no_text_layer", "path", path, "use_vision", e.cfg.UseVision)
	imgs, cleanup, err := renderPDFPages(path, e.cfg.DPI, e.cfg.MaxPages)
	if err != nil {
		return TextExtractionResult{SourceType: constants.PDF}, err
	}
	defer cleanup()

	method := "pdf-ocr"
	if e.cfg.UseVision {
		method = "pdf-vision"
	}
	var b strings.Builder
	for i, img := range imgs {
		var pageText string
		if e.cfg.UseVision {
			pageText, err = e.vision.TranscribePage(ctx, img)
		} else {
			pageText, err = e.engine.Recognize(ctx, img)
		}
		if err != nil {
			return TextExtractionResult{SourceType: constants.PDF, Method: method, Pages: len(imgs)},
				fmt.Errorf("page %d: %w", i+1, err)
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(pageText)
	}
	return TextExtractionResult{
		Text:       b.String(),
		Pages:      len(imgs),
		SourceType: constants.PDF,
		Method:     method,
	}, nil
}

func (e *Extractor) extractImage(ctx context.Context, path string) (TextExtractionResult, error) {
	var (
		text   string
		err    error
		method = "image-ocr"
	)
	if e.cfg.UseVision {
		method = "image-vision"
		text, err = e.vision.TranscribePage(ctx, path)
	} else {
		text, err = e.engine.Recognize(ctx, path)
	}
	if err != nil {
		return TextExtractionResult{SourceType: constants.IMAGE, Method: method}, err
	}
	return TextExtractionResult{
		Text:       text,
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     method,
	}, nil
}
