package ocr

import (
	"context"
	"fmt"
	"log/slog"
)

// Config for the tesseract OCR engine.
type Config struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "eng"
	PSM         int    // page segmentation mode; 3 = fully automatic (good for invoices)
	TessdataDir string
}

// Engine shells out to tesseract for page images. It is one of the
// interchangeable text-extraction backends; an empty result string means
// "no text found", not an error.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, runner: execRunner{}, logger: logger}
}

// WithRunner swaps the command runner; tests use this to stub tesseract.
func (e *Engine) WithRunner(r Runner) *Engine {
	e.runner = r
	return e
}

// Recognize runs tesseract on a single image file and returns normalized text.
func (e *Engine) Recognize(ctx context.Context, imagePath string) (string, error) {
	args := []string{imagePath, "stdout", "-l", e.cfg.Lang, "--psm", fmt.Sprintf("%d", e.cfg.PSM)}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang> --psm <n>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		e.logger.Error("ocr.tesseract.failed", "path", imagePath, "stderr", truncate(string(errb), 2<<10), "error", err)
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return Normalize(string(out)), nil
}
