package extract

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/invoiceguard/invoiceguard/constants"
	"github.com/invoiceguard/invoiceguard/internal/ocr"
)

// CommandBackend adapts an external layout-aware document parser (a docling
// style converter) invoked as `<command> <path>` with text on stdout.
type CommandBackend struct {
	Command string
	Runner  ocr.Runner
	Logger  *slog.Logger
}

func NewCommandBackend(command string, runner ocr.Runner, logger *slog.Logger) *CommandBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandBackend{Command: command, Runner: runner, Logger: logger}
}

func (b *CommandBackend) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	start := time.Now()
	out, errb, err := b.Runner.Run(ctx, b.Command, path)
	res := TextExtractionResult{
		SourceType: constants.MapExtToFormat(filepath.Ext(path)),
		Method:     "layout",
		Duration:   time.Since(start),
	}
	if err != nil {
		// The layout backend is a best-effort first choice: report no text
		// and let the caller fall through to the next backend.
		b.Logger.Warn("extract.layout.failed", "path", path, "stderr", string(errb), "error", err)
		res.Warnings = append(res.Warnings, err.Error())
		return res, nil
	}
	res.Text = strings.TrimSpace(string(out))
	return res, nil
}
