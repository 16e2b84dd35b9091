// Package upload validates incoming invoice files and stages them under the
// upload directory before processing.
package upload

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/invoiceguard/invoiceguard/constants"
	"github.com/invoiceguard/invoiceguard/internal/common"
)

// Config holds upload limits.
type Config struct {
	Dir             string
	MaxUploadSizeMB float64
}

// Service validates and stages invoice files.
type Service struct {
	cfg    Config
	logger *slog.Logger
}

func NewService(cfg Config, logger *slog.Logger) *Service {
	if cfg.MaxUploadSizeMB <= 0 {
		cfg.MaxUploadSizeMB = 10
	}
	return &Service{cfg: cfg, logger: logger}
}

// StagedFile describes a validated file copied into the upload directory.
type StagedFile struct {
	Filename string
	Path     string
	SizeMB   float64
	Ext      string
	Pages    int
}

var magicBytes = map[string][]byte{
	"pdf":  []byte("%PDF-"),
	"png":  {0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'},
	"jpg":  {0xff, 0xd8, 0xff},
	"jpeg": {0xff, 0xd8, 0xff},
}

// Stage validates sourcePath and copies it into the upload directory under a
// uuid-prefixed name. Validation covers extension, size, leading magic bytes,
// and for PDFs a structural check plus page count.
func (s *Service) Stage(sourcePath string) (*StagedFile, error) {
	filename := filepath.Base(sourcePath)
	if filename == "" || filename == "." {
		return nil, common.NewAppError("INVALID_INPUT", "no filename provided", nil)
	}

	ext := constants.NormalizeExt(filepath.Ext(filename))
	if !constants.IsAllowedExt(ext) {
		return nil, common.NewAppError("INVALID_INPUT",
			fmt.Sprintf("file type %q not allowed", ext), nil)
	}

	contents, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, common.WrapError(common.ErrInvalidInput, "failed to read upload", err)
	}

	sizeMB := float64(len(contents)) / (1024 * 1024)
	if sizeMB > s.cfg.MaxUploadSizeMB {
		return nil, common.NewAppError("INVALID_INPUT",
			fmt.Sprintf("file too large: %.1fMB, max %.0fMB", sizeMB, s.cfg.MaxUploadSizeMB), nil)
	}

	if magic, ok := magicBytes[ext]; ok && !bytes.HasPrefix(contents, magic) {
		return nil, common.NewAppError("INVALID_INPUT",
			fmt.Sprintf("file content does not match extension %q", ext), nil)
	}

	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return nil, common.WrapError(common.ErrInternal, "failed to create upload dir", err)
	}

	staged := filepath.Join(s.cfg.Dir, fmt.Sprintf("%s_%s", uuid.New(), filename))
	if err := os.WriteFile(staged, contents, 0o644); err != nil {
		return nil, common.WrapError(common.ErrInternal, "failed to stage upload", err)
	}

	out := &StagedFile{
		Filename: filepath.Base(staged),
		Path:     staged,
		SizeMB:   sizeMB,
		Ext:      ext,
	}

	if constants.MapExtToFormat(ext) == constants.PDF {
		if err := api.ValidateFile(staged, nil); err != nil {
			_ = os.Remove(staged)
			return nil, common.NewAppError("INVALID_INPUT", "corrupt or unreadable PDF", err)
		}
		pages, err := api.PageCountFile(staged)
		if err != nil {
			_ = os.Remove(staged)
			return nil, common.NewAppError("INVALID_INPUT", "failed to count PDF pages", err)
		}
		out.Pages = pages
	}

	s.logger.Info("upload staged",
		"filename", out.Filename,
		"size_mb", fmt.Sprintf("%.2f", sizeMB),
		"pages", out.Pages,
	)
	return out, nil
}
