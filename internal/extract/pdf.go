package extract

import (
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// pdfTextLayer reads the embedded text layer of a PDF without rendering.
// Returns the concatenated per-page text and the page count.
func pdfTextLayer(path string) (string, int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	var b strings.Builder
	for i := 0; i < pages; i++ {
		txt, err := doc.Text(i)
		if err != nil {
			return "", pages, fmt.Errorf("read text layer page %d: %w", i+1, err)
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(txt)
	}
	return b.String(), pages, nil
}

// renderPDFPages rasterizes each page to a JPEG in a temp directory and
// returns the file paths plus a cleanup func. maxPages of 0 means all pages.
func renderPDFPages(path string, dpi float64, maxPages int) ([]string, func(), error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	tmpDir, err := os.MkdirTemp("", "ig-pages-*")
	if err != nil {
		return nil, nil, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	pages := doc.NumPage()
	if pages == 0 {
		cleanup()
		return nil, nil, fmt.Errorf("pdf has no pages")
	}
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}

	paths := make([]string, 0, pages)
	for i := 0; i < pages; i++ {
		img, err := doc.ImageDPI(i, dpi)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		out := filepath.Join(tmpDir, fmt.Sprintf("page_%03d.jpg", i+1))
		f, err := os.Create(out)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("create page image %d: %w", i+1, err)
		}
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
		_ = f.Close()
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("encode page %d: %w", i+1, err)
		}
		paths = append(paths, out)
	}
	return paths, cleanup, nil
}
