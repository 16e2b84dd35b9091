package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/invoiceguard/invoiceguard/internal/common"
	"github.com/invoiceguard/invoiceguard/internal/extract"
	"github.com/invoiceguard/invoiceguard/internal/llm/ollama"
	"github.com/invoiceguard/invoiceguard/internal/ocr"
)

// runextract runs just the text-extraction stage against one file. Useful
// for checking OCR and backend selection without touching the LLM pipeline
// or the database.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runextract <file>")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := common.LoadConfig()

	engine := ocr.NewEngine(ocr.Config{
		Tesseract: cfg.OCR.Tesseract,
		Lang:      cfg.OCR.TesseractLang,
		PSM:       cfg.OCR.PSM,
	}, logger)

	var vision *extract.Transcriber
	if cfg.OCR.UseVisionLLM {
		client := ollama.NewClient(ollama.Config{
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.VisionModel,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		vision = extract.NewTranscriber(client, logger)
	}

	var layout extract.TextExtractor
	if cfg.OCR.LayoutCommand != "" {
		layout = extract.NewCommandBackend(cfg.OCR.LayoutCommand, ocr.DefaultRunner(), logger)
	}

	extractor, err := extract.NewExtractor(extract.Config{
		DPI:       float64(cfg.OCR.DPI),
		MaxPages:  cfg.OCR.MaxPages,
		UseVision: cfg.OCR.UseVisionLLM,
	}, layout, engine, vision, logger)
	if err != nil {
		logger.Error("build extractor", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	res, err := extractor.Extract(ctx, os.Args[1])
	dur := time.Since(start)

	if err != nil {
		logger.Error("text extraction failed",
			"path", os.Args[1], "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	logger.Info("text extraction OK",
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"warnings", res.Warnings,
		"duration_ms", dur.Milliseconds(),
	)
	os.Stdout.WriteString(res.Text + "\n")
}
