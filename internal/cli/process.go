package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/invoiceguard/invoiceguard/internal/extract"
	"github.com/invoiceguard/invoiceguard/internal/ingest"
	"github.com/invoiceguard/invoiceguard/internal/llm/ollama"
	"github.com/invoiceguard/invoiceguard/internal/ocr"
	"github.com/invoiceguard/invoiceguard/internal/pipeline"
)

var (
	processTaxExempt       bool
	processTaxExemptReason string
	processJSONOut         bool
	processWorkers         int
)

var processCmd = &cobra.Command{
	Use:   "process [file-or-directory]",
	Short: "Run invoice documents through the pipeline",
	Long: `Validates and stages each file, runs it through text extraction, field
extraction, validation, and anomaly detection, then persists the result.
A directory argument processes every matching file under it.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().BoolVar(&processTaxExempt, "tax-exempt", false, "Mark the invoice as tax exempt")
	processCmd.Flags().StringVar(&processTaxExemptReason, "tax-exempt-reason", "", "Reason for the tax exemption")
	processCmd.Flags().BoolVar(&processJSONOut, "json", false, "Print the full record as JSON")
	processCmd.Flags().IntVar(&processWorkers, "workers", 4, "Concurrent workers for directory processing")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	info, err := os.Stat(args[0])
	if err != nil {
		return err
	}

	p, err := buildPipeline()
	if err != nil {
		return err
	}

	if info.IsDir() {
		return processDirectory(ctx, p, args[0])
	}
	return processFile(ctx, p, args[0])
}

func processFile(ctx context.Context, p *pipeline.Pipeline, path string) error {
	staged, err := uploadService.Stage(path)
	if err != nil {
		return err
	}

	snapshot, err := whitelistService.Snapshot(ctx)
	if err != nil {
		return err
	}

	rec := p.Process(ctx, staged.Path, snapshot, processTaxExempt, processTaxExemptReason)

	stored, err := invoiceRepo.Save(ctx, rec)
	if err != nil {
		return err
	}

	if processJSONOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stored)
	}

	fmt.Printf("id:      %s\n", stored.ID)
	fmt.Printf("status:  %s\n", rec.Status)
	fmt.Printf("vendor:  %s\n", rec.VendorName)
	fmt.Printf("number:  %s\n", rec.InvoiceNumber)
	fmt.Printf("retries: %d\n", rec.RetryCount)
	for _, e := range rec.ValidationErrors {
		fmt.Printf("error:   %s\n", e)
	}
	for _, a := range rec.AnomalyFlags {
		fmt.Printf("anomaly: %s\n", a)
	}
	return nil
}

func processDirectory(ctx context.Context, p *pipeline.Pipeline, root string) error {
	queue := ingest.NewPipelineQueue(pipelineJob(p), logger, ingest.WithWorkers(processWorkers))

	stats, err := ingest.WalkDirectory(ctx, root, true, func(ctx context.Context, job ingest.Job) error {
		return queue.Enqueue(ctx, job)
	})
	queue.Shutdown(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("scanned: %d  matched: %d  failed walks: %d\n",
		stats.Scanned, stats.Matched, stats.Failed)
	return nil
}

// pipelineJob adapts the pipeline into the intake Processor contract.
func pipelineJob(p *pipeline.Pipeline) ingest.Processor {
	return func(ctx context.Context, job ingest.Job) error {
		staged, err := uploadService.Stage(job.SourcePath)
		if err != nil {
			return err
		}
		snapshot, err := whitelistService.Snapshot(ctx)
		if err != nil {
			return err
		}
		rec := p.Process(ctx, staged.Path, snapshot, job.IsTaxExempt, job.TaxExemptReason)
		_, err = invoiceRepo.Save(ctx, rec)
		return err
	}
}

// buildPipeline assembles the extraction backends and the LLM client from the
// loaded config.
func buildPipeline() (*pipeline.Pipeline, error) {
	client := ollama.NewClient(ollama.Config{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	engine := ocr.NewEngine(ocr.Config{
		Tesseract: cfg.OCR.Tesseract,
		Lang:      cfg.OCR.TesseractLang,
		PSM:       cfg.OCR.PSM,
	}, logger)

	var vision *extract.Transcriber
	if cfg.OCR.UseVisionLLM {
		visionClient := ollama.NewClient(ollama.Config{
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.VisionModel,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		vision = extract.NewTranscriber(visionClient, logger)
	}

	var layout extract.TextExtractor
	if cfg.OCR.LayoutCommand != "" {
		layout = extract.NewCommandBackend(cfg.OCR.LayoutCommand, ocr.DefaultRunner(), logger)
	}

	text, err := extract.NewExtractor(extract.Config{
		DPI:       float64(cfg.OCR.DPI),
		MaxPages:  cfg.OCR.MaxPages,
		UseVision: cfg.OCR.UseVisionLLM,
	}, layout, engine, vision, logger)
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Config{
		PromptFile:    cfg.Pipeline.PromptFile,
		MaxRetries:    cfg.Pipeline.MaxRetries,
		MinConfidence: cfg.Pipeline.MinConfidence,
	}, text, client, logger)
}
