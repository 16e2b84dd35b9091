// Package cli wires the command-line surface: invoice processing, vendor
// whitelist management, the product catalog, and XLSX export.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/invoiceguard/invoiceguard/internal/common"
	"github.com/invoiceguard/invoiceguard/internal/export"
	"github.com/invoiceguard/invoiceguard/internal/products"
	"github.com/invoiceguard/invoiceguard/internal/repository"
	"github.com/invoiceguard/invoiceguard/internal/upload"
	"github.com/invoiceguard/invoiceguard/internal/whitelist"
)

var (
	cfg    *common.Config
	logger *slog.Logger
	db     *sql.DB

	invoiceRepo repository.InvoiceRepository
	vendorRepo  repository.VendorRepository
	productRepo repository.ProductRepository

	whitelistService *whitelist.Service
	productService   *products.Service
	exportService    *export.Service
	uploadService    *upload.Service
)

var rootCmd = &cobra.Command{
	Use:   "invoiceguard",
	Short: "Invoice processing with validation and anomaly detection",
	Long: `invoiceguard runs invoice documents through text extraction, LLM field
extraction, deterministic validation, and LLM anomaly detection.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
}

func setup(cmd *cobra.Command, args []string) error {
	// A missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg = common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	var err error
	db, err = repository.Open(ctx, repository.Config{
		DSN:         cfg.Database.DSN,
		DialTimeout: 3 * time.Second,
	}, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	invoiceRepo = repository.NewInvoiceRepository(db, logger)
	vendorRepo = repository.NewVendorRepository(db, logger)
	productRepo = repository.NewProductRepository(db, logger)

	whitelistService = whitelist.NewService(vendorRepo, logger)
	productService = products.NewService(productRepo, logger)
	exportService = export.NewService(invoiceRepo, logger)
	uploadService = upload.NewService(upload.Config{
		Dir:             cfg.Upload.Dir,
		MaxUploadSizeMB: cfg.Upload.MaxUploadSizeMB,
	}, logger)

	return nil
}

func teardown() {
	if db != nil {
		repository.Close(db, logger)
		db = nil
	}
}

// Execute runs the root command. Interrupts cancel the command context so
// long-running modes like watch exit cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		teardown()
		os.Exit(1)
	}
}
