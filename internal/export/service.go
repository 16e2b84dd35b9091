package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/invoiceguard/invoiceguard/internal/repository"
)

// Service is a tiny façade over the invoice repository that produces XLSX
// bytes for exports.
type Service struct {
	invoiceRepo repository.InvoiceRepository
	logger      *slog.Logger
}

func NewService(invoiceRepo repository.InvoiceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoiceRepo: invoiceRepo, logger: logger}
}

// ExportInvoicesXLSX returns an XLSX workbook (as bytes) for processed
// invoices. An empty status exports everything.
func (s *Service) ExportInvoicesXLSX(ctx context.Context, status string) ([]byte, error) {
	start := time.Now()

	invoices, err := s.invoiceRepo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Invoices"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Processed At",
		"Vendor",
		"Invoice Number",
		"Invoice Date",
		"Subtotal",
		"Tax",
		"Total",
		"Confidence",
		"Status",
		"Retries",
		"Validation Errors",
		"Anomaly Flags",
		"Source File",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, inv := range invoices {
		rec := inv.Record

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, inv.CreatedAt.Format("2006-01-02 15:04"))
		write(2, rec.VendorName)
		write(3, rec.InvoiceNumber)
		write(4, rec.InvoiceDate)
		write(5, amountCell(rec.Subtotal))
		write(6, amountCell(rec.TaxAmount))
		write(7, amountCell(rec.TotalAmount))
		write(8, amountCell(rec.ConfidenceScore))
		write(9, string(rec.Status))
		write(10, rec.RetryCount)
		write(11, truncate(strings.Join(rec.ValidationErrors, "; "), 140))
		write(12, truncate(strings.Join(rec.AnomalyFlags, "; "), 140))
		write(13, rec.SourcePath)

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 17) // processed at
	_ = f.SetColWidth(sheet, "B", "B", 28) // vendor
	_ = f.SetColWidth(sheet, "C", "D", 16) // number, date
	_ = f.SetColWidth(sheet, "E", "H", 12) // amounts
	_ = f.SetColWidth(sheet, "K", "L", 48) // errors, flags
	_ = f.SetColWidth(sheet, "M", "M", 60) // path

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"status", status,
		"rows", len(invoices),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// amountCell keeps absent numbers as empty cells instead of zeros.
func amountCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
