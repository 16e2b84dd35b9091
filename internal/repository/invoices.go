package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/invoiceguard/invoiceguard/constants"
	"github.com/invoiceguard/invoiceguard/internal/common"
	"github.com/invoiceguard/invoiceguard/internal/entity"
)

// StoredInvoice is an invoice record as persisted, with its row identity.
type StoredInvoice struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Record    entity.InvoiceRecord
}

type InvoiceRepository interface {
	Save(ctx context.Context, rec entity.InvoiceRecord) (*StoredInvoice, error)
	GetByID(ctx context.Context, id uuid.UUID) (*StoredInvoice, error)
	List(ctx context.Context, status string) ([]*StoredInvoice, error)
}

type invoiceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewInvoiceRepository(db *sql.DB, logger *slog.Logger) InvoiceRepository {
	return &invoiceRepository{db: db, logger: logger}
}

func (r *invoiceRepository) Save(ctx context.Context, rec entity.InvoiceRecord) (*StoredInvoice, error) {
	id := uuid.New()
	now := time.Now().UTC()

	items, err := json.Marshal(rec.LineItems)
	if err != nil {
		return nil, err
	}
	verrs, err := json.Marshal(orEmpty(rec.ValidationErrors))
	if err != nil {
		return nil, err
	}
	flags, err := json.Marshal(orEmpty(rec.AnomalyFlags))
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO invoices (
			id, source_path, vendor_name, invoice_number, invoice_date,
			line_items, subtotal, tax_amount, total_amount, confidence_score,
			retry_count, validation_errors, anomaly_flags, status,
			is_tax_exempt, tax_exempt_reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		id.String(), rec.SourcePath, rec.VendorName, rec.InvoiceNumber, rec.InvoiceDate,
		string(items), rec.Subtotal, rec.TaxAmount, rec.TotalAmount, rec.ConfidenceScore,
		rec.RetryCount, string(verrs), string(flags), string(rec.Status),
		boolToInt(rec.IsTaxExempt), rec.TaxExemptReason, now.Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Error("failed to save invoice", "source_path", rec.SourcePath, "error", err)
		return nil, common.WrapError(common.ErrDatabase, "failed to save invoice", err)
	}

	r.logger.Info("invoice saved", "id", id, "status", rec.Status)
	return &StoredInvoice{ID: id, CreatedAt: now, Record: rec}, nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*StoredInvoice, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, source_path, vendor_name, invoice_number, invoice_date,
			line_items, subtotal, tax_amount, total_amount, confidence_score,
			retry_count, validation_errors, anomaly_flags, status,
			is_tax_exempt, tax_exempt_reason, created_at
		FROM invoices WHERE id = $1`, id.String())

	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get invoice", "id", id, "error", err)
		return nil, common.WrapError(common.ErrDatabase, "failed to get invoice", err)
	}
	return inv, nil
}

func (r *invoiceRepository) List(ctx context.Context, status string) ([]*StoredInvoice, error) {
	query := `
		SELECT id, source_path, vendor_name, invoice_number, invoice_date,
			line_items, subtotal, tax_amount, total_amount, confidence_score,
			retry_count, validation_errors, anomaly_flags, status,
			is_tax_exempt, tax_exempt_reason, created_at
		FROM invoices`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list invoices", "error", err)
		return nil, common.WrapError(common.ErrDatabase, "failed to list invoices", err)
	}
	defer rows.Close()

	var out []*StoredInvoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, common.WrapError(common.ErrDatabase, "failed to scan invoice", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*StoredInvoice, error) {
	var (
		inv       StoredInvoice
		idStr     string
		items     string
		verrs     string
		flags     string
		status    string
		taxExempt int
		createdAt string
	)
	err := row.Scan(
		&idStr, &inv.Record.SourcePath, &inv.Record.VendorName, &inv.Record.InvoiceNumber,
		&inv.Record.InvoiceDate, &items, &inv.Record.Subtotal, &inv.Record.TaxAmount,
		&inv.Record.TotalAmount, &inv.Record.ConfidenceScore, &inv.Record.RetryCount,
		&verrs, &flags, &status, &taxExempt, &inv.Record.TaxExemptReason, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	inv.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &inv.Record.LineItems); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(verrs), &inv.Record.ValidationErrors); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(flags), &inv.Record.AnomalyFlags); err != nil {
		return nil, err
	}
	inv.Record.Status = constants.PipelineStatus(status)
	inv.Record.IsTaxExempt = taxExempt != 0
	inv.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
