package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/invoiceguard/invoiceguard/internal/common"
	"github.com/invoiceguard/invoiceguard/internal/entity"
)

type VendorRepository interface {
	Create(ctx context.Context, v *entity.WhitelistedVendor) error
	GetByVendorName(ctx context.Context, name string) (*entity.WhitelistedVendor, error)
	ListActive(ctx context.Context) ([]*entity.WhitelistedVendor, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*entity.WhitelistedVendor, error)
}

type vendorRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewVendorRepository(db *sql.DB, logger *slog.Logger) VendorRepository {
	return &vendorRepository{db: db, logger: logger}
}

func (r *vendorRepository) Create(ctx context.Context, v *entity.WhitelistedVendor) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	v.IsActive = true

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO whitelisted_vendors (id, vendor_name, added_by, notes, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID.String(), v.VendorName, v.AddedBy, v.Notes, 1, v.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Error("failed to create whitelisted vendor", "vendor_name", v.VendorName, "error", err)
		return common.WrapError(common.ErrDatabase, "failed to create whitelisted vendor", err)
	}
	return nil
}

func (r *vendorRepository) GetByVendorName(ctx context.Context, name string) (*entity.WhitelistedVendor, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, vendor_name, added_by, notes, is_active, created_at
		FROM whitelisted_vendors
		WHERE LOWER(vendor_name) = LOWER($1)`, name)

	v, err := scanVendor(row)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get whitelisted vendor", "vendor_name", name, "error", err)
		return nil, common.WrapError(common.ErrDatabase, "failed to get whitelisted vendor", err)
	}
	return v, nil
}

func (r *vendorRepository) ListActive(ctx context.Context) ([]*entity.WhitelistedVendor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, vendor_name, added_by, notes, is_active, created_at
		FROM whitelisted_vendors
		WHERE is_active = 1
		ORDER BY vendor_name`)
	if err != nil {
		r.logger.Error("failed to list whitelisted vendors", "error", err)
		return nil, common.WrapError(common.ErrDatabase, "failed to list whitelisted vendors", err)
	}
	defer rows.Close()

	var out []*entity.WhitelistedVendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, common.WrapError(common.ErrDatabase, "failed to scan whitelisted vendor", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *vendorRepository) Deactivate(ctx context.Context, id uuid.UUID) (*entity.WhitelistedVendor, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE whitelisted_vendors SET is_active = 0 WHERE id = $1`, id.String())
	if err != nil {
		r.logger.Error("failed to deactivate vendor", "id", id, "error", err)
		return nil, common.WrapError(common.ErrDatabase, "failed to deactivate vendor", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, common.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, vendor_name, added_by, notes, is_active, created_at
		FROM whitelisted_vendors WHERE id = $1`, id.String())
	return scanVendor(row)
}

func scanVendor(row rowScanner) (*entity.WhitelistedVendor, error) {
	var (
		v         entity.WhitelistedVendor
		idStr     string
		isActive  int
		createdAt string
	)
	if err := row.Scan(&idStr, &v.VendorName, &v.AddedBy, &v.Notes, &isActive, &createdAt); err != nil {
		return nil, err
	}

	var err error
	v.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	v.IsActive = isActive != 0
	v.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
