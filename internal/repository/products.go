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

type ProductRepository interface {
	Create(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	List(ctx context.Context, activeOnly bool) ([]*entity.Product, error)
	Update(ctx context.Context, p *entity.Product) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type productRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewProductRepository(db *sql.DB, logger *slog.Logger) ProductRepository {
	return &productRepository{db: db, logger: logger}
}

func (r *productRepository) Create(ctx context.Context, p *entity.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.IsActive = true

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID.String(), p.Name, p.Description, 1,
		p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Error("failed to create product", "name", p.Name, "error", err)
		return common.WrapError(common.ErrDatabase, "failed to create product", err)
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM products WHERE id = $1`, id.String())

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get product", "id", id, "error", err)
		return nil, common.WrapError(common.ErrDatabase, "failed to get product", err)
	}
	return p, nil
}

func (r *productRepository) List(ctx context.Context, activeOnly bool) ([]*entity.Product, error) {
	query := `SELECT id, name, description, is_active, created_at, updated_at FROM products`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list products", "error", err)
		return nil, common.WrapError(common.ErrDatabase, "failed to list products", err)
	}
	defer rows.Close()

	var out []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, common.WrapError(common.ErrDatabase, "failed to scan product", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *productRepository) Update(ctx context.Context, p *entity.Product) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET name = $1, description = $2, updated_at = $3 WHERE id = $4`,
		p.Name, p.Description, p.UpdatedAt.Format(time.RFC3339), p.ID.String(),
	)
	if err != nil {
		r.logger.Error("failed to update product", "id", p.ID, "error", err)
		return common.WrapError(common.ErrDatabase, "failed to update product", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *productRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET is_active = 0, updated_at = $1 WHERE id = $2`,
		time.Now().UTC().Format(time.RFC3339), id.String(),
	)
	if err != nil {
		r.logger.Error("failed to deactivate product", "id", id, "error", err)
		return common.WrapError(common.ErrDatabase, "failed to deactivate product", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func scanProduct(row rowScanner) (*entity.Product, error) {
	var (
		p         entity.Product
		idStr     string
		isActive  int
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&idStr, &p.Name, &p.Description, &isActive, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	p.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	p.IsActive = isActive != 0
	p.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, err
	}
	p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
