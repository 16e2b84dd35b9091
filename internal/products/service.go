// Package products manages the catalog of goods and services the business
// expects to see on supplier invoices.
package products

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/invoiceguard/invoiceguard/internal/common"
	"github.com/invoiceguard/invoiceguard/internal/entity"
	"github.com/invoiceguard/invoiceguard/internal/repository"
)

// Service handles product catalog business logic.
type Service struct {
	productRepo repository.ProductRepository
	logger      *slog.Logger
}

// NewService creates a new product service.
func NewService(productRepo repository.ProductRepository, logger *slog.Logger) *Service {
	return &Service{
		productRepo: productRepo,
		logger:      logger,
	}
}

// CreateProductRequest represents product creation parameters.
type CreateProductRequest struct {
	Name        string
	Description string
}

// CreateProduct adds a product to the catalog.
func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (*entity.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, common.NewAppError("INVALID_INPUT", "product name is required", nil)
	}

	product := &entity.Product{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created", "name", name, "id", product.ID)
	return product, nil
}

// GetProduct fetches one product by id.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

// ListProducts returns the catalog, optionally restricted to active rows.
func (s *Service) ListProducts(ctx context.Context, activeOnly bool) ([]*entity.Product, error) {
	return s.productRepo.List(ctx, activeOnly)
}

// UpdateProduct renames or re-describes a product.
func (s *Service) UpdateProduct(ctx context.Context, p *entity.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return common.NewAppError("INVALID_INPUT", "product name is required", nil)
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	return s.productRepo.Update(ctx, p)
}

// DeactivateProduct retires a product from the catalog.
func (s *Service) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deactivated", "id", id)
	return nil
}
