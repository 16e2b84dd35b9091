// Package whitelist manages the trusted-vendor list that softens anomaly
// detection for known suppliers.
package whitelist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/invoiceguard/invoiceguard/internal/common"
	"github.com/invoiceguard/invoiceguard/internal/entity"
	"github.com/invoiceguard/invoiceguard/internal/repository"
)

// Service handles whitelisted vendor business logic.
type Service struct {
	vendorRepo repository.VendorRepository
	logger     *slog.Logger
}

// NewService creates a new whitelist service.
func NewService(vendorRepo repository.VendorRepository, logger *slog.Logger) *Service {
	return &Service{
		vendorRepo: vendorRepo,
		logger:     logger,
	}
}

// AddVendorRequest represents vendor whitelisting parameters.
type AddVendorRequest struct {
	VendorName string
	AddedBy    string
	Notes      string
}

// AddVendor whitelists a vendor. Duplicate names are rejected
// case-insensitively.
func (s *Service) AddVendor(ctx context.Context, req AddVendorRequest) (*entity.WhitelistedVendor, error) {
	name := strings.TrimSpace(req.VendorName)
	if name == "" {
		return nil, common.NewAppError("INVALID_INPUT", "vendor name is required", nil)
	}

	existing, err := s.vendorRepo.GetByVendorName(ctx, name)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.IsActive {
		return nil, common.NewAppError("ALREADY_EXISTS",
			fmt.Sprintf("vendor %q already whitelisted", name), nil)
	}

	vendor := &entity.WhitelistedVendor{
		VendorName: name,
		AddedBy:    strings.TrimSpace(req.AddedBy),
		Notes:      strings.TrimSpace(req.Notes),
	}
	if err := s.vendorRepo.Create(ctx, vendor); err != nil {
		return nil, err
	}

	s.logger.Info("vendor whitelisted", "vendor_name", name, "id", vendor.ID)
	return vendor, nil
}

// ListVendors returns all active whitelisted vendors.
func (s *Service) ListVendors(ctx context.Context) ([]*entity.WhitelistedVendor, error) {
	return s.vendorRepo.ListActive(ctx)
}

// DeactivateVendor removes a vendor from the whitelist without deleting the
// audit row.
func (s *Service) DeactivateVendor(ctx context.Context, id uuid.UUID) (*entity.WhitelistedVendor, error) {
	vendor, err := s.vendorRepo.Deactivate(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("vendor deactivated", "vendor_name", vendor.VendorName, "id", id)
	return vendor, nil
}

// Snapshot returns the active vendor names lower-cased and trimmed, ready to
// hand to a pipeline run. The pipeline treats the slice as immutable.
func (s *Service) Snapshot(ctx context.Context) ([]string, error) {
	vendors, err := s.vendorRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(vendors))
	for _, v := range vendors {
		name := strings.ToLower(strings.TrimSpace(v.VendorName))
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
