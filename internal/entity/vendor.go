package entity

import (
	"time"

	"github.com/google/uuid"
)

// WhitelistedVendor represents a trusted vendor for data transfer between layers.
type WhitelistedVendor struct {
	ID         uuid.UUID `json:"id"`
	VendorName string    `json:"vendor_name"`
	AddedBy    string    `json:"added_by,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}
