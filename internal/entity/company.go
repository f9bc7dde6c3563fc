package entity

import (
	"time"

	"github.com/google/uuid"
)

// Company represents a bookkeeping company for data transfer between layers.
type Company struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	TaxID           *string   `json:"tax_id,omitempty"`
	DefaultCurrency string    `json:"default_currency"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
