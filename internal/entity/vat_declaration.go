package entity

import (
	"time"

	"github.com/google/uuid"
)

// VATDeclaration represents an aggregated VAT declaration for a period.
type VATDeclaration struct {
	ID            uuid.UUID  `json:"id"`
	CompanyID     uuid.UUID  `json:"company_id"`
	Period        string     `json:"period"` // MONTHLY | QUARTERLY
	PeriodStart   time.Time  `json:"period_start"`
	PeriodEnd     time.Time  `json:"period_end"`
	TaxableBase   float64    `json:"taxable_base"`
	CollectedVAT  float64    `json:"collected_vat"`
	DeclaredTotal float64    `json:"declared_total"`
	InvoiceCount  int        `json:"invoice_count"`
	Status        string     `json:"status"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
