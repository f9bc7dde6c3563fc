package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Invoice represents a persisted invoice row for data transfer between layers.
// Extracted fields may be overwritten by a human reviewer before validation.
type Invoice struct {
	ID            uuid.UUID       `json:"id"`
	CompanyID     uuid.UUID       `json:"company_id"`
	DocumentID    *uuid.UUID      `json:"document_id,omitempty"`
	InvoiceNumber string          `json:"invoice_number"`
	SupplierName  string          `json:"supplier_name"`
	InvoiceDate   *time.Time      `json:"invoice_date,omitempty"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	Subtotal      float64         `json:"subtotal"`
	TaxAmount     float64         `json:"tax_amount"`
	Total         float64         `json:"total"`
	CurrencyCode  string          `json:"currency_code"`
	Status        string          `json:"status"`
	Confidence    float64         `json:"confidence"`
	Items         json.RawMessage `json:"items,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
