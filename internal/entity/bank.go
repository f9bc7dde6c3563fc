package entity

import (
	"time"

	"github.com/google/uuid"
)

// BankTransaction represents one imported bank-statement row.
type BankTransaction struct {
	ID           uuid.UUID  `json:"id"`
	CompanyID    uuid.UUID  `json:"company_id"`
	TxDate       time.Time  `json:"tx_date"`
	Label        string     `json:"label"`
	Amount       float64    `json:"amount"`
	CurrencyCode string     `json:"currency_code"`
	InvoiceID    *uuid.UUID `json:"invoice_id,omitempty"` // set once reconciled
	ImportedAt   time.Time  `json:"imported_at"`
}
