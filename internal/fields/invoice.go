package fields

// Party identifies one side of an invoice.
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	TaxID   string `json:"tax_id,omitempty"`
}

// InvoiceItem is one row of an invoice's itemized breakdown.
type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}

// InvoiceData is the best-effort structured record extracted from OCR text.
// Every field is always populated, with zero values where extraction failed;
// the record serializes directly to JSON for the review UI. Customer is part
// of the wire shape but is filled in by the reviewer, not the extractor.
type InvoiceData struct {
	InvoiceNumber string        `json:"invoice_number"`
	Date          string        `json:"date"`
	DueDate       string        `json:"due_date"`
	Supplier      Party         `json:"supplier"`
	Customer      Party         `json:"customer"`
	Items         []InvoiceItem `json:"items"`
	Subtotal      float64       `json:"subtotal"`
	TaxAmount     float64       `json:"tax_amount"`
	Total         float64       `json:"total"`
	Currency      string        `json:"currency"`
	Confidence    float64       `json:"confidence"`
}
