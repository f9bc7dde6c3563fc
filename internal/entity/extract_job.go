package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExtractJob represents an extract job for data transfer between layers.
type ExtractJob struct {
	ID                   uuid.UUID       `json:"id"`
	DocumentID           uuid.UUID       `json:"document_id"`
	CompanyID            uuid.UUID       `json:"company_id"`
	InvoiceID            *uuid.UUID      `json:"invoice_id,omitempty"`
	Format               string          `json:"format"`
	StartedAt            time.Time       `json:"started_at"`
	FinishedAt           *time.Time      `json:"finished_at,omitempty"`
	Status               string          `json:"status"`
	ErrorMessage         *string         `json:"error_message,omitempty"`
	OCRText              *string         `json:"ocr_text,omitempty"`
	OCRMethod            *string         `json:"ocr_method,omitempty"`
	OCRConfidence        *float32        `json:"ocr_confidence,omitempty"`
	ExtractionConfidence *float64        `json:"extraction_confidence,omitempty"`
	NeedsReview          bool            `json:"needs_review"`
	ExtractedJSON        json.RawMessage `json:"extracted_json,omitempty"`
}
