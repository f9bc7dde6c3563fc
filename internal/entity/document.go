package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document represents an uploaded source document for data transfer between layers.
type Document struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"company_id"`
	Filename    string    `json:"filename"`
	FileExt     string    `json:"file_ext"`
	FileSize    int       `json:"file_size"`
	ContentHash []byte    `json:"content_hash"`
	StoragePath string    `json:"storage_path"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
