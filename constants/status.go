package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued  JobStatus = "QUEUED"   // queued for processing
	JobStatusRunning JobStatus = "RUNNING"  // in progress
	JobStatusOCROK   JobStatus = "OCR_OK"   // stage 1 completed (text extracted)
	JobStatusParseOK JobStatus = "PARSE_OK" // stage 2 completed (fields extracted)
	JobStatusFailed  JobStatus = "FAILED"   // terminal failure
)

// InvoiceStatus tracks the human-review lifecycle of an extracted invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending    InvoiceStatus = "PENDING_REVIEW"
	InvoiceStatusValidated  InvoiceStatus = "VALIDATED"
	InvoiceStatusReconciled InvoiceStatus = "RECONCILED"
)

// DeclarationStatus tracks a VAT declaration from draft to submission.
type DeclarationStatus string

const (
	DeclarationStatusDraft     DeclarationStatus = "DRAFT"
	DeclarationStatusSubmitted DeclarationStatus = "SUBMITTED"
)
