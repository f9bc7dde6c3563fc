package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/besoincompta/compta-backend/constants"
	"github.com/besoincompta/compta-backend/internal/common"
	"github.com/besoincompta/compta-backend/internal/entity"
)

// OCROutcome carries the result of the OCR stage onto the job row.
type OCROutcome struct {
	OCRText      string
	Method       string
	Confidence   float32
	NeedsReview  bool
	ErrorMessage string
}

// ParseOutcome carries the result of the field-extraction stage onto the job row.
type ParseOutcome struct {
	ExtractedJSON json.RawMessage
	Confidence    float64
	NeedsReview   bool
}

type ExtractJobRepository interface {
	Start(ctx context.Context, documentID, companyID uuid.UUID, format string) (*entity.ExtractJob, error)
	GetByID(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error)
	// GetWithDocument loads the job together with its source document.
	GetWithDocument(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, *entity.Document, error)
	FinishOCR(ctx context.Context, jobID uuid.UUID, out OCROutcome) error
	FinishParse(ctx context.Context, jobID uuid.UUID, out ParseOutcome) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	SetInvoiceID(ctx context.Context, jobID, invoiceID uuid.UUID) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*entity.ExtractJob, error)
}

type extractJobRepo struct {
	db     DB
	logger *slog.Logger
}

func NewExtractJobRepository(db DB, logger *slog.Logger) ExtractJobRepository {
	return &extractJobRepo{db: db, logger: logger}
}

const jobColumns = `id, document_id, company_id, invoice_id, format, started_at, finished_at,
	status, error_message, ocr_text, ocr_method, ocr_confidence,
	extraction_confidence, needs_review, extracted_json`

func scanJob(row pgx.Row) (*entity.ExtractJob, error) {
	var j entity.ExtractJob
	err := row.Scan(&j.ID, &j.DocumentID, &j.CompanyID, &j.InvoiceID, &j.Format, &j.StartedAt, &j.FinishedAt,
		&j.Status, &j.ErrorMessage, &j.OCRText, &j.OCRMethod, &j.OCRConfidence,
		&j.ExtractionConfidence, &j.NeedsReview, &j.ExtractedJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

func (r *extractJobRepo) Start(ctx context.Context, documentID, companyID uuid.UUID, format string) (*entity.ExtractJob, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO extract_jobs (document_id, company_id, format, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+jobColumns,
		documentID, companyID, format, string(constants.JobStatusRunning))
	job, err := scanJob(row)
	if err != nil {
		r.logger.Error("extract_job start failed", "document_id", documentID, "error", err)
		return nil, err
	}
	r.logger.Info("extract_job started", "job_id", job.ID, "document_id", documentID, "format", format)
	return job, nil
}

func (r *extractJobRepo) GetByID(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM extract_jobs WHERE id = $1`, jobID)
	return scanJob(row)
}

func (r *extractJobRepo) GetWithDocument(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, *entity.Document, error) {
	job, err := r.GetByID(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	row := r.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, job.DocumentID)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, nil, err
	}
	return job, doc, nil
}

func (r *extractJobRepo) FinishOCR(ctx context.Context, jobID uuid.UUID, out OCROutcome) error {
	if out.ErrorMessage != "" {
		return r.FinishFailure(ctx, jobID, out.ErrorMessage)
	}
	_, err := r.db.Exec(ctx,
		`UPDATE extract_jobs
		 SET status = $2, ocr_text = $3, ocr_method = $4, ocr_confidence = $5, needs_review = $6
		 WHERE id = $1`,
		jobID, string(constants.JobStatusOCROK), out.OCRText, out.Method, out.Confidence, out.NeedsReview)
	if err != nil {
		r.logger.Error("extract_job finish(OCR_OK) failed", "job_id", jobID, "error", err)
		return err
	}
	r.logger.Info("extract_job finished ocr", "job_id", jobID, "method", out.Method, "confidence", out.Confidence)
	return nil
}

func (r *extractJobRepo) FinishParse(ctx context.Context, jobID uuid.UUID, out ParseOutcome) error {
	_, err := r.db.Exec(ctx,
		`UPDATE extract_jobs
		 SET status = $2, extracted_json = $3, extraction_confidence = $4, needs_review = $5, finished_at = $6
		 WHERE id = $1`,
		jobID, string(constants.JobStatusParseOK), []byte(out.ExtractedJSON), out.Confidence, out.NeedsReview, time.Now().UTC())
	if err != nil {
		r.logger.Error("extract_job finish(PARSE_OK) failed", "job_id", jobID, "error", err)
		return err
	}
	r.logger.Info("extract_job finished parse", "job_id", jobID, "confidence", out.Confidence, "needs_review", out.NeedsReview)
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE extract_jobs
		 SET status = $2, error_message = $3, finished_at = $4
		 WHERE id = $1`,
		jobID, string(constants.JobStatusFailed), message, time.Now().UTC())
	if err != nil {
		r.logger.Error("extract_job finish(FAILED) failed", "job_id", jobID, "error", err)
		return err
	}
	r.logger.Warn("extract_job failed", "job_id", jobID, "error", message)
	return nil
}

func (r *extractJobRepo) SetInvoiceID(ctx context.Context, jobID, invoiceID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE extract_jobs SET invoice_id = $2 WHERE id = $1`, jobID, invoiceID)
	if err != nil {
		r.logger.Error("extract_job link invoice failed", "job_id", jobID, "invoice_id", invoiceID, "error", err)
	}
	return err
}

func (r *extractJobRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*entity.ExtractJob, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+jobColumns+` FROM extract_jobs WHERE document_id = $1 ORDER BY started_at DESC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.ExtractJob
	for rows.Next() {
		var j entity.ExtractJob
		if err := rows.Scan(&j.ID, &j.DocumentID, &j.CompanyID, &j.InvoiceID, &j.Format, &j.StartedAt, &j.FinishedAt,
			&j.Status, &j.ErrorMessage, &j.OCRText, &j.OCRMethod, &j.OCRConfidence,
			&j.ExtractionConfidence, &j.NeedsReview, &j.ExtractedJSON); err != nil {
			return nil, err
		}
		out = append(out, &j)
	}
	return out, rows.Err()
}
