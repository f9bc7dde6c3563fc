package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/besoincompta/compta-backend/constants"
	"github.com/besoincompta/compta-backend/internal/fields"
	"github.com/besoincompta/compta-backend/internal/repository"
)

// Config holds thresholds for the parse stage.
type Config struct {
	ReviewThreshold float64 // default 0.70
}

type ParseStage struct {
	Logger    *slog.Logger
	Cfg       Config
	Jobs      repository.ExtractJobRepository
	Invoices  repository.InvoiceRepository
	Extractor fields.Extractor
	Metrics   *Metrics

	schema map[string]any
}

func NewParseStage(logger *slog.Logger, cfg Config, jobs repository.ExtractJobRepository, invoices repository.InvoiceRepository, fe fields.Extractor) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReviewThreshold <= 0 {
		cfg.ReviewThreshold = 0.70
	}
	return &ParseStage{
		Logger:    logger,
		Cfg:       cfg,
		Jobs:      jobs,
		Invoices:  invoices,
		Extractor: fe,
		schema:    fields.BuildInvoiceJSONSchema(),
	}
}

// Run executes the field-extraction stage for an existing OCR job.
// Preconditions: job is OCR_OK with non-empty ocr_text.
// Effects: writes extracted_json, extraction_confidence, needs_review on the
// job and upserts the invoice row for the job's document.
func (p *ParseStage) Run(ctx context.Context, jobID uuid.UUID) (uuid.UUID, error) {
	job, doc, err := p.Jobs.GetWithDocument(ctx, jobID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load job: %w", err)
	}
	if job.Status != string(constants.JobStatusOCROK) || job.OCRText == nil || *job.OCRText == "" {
		return job.ID, fmt.Errorf("job not ready for parse: status=%s ocr_text_empty=%t",
			job.Status, job.OCRText == nil || *job.OCRText == "")
	}

	p.Logger.Info("parse fields start",
		"job_id", job.ID, "document_id", doc.ID, "ocr_bytes", len(*job.OCRText))

	data := p.Extractor.Extract(*job.OCRText)

	raw, err := json.Marshal(data)
	if err != nil {
		_ = p.Jobs.FinishFailure(ctx, job.ID, err.Error())
		p.Metrics.observeOutcome(outcomeParseFailed)
		return job.ID, fmt.Errorf("marshal extracted fields: %w", err)
	}

	// A record that fails its own schema is suspicious but still stored;
	// the reviewer decides what to keep.
	needsReview := job.NeedsReview
	if err := fields.ValidateJSONAgainstSchema(p.schema, raw); err != nil {
		p.Logger.Warn("extracted record failed schema validation", "job_id", job.ID, "error", err)
		needsReview = true
	}
	if data.Confidence < p.Cfg.ReviewThreshold {
		needsReview = true
	}

	inv, err := p.Invoices.UpsertFromExtraction(ctx, &repository.CreateInvoiceRequest{
		Document: doc,
		JobID:    job.ID,
		Data:     data,
	})
	if err != nil {
		_ = p.Jobs.FinishFailure(ctx, job.ID, err.Error())
		p.Metrics.observeOutcome(outcomeParseFailed)
		return job.ID, fmt.Errorf("upsert invoice: %w", err)
	}
	if err := p.Jobs.SetInvoiceID(ctx, job.ID, inv.ID); err != nil {
		_ = p.Jobs.FinishFailure(ctx, job.ID, fmt.Sprintf("link job->invoice: %v", err))
		p.Metrics.observeOutcome(outcomeParseFailed)
		return job.ID, err
	}

	if err := p.Jobs.FinishParse(ctx, job.ID, repository.ParseOutcome{
		ExtractedJSON: raw,
		Confidence:    data.Confidence,
		NeedsReview:   needsReview,
	}); err != nil {
		return job.ID, err
	}
	p.Metrics.observeOutcome(outcomeParsed)
	p.Metrics.observeConfidence(data.Confidence)

	p.Logger.Info("parsed fields successfully",
		"job_id", job.ID, "invoice_id", inv.ID,
		"supplier", data.Supplier.Name, "date", data.Date, "total", data.Total,
		"needs_review", needsReview, "confidence", data.Confidence)
	return job.ID, nil
}
