package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Processor coordinates OCR (text extract) then regex parse (fields).
type Processor struct {
	Logger *slog.Logger
	OCR    *OCRStage
	Parse  *ParseStage
}

func NewProcessor(logger *slog.Logger, ocr *OCRStage, parse *ParseStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, OCR: ocr, Parse: parse}
}

// ProcessDocument runs OCR for a document (creating/advancing extract_job),
// then runs the parse stage on the resulting job, and upserts the invoice.
// Returns the final jobID (same one started by OCR).
func (p *Processor) ProcessDocument(ctx context.Context, documentID uuid.UUID) (uuid.UUID, error) {
	jobID, ocrRes, err := p.OCR.Run(ctx, documentID)
	if err != nil {
		p.Logger.Error("processor.ocr.failed", "document_id", documentID, "error", err)
		return jobID, err
	}
	p.Logger.Info("processor.ocr.ok",
		"document_id", documentID,
		"job_id", jobID,
		"method", ocrRes.Method,
		"pages", ocrRes.Pages,
		"confidence", ocrRes.Confidence,
	)

	if _, err := p.Parse.Run(ctx, jobID); err != nil {
		p.Logger.Error("processor.parse.failed", "job_id", jobID, "error", err)
		return jobID, err
	}
	p.Logger.Info("processor.parse.ok", "job_id", jobID)
	return jobID, nil
}
