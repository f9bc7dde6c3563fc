package pipeline

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/besoincompta/compta-backend/constants"
	"github.com/besoincompta/compta-backend/internal/ocr"
	"github.com/besoincompta/compta-backend/internal/repository"
)

type OCRStage struct {
	Docs          repository.DocumentRepository
	Jobs          repository.ExtractJobRepository
	TextExtractor ocr.TextExtractor
	Cache         *ocr.ResultCache
	Logger        *slog.Logger
	Metrics       *Metrics
}

func NewOCRStage(docs repository.DocumentRepository, jobs repository.ExtractJobRepository, tx ocr.TextExtractor, cache *ocr.ResultCache, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRStage{Docs: docs, Jobs: jobs, TextExtractor: tx, Cache: cache, Logger: logger}
}

// Run starts an extract_job, runs OCR, and persists the OCR text.
// Returns the job ID and the extraction summary. Field parsing is NOT called.
func (p *OCRStage) Run(ctx context.Context, documentID uuid.UUID) (uuid.UUID, ocr.ExtractionResult, error) {
	doc, err := p.Docs.GetByID(ctx, documentID)
	if err != nil {
		return uuid.Nil, ocr.ExtractionResult{}, fmt.Errorf("get document: %w", err)
	}

	format := constants.MapExtToFormat(doc.FileExt)
	if format == "" {
		return uuid.Nil, ocr.ExtractionResult{}, fmt.Errorf("unsupported format: %s", doc.FileExt)
	}

	job, err := p.Jobs.Start(ctx, doc.ID, doc.CompanyID, format)
	if err != nil {
		return uuid.Nil, ocr.ExtractionResult{}, err
	}

	hashHex := hex.EncodeToString(doc.ContentHash)
	var res ocr.ExtractionResult
	var hit bool
	if p.Cache != nil {
		res, hit = p.Cache.Get(hashHex)
	}
	if hit {
		p.Logger.Info("ocr cache hit", "document_id", doc.ID, "job_id", job.ID, "hash", hashHex)
	} else {
		res, err = p.TextExtractor.Extract(ctx, doc.StoragePath)
		if err != nil {
			_ = p.Jobs.FinishOCR(ctx, job.ID, repository.OCROutcome{ErrorMessage: err.Error()})
			p.Metrics.observeOutcome(outcomeOCRFailed)
			return job.ID, res, err
		}
		if p.Cache != nil {
			p.Cache.Put(hashHex, res)
		}
	}

	// Low-confidence image OCR is flagged for review rather than failed.
	needsReview := false
	if format == constants.IMAGE && res.Confidence > 0 && res.Confidence < ocr.ImageConfidenceThreshold {
		p.Logger.Warn("image ocr confidence low, flagging for review",
			"document_id", doc.ID, "job_id", job.ID, "confidence", res.Confidence)
		needsReview = true
	}

	out := repository.OCROutcome{
		OCRText:     res.Text,
		Method:      res.Method,
		Confidence:  res.Confidence,
		NeedsReview: needsReview,
	}
	if err := p.Jobs.FinishOCR(ctx, job.ID, out); err != nil {
		return job.ID, res, err
	}
	return job.ID, res, nil
}
