package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/besoincompta/compta-backend/constants"
)

// WebhookClient posts a document to a hosted OCR endpoint (an n8n workflow
// fronting Google Vision in the usual deployment) and decodes its response.
// It satisfies TextExtractor so the pipeline can swap it in for the local
// exec-based extractor via configuration.
type WebhookClient struct {
	url    string
	httpc  *http.Client
	logger *slog.Logger
}

// webhookResponse is the wire shape the OCR endpoint answers with.
type webhookResponse struct {
	Text       string  `json:"text"`
	Pages      int     `json:"pages"`
	Confidence float32 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

func NewWebhookClient(url string, timeout time.Duration, logger *slog.Logger) *WebhookClient {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &WebhookClient{
		url:    url,
		httpc:  &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (c *WebhookClient) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return ExtractionResult{}, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return ExtractionResult{}, fmt.Errorf("read document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return ExtractionResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return ExtractionResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("ocr webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		c.logger.Error("ocr webhook rejected document",
			"status", resp.StatusCode, "body_prefix", string(b))
		return ExtractionResult{}, fmt.Errorf("ocr webhook: status %d", resp.StatusCode)
	}

	var wr webhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return ExtractionResult{}, fmt.Errorf("decode ocr webhook response: %w", err)
	}
	if wr.Error != "" {
		return ExtractionResult{}, fmt.Errorf("ocr webhook: %s", wr.Error)
	}

	txt := Normalize(wr.Text)
	conf := wr.Confidence
	if conf <= 0 {
		conf = heuristicConfidence(txt)
	}
	pages := wr.Pages
	if pages <= 0 {
		pages = 1
	}

	return ExtractionResult{
		Text:       txt,
		Pages:      pages,
		SourceType: constants.MapExtToFormat(filepath.Ext(path)),
		Method:     "webhook",
		Duration:   time.Since(start),
		Confidence: conf,
	}, nil
}
