package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/besoincompta/compta-backend/internal/fields"
	"github.com/besoincompta/compta-backend/internal/ocr"
)

// extract OCRs a local invoice file and prints the extracted fields as JSON.
// Useful for tuning the field rules without a database or a running server.
func main() {
	lang := flag.String("lang", "eng+fra", "tesseract language pack")
	dpi := flag.Int("dpi", 300, "rasterization DPI for scanned PDFs")
	rawText := flag.Bool("text", false, "print the OCR text instead of extracted fields")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: extract [flags] <invoice.pdf|scan.png>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ocrx := ocr.NewExtractor(ocr.Config{TesseractLang: *lang, DPI: *dpi, PreprocessImages: true}, logger)

	res, err := ocrx.Extract(ctx, path)
	if err != nil {
		logger.Error("ocr failed", "path", path, "error", err)
		os.Exit(1)
	}
	if *rawText {
		fmt.Println(res.Text)
		return
	}

	data := fields.NewRegexExtractor(logger).Extract(res.Text)
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		logger.Error("marshal fields", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
	fmt.Fprintf(os.Stderr, "method=%s pages=%d confidence=%.2f\n", res.Method, res.Pages, data.Confidence)
}
