package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/besoincompta/compta-backend/constants"
)

const ImageConfidenceThreshold = 0.6

func (e *Extractor) extractImage(ctx context.Context, path string) (ExtractionResult, error) {
	var warns []string

	if e.cfg.PreprocessImages {
		enhanced, cleanup, err := e.enhanceImage(path)
		if err != nil {
			// OCR the original rather than failing the extraction
			warns = append(warns, fmt.Sprintf("image preprocessing: %v", err))
		} else {
			defer cleanup()
			path = enhanced
		}
	}

	txt, w, err := e.tesseractOCR(ctx, path)
	warns = append(warns, w...)
	if err != nil {
		return ExtractionResult{SourceType: constants.IMAGE, Warnings: warns}, err
	}
	txt = Normalize(txt)

	return ExtractionResult{
		Text:       txt,
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   warns,
		Confidence: heuristicConfidence(txt),
	}, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.TesseractLang)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	txt := reBoxNoise.ReplaceAllString(string(out), "")
	return txt, nil, nil
}

// enhanceImage runs the scanned-document enhancement chain and writes the
// result to a scratch dir. Returns the enhanced path and a cleanup.
func (e *Extractor) enhanceImage(path string) (string, func(), error) {
	src, err := imaging.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open image: %w", err)
	}

	// grayscale, then contrast/sharpen/brightness/gamma to lift faded print
	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)
	img = imaging.AdjustGamma(img, 1.2)

	tmpDir, err := os.MkdirTemp("", "bc-img-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	out := filepath.Join(tmpDir, "enhanced.png")
	if err := imaging.Save(img, out); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("save enhanced image: %w", err)
	}
	return out, cleanup, nil
}
