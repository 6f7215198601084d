// Package doctext extracts plain text from uploaded case documents.
// PDFs are read through their embedded text layer, DOCX archives are
// parsed directly, and images go through the tesseract binary.
package doctext

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

type Config struct {
	TesseractPath string
	OCRLanguage   string
}

type Extractor struct {
	cfg    Config
	runner Runner
}

func New(cfg Config) *Extractor {
	if cfg.TesseractPath == "" {
		cfg.TesseractPath = "tesseract"
	}
	if cfg.OCRLanguage == "" {
		cfg.OCRLanguage = "eng"
	}
	return &Extractor{cfg: cfg, runner: execRunner{}}
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tiff": true,
	".bmp":  true,
}

// Extract dispatches on the declared MIME type first and falls back to the
// file extension, mirroring how documents are classified at upload time.
func (e *Extractor) Extract(ctx context.Context, path, mimeType string) (*domain.ExtractionResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "stat source file", err)
	}

	mime := strings.ToLower(mimeType)
	ext := strings.ToLower(filepath.Ext(path))

	var (
		result *domain.ExtractionResult
		op     string
		err    error
	)
	switch {
	case strings.Contains(mime, "pdf") || ext == ".pdf":
		op = "extract pdf text"
		result, err = e.extractPDF(path)
	case strings.Contains(mime, "word") || strings.Contains(mime, "docx") || ext == ".docx" || ext == ".doc":
		op = "extract docx text"
		result, err = e.extractDOCX(path)
	case strings.Contains(mime, "image") || imageExtensions[ext]:
		op = "run ocr"
		result, err = e.extractImage(ctx, path)
	default:
		return nil, domain.WrapError(domain.ErrUnsupportedFormat, "dispatch extraction",
			fmt.Errorf("no extractor for %q (%s)", ext, mimeType))
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtractionFailed, op, err)
	}

	result.TextLength = utf8.RuneCountInString(result.Text)
	result.QualityScore = domain.ScoreTextQuality(result.Text)
	result.ExtractedAt = time.Now().UTC()

	slog.Info("text extracted",
		"method", result.Method,
		"text_length", result.TextLength,
		"quality_score", result.QualityScore,
	)
	return result, nil
}
