package doctext

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

func (e *Extractor) extractImage(ctx context.Context, path string) (*domain.ExtractionResult, error) {
	// tesseract <file> stdout -l <lang>
	out, _, err := e.runner.Run(ctx, e.cfg.TesseractPath, path, "stdout", "-l", e.cfg.OCRLanguage)
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w", err)
	}

	return &domain.ExtractionResult{
		Text:   strings.TrimSpace(string(out)),
		Method: domain.MethodOCR,
		Details: map[string]any{
			"ocr_confidence": e.tesseractConfidence(ctx, path),
		},
	}, nil
}

// tesseractConfidence reruns tesseract in TSV mode and averages per-word
// confidence on the 0-100 scale. Structural rows carry conf -1 and are
// skipped. Returns 0 when no word confidence is available.
func (e *Extractor) tesseractConfidence(ctx context.Context, path string) float64 {
	out, _, err := e.runner.Run(ctx, e.cfg.TesseractPath, path, "stdout", "-l", e.cfg.OCRLanguage, "tsv")
	if err != nil {
		slog.Warn("tesseract tsv confidence failed", "error", err)
		return 0
	}

	var sum float64
	var n int
	for i, line := range strings.Split(string(out), "\n") {
		if i == 0 || line == "" {
			continue // header
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 12 {
			continue
		}
		conf := cols[10]
		if conf == "" || conf == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(conf, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Round(sum/float64(n)*100) / 100
}
