package doctext

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

func (e *Extractor) extractPDF(path string) (result *domain.ExtractionResult, err error) {
	// ledongthuc/pdf panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := reader.NumPage()
	var parts []string
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("pdf page unreadable", "page", i, "error", err)
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		parts = append(parts, pageText)
	}

	return &domain.ExtractionResult{
		Text:   strings.Join(parts, "\n\n"),
		Method: domain.MethodPDFTextLayer,
		Details: map[string]any{
			"pages_total":     total,
			"pages_with_text": len(parts),
		},
	}, nil
}
