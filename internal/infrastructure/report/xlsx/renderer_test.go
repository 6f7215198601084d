package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

func TestRenderCostReportRoundTrips(t *testing.T) {
	since := time.Date(2026, 5, 16, 0, 0, 0, 0, time.UTC)
	summary := &domain.CostSummary{
		PeriodDays:   7,
		SinceDate:    since,
		TotalCostUSD: 0.0151,
		ByService: []domain.ServiceCostTotals{
			{ServiceType: domain.ServiceEntityExtraction, TotalCostUSD: 0.0135, RequestCount: 1, InputTokens: 900, OutputTokens: 120},
			{ServiceType: domain.ServiceTextAnalysis, TotalCostUSD: 0.0016, RequestCount: 1, InputTokens: 1000, OutputTokens: 200},
		},
		ByModel: []domain.ModelCostTotals{
			{ModelName: "gpt-4-turbo-preview", TotalCostUSD: 0.0135, RequestCount: 1},
		},
		Daily: []domain.DailyCostTotals{
			{Date: "2026-05-20", TotalCostUSD: 0.0151, RequestCount: 2},
		},
	}
	records := []domain.CostRecord{
		{
			ID:          "rec-1",
			DocumentID:  "doc-1",
			CaseID:      "case-1",
			ServiceType: domain.ServiceTextAnalysis,
			ModelName:   "claude-3-5-haiku-20241022",
			InputTokens: 1000,
			CostUSD:     0.0016,
			Success:     true,
			CreatedAt:   since.Add(24 * time.Hour),
		},
	}

	out, err := NewRenderer().RenderCostReport(summary, records)
	if err != nil {
		t.Fatalf("RenderCostReport() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open rendered workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Summary" || sheets[1] != "Records" {
		t.Fatalf("sheets = %v", sheets)
	}

	if got, _ := f.GetCellValue("Summary", "B2"); got != "7" {
		t.Fatalf("period cell = %q", got)
	}
	if got, _ := f.GetCellValue("Summary", "A7"); got != "Service" {
		t.Fatalf("service header = %q", got)
	}
	if got, _ := f.GetCellValue("Summary", "A8"); got != string(domain.ServiceEntityExtraction) {
		t.Fatalf("first service row = %q", got)
	}

	if got, _ := f.GetCellValue("Records", "B2"); got != "doc-1" {
		t.Fatalf("record document cell = %q", got)
	}
	if got, _ := f.GetCellValue("Records", "E2"); got != "claude-3-5-haiku-20241022" {
		t.Fatalf("record model cell = %q", got)
	}
}
