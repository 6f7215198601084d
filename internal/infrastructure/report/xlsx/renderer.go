// Package xlsx renders the admin cost report as a two-sheet workbook:
// aggregated summary plus the raw records behind it.
package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

const (
	summarySheet = "Summary"
	recordsSheet = "Records"
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) RenderCostReport(summary *domain.CostSummary, records []domain.CostRecord) ([]byte, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("xlsx summary sheet: %w", err)
	}
	if _, err := f.NewSheet(recordsSheet); err != nil {
		return nil, fmt.Errorf("xlsx records sheet: %w", err)
	}

	writeSummarySheet(f, summary)
	writeRecordsSheet(f, records)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, summary *domain.CostSummary) {
	row := 1
	writeRow(f, summarySheet, &row, "AI Cost Report")
	writeRow(f, summarySheet, &row, "Period (days)", summary.PeriodDays)
	writeRow(f, summarySheet, &row, "Since", summary.SinceDate.Format("2006-01-02"))
	writeRow(f, summarySheet, &row, "Total cost (USD)", summary.TotalCostUSD)
	row++

	writeRow(f, summarySheet, &row, "By service")
	writeRow(f, summarySheet, &row, "Service", "Cost (USD)", "Requests", "Input tokens", "Output tokens")
	for _, s := range summary.ByService {
		writeRow(f, summarySheet, &row, string(s.ServiceType), s.TotalCostUSD, s.RequestCount, s.InputTokens, s.OutputTokens)
	}
	row++

	writeRow(f, summarySheet, &row, "By model")
	writeRow(f, summarySheet, &row, "Model", "Cost (USD)", "Requests")
	for _, m := range summary.ByModel {
		writeRow(f, summarySheet, &row, m.ModelName, m.TotalCostUSD, m.RequestCount)
	}
	row++

	writeRow(f, summarySheet, &row, "Daily")
	writeRow(f, summarySheet, &row, "Date", "Cost (USD)", "Requests")
	for _, d := range summary.Daily {
		writeRow(f, summarySheet, &row, d.Date, d.TotalCostUSD, d.RequestCount)
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 24)
	_ = f.SetColWidth(summarySheet, "B", "E", 16)
}

func writeRecordsSheet(f *excelize.File, records []domain.CostRecord) {
	row := 1
	writeRow(f, recordsSheet, &row,
		"Created at", "Document ID", "Case ID", "Service", "Model",
		"Input tokens", "Output tokens", "Cost (USD)", "Duration (ms)", "Success", "Error")
	for _, rec := range records {
		writeRow(f, recordsSheet, &row,
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
			rec.DocumentID,
			rec.CaseID,
			string(rec.ServiceType),
			rec.ModelName,
			rec.InputTokens,
			rec.OutputTokens,
			rec.CostUSD,
			rec.DurationMS,
			rec.Success,
			rec.ErrorMessage,
		)
	}

	_ = f.SetColWidth(recordsSheet, "A", "A", 20)
	_ = f.SetColWidth(recordsSheet, "B", "C", 38)
	_ = f.SetColWidth(recordsSheet, "D", "E", 24)
	_ = f.SetColWidth(recordsSheet, "K", "K", 48)
}

func writeRow(f *excelize.File, sheet string, row *int, values ...any) {
	for i, value := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, *row)
		_ = f.SetCellValue(sheet, cell, value)
	}
	*row++
}
