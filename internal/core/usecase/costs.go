package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
	"github.com/kirillkom/case-analysis-backend/internal/core/ports"
)

const budgetDateLayout = "2006-01-02"

// CostsService records paid AI calls and serves the admin reporting
// surface. Track never rejects for budget; the daily check is advisory
// and the day boundary is the UTC calendar date.
type CostsService struct {
	store          ports.CostStore
	ledger         ports.BudgetLedger
	renderer       ports.ReportRenderer
	dailyBudgetUSD float64
}

func NewCostsService(
	store ports.CostStore,
	ledger ports.BudgetLedger,
	renderer ports.ReportRenderer,
	dailyBudgetUSD float64,
) *CostsService {
	return &CostsService{
		store:          store,
		ledger:         ledger,
		renderer:       renderer,
		dailyBudgetUSD: dailyBudgetUSD,
	}
}

func (s *CostsService) Track(ctx context.Context, entry domain.CostEntry) (*domain.CostRecord, error) {
	record := &domain.CostRecord{
		ID:           uuid.NewString(),
		DocumentID:   entry.DocumentID,
		CaseID:       entry.CaseID,
		ServiceType:  entry.ServiceType,
		ModelName:    entry.ModelName,
		InputTokens:  entry.InputTokens,
		OutputTokens: entry.OutputTokens,
		CostUSD:      domain.RoundUSD(entry.CostUSD, 6),
		DurationMS:   entry.DurationMS,
		Success:      entry.Success,
		ErrorMessage: entry.ErrorMessage,
		ExtraData:    entry.ExtraData,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, record); err != nil {
		return nil, domain.WrapError(domain.ErrCostTracking, "insert cost record", err)
	}
	s.ledger.Add(record.CreatedAt.Format(budgetDateLayout), record.CostUSD)
	return record, nil
}

// CheckDailyBudget reports cap minus today's tracked spend. The raw
// remainder is returned even when negative; within means remaining > 0.
func (s *CostsService) CheckDailyBudget(_ context.Context) (bool, float64) {
	today := time.Now().UTC().Format(budgetDateLayout)
	remaining := domain.RoundUSD(s.dailyBudgetUSD-s.ledger.Spent(today), 2)
	return remaining > 0, remaining
}

func (s *CostsService) Summary(ctx context.Context, days int) (*domain.CostSummary, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	summary, err := s.store.Summary(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("aggregate cost summary: %w", err)
	}
	summary.PeriodDays = days
	summary.SinceDate = since
	return summary, nil
}

func (s *CostsService) Recent(ctx context.Context, limit int, serviceType string) ([]domain.CostRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	records, err := s.store.Recent(ctx, limit, serviceType)
	if err != nil {
		return nil, fmt.Errorf("list recent cost records: %w", err)
	}
	return records, nil
}

func (s *CostsService) ExportXLSX(ctx context.Context, days int) ([]byte, error) {
	summary, err := s.Summary(ctx, days)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListSince(ctx, summary.SinceDate)
	if err != nil {
		return nil, fmt.Errorf("list cost records: %w", err)
	}
	report, err := s.renderer.RenderCostReport(summary, records)
	if err != nil {
		return nil, fmt.Errorf("render cost report: %w", err)
	}
	return report, nil
}
