package usecase

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

type costStoreFake struct {
	inserted    []*domain.CostRecord
	insertErr   error
	summary     *domain.CostSummary
	recent      []domain.CostRecord
	recentLimit int
	listed      []domain.CostRecord
}

func (f *costStoreFake) Insert(_ context.Context, record *domain.CostRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, record)
	return nil
}

func (f *costStoreFake) Summary(context.Context, time.Time) (*domain.CostSummary, error) {
	if f.summary == nil {
		return &domain.CostSummary{}, nil
	}
	return f.summary, nil
}

func (f *costStoreFake) Recent(_ context.Context, limit int, _ string) ([]domain.CostRecord, error) {
	f.recentLimit = limit
	return f.recent, nil
}

func (f *costStoreFake) ListSince(context.Context, time.Time) ([]domain.CostRecord, error) {
	return f.listed, nil
}

type ledgerFake struct {
	amounts map[string]float64
}

func (f *ledgerFake) Add(date string, amount float64) {
	if f.amounts == nil {
		f.amounts = map[string]float64{}
	}
	f.amounts[date] += amount
}

func (f *ledgerFake) Spent(date string) float64 {
	return f.amounts[date]
}

type rendererFake struct {
	summary *domain.CostSummary
	records []domain.CostRecord
	out     []byte
	err     error
}

func (f *rendererFake) RenderCostReport(summary *domain.CostSummary, records []domain.CostRecord) ([]byte, error) {
	f.summary = summary
	f.records = records
	return f.out, f.err
}

func TestTrackRoundsAndCreditsLedger(t *testing.T) {
	store := &costStoreFake{}
	ledger := &ledgerFake{}
	svc := NewCostsService(store, ledger, &rendererFake{}, 100)

	record, err := svc.Track(context.Background(), domain.CostEntry{
		DocumentID:   "doc-1",
		CaseID:       "case-1",
		ServiceType:  domain.ServiceTextAnalysis,
		ModelName:    domain.DefaultPrimaryModel,
		InputTokens:  1000,
		OutputTokens: 200,
		CostUSD:      0.0016234567,
		Success:      true,
	})
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if record.ID == "" || record.CreatedAt.IsZero() {
		t.Fatalf("record must carry id and timestamp: %+v", record)
	}
	if record.CostUSD != 0.001623 {
		t.Fatalf("cost rounded to %f, want 0.001623", record.CostUSD)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(store.inserted))
	}

	today := time.Now().UTC().Format("2006-01-02")
	if got := ledger.Spent(today); got != 0.001623 {
		t.Fatalf("ledger credited %f, want 0.001623", got)
	}
}

func TestTrackStoreFailure(t *testing.T) {
	store := &costStoreFake{insertErr: errors.New("db down")}
	ledger := &ledgerFake{}
	svc := NewCostsService(store, ledger, &rendererFake{}, 100)

	_, err := svc.Track(context.Background(), domain.CostEntry{ServiceType: domain.ServiceVisionAI})
	if !domain.IsKind(err, domain.ErrCostTracking) {
		t.Fatalf("got %v, want cost tracking error", err)
	}
	today := time.Now().UTC().Format("2006-01-02")
	if ledger.Spent(today) != 0 {
		t.Fatalf("failed insert must not credit the ledger")
	}
}

func TestCheckDailyBudget(t *testing.T) {
	today := time.Now().UTC().Format("2006-01-02")

	ledger := &ledgerFake{amounts: map[string]float64{today: 30}}
	svc := NewCostsService(&costStoreFake{}, ledger, &rendererFake{}, 100)
	within, remaining := svc.CheckDailyBudget(context.Background())
	if !within || remaining != 70 {
		t.Fatalf("got (%v, %f), want (true, 70)", within, remaining)
	}

	ledger = &ledgerFake{amounts: map[string]float64{today: 110}}
	svc = NewCostsService(&costStoreFake{}, ledger, &rendererFake{}, 100)
	within, remaining = svc.CheckDailyBudget(context.Background())
	if within || remaining != -10 {
		t.Fatalf("got (%v, %f), want (false, -10)", within, remaining)
	}
}

func TestSummaryDefaultsPeriod(t *testing.T) {
	store := &costStoreFake{summary: &domain.CostSummary{TotalCostUSD: 12.5}}
	svc := NewCostsService(store, &ledgerFake{}, &rendererFake{}, 100)

	summary, err := svc.Summary(context.Background(), 0)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.PeriodDays != 7 {
		t.Fatalf("period days = %d, want 7", summary.PeriodDays)
	}
	if summary.SinceDate.IsZero() {
		t.Fatalf("since date must be set")
	}
	if summary.TotalCostUSD != 12.5 {
		t.Fatalf("total = %f", summary.TotalCostUSD)
	}
}

func TestRecentClampsLimit(t *testing.T) {
	store := &costStoreFake{}
	svc := NewCostsService(store, &ledgerFake{}, &rendererFake{}, 100)

	if _, err := svc.Recent(context.Background(), 0, ""); err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if store.recentLimit != 50 {
		t.Fatalf("default limit = %d, want 50", store.recentLimit)
	}

	if _, err := svc.Recent(context.Background(), 9999, "vision_ai"); err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if store.recentLimit != 500 {
		t.Fatalf("clamped limit = %d, want 500", store.recentLimit)
	}
}

func TestExportXLSX(t *testing.T) {
	store := &costStoreFake{
		summary: &domain.CostSummary{TotalCostUSD: 4.2},
		listed:  []domain.CostRecord{{ID: "rec-1"}, {ID: "rec-2"}},
	}
	renderer := &rendererFake{out: []byte("xlsx-bytes")}
	svc := NewCostsService(store, &ledgerFake{}, renderer, 100)

	out, err := svc.ExportXLSX(context.Background(), 30)
	if err != nil {
		t.Fatalf("ExportXLSX() error = %v", err)
	}
	if !bytes.Equal(out, []byte("xlsx-bytes")) {
		t.Fatalf("unexpected output: %q", out)
	}
	if renderer.summary == nil || renderer.summary.PeriodDays != 30 {
		t.Fatalf("renderer must receive the summary: %+v", renderer.summary)
	}
	if len(renderer.records) != 2 {
		t.Fatalf("renderer must receive the records, got %d", len(renderer.records))
	}
}
