package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

const costColumns = "id, document_id, case_id, service_type, model_name, input_tokens, output_tokens, cost_usd, duration_ms, success, error_message, extra_data, created_at"

type CostRepository struct {
	db *sql.DB
}

func NewCostRepository(db *sql.DB) *CostRepository {
	return &CostRepository{db: db}
}

func (r *CostRepository) Insert(ctx context.Context, record *domain.CostRecord) error {
	extraJSON, err := json.Marshal(record.ExtraData)
	if err != nil {
		return fmt.Errorf("marshal extra data: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO ai_cost_records (id, document_id, case_id, service_type, model_name, input_tokens, output_tokens, cost_usd, duration_ms, success, error_message, extra_data, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
		record.ID, record.DocumentID, record.CaseID, string(record.ServiceType), record.ModelName,
		record.InputTokens, record.OutputTokens, record.CostUSD, record.DurationMS,
		record.Success, record.ErrorMessage, extraJSON, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cost record: %w", err)
	}
	return nil
}

func (r *CostRepository) Summary(ctx context.Context, since time.Time) (*domain.CostSummary, error) {
	summary := &domain.CostSummary{
		ByService: make([]domain.ServiceCostTotals, 0),
		ByModel:   make([]domain.ModelCostTotals, 0),
		Daily:     make([]domain.DailyCostTotals, 0),
	}

	if err := r.summarizeByService(ctx, since, summary); err != nil {
		return nil, err
	}
	if err := r.summarizeByModel(ctx, since, summary); err != nil {
		return nil, err
	}
	if err := r.summarizeDaily(ctx, since, summary); err != nil {
		return nil, err
	}

	summary.TotalCostUSD = domain.RoundUSD(summary.TotalCostUSD, 6)
	return summary, nil
}

func (r *CostRepository) summarizeByService(ctx context.Context, since time.Time, summary *domain.CostSummary) error {
	rows, err := r.db.QueryContext(ctx, `
SELECT service_type, COALESCE(SUM(cost_usd), 0), COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0)
FROM ai_cost_records
WHERE created_at >= $1
GROUP BY service_type
ORDER BY SUM(cost_usd) DESC
`, since)
	if err != nil {
		return fmt.Errorf("summarize costs by service: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var totals domain.ServiceCostTotals
		var serviceType string
		if err := rows.Scan(&serviceType, &totals.TotalCostUSD, &totals.RequestCount, &totals.InputTokens, &totals.OutputTokens); err != nil {
			return fmt.Errorf("scan service totals: %w", err)
		}
		totals.ServiceType = domain.ServiceType(serviceType)
		summary.TotalCostUSD += totals.TotalCostUSD
		summary.ByService = append(summary.ByService, totals)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate service totals: %w", err)
	}
	return nil
}

func (r *CostRepository) summarizeByModel(ctx context.Context, since time.Time, summary *domain.CostSummary) error {
	rows, err := r.db.QueryContext(ctx, `
SELECT model_name, COALESCE(SUM(cost_usd), 0), COUNT(*)
FROM ai_cost_records
WHERE created_at >= $1
GROUP BY model_name
ORDER BY SUM(cost_usd) DESC
`, since)
	if err != nil {
		return fmt.Errorf("summarize costs by model: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var totals domain.ModelCostTotals
		if err := rows.Scan(&totals.ModelName, &totals.TotalCostUSD, &totals.RequestCount); err != nil {
			return fmt.Errorf("scan model totals: %w", err)
		}
		summary.ByModel = append(summary.ByModel, totals)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate model totals: %w", err)
	}
	return nil
}

func (r *CostRepository) summarizeDaily(ctx context.Context, since time.Time, summary *domain.CostSummary) error {
	rows, err := r.db.QueryContext(ctx, `
SELECT TO_CHAR(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COALESCE(SUM(cost_usd), 0), COUNT(*)
FROM ai_cost_records
WHERE created_at >= $1
GROUP BY day
ORDER BY day DESC
`, since)
	if err != nil {
		return fmt.Errorf("summarize costs by day: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var totals domain.DailyCostTotals
		if err := rows.Scan(&totals.Date, &totals.TotalCostUSD, &totals.RequestCount); err != nil {
			return fmt.Errorf("scan daily totals: %w", err)
		}
		summary.Daily = append(summary.Daily, totals)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate daily totals: %w", err)
	}
	return nil
}

func (r *CostRepository) Recent(ctx context.Context, limit int, serviceType string) ([]domain.CostRecord, error) {
	var rows *sql.Rows
	var err error
	if serviceType == "" {
		rows, err = r.db.QueryContext(ctx, `
SELECT `+costColumns+`
FROM ai_cost_records
ORDER BY created_at DESC
LIMIT $1
`, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, `
SELECT `+costColumns+`
FROM ai_cost_records
WHERE service_type = $1
ORDER BY created_at DESC
LIMIT $2
`, serviceType, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list recent cost records: %w", err)
	}
	defer rows.Close()

	return collectCostRecords(rows)
}

func (r *CostRepository) ListSince(ctx context.Context, since time.Time) ([]domain.CostRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+costColumns+`
FROM ai_cost_records
WHERE created_at >= $1
ORDER BY created_at DESC
`, since)
	if err != nil {
		return nil, fmt.Errorf("list cost records since: %w", err)
	}
	defer rows.Close()

	return collectCostRecords(rows)
}

func scanCostRecord(row rowScanner) (domain.CostRecord, error) {
	var record domain.CostRecord
	var serviceType string
	var extraRaw []byte

	err := row.Scan(
		&record.ID,
		&record.DocumentID,
		&record.CaseID,
		&serviceType,
		&record.ModelName,
		&record.InputTokens,
		&record.OutputTokens,
		&record.CostUSD,
		&record.DurationMS,
		&record.Success,
		&record.ErrorMessage,
		&extraRaw,
		&record.CreatedAt,
	)
	if err != nil {
		return domain.CostRecord{}, err
	}
	if len(extraRaw) > 0 {
		if err := json.Unmarshal(extraRaw, &record.ExtraData); err != nil {
			return domain.CostRecord{}, fmt.Errorf("unmarshal extra data: %w", err)
		}
	}
	record.ServiceType = domain.ServiceType(serviceType)
	return record, nil
}

func collectCostRecords(rows *sql.Rows) ([]domain.CostRecord, error) {
	out := make([]domain.CostRecord, 0)
	for rows.Next() {
		record, err := scanCostRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cost record: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cost records: %w", err)
	}
	return out, nil
}
