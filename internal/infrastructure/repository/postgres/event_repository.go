package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

// EventRepository is the append-only pipeline event log. Sequence
// numbers come from the table's own sequence, so ordering is assigned
// at insert time and never recomputed.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Append(ctx context.Context, event domain.PipelineEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO pipeline_events (id, aggregate_type, aggregate_id, event_type, payload, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, event.ID, event.AggregateType, event.AggregateID, event.EventType, payloadJSON, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("append pipeline event: %w", err)
	}
	return nil
}

func (r *EventRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.PipelineEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, aggregate_type, aggregate_id, event_type, payload, sequence_number, created_at
FROM pipeline_events
WHERE aggregate_id = $1
ORDER BY sequence_number
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list pipeline events: %w", err)
	}
	defer rows.Close()

	out := make([]domain.PipelineEvent, 0)
	for rows.Next() {
		var event domain.PipelineEvent
		var payloadRaw []byte
		err := rows.Scan(
			&event.ID,
			&event.AggregateType,
			&event.AggregateID,
			&event.EventType,
			&payloadRaw,
			&event.SequenceNumber,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pipeline event: %w", err)
		}
		if len(payloadRaw) > 0 {
			if err := json.Unmarshal(payloadRaw, &event.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal event payload: %w", err)
			}
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pipeline events: %w", err)
	}
	return out, nil
}
