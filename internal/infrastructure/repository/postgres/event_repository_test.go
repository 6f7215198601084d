package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

func newEventRepoWithMock(t *testing.T) (*EventRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &EventRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	repo, mock, done := newEventRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO pipeline_events").
		WithArgs(sqlmock.AnyArg(), domain.AggregateDocument, "doc-1", domain.EventAnalysisStarted, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	event := domain.NewAnalysisStarted(&domain.Document{ID: "doc-1", CaseID: "case-1", Filename: "a.pdf", MimeType: "application/pdf"}, false)
	if err := repo.Append(context.Background(), event); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListByDocumentOrdersBySequence(t *testing.T) {
	repo, mock, done := newEventRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "aggregate_type", "aggregate_id", "event_type", "payload", "sequence_number", "created_at",
	}).
		AddRow("ev-1", "document", "doc-1", domain.EventAnalysisStarted, []byte(`{"forced": false}`), int64(11), now).
		AddRow("ev-2", "document", "doc-1", domain.EventAnalyzed, []byte(`{"classification": "Contract"}`), int64(12), now)

	mock.ExpectQuery("SELECT id, aggregate_type, aggregate_id").
		WithArgs("doc-1").
		WillReturnRows(rows)

	events, err := repo.ListByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d", len(events))
	}
	if events[0].SequenceNumber != 11 || events[1].EventType != domain.EventAnalyzed {
		t.Fatalf("unexpected events: %+v", events)
	}
	if events[1].Payload["classification"] != "Contract" {
		t.Fatalf("payload = %v", events[1].Payload)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
