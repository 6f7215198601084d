package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

func newDocumentRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDUnmarshalsMetadata(t *testing.T) {
	repo, mock, done := newDocumentRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	meta := `{"analysis": {"summary": "Bail granted.", "classification": "Court Order", "key_points": [], "confidence": 0.9, "model": "m"}}`
	rows := sqlmock.NewRows([]string{
		"id", "case_id", "filename", "mime_type", "storage_path", "size_bytes", "status", "metadata", "created_at", "updated_at",
	}).AddRow("doc-1", "case-1", "order.pdf", "application/pdf", "cases/case-1/documents/doc-1_order.pdf", int64(2048), "analysis_complete", []byte(meta), now, now)

	mock.ExpectQuery("SELECT id, case_id, filename").
		WithArgs("doc-1").
		WillReturnRows(rows)

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.Status != domain.StatusAnalysisComplete {
		t.Fatalf("status = %s", doc.Status)
	}
	if doc.Metadata.Analysis == nil || doc.Metadata.Analysis.Classification != "Court Order" {
		t.Fatalf("metadata = %+v", doc.Metadata)
	}
	if !doc.Analyzed() {
		t.Fatalf("document with completed analysis must report Analyzed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newDocumentRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, case_id, filename").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newDocumentRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusProcessing), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusProcessing)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveAnalysisWritesStatusAndMetadataTogether(t *testing.T) {
	repo, mock, done := newDocumentRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", string(domain.StatusAnalysisComplete), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	meta := domain.DocumentMetadata{
		Analysis: &domain.AnalysisResult{Summary: "s", Classification: "Contract", KeyPoints: []string{}, Confidence: 0.9, Model: "m"},
	}
	if err := repo.SaveAnalysis(context.Background(), "doc-1", domain.StatusAnalysisComplete, meta); err != nil {
		t.Fatalf("SaveAnalysis() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveAnalysisReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newDocumentRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusExtractionFailed), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SaveAnalysis(context.Background(), "missing", domain.StatusExtractionFailed, domain.DocumentMetadata{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListByIDsEmptyInputSkipsQuery(t *testing.T) {
	repo, mock, done := newDocumentRepoWithMock(t)
	defer done()

	docs, err := repo.ListByIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListByIDs() error = %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("docs = %v", docs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListByCasePaginates(t *testing.T) {
	repo, mock, done := newDocumentRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "case_id", "filename", "mime_type", "storage_path", "size_bytes", "status", "metadata", "created_at", "updated_at",
	}).
		AddRow("doc-2", "case-1", "b.pdf", "application/pdf", "p2", int64(1), "uploaded", []byte(`{}`), now, now).
		AddRow("doc-1", "case-1", "a.pdf", "application/pdf", "p1", int64(1), "uploaded", []byte(`{}`), now.Add(-time.Hour), now)

	mock.ExpectQuery("SELECT id, case_id, filename").
		WithArgs("case-1", 20, 40).
		WillReturnRows(rows)

	docs, err := repo.ListByCase(context.Background(), "case-1", 20, 40)
	if err != nil {
		t.Fatalf("ListByCase() error = %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "doc-2" {
		t.Fatalf("docs = %+v", docs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
