package ports

import (
	"context"
	"io"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, caseID, filename, mimeType string, size int64, body io.Reader) (*domain.Document, error)
}

// DocumentAnalyzer runs the full analysis pipeline for one document.
// The returned run reports outcome; pipeline-semantic failures are
// expressed through document status and events, not the error.
type DocumentAnalyzer interface {
	AnalyzeByID(ctx context.Context, documentID string, force bool) (*domain.AnalysisRun, error)
}

// AnalysisDispatcher enqueues analysis work for the worker.
type AnalysisDispatcher interface {
	Dispatch(ctx context.Context, documentID string, force bool) error
	DispatchBulk(ctx context.Context, documentIDs []string, force bool) ([]domain.DispatchResult, error)
}

// CostEstimator answers the pre-flight batch estimate query.
type CostEstimator interface {
	EstimateBatch(ctx context.Context, documentIDs []string) (*domain.CostEstimate, error)
}

// CostReporter serves the admin cost-reporting surface.
type CostReporter interface {
	Summary(ctx context.Context, days int) (*domain.CostSummary, error)
	Recent(ctx context.Context, limit int, serviceType string) ([]domain.CostRecord, error)
	ExportXLSX(ctx context.Context, days int) ([]byte, error)
}

// DocumentReader is the inbound read model for document state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByCase(ctx context.Context, caseID string, limit, offset int) ([]domain.Document, error)
}
