package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

// DocumentRepository persists and reads document state. SaveAnalysis
// writes status and the consolidated metadata blob in one statement so
// a run's outcome lands atomically.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Document, error)
	ListByCase(ctx context.Context, caseID string, limit, offset int) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error
	SaveAnalysis(ctx context.Context, id string, status domain.DocumentStatus, meta domain.DocumentMetadata) error
}

// EventStore appends to and reads the immutable pipeline event log.
type EventStore interface {
	Append(ctx context.Context, event domain.PipelineEvent) error
	ListByDocument(ctx context.Context, documentID string) ([]domain.PipelineEvent, error)
}

// CostStore persists cost records and serves reporting queries.
type CostStore interface {
	Insert(ctx context.Context, record *domain.CostRecord) error
	Summary(ctx context.Context, since time.Time) (*domain.CostSummary, error)
	Recent(ctx context.Context, limit int, serviceType string) ([]domain.CostRecord, error)
	ListSince(ctx context.Context, since time.Time) ([]domain.CostRecord, error)
}

// BudgetLedger accumulates per-day spend, keyed by UTC calendar date
// strings. The in-memory implementation resets lazily on date change.
type BudgetLedger interface {
	Add(date string, amount float64)
	Spent(date string) float64
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes analysis requests.
type MessageQueue interface {
	PublishAnalysisRequested(ctx context.Context, req domain.AnalysisRequest) error
	SubscribeAnalysisRequested(ctx context.Context, handler func(context.Context, domain.AnalysisRequest) error) error
}

// TextExtractor extracts text from a local file, dispatching on the
// MIME hint with the file extension as fallback.
type TextExtractor interface {
	Extract(ctx context.Context, path, mimeType string) (*domain.ExtractionResult, error)
}

// AnalysisModel is the required primary model: summary,
// classification, key points, confidence. Model reports the configured
// model identifier so failed attempts can still be cost-tracked.
type AnalysisModel interface {
	Analyze(ctx context.Context, text, docType string) (*domain.AnalysisOutput, error)
	Model() string
}

// EntityModel is the optional secondary model for structured entity
// extraction. Enabled reports whether calls may be attempted at all.
type EntityModel interface {
	Extract(ctx context.Context, text string) (*domain.EntitiesOutput, error)
	Enabled() bool
	Model() string
}

// VisionAnalyzer runs the page-image fallback. Failures are part of
// the result, never an error: the orchestrator decides how to react.
type VisionAnalyzer interface {
	Analyze(ctx context.Context, path string) *domain.VisionResult
}

// CostTracker records paid calls and answers the advisory daily budget
// check. Track failures must not stop substantive pipeline work.
type CostTracker interface {
	Track(ctx context.Context, entry domain.CostEntry) (*domain.CostRecord, error)
	CheckDailyBudget(ctx context.Context) (within bool, remainingUSD float64)
}

// EntityGraph projects extracted entities into a graph store.
// Best-effort: projection failures are logged, never fatal.
type EntityGraph interface {
	ProjectEntities(ctx context.Context, doc *domain.Document, entities *domain.EntitiesResult) error
}

// ReportRenderer renders the admin cost report for download.
type ReportRenderer interface {
	RenderCostReport(summary *domain.CostSummary, records []domain.CostRecord) ([]byte, error)
}
