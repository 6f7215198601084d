package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded         DocumentStatus = "uploaded"
	StatusProcessing       DocumentStatus = "processing"
	StatusAnalysisComplete DocumentStatus = "analysis_complete"
	StatusExtractionFailed DocumentStatus = "extraction_failed"
	StatusPoorQuality      DocumentStatus = "poor_quality"
)

type Document struct {
	ID          string           `json:"id"`
	CaseID      string           `json:"case_id"`
	Filename    string           `json:"filename"`
	MimeType    string           `json:"mime_type"`
	StoragePath string           `json:"storage_path"`
	SizeBytes   int64            `json:"size_bytes"`
	Status      DocumentStatus   `json:"status"`
	Metadata    DocumentMetadata `json:"metadata"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Analyzed reports whether the document already carries a completed
// analysis. Used for the skip-unless-forced check.
func (d *Document) Analyzed() bool {
	return d.Status == StatusAnalysisComplete && d.Metadata.Analysis != nil
}

// DocumentMetadata is the typed in-process view of the per-stage
// results accumulated by the pipeline. It is serialized to a single
// JSONB column only at the storage boundary.
type DocumentMetadata struct {
	Extraction *ExtractionResult `json:"extraction,omitempty"`
	Analysis   *AnalysisResult   `json:"analysis,omitempty"`
	Entities   *EntitiesResult   `json:"entities,omitempty"`
	Processing *ProcessingInfo   `json:"processing,omitempty"`
}

// ProcessingInfo records run bookkeeping: timing and total cost on
// success, or the error shape on failure.
type ProcessingInfo struct {
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DurationMS   int64      `json:"duration_ms,omitempty"`
	TotalCostUSD float64    `json:"total_cost_usd,omitempty"`
	Error        string     `json:"error,omitempty"`
	ErrorType    string     `json:"error_type,omitempty"`
	FailedAt     *time.Time `json:"failed_at,omitempty"`
}
