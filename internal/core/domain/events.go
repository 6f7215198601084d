package domain

import "time"

const AggregateDocument = "document"

// Pipeline event types, one per stage transition. A single run emits
// exactly one terminal event: Analyzed or AnalysisFailed, never both.
const (
	EventDocumentUploaded = "DocumentUploaded"
	EventAnalysisStarted  = "AnalysisStarted"
	EventTextExtracted    = "TextExtracted"
	EventAnalysisFailed   = "AnalysisFailed"
	EventAnalyzed         = "Analyzed"
)

// PipelineEvent is one append-only entry in the event log. Events are
// never edited or deleted; SequenceNumber is assigned by the store.
type PipelineEvent struct {
	ID             string         `json:"id"`
	AggregateType  string         `json:"aggregate_type"`
	AggregateID    string         `json:"aggregate_id"`
	EventType      string         `json:"event_type"`
	Payload        map[string]any `json:"payload"`
	SequenceNumber int64          `json:"sequence_number"`
	CreatedAt      time.Time      `json:"created_at"`
}

func newDocumentEvent(documentID, eventType string, payload map[string]any) PipelineEvent {
	return PipelineEvent{
		AggregateType: AggregateDocument,
		AggregateID:   documentID,
		EventType:     eventType,
		Payload:       payload,
	}
}

func NewDocumentUploaded(doc *Document) PipelineEvent {
	return newDocumentEvent(doc.ID, EventDocumentUploaded, map[string]any{
		"case_id":      doc.CaseID,
		"filename":     doc.Filename,
		"mime_type":    doc.MimeType,
		"size_bytes":   doc.SizeBytes,
		"storage_path": doc.StoragePath,
	})
}

func NewAnalysisStarted(doc *Document, forced bool) PipelineEvent {
	return newDocumentEvent(doc.ID, EventAnalysisStarted, map[string]any{
		"case_id":   doc.CaseID,
		"filename":  doc.Filename,
		"mime_type": doc.MimeType,
		"forced":    forced,
	})
}

func NewTextExtracted(documentID string, extraction *ExtractionResult) PipelineEvent {
	return newDocumentEvent(documentID, EventTextExtracted, map[string]any{
		"text_length":   extraction.TextLength,
		"quality_score": extraction.QualityScore,
		"method":        extraction.Method,
	})
}

func NewAnalysisFailed(documentID, errorType, message string) PipelineEvent {
	return newDocumentEvent(documentID, EventAnalysisFailed, map[string]any{
		"error_type": errorType,
		"error":      message,
	})
}

func NewAnalyzed(documentID string, analysis *AnalysisResult, entities *EntitiesResult, totalCostUSD float64) PipelineEvent {
	mode := "standard"
	if entities.FallbackReason != "" {
		mode = "fallback"
	}
	return newDocumentEvent(documentID, EventAnalyzed, map[string]any{
		"classification": analysis.Classification,
		"confidence":     analysis.Confidence,
		"total_cost_usd": totalCostUSD,
		"analysis_model": analysis.Model,
		"entities_model": entities.Model,
		"mode":           mode,
	})
}
