package domain

import "time"

// Extraction method identifiers recorded in metadata and events.
const (
	MethodPDFTextLayer = "pdf-text-layer"
	MethodDOCX         = "docx"
	MethodOCR          = "tesseract-ocr"
	MethodVision       = "vision-ai"
	MethodVisionFailed = "vision-ai-failed"
)

// StoredTextLimit caps how much extracted text is persisted inside the
// document metadata blob. The full text still feeds the AI clients.
const StoredTextLimit = 10000

// TruncationMarker is appended whenever prompt input had to be cut.
const TruncationMarker = "\n\n[Text truncated due to length...]"

// TruncateWithMarker cuts text to at most max runes and appends the
// truncation marker when anything was cut.
func TruncateWithMarker(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + TruncationMarker
}

// TruncateRunes cuts text to at most max runes without a marker.
func TruncateRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

// ExtractionResult is the normalized output of any extraction path,
// including the vision fallback once normalized by the orchestrator.
// TextLength always refers to the full extracted text even when Text
// itself is stored truncated.
type ExtractionResult struct {
	Text         string         `json:"text"`
	TextLength   int            `json:"text_length"`
	QualityScore float64        `json:"quality_score"`
	Method       string         `json:"method"`
	Details      map[string]any `json:"details,omitempty"`
	ExtractedAt  time.Time      `json:"extracted_at"`
}

type AnalysisResult struct {
	Summary        string   `json:"summary"`
	Classification string   `json:"classification"`
	Confidence     float64  `json:"confidence"`
	KeyPoints      []string `json:"key_points"`
	Model          string   `json:"model"`
}

type Person struct {
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	Confidence float64 `json:"confidence,omitempty"`
}

type EntitiesResult struct {
	People         []Person `json:"people"`
	Dates          []string `json:"dates"`
	Locations      []string `json:"locations"`
	CaseNumbers    []string `json:"case_numbers"`
	Organizations  []string `json:"organizations"`
	Model          string   `json:"model"`
	FallbackReason string   `json:"fallback_reason,omitempty"`
}

// EmptyEntities returns an entity set with all five lists present but
// empty, used for every secondary-model fallback path.
func EmptyEntities(model, fallbackReason string) EntitiesResult {
	return EntitiesResult{
		People:         []Person{},
		Dates:          []string{},
		Locations:      []string{},
		CaseNumbers:    []string{},
		Organizations:  []string{},
		Model:          model,
		FallbackReason: fallbackReason,
	}
}

// AnalysisOutput is what the primary analysis client returns: the
// parsed result plus the usage that prices the call.
type AnalysisOutput struct {
	Result       AnalysisResult
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}

// EntitiesOutput is the secondary entity client's successful return.
type EntitiesOutput struct {
	Result       EntitiesResult
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}

// VisionResult is the structured outcome of a vision fallback attempt.
// Model and parse failures surface as Success=false, never as an error.
type VisionResult struct {
	Success        bool           `json:"success"`
	Text           string         `json:"text"`
	TextLength     int            `json:"text_length"`
	Method         string         `json:"method"`
	Model          string         `json:"model,omitempty"`
	PagesProcessed int            `json:"pages_processed,omitempty"`
	DocumentType   string         `json:"document_type,omitempty"`
	Entities       map[string]any `json:"entities,omitempty"`
	FormFields     map[string]any `json:"form_fields,omitempty"`
	Confidence     float64        `json:"confidence,omitempty"`
	InputTokens    int64          `json:"input_tokens,omitempty"`
	OutputTokens   int64          `json:"output_tokens,omitempty"`
	DurationMS     int64          `json:"duration_ms,omitempty"`
	CostUSD        float64        `json:"cost_usd,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// AnalysisRun is the orchestrator's report of one pipeline run.
// Pipeline-semantic failures land in document status and the event
// log; only infrastructure failures propagate as errors.
type AnalysisRun struct {
	DocumentID   string
	Status       DocumentStatus
	Skipped      bool
	TotalCostUSD float64
	DurationMS   int64
}
