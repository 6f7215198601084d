package domain

import (
	"math"
	"time"
)

type ServiceType string

const (
	ServiceTextAnalysis     ServiceType = "text_analysis"
	ServiceEntityExtraction ServiceType = "entity_extraction"
	ServiceVisionAI         ServiceType = "vision_ai"
)

// Default model identifiers. Overridable through configuration; the
// per-million-token rates below stay tied to the service class.
const (
	DefaultPrimaryModel = "claude-3-5-haiku-20241022"
	DefaultEntityModel  = "gpt-4-turbo-preview"
	DefaultVisionModel  = "claude-sonnet-4-20250514"
)

// ModelRates holds USD prices per one million tokens.
type ModelRates struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

var (
	PrimaryRates = ModelRates{InputPerMTok: 0.80, OutputPerMTok: 4.00}
	EntityRates  = ModelRates{InputPerMTok: 10.00, OutputPerMTok: 30.00}
	VisionRates  = ModelRates{InputPerMTok: 3.00, OutputPerMTok: 15.00}
)

// Cost prices a call from its reported token usage.
func (r ModelRates) Cost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/1_000_000*r.InputPerMTok +
		float64(outputTokens)/1_000_000*r.OutputPerMTok
}

// RoundUSD rounds an amount to the given number of decimal places.
func RoundUSD(amount float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(amount*pow) / pow
}

// EstimateAnalysisCost estimates the USD cost of running the text
// pipeline over text of the given length, assuming roughly four
// characters per token, around 500 output tokens from the primary
// model and 300 from the secondary when it is enabled.
func EstimateAnalysisCost(textLength int, secondaryEnabled bool) float64 {
	tokens := int64(textLength / 4)
	estimate := PrimaryRates.Cost(tokens, 500)
	if secondaryEnabled {
		estimate += EntityRates.Cost(tokens, 300)
	}
	return RoundUSD(estimate, 5)
}

// CostEntry is the tracker's input: one paid call attempt that reached
// a terminal outcome, successful or not.
type CostEntry struct {
	DocumentID   string
	CaseID       string
	ServiceType  ServiceType
	ModelName    string
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
	DurationMS   int64
	Success      bool
	ErrorMessage string
	ExtraData    map[string]any
}

// CostRecord is the persisted form. CostUSD round-trips with six
// decimal digits of precision.
type CostRecord struct {
	ID           string         `json:"id"`
	DocumentID   string         `json:"document_id,omitempty"`
	CaseID       string         `json:"case_id,omitempty"`
	ServiceType  ServiceType    `json:"service_type"`
	ModelName    string         `json:"model_name"`
	InputTokens  int64          `json:"input_tokens"`
	OutputTokens int64          `json:"output_tokens"`
	CostUSD      float64        `json:"cost_usd"`
	DurationMS   int64          `json:"duration_ms"`
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"error_message,omitempty"`
	ExtraData    map[string]any `json:"extra_data,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// CostSummary aggregates spend over a reporting window.
type CostSummary struct {
	PeriodDays   int                 `json:"period_days"`
	SinceDate    time.Time           `json:"since_date"`
	TotalCostUSD float64             `json:"total_cost_usd"`
	ByService    []ServiceCostTotals `json:"costs_by_service"`
	ByModel      []ModelCostTotals   `json:"costs_by_model"`
	Daily        []DailyCostTotals   `json:"daily_breakdown"`
}

type ServiceCostTotals struct {
	ServiceType  ServiceType `json:"service_type"`
	TotalCostUSD float64     `json:"total_cost_usd"`
	RequestCount int64       `json:"request_count"`
	InputTokens  int64       `json:"total_input_tokens"`
	OutputTokens int64       `json:"total_output_tokens"`
}

type ModelCostTotals struct {
	ModelName    string  `json:"model_name"`
	TotalCostUSD float64 `json:"total_cost_usd"`
	RequestCount int64   `json:"request_count"`
}

type DailyCostTotals struct {
	Date         string  `json:"date"`
	TotalCostUSD float64 `json:"total_cost_usd"`
	RequestCount int64   `json:"request_count"`
}
