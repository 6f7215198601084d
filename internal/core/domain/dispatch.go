package domain

import "time"

// AnalysisRequest is the queue message that triggers one pipeline run.
// RequestedAt is stamped at publish time so the worker can report queue
// lag.
type AnalysisRequest struct {
	DocumentID  string    `json:"document_id"`
	Force       bool      `json:"force"`
	RequestedAt time.Time `json:"requested_at"`
}

// Dispatch outcome labels for bulk analyze responses.
const (
	DispatchQueued   = "queued"
	DispatchSkipped  = "skipped"
	DispatchNotFound = "not_found"
)

type DispatchResult struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

// CostEstimate is the pre-flight answer to "what would analyzing these
// documents cost". Budget here is advisory only; nothing blocks an
// over-budget run.
type CostEstimate struct {
	TotalDocuments       int     `json:"total_documents"`
	EstimatedCostUSD     float64 `json:"estimated_cost_usd"`
	EstimatedTimeSeconds int     `json:"estimated_time_seconds"`
	WithinBudget         bool    `json:"within_budget"`
	RemainingBudgetUSD   float64 `json:"remaining_budget_usd"`
}
