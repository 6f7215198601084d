package domain

import (
	"errors"
	"testing"
)

func TestWrapErrorKeepsKindAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapError(ErrExtractionFailed, "pdf extract", cause)
	if !IsKind(err, ErrExtractionFailed) {
		t.Fatalf("expected extraction kind, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause preserved, got %v", err)
	}
	if WrapError(ErrExtractionFailed, "pdf extract", nil) != nil {
		t.Fatalf("expected nil passthrough for nil cause")
	}
}

func TestErrorLabelPrefersSpecificCause(t *testing.T) {
	rateLimited := WrapError(ErrAnalysisFailed, "claude analysis",
		WrapError(ErrRateLimited, "messages api", errors.New("429")))
	if got := ErrorLabel(rateLimited); got != "rate_limited" {
		t.Fatalf("expected rate_limited, got %q", got)
	}
	if got := ErrorLabel(WrapError(ErrAnalysisFailed, "claude analysis", errors.New("boom"))); got != "analysis_failed" {
		t.Fatalf("expected analysis_failed, got %q", got)
	}
	if got := ErrorLabel(ErrQualityTooLow); got != "quality_too_low" {
		t.Fatalf("expected quality_too_low, got %q", got)
	}
	if got := ErrorLabel(errors.New("mystery")); got != "internal_error" {
		t.Fatalf("expected internal_error, got %q", got)
	}
	if got := ErrorLabel(nil); got != "" {
		t.Fatalf("expected empty label for nil, got %q", got)
	}
}
