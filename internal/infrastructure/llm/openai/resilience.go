package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/resilience"
)

// classifyOpenAIError feeds the retry executor. Quota exhaustion also
// arrives as a 429, so it rides the escalating wait until retries are
// spent and mapOpenAIError sorts the two apart.
func classifyOpenAIError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}

	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
			RateLimited:   true,
		}
	}
	return resilience.ErrorClassification{
		Retryable:     true,
		RecordFailure: true,
	}
}

// mapOpenAIError attaches the domain kind once retries are spent. The
// caller uses the kind to pick a fallback reason, so insufficient_quota
// has to win over the plain 429 it is delivered with.
func mapOpenAIError(operation string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == "insufficient_quota":
			return domain.WrapError(domain.ErrQuotaExceeded, operation, err)
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return domain.WrapError(domain.ErrRateLimited, operation, err)
		case apiErr.StatusCode == http.StatusUnauthorized, apiErr.StatusCode == http.StatusForbidden:
			return domain.WrapError(domain.ErrUnauthorized, operation, err)
		}
	}

	// Transport-level failures carry no structured code, so fall back to
	// matching the message the way the provider words it.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"):
		return domain.WrapError(domain.ErrQuotaExceeded, operation, err)
	case strings.Contains(msg, "401"), strings.Contains(msg, "authentication"):
		return domain.WrapError(domain.ErrUnauthorized, operation, err)
	}
	return err
}
