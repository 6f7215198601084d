package claude

import (
	"context"
	"errors"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/resilience"
)

// classifyAnthropicError feeds the retry executor. Every failure is
// worth another attempt under the AI schedule; a rate limit switches to
// the escalating wait.
func classifyAnthropicError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}

	var apiErr *anthropic.Error
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

// mapAnthropicError attaches the domain kind once retries are spent.
func mapAnthropicError(operation string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return domain.WrapError(domain.ErrRateLimited, operation, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.WrapError(domain.ErrUnauthorized, operation, err)
		}
	}
	return err
}
