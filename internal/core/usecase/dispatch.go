package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
	"github.com/kirillkom/case-analysis-backend/internal/core/ports"
)

// DispatchAnalysisUseCase enqueues analysis work. The worker re-checks
// the skip condition at consume time; checking here as well avoids
// queueing work that is already known to be a no-op.
type DispatchAnalysisUseCase struct {
	repo  ports.DocumentRepository
	queue ports.MessageQueue
}

func NewDispatchAnalysisUseCase(repo ports.DocumentRepository, queue ports.MessageQueue) *DispatchAnalysisUseCase {
	return &DispatchAnalysisUseCase{repo: repo, queue: queue}
}

func (uc *DispatchAnalysisUseCase) Dispatch(ctx context.Context, documentID string, force bool) error {
	if _, err := uc.repo.GetByID(ctx, documentID); err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}
	req := domain.AnalysisRequest{
		DocumentID:  documentID,
		Force:       force,
		RequestedAt: time.Now().UTC(),
	}
	if err := uc.queue.PublishAnalysisRequested(ctx, req); err != nil {
		return fmt.Errorf("publish analysis request: %w", err)
	}
	return nil
}

func (uc *DispatchAnalysisUseCase) DispatchBulk(ctx context.Context, documentIDs []string, force bool) ([]domain.DispatchResult, error) {
	if len(documentIDs) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "dispatch bulk", errors.New("document_ids is empty"))
	}

	results := make([]domain.DispatchResult, 0, len(documentIDs))
	for _, id := range documentIDs {
		doc, err := uc.repo.GetByID(ctx, id)
		switch {
		case domain.IsKind(err, domain.ErrDocumentNotFound):
			results = append(results, domain.DispatchResult{DocumentID: id, Status: domain.DispatchNotFound})
			continue
		case err != nil:
			return nil, fmt.Errorf("fetch document by id: %w", err)
		}

		if doc.Analyzed() && !force {
			results = append(results, domain.DispatchResult{DocumentID: id, Status: domain.DispatchSkipped})
			continue
		}

		req := domain.AnalysisRequest{
			DocumentID:  id,
			Force:       force,
			RequestedAt: time.Now().UTC(),
		}
		if err := uc.queue.PublishAnalysisRequested(ctx, req); err != nil {
			return nil, fmt.Errorf("publish analysis request: %w", err)
		}
		results = append(results, domain.DispatchResult{DocumentID: id, Status: domain.DispatchQueued})
	}
	return results, nil
}
