package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
	"github.com/kirillkom/case-analysis-backend/internal/core/ports"
)

const (
	// estimateSecondsPerDocument is the rough per-document wall time
	// used for the batch time estimate.
	estimateSecondsPerDocument = 30

	// estimateDefaultTextLength stands in for documents that have not
	// been extracted yet.
	estimateDefaultTextLength = 500
)

type EstimateCostUseCase struct {
	repo     ports.DocumentRepository
	costs    ports.CostTracker
	entities ports.EntityModel
}

func NewEstimateCostUseCase(repo ports.DocumentRepository, costs ports.CostTracker, entities ports.EntityModel) *EstimateCostUseCase {
	return &EstimateCostUseCase{repo: repo, costs: costs, entities: entities}
}

// EstimateBatch prices a planned batch before any paid call is made.
// Budget is advisory: the answer never blocks a later analyze request.
func (uc *EstimateCostUseCase) EstimateBatch(ctx context.Context, documentIDs []string) (*domain.CostEstimate, error) {
	if len(documentIDs) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "estimate batch", errors.New("document_ids is empty"))
	}

	docs, err := uc.repo.ListByIDs(ctx, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	secondaryEnabled := uc.entities.Enabled()
	var total float64
	for _, doc := range docs {
		textLength := estimateDefaultTextLength
		if doc.Metadata.Extraction != nil && doc.Metadata.Extraction.TextLength > 0 {
			textLength = doc.Metadata.Extraction.TextLength
		}
		total += domain.EstimateAnalysisCost(textLength, secondaryEnabled)
	}

	within, remaining := uc.costs.CheckDailyBudget(ctx)
	return &domain.CostEstimate{
		TotalDocuments:       len(docs),
		EstimatedCostUSD:     domain.RoundUSD(total, 5),
		EstimatedTimeSeconds: len(docs) * estimateSecondsPerDocument,
		WithinBudget:         within,
		RemainingBudgetUSD:   remaining,
	}, nil
}
