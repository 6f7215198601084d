package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

type queueFake struct {
	published  []domain.AnalysisRequest
	publishErr error
}

func (f *queueFake) PublishAnalysisRequested(_ context.Context, req domain.AnalysisRequest) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, req)
	return nil
}

func (f *queueFake) SubscribeAnalysisRequested(context.Context, func(context.Context, domain.AnalysisRequest) error) error {
	return nil
}

func TestDispatchPublishesRequest(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1", CaseID: "case-1", Status: domain.StatusUploaded}}
	queue := &queueFake{}
	uc := NewDispatchAnalysisUseCase(repo, queue)

	if err := uc.Dispatch(context.Background(), "doc-1", true); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(queue.published) != 1 {
		t.Fatalf("expected one published request, got %d", len(queue.published))
	}
	req := queue.published[0]
	if req.DocumentID != "doc-1" || !req.Force {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.RequestedAt.IsZero() {
		t.Fatalf("requested_at must be stamped at publish time")
	}
}

func TestDispatchUnknownDocument(t *testing.T) {
	repo := &repoFake{}
	queue := &queueFake{}
	uc := NewDispatchAnalysisUseCase(repo, queue)

	err := uc.Dispatch(context.Background(), "missing", false)
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("got %v, want document not found", err)
	}
	if len(queue.published) != 0 {
		t.Fatalf("unknown documents must not be queued")
	}
}

func TestDispatchBulkMixedResults(t *testing.T) {
	analyzed := &domain.Document{
		ID:     "doc-1",
		Status: domain.StatusAnalysisComplete,
		Metadata: domain.DocumentMetadata{
			Analysis: &domain.AnalysisResult{Classification: "Contract"},
		},
	}
	repo := &repoFake{doc: analyzed}
	queue := &queueFake{}
	uc := NewDispatchAnalysisUseCase(repo, queue)

	results, err := uc.DispatchBulk(context.Background(), []string{"doc-1", "missing"}, false)
	if err != nil {
		t.Fatalf("DispatchBulk() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Status != domain.DispatchSkipped {
		t.Fatalf("analyzed document status = %s", results[0].Status)
	}
	if results[1].Status != domain.DispatchNotFound {
		t.Fatalf("missing document status = %s", results[1].Status)
	}
	if len(queue.published) != 0 {
		t.Fatalf("nothing should be queued, got %d", len(queue.published))
	}
}

func TestDispatchBulkForceQueuesAnalyzed(t *testing.T) {
	analyzed := &domain.Document{
		ID:     "doc-1",
		Status: domain.StatusAnalysisComplete,
		Metadata: domain.DocumentMetadata{
			Analysis: &domain.AnalysisResult{Classification: "Contract"},
		},
	}
	repo := &repoFake{doc: analyzed}
	queue := &queueFake{}
	uc := NewDispatchAnalysisUseCase(repo, queue)

	results, err := uc.DispatchBulk(context.Background(), []string{"doc-1"}, true)
	if err != nil {
		t.Fatalf("DispatchBulk() error = %v", err)
	}
	if results[0].Status != domain.DispatchQueued {
		t.Fatalf("forced dispatch status = %s", results[0].Status)
	}
	if len(queue.published) != 1 || !queue.published[0].Force {
		t.Fatalf("expected one forced request, got %+v", queue.published)
	}
}

func TestDispatchBulkEmptyInput(t *testing.T) {
	uc := NewDispatchAnalysisUseCase(&repoFake{}, &queueFake{})

	_, err := uc.DispatchBulk(context.Background(), nil, false)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("got %v, want invalid input", err)
	}
}

func TestDispatchBulkPublishFailureSurfaces(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1", Status: domain.StatusUploaded}}
	queue := &queueFake{publishErr: errors.New("nats down")}
	uc := NewDispatchAnalysisUseCase(repo, queue)

	if _, err := uc.DispatchBulk(context.Background(), []string{"doc-1"}, false); err == nil {
		t.Fatalf("broker failure must surface")
	}
}
