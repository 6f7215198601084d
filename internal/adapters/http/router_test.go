package httpadapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kirillkom/case-analysis-backend/internal/config"
	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
	"github.com/kirillkom/case-analysis-backend/internal/core/usecase"
)

type fakeDocumentRepo struct {
	docs map[string]*domain.Document
}

func (f *fakeDocumentRepo) Create(_ context.Context, doc *domain.Document) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocumentRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
	}
	return doc, nil
}

func (f *fakeDocumentRepo) ListByIDs(_ context.Context, ids []string) ([]domain.Document, error) {
	out := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := f.docs[id]; ok {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *fakeDocumentRepo) ListByCase(_ context.Context, caseID string, _, _ int) ([]domain.Document, error) {
	out := make([]domain.Document, 0)
	for _, doc := range f.docs {
		if doc.CaseID == caseID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *fakeDocumentRepo) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus) error {
	doc, ok := f.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update status", fmt.Errorf("id=%s", id))
	}
	doc.Status = status
	return nil
}

func (f *fakeDocumentRepo) SaveAnalysis(_ context.Context, id string, status domain.DocumentStatus, meta domain.DocumentMetadata) error {
	doc, ok := f.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "save analysis", fmt.Errorf("id=%s", id))
	}
	doc.Status = status
	doc.Metadata = meta
	return nil
}

type fakeEventStore struct {
	appended []domain.PipelineEvent
}

func (f *fakeEventStore) Append(_ context.Context, event domain.PipelineEvent) error {
	f.appended = append(f.appended, event)
	return nil
}

func (f *fakeEventStore) ListByDocument(_ context.Context, documentID string) ([]domain.PipelineEvent, error) {
	out := make([]domain.PipelineEvent, 0)
	for _, event := range f.appended {
		if event.AggregateID == documentID {
			out = append(out, event)
		}
	}
	return out, nil
}

type fakeObjectStorage struct {
	saved map[string][]byte
}

func (f *fakeObjectStorage) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.saved[key] = raw
	return nil
}

func (f *fakeObjectStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.saved[key]
	if !ok {
		return nil, fmt.Errorf("open %s: no such key", key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type fakeQueue struct {
	published []domain.AnalysisRequest
}

func (f *fakeQueue) PublishAnalysisRequested(_ context.Context, req domain.AnalysisRequest) error {
	f.published = append(f.published, req)
	return nil
}

func (f *fakeQueue) SubscribeAnalysisRequested(context.Context, func(context.Context, domain.AnalysisRequest) error) error {
	return nil
}

type fakeCostTracker struct {
	within    bool
	remaining float64
}

func (f fakeCostTracker) Track(_ context.Context, entry domain.CostEntry) (*domain.CostRecord, error) {
	return &domain.CostRecord{CostUSD: entry.CostUSD}, nil
}

func (f fakeCostTracker) CheckDailyBudget(context.Context) (bool, float64) {
	return f.within, f.remaining
}

type fakeEntityModel struct {
	enabled bool
}

func (f fakeEntityModel) Extract(context.Context, string) (*domain.EntitiesOutput, error) {
	return &domain.EntitiesOutput{}, nil
}

func (f fakeEntityModel) Enabled() bool { return f.enabled }
func (f fakeEntityModel) Model() string { return "fake-entity-model" }

type fakeCostReporter struct {
	summary *domain.CostSummary
	records []domain.CostRecord
	export  []byte
	err     error

	gotDays    int
	gotLimit   int
	gotService string
}

func (f *fakeCostReporter) Summary(_ context.Context, days int) (*domain.CostSummary, error) {
	f.gotDays = days
	if f.err != nil {
		return nil, f.err
	}
	if f.summary == nil {
		return &domain.CostSummary{PeriodDays: days}, nil
	}
	return f.summary, nil
}

func (f *fakeCostReporter) Recent(_ context.Context, limit int, serviceType string) ([]domain.CostRecord, error) {
	f.gotLimit = limit
	f.gotService = serviceType
	return f.records, f.err
}

func (f *fakeCostReporter) ExportXLSX(_ context.Context, days int) ([]byte, error) {
	f.gotDays = days
	return f.export, f.err
}

type routerFixture struct {
	repo     *fakeDocumentRepo
	events   *fakeEventStore
	storage  *fakeObjectStorage
	queue    *fakeQueue
	reporter *fakeCostReporter
}

func (fx *routerFixture) seedDocument(id, caseID string, status domain.DocumentStatus) *domain.Document {
	now := time.Now().UTC()
	doc := &domain.Document{
		ID:        id,
		CaseID:    caseID,
		Filename:  id + ".pdf",
		MimeType:  "application/pdf",
		SizeBytes: 1024,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	fx.repo.docs[id] = doc
	return doc
}

func newTestRouter(cfg config.Config) (*Router, *routerFixture) {
	fx := &routerFixture{
		repo:     &fakeDocumentRepo{docs: map[string]*domain.Document{}},
		events:   &fakeEventStore{},
		storage:  &fakeObjectStorage{saved: map[string][]byte{}},
		queue:    &fakeQueue{},
		reporter: &fakeCostReporter{},
	}

	ingest := usecase.NewIngestDocumentUseCase(fx.repo, fx.events, fx.storage, 50*1024*1024)
	dispatch := usecase.NewDispatchAnalysisUseCase(fx.repo, fx.queue)
	estimate := usecase.NewEstimateCostUseCase(fx.repo, fakeCostTracker{within: true, remaining: 100}, fakeEntityModel{enabled: true})

	return NewRouter(cfg, ingest, fx.repo, fx.events, dispatch, estimate, fx.reporter), fx
}

func newTestHandler(cfg config.Config) (http.Handler, *routerFixture) {
	rt, fx := newTestRouter(cfg)
	return rt.Handler(), fx
}
