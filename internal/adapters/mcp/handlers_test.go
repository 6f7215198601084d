package mcpadapter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

type fakeReader struct {
	docs     map[string]*domain.Document
	byCase   map[string][]domain.Document
	gotLimit int
}

func (f *fakeReader) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New(id))
	}
	return doc, nil
}

func (f *fakeReader) ListByCase(_ context.Context, caseID string, limit, _ int) ([]domain.Document, error) {
	f.gotLimit = limit
	return f.byCase[caseID], nil
}

type fakeEstimator struct {
	estimate *domain.CostEstimate
	err      error
	gotIDs   []string
}

func (f *fakeEstimator) EstimateBatch(_ context.Context, documentIDs []string) (*domain.CostEstimate, error) {
	f.gotIDs = documentIDs
	if f.err != nil {
		return nil, f.err
	}
	return f.estimate, nil
}

func toolRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("expected tool result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func analyzedDocument() *domain.Document {
	completed := time.Date(2025, 4, 2, 10, 30, 0, 0, time.UTC)
	started := completed.Add(-14 * time.Second)
	return &domain.Document{
		ID:        "doc-1",
		CaseID:    "case-legal-1",
		Filename:  "contract.pdf",
		MimeType:  "application/pdf",
		SizeBytes: 2048,
		Status:    domain.StatusAnalysisComplete,
		CreatedAt: started,
		UpdatedAt: completed,
		Metadata: domain.DocumentMetadata{
			Extraction: &domain.ExtractionResult{
				TextLength:   40_000,
				QualityScore: 0.91,
				Method:       domain.MethodPDFTextLayer,
			},
			Analysis: &domain.AnalysisResult{
				Summary:        "Lease agreement between two parties.",
				Classification: "Contract",
				Confidence:     0.93,
				KeyPoints:      []string{"12 month term", "monthly rent due on the 1st"},
				Model:          domain.DefaultPrimaryModel,
			},
			Entities: &domain.EntitiesResult{
				People:      []domain.Person{{Name: "Jane Roe", Role: "lessor"}},
				Dates:       []string{"2025-04-01"},
				CaseNumbers: []string{"A-123/2025"},
			},
			Processing: &domain.ProcessingInfo{
				StartedAt:    &started,
				CompletedAt:  &completed,
				DurationMS:   14_000,
				TotalCostUSD: 0.0123,
			},
		},
	}
}

func TestGetDocumentAnalysisRequiresDocumentID(t *testing.T) {
	srv := NewServer(&fakeReader{}, &fakeEstimator{})

	result, err := srv.getDocumentAnalysis(context.Background(), toolRequest("get_document_analysis", map[string]any{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "document_id parameter is required") {
		t.Fatalf("unexpected result: %q", text)
	}
}

func TestGetDocumentAnalysisUnknownDocument(t *testing.T) {
	srv := NewServer(&fakeReader{docs: map[string]*domain.Document{}}, &fakeEstimator{})

	result, err := srv.getDocumentAnalysis(context.Background(), toolRequest("get_document_analysis", map[string]any{
		"document_id": "doc-missing",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "document doc-missing not found") {
		t.Fatalf("unexpected result: %q", text)
	}
}

func TestGetDocumentAnalysisFormatsAnalyzedDocument(t *testing.T) {
	doc := analyzedDocument()
	srv := NewServer(&fakeReader{docs: map[string]*domain.Document{doc.ID: doc}}, &fakeEstimator{})

	result, err := srv.getDocumentAnalysis(context.Background(), toolRequest("get_document_analysis", map[string]any{
		"document_id": "doc-1",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{
		"# contract.pdf",
		"**Classification:** Contract (confidence 0.93)",
		"- 12 month term",
		"**People:** Jane Roe (lessor)",
		"**Case numbers:** A-123/2025",
		"**Method:** " + domain.MethodPDFTextLayer,
		"**Total cost:** $0.0123",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}
}

func TestGetDocumentAnalysisPendingDocument(t *testing.T) {
	doc := &domain.Document{
		ID:       "doc-2",
		CaseID:   "case-legal-1",
		Filename: "scan.pdf",
		Status:   domain.StatusProcessing,
	}
	srv := NewServer(&fakeReader{docs: map[string]*domain.Document{doc.ID: doc}}, &fakeEstimator{})

	result, err := srv.getDocumentAnalysis(context.Background(), toolRequest("get_document_analysis", map[string]any{
		"document_id": "doc-2",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "No analysis available yet (status: processing)") {
		t.Fatalf("unexpected result: %q", text)
	}
}

func TestGetDocumentAnalysisReportsFailedRun(t *testing.T) {
	doc := &domain.Document{
		ID:       "doc-3",
		CaseID:   "case-legal-1",
		Filename: "blurry.pdf",
		Status:   domain.StatusExtractionFailed,
		Metadata: domain.DocumentMetadata{
			Processing: &domain.ProcessingInfo{
				Error:     "text extraction failed: no pages",
				ErrorType: "extraction_failed",
			},
		},
	}
	srv := NewServer(&fakeReader{docs: map[string]*domain.Document{doc.ID: doc}}, &fakeEstimator{})

	result, err := srv.getDocumentAnalysis(context.Background(), toolRequest("get_document_analysis", map[string]any{
		"document_id": "doc-3",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "status: extraction_failed") {
		t.Fatalf("result missing failed status: %q", text)
	}
	if !strings.Contains(text, "Last run failed: text extraction failed: no pages (extraction_failed)") {
		t.Fatalf("result missing failure detail: %q", text)
	}
}

func TestListCaseDocumentsFormatsList(t *testing.T) {
	analyzed := analyzedDocument()
	reader := &fakeReader{byCase: map[string][]domain.Document{
		"case-legal-1": {
			*analyzed,
			{ID: "doc-2", CaseID: "case-legal-1", Filename: "scan.pdf", Status: domain.StatusUploaded},
		},
	}}
	srv := NewServer(reader, &fakeEstimator{})

	result, err := srv.listCaseDocuments(context.Background(), toolRequest("list_case_documents", map[string]any{
		"case_id": "case-legal-1",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{
		`## Documents for case "case-legal-1" (2)`,
		"1. **contract.pdf** (analysis_complete)",
		"   Classification: Contract",
		"2. **scan.pdf** (uploaded)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}
	if reader.gotLimit != 20 {
		t.Fatalf("default limit = %d, want 20", reader.gotLimit)
	}
}

func TestListCaseDocumentsClampsLimit(t *testing.T) {
	reader := &fakeReader{}
	srv := NewServer(reader, &fakeEstimator{})

	if _, err := srv.listCaseDocuments(context.Background(), toolRequest("list_case_documents", map[string]any{
		"case_id": "case-legal-1",
		"limit":   float64(500),
	})); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if reader.gotLimit != 100 {
		t.Fatalf("limit = %d, want 100", reader.gotLimit)
	}
}

func TestListCaseDocumentsRequiresCaseID(t *testing.T) {
	srv := NewServer(&fakeReader{}, &fakeEstimator{})

	result, err := srv.listCaseDocuments(context.Background(), toolRequest("list_case_documents", map[string]any{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "case_id parameter is required") {
		t.Fatalf("unexpected result: %q", text)
	}
}

func TestEstimateAnalysisCostFormatsEstimate(t *testing.T) {
	estimator := &fakeEstimator{estimate: &domain.CostEstimate{
		TotalDocuments:       2,
		EstimatedCostUSD:     0.0123,
		EstimatedTimeSeconds: 60,
		WithinBudget:         true,
		RemainingBudgetUSD:   99.5,
	}}
	srv := NewServer(&fakeReader{}, estimator)

	result, err := srv.estimateAnalysisCost(context.Background(), toolRequest("estimate_analysis_cost", map[string]any{
		"document_ids": []any{"doc-1", "doc-2", "doc-missing"},
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{
		"## Analysis Cost Estimate (2 of 3 documents found)",
		"**Estimated cost:** $0.01230",
		"**Estimated time:** 60s",
		"**Within daily budget:** yes",
		"**Remaining budget today:** $99.50",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}
	if len(estimator.gotIDs) != 3 {
		t.Fatalf("estimator got %d ids, want 3", len(estimator.gotIDs))
	}
}

func TestEstimateAnalysisCostRequiresIDs(t *testing.T) {
	srv := NewServer(&fakeReader{}, &fakeEstimator{})

	result, err := srv.estimateAnalysisCost(context.Background(), toolRequest("estimate_analysis_cost", map[string]any{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "document_ids parameter is required") {
		t.Fatalf("unexpected result: %q", text)
	}
}
