package mcpadapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

// getDocumentAnalysis implements the get_document_analysis tool
func (s *Server) getDocumentAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	documentID, err := request.RequireString("document_id")
	if err != nil || documentID == "" {
		return toolError("document_id parameter is required"), nil
	}

	doc, err := s.reader.GetByID(ctx, documentID)
	if err != nil {
		if domain.IsKind(err, domain.ErrDocumentNotFound) {
			return toolError(fmt.Sprintf("document %s not found", documentID)), nil
		}
		slog.Error("mcp document lookup failed", "document_id", documentID, "error", err)
		return toolError(fmt.Sprintf("document lookup failed: %v", err)), nil
	}

	return toolText(formatDocumentAnalysis(doc)), nil
}

// listCaseDocuments implements the list_case_documents tool
func (s *Server) listCaseDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	caseID, err := request.RequireString("case_id")
	if err != nil || caseID == "" {
		return toolError("case_id parameter is required"), nil
	}

	limit := request.GetInt("limit", 20)
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	docs, err := s.reader.ListByCase(ctx, caseID, limit, 0)
	if err != nil {
		slog.Error("mcp case listing failed", "case_id", caseID, "error", err)
		return toolError(fmt.Sprintf("listing failed: %v", err)), nil
	}

	return toolText(formatCaseDocuments(caseID, docs)), nil
}

// estimateAnalysisCost implements the estimate_analysis_cost tool
func (s *Server) estimateAnalysisCost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	documentIDs := request.GetStringSlice("document_ids", nil)
	if len(documentIDs) == 0 {
		return toolError("document_ids parameter is required"), nil
	}

	estimate, err := s.estimate.EstimateBatch(ctx, documentIDs)
	if err != nil {
		if domain.IsKind(err, domain.ErrInvalidInput) {
			return toolError(fmt.Sprintf("invalid request: %v", err)), nil
		}
		slog.Error("mcp cost estimate failed", "documents", len(documentIDs), "error", err)
		return toolError(fmt.Sprintf("estimate failed: %v", err)), nil
	}

	return toolText(formatCostEstimate(len(documentIDs), estimate)), nil
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

func toolError(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent("Error: " + message)},
	}
}
