package mcpadapter

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/case-analysis-backend/internal/core/ports"
)

// Server exposes the read side of the pipeline as MCP tools over stdio
// so LLM agents can look up analysis results and price batches without
// going through the HTTP API. All tools are read-only.
type Server struct {
	reader   ports.DocumentReader
	estimate ports.CostEstimator
}

func NewServer(reader ports.DocumentReader, estimate ports.CostEstimator) *Server {
	return &Server{reader: reader, estimate: estimate}
}

// Build assembles the MCP server with all tools registered.
func (s *Server) Build(version string) *server.MCPServer {
	srv := server.NewMCPServer(
		"case-analysis-backend",
		version,
		server.WithToolCapabilities(true),
	)

	srv.AddTool(getDocumentAnalysisTool(), s.getDocumentAnalysis)
	srv.AddTool(listCaseDocumentsTool(), s.listCaseDocuments)
	srv.AddTool(estimateAnalysisCostTool(), s.estimateAnalysisCost)

	return srv
}

// getDocumentAnalysisTool returns the get_document_analysis tool definition
func getDocumentAnalysisTool() mcp.Tool {
	return mcp.NewTool("get_document_analysis",
		mcp.WithDescription("Retrieve a legal document's analysis: summary, classification, extracted entities and processing details"),
		mcp.WithString("document_id",
			mcp.Required(),
			mcp.Description("Document ID (UUID assigned at upload)"),
		),
	)
}

// listCaseDocumentsTool returns the list_case_documents tool definition
func listCaseDocumentsTool() mcp.Tool {
	return mcp.NewTool("list_case_documents",
		mcp.WithDescription("List the documents uploaded under a legal case together with their processing status"),
		mcp.WithString("case_id",
			mcp.Required(),
			mcp.Description("Case identifier the documents were uploaded under"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum documents to return (default: 20, max: 100)"),
		),
	)
}

// estimateAnalysisCostTool returns the estimate_analysis_cost tool definition
func estimateAnalysisCostTool() mcp.Tool {
	return mcp.NewTool("estimate_analysis_cost",
		mcp.WithDescription("Estimate the AI spend and wall time of analyzing a batch of documents before dispatching it"),
		mcp.WithArray("document_ids",
			mcp.Required(),
			mcp.WithStringItems(),
			mcp.Description("Document IDs to include in the estimate"),
		),
	)
}
