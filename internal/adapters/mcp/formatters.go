package mcpadapter

import (
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

// formatDocumentAnalysis formats a document and its analysis as markdown
func formatDocumentAnalysis(doc *domain.Document) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", doc.Filename))
	sb.WriteString(fmt.Sprintf("**ID:** %s\n", doc.ID))
	sb.WriteString(fmt.Sprintf("**Case:** %s\n", doc.CaseID))
	sb.WriteString(fmt.Sprintf("**Status:** %s\n", doc.Status))
	sb.WriteString(fmt.Sprintf("**Size:** %d bytes (%s)\n", doc.SizeBytes, doc.MimeType))
	sb.WriteString(fmt.Sprintf("**Uploaded:** %s\n\n", doc.CreatedAt.Format(time.RFC3339)))

	analysis := doc.Metadata.Analysis
	if analysis == nil {
		sb.WriteString(fmt.Sprintf("No analysis available yet (status: %s).\n", doc.Status))
		if info := doc.Metadata.Processing; info != nil && info.Error != "" {
			sb.WriteString(fmt.Sprintf("Last run failed: %s (%s)\n", info.Error, info.ErrorType))
		}
		return sb.String()
	}

	sb.WriteString("## Analysis\n\n")
	sb.WriteString(fmt.Sprintf("**Classification:** %s (confidence %.2f)\n", analysis.Classification, analysis.Confidence))
	sb.WriteString(fmt.Sprintf("**Model:** %s\n\n", analysis.Model))
	sb.WriteString(analysis.Summary)
	sb.WriteString("\n")
	if len(analysis.KeyPoints) > 0 {
		sb.WriteString("\n**Key points:**\n")
		for _, point := range analysis.KeyPoints {
			sb.WriteString(fmt.Sprintf("- %s\n", point))
		}
	}

	if entities := doc.Metadata.Entities; entities != nil {
		sb.WriteString("\n## Entities\n\n")
		if len(entities.People) > 0 {
			names := make([]string, 0, len(entities.People))
			for _, person := range entities.People {
				if person.Role != "" {
					names = append(names, fmt.Sprintf("%s (%s)", person.Name, person.Role))
				} else {
					names = append(names, person.Name)
				}
			}
			sb.WriteString(fmt.Sprintf("**People:** %s\n", strings.Join(names, ", ")))
		}
		writeEntityLine(&sb, "Dates", entities.Dates)
		writeEntityLine(&sb, "Locations", entities.Locations)
		writeEntityLine(&sb, "Case numbers", entities.CaseNumbers)
		writeEntityLine(&sb, "Organizations", entities.Organizations)
		if entities.FallbackReason != "" {
			sb.WriteString(fmt.Sprintf("Entity extraction fell back: %s\n", entities.FallbackReason))
		}
	}

	if extraction := doc.Metadata.Extraction; extraction != nil {
		sb.WriteString("\n## Extraction\n\n")
		sb.WriteString(fmt.Sprintf("**Method:** %s\n", extraction.Method))
		sb.WriteString(fmt.Sprintf("**Quality score:** %.2f\n", extraction.QualityScore))
		sb.WriteString(fmt.Sprintf("**Text length:** %d characters\n", extraction.TextLength))
	}

	if info := doc.Metadata.Processing; info != nil && info.CompletedAt != nil {
		sb.WriteString("\n## Processing\n\n")
		sb.WriteString(fmt.Sprintf("**Completed:** %s\n", info.CompletedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("**Duration:** %.1fs\n", float64(info.DurationMS)/1000))
		sb.WriteString(fmt.Sprintf("**Total cost:** $%.4f\n", info.TotalCostUSD))
	}

	return sb.String()
}

func writeEntityLine(sb *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("**%s:** %s\n", label, strings.Join(values, ", ")))
}

// formatCaseDocuments formats a case's document list as markdown
func formatCaseDocuments(caseID string, docs []domain.Document) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Documents for case \"%s\" (%d)\n\n", caseID, len(docs)))

	if len(docs) == 0 {
		sb.WriteString("No documents found.\n")
		return sb.String()
	}

	for i, doc := range docs {
		sb.WriteString(fmt.Sprintf("%d. **%s** (%s)\n", i+1, doc.Filename, doc.Status))
		sb.WriteString(fmt.Sprintf("   ID: %s\n", doc.ID))
		sb.WriteString(fmt.Sprintf("   Uploaded: %s\n", doc.CreatedAt.Format(time.RFC3339)))
		if analysis := doc.Metadata.Analysis; analysis != nil {
			sb.WriteString(fmt.Sprintf("   Classification: %s\n", analysis.Classification))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatCostEstimate formats a batch estimate as markdown
func formatCostEstimate(requested int, estimate *domain.CostEstimate) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Analysis Cost Estimate (%d of %d documents found)\n\n", estimate.TotalDocuments, requested))
	sb.WriteString(fmt.Sprintf("**Estimated cost:** $%.5f\n", estimate.EstimatedCostUSD))
	sb.WriteString(fmt.Sprintf("**Estimated time:** %ds\n", estimate.EstimatedTimeSeconds))
	if estimate.WithinBudget {
		sb.WriteString("**Within daily budget:** yes\n")
	} else {
		sb.WriteString("**Within daily budget:** no\n")
	}
	sb.WriteString(fmt.Sprintf("**Remaining budget today:** $%.2f\n", estimate.RemainingBudgetUSD))
	return sb.String()
}
