package claude

import (
	"fmt"
	"strings"
)

func buildAnalysisPrompt(text string) string {
	return fmt.Sprintf(`You are analyzing a legal document. Please provide:

1. A concise summary (3-5 sentences) of the document's content and purpose
2. Classification of the document type (e.g., Chargesheet, FIR, Court Order, Affidavit, Evidence Document, Legal Notice, etc.)
3. 3-5 key points or important facts from the document
4. Your confidence level in the classification (0-1 scale)

Document text:
%s

Please respond in the following JSON format:
{
    "summary": "Your 3-5 sentence summary here",
    "classification": "Document type",
    "key_points": ["Point 1", "Point 2", "Point 3"],
    "confidence": 0.95
}`, text)
}

const visionSystemPrompt = `You are an expert document analyst specializing in legal documents.
Extract ALL text, data, and information from the provided document images with high accuracy.

For each document, extract:
1. Full text content (preserve formatting, layout, structure)
2. Key entities: names, dates, case numbers, locations, organizations
3. Document metadata: type, title, parties involved
4. Form fields: labels and values
5. Handwritten content (if any)

Return results as valid JSON.`

func buildVisionPrompt(documentType string) string {
	if documentType == "" {
		documentType = "legal"
	}
	return fmt.Sprintf(`Analyze this %s document and extract information.

CRITICAL: Return ONLY valid JSON. Do not include any markdown formatting, code blocks, or explanatory text.

Extract:
- Complete text content (preserve all text from the document)
- Names of people and their roles
- Important dates
- Case/file numbers
- Locations
- Organizations/companies
- Any form fields and their values

Return this exact JSON structure:
{
    "text": "full extracted text...",
    "document_type": "type classification",
    "entities": {
        "people": [{"name": "...", "role": "..."}],
        "dates": ["..."],
        "case_numbers": ["..."],
        "locations": ["..."],
        "organizations": ["..."]
    },
    "form_fields": {"field_name": "value"},
    "confidence": 0.0-1.0
}

Remember: Return ONLY the JSON object, nothing else.`, documentType)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
