package claude

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

const (
	analysisMaxChars    = 100_000
	analysisMaxTokens   = 1500
	analysisTemperature = 0.3
)

// Analyzer is the primary analysis model: summary, classification and
// key points for one document. Its failure hard-fails the pipeline run.
type Analyzer struct {
	client *Client
	model  string
}

func NewAnalyzer(client *Client, model string) *Analyzer {
	if model == "" {
		model = domain.DefaultPrimaryModel
	}
	return &Analyzer{client: client, model: model}
}

func (a *Analyzer) Model() string { return a.model }

func (a *Analyzer) Analyze(ctx context.Context, text, _ string) (*domain.AnalysisOutput, error) {
	prompt := buildAnalysisPrompt(domain.TruncateWithMarker(text, analysisMaxChars))

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   analysisMaxTokens,
		Temperature: anthropic.Float(analysisTemperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	resp, err := a.client.message(ctx, "claude_analyze", params)
	if err != nil {
		return nil, err
	}

	result := parseAnalysisResponse(messageText(resp))
	result.Model = a.model

	cost := domain.RoundUSD(domain.PrimaryRates.Cost(resp.Usage.InputTokens, resp.Usage.OutputTokens), 5)
	slog.Info("claude analysis complete",
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"cost_usd", cost,
	)

	return &domain.AnalysisOutput{
		Result:       result,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		CostUSD:      cost,
	}, nil
}

// parseAnalysisResponse decodes the JSON between the first "{" and the
// last "}". A reply that cannot be decoded degrades to a stub result
// instead of failing the run; the raw text becomes the summary.
func parseAnalysisResponse(raw string) domain.AnalysisResult {
	var parsed struct {
		Summary        string   `json:"summary"`
		Classification string   `json:"classification"`
		KeyPoints      []string `json:"key_points"`
		Confidence     float64  `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		slog.Error("claude response not valid json", "error", err)
		return domain.AnalysisResult{
			Summary:        domain.TruncateRunes(raw, 500),
			Classification: "Unknown",
			KeyPoints:      []string{"Analysis completed but response format was unexpected"},
			Confidence:     0.5,
		}
	}
	if parsed.KeyPoints == nil {
		parsed.KeyPoints = []string{}
	}
	return domain.AnalysisResult{
		Summary:        parsed.Summary,
		Classification: parsed.Classification,
		KeyPoints:      parsed.KeyPoints,
		Confidence:     parsed.Confidence,
	}
}
