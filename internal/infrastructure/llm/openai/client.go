// Package openai is the optional secondary model: structured entity
// extraction over the OpenAI chat completions wire. The pipeline treats
// every failure here as a soft degradation, so the client's job is to
// classify failures precisely rather than to hide them.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/resilience"
)

const (
	entityMaxChars    = 80_000
	entityMaxTokens   = 1000
	entityTemperature = 0.1
)

type Config struct {
	APIKey  string
	Model   string
	Enabled bool

	// BaseURL includes the /v1 prefix. Overridable for tests and
	// API-compatible gateways.
	BaseURL string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) *Client {
	if cfg.Model == "" {
		cfg.Model = domain.DefaultEntityModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// Enabled reports whether the secondary model may be called at all.
// A missing key disables it the same way the config flag does.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.APIKey != ""
}

func (c *Client) Model() string { return c.cfg.Model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
}

type entitiesPayload struct {
	People        []domain.Person `json:"people"`
	Dates         []string        `json:"dates"`
	Locations     []string        `json:"locations"`
	CaseNumbers   []string        `json:"case_numbers"`
	Organizations []string        `json:"organizations"`
}

func (c *Client) Extract(ctx context.Context, text string) (*domain.EntitiesOutput, error) {
	request := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: entitySystemPrompt},
			{Role: "user", Content: buildEntityPrompt(domain.TruncateWithMarker(text, entityMaxChars))},
		},
		Temperature: entityTemperature,
		MaxTokens:   entityMaxTokens,
	}
	request.ResponseFormat.Type = "json_object"

	var response chatResponse
	err := c.executor.Execute(ctx, "openai_extract_entities", func(ctx context.Context) error {
		return c.postChatCompletions(ctx, request, &response)
	}, classifyOpenAIError)
	if err != nil {
		return nil, mapOpenAIError("extract entities", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("extract entities: response has no choices")
	}

	// A reply that is not the requested JSON object still counts as a
	// completed call: empty entities, nothing billed downstream.
	var parsed entitiesPayload
	if err := json.Unmarshal([]byte(response.Choices[0].Message.Content), &parsed); err != nil {
		slog.Error("gpt-4 response not valid json", "error", err)
		return &domain.EntitiesOutput{
			Result: domain.EmptyEntities(c.cfg.Model, ""),
		}, nil
	}

	cost := domain.RoundUSD(domain.EntityRates.Cost(response.Usage.PromptTokens, response.Usage.CompletionTokens), 5)
	slog.Info("gpt-4 entity extraction complete",
		"input_tokens", response.Usage.PromptTokens,
		"output_tokens", response.Usage.CompletionTokens,
		"cost_usd", cost,
	)

	return &domain.EntitiesOutput{
		Result:       parsed.toResult(c.cfg.Model),
		InputTokens:  response.Usage.PromptTokens,
		OutputTokens: response.Usage.CompletionTokens,
		CostUSD:      cost,
	}, nil
}

// toResult fills the five lists, turning absent keys into empty lists.
func (p entitiesPayload) toResult(model string) domain.EntitiesResult {
	result := domain.EntitiesResult{
		People:        p.People,
		Dates:         p.Dates,
		Locations:     p.Locations,
		CaseNumbers:   p.CaseNumbers,
		Organizations: p.Organizations,
		Model:         model,
	}
	if result.People == nil {
		result.People = []domain.Person{}
	}
	if result.Dates == nil {
		result.Dates = []string{}
	}
	if result.Locations == nil {
		result.Locations = []string{}
	}
	if result.CaseNumbers == nil {
		result.CaseNumbers = []string{}
	}
	if result.Organizations == nil {
		result.Organizations = []string{}
	}
	return result
}
