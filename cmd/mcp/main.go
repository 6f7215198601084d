package main

import (
	"log"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/case-analysis-backend/internal/adapters/mcp"
	"github.com/kirillkom/case-analysis-backend/internal/config"
	"github.com/kirillkom/case-analysis-backend/internal/core/usecase"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/budget"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/llm/openai"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/report/xlsx"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/resilience"
	"github.com/kirillkom/case-analysis-backend/internal/observability/logging"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	// stdout carries the MCP protocol stream, so logs go to stderr.
	slog.SetDefault(logging.NewStderrLogger("mcp", cfg.LogLevel))

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	defer db.Close()

	repo := postgres.NewDocumentRepository(db)
	costs := usecase.NewCostsService(
		postgres.NewCostRepository(db),
		budget.NewLedger(),
		xlsx.NewRenderer(),
		cfg.DailyBudgetUSD,
	)
	entities := openai.New(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		Enabled: cfg.OpenAIEnabled,
		BaseURL: cfg.OpenAIBaseURL,
	}, resilience.NewExecutor(resilience.AIConfig()))
	estimate := usecase.NewEstimateCostUseCase(repo, costs, entities)

	srv := mcpadapter.NewServer(repo, estimate).Build(version)
	if err := server.ServeStdio(srv); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
