package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/case-analysis-backend/internal/config"
	"github.com/kirillkom/case-analysis-backend/internal/core/ports"
	"github.com/kirillkom/case-analysis-backend/internal/core/usecase"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/budget"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/extractor/doctext"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/graph/neo4j"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/llm/claude"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/llm/openai"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/queue/nats"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/report/xlsx"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/resilience"
	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Repo   ports.DocumentRepository
	Events ports.EventStore
	Queue  ports.MessageQueue
	Costs  *usecase.CostsService

	IngestUC   ports.DocumentIngestor
	DispatchUC ports.AnalysisDispatcher
	EstimateUC ports.CostEstimator

	// AnalyzeUC is concrete so the worker can attach its observer.
	AnalyzeUC *usecase.AnalyzeDocumentUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	events := postgres.NewEventRepository(db)
	costStore := postgres.NewCostRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	costs := usecase.NewCostsService(costStore, budget.NewLedger(), xlsx.NewRenderer(), cfg.DailyBudgetUSD)

	aiPolicy := resilience.AIConfig()
	aiPolicy.RetryMaxAttempts = cfg.AIMaxRetries
	aiExecutor := resilience.NewExecutor(aiPolicy)

	claudeClient := claude.New(cfg.AnthropicAPIKey, aiExecutor)
	analyzer := claude.NewAnalyzer(claudeClient, cfg.AnthropicModel)
	vision := claude.NewVision(claudeClient, claude.VisionConfig{
		Model:        cfg.AnthropicVisionModel,
		MaxPages:     cfg.MaxVisionPages,
		PdftoppmPath: cfg.PdftoppmPath,
		RenderDPI:    cfg.VisionRenderDPI,
	}, doctext.NewRunner())
	entities := openai.New(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		Enabled: cfg.OpenAIEnabled,
		BaseURL: cfg.OpenAIBaseURL,
	}, aiExecutor)

	extractor := doctext.New(doctext.Config{
		TesseractPath: cfg.TesseractPath,
		OCRLanguage:   cfg.OCRLanguage,
	})

	analyzeUC := usecase.NewAnalyzeDocumentUseCase(
		repo, events, storage, extractor, analyzer, entities, vision, costs,
		cfg.QualityThreshold,
	)

	closeGraph := func(context.Context) error { return nil }
	if cfg.Neo4jEnabled {
		graph, err := neo4j.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			queue.Close()
			db.Close()
			return nil, fmt.Errorf("init entity graph: %w", err)
		}
		analyzeUC = analyzeUC.WithEntityGraph(graph)
		closeGraph = graph.Close
	}

	return &App{
		Config: cfg,

		Repo:   repo,
		Events: events,
		Queue:  queue,
		Costs:  costs,

		IngestUC:   usecase.NewIngestDocumentUseCase(repo, events, storage, cfg.MaxUploadBytes),
		DispatchUC: usecase.NewDispatchAnalysisUseCase(repo, queue),
		EstimateUC: usecase.NewEstimateCostUseCase(repo, costs, entities),
		AnalyzeUC:  analyzeUC,

		closeFn: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = closeGraph(shutdownCtx)
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
