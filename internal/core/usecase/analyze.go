package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
	"github.com/kirillkom/case-analysis-backend/internal/core/ports"
)

// PipelineObserver receives pipeline telemetry. Implementations must be
// cheap and non-blocking; a nil observer disables observation.
type PipelineObserver interface {
	RunStarted()
	RunFinished(status domain.DocumentStatus, skipped bool, duration time.Duration)
	StageObserved(stage string, duration time.Duration)
	AICallObserved(service domain.ServiceType, model string, inputTokens, outputTokens int64, costUSD float64, success bool)
}

// AnalyzeDocumentUseCase drives one document through the analysis
// pipeline: extract, quality-gate with vision fallback, primary
// analysis, secondary entities, consolidated persist. Pipeline-semantic
// failures land in document status and the event log; the returned
// error is reserved for infrastructure faults while recording outcomes.
type AnalyzeDocumentUseCase struct {
	repo      ports.DocumentRepository
	events    ports.EventStore
	storage   ports.ObjectStorage
	extractor ports.TextExtractor
	analyzer  ports.AnalysisModel
	entities  ports.EntityModel
	vision    ports.VisionAnalyzer
	costs     ports.CostTracker

	graph    ports.EntityGraph
	observer PipelineObserver

	qualityThreshold float64
}

func NewAnalyzeDocumentUseCase(
	repo ports.DocumentRepository,
	events ports.EventStore,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	analyzer ports.AnalysisModel,
	entities ports.EntityModel,
	vision ports.VisionAnalyzer,
	costs ports.CostTracker,
	qualityThreshold float64,
) *AnalyzeDocumentUseCase {
	return &AnalyzeDocumentUseCase{
		repo:             repo,
		events:           events,
		storage:          storage,
		extractor:        extractor,
		analyzer:         analyzer,
		entities:         entities,
		vision:           vision,
		costs:            costs,
		qualityThreshold: qualityThreshold,
	}
}

// WithEntityGraph enables best-effort graph projection after a
// successful run.
func (uc *AnalyzeDocumentUseCase) WithEntityGraph(graph ports.EntityGraph) *AnalyzeDocumentUseCase {
	uc.graph = graph
	return uc
}

// WithObserver attaches pipeline telemetry.
func (uc *AnalyzeDocumentUseCase) WithObserver(observer PipelineObserver) *AnalyzeDocumentUseCase {
	uc.observer = observer
	return uc
}

func (uc *AnalyzeDocumentUseCase) AnalyzeByID(ctx context.Context, documentID string, force bool) (*domain.AnalysisRun, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}

	if doc.Analyzed() && !force {
		slog.Info("analysis skipped", "document_id", doc.ID, "status", doc.Status)
		uc.observeRun(doc.Status, true, 0)
		return &domain.AnalysisRun{DocumentID: doc.ID, Status: doc.Status, Skipped: true}, nil
	}

	started := time.Now().UTC()
	if uc.observer != nil {
		uc.observer.RunStarted()
	}

	uc.appendEvent(ctx, domain.NewAnalysisStarted(doc, force))
	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusProcessing); err != nil {
		uc.observeRun(domain.StatusProcessing, false, time.Since(started))
		return nil, fmt.Errorf("set status=processing: %w", err)
	}
	doc.Status = domain.StatusProcessing

	run, err := uc.runPipeline(ctx, doc, started)
	if err != nil {
		uc.observeRun(domain.StatusProcessing, false, time.Since(started))
		return nil, err
	}
	uc.observeRun(run.Status, false, time.Since(started))
	return run, nil
}

func (uc *AnalyzeDocumentUseCase) runPipeline(ctx context.Context, doc *domain.Document, started time.Time) (*domain.AnalysisRun, error) {
	meta := domain.DocumentMetadata{}
	var totalCost float64

	downloadStarted := time.Now()
	localPath, cleanup, err := uc.downloadToTemp(ctx, doc)
	if err != nil {
		return uc.failRun(ctx, doc, started, meta, totalCost, domain.StatusExtractionFailed,
			domain.WrapError(domain.ErrExtractionFailed, "download source document", err))
	}
	defer cleanup()
	uc.observeStage("download", downloadStarted)

	extractStarted := time.Now()
	extraction, err := uc.extractor.Extract(ctx, localPath, doc.MimeType)
	uc.observeStage("extract", extractStarted)
	if err != nil {
		return uc.failRun(ctx, doc, started, meta, totalCost, domain.StatusExtractionFailed, err)
	}
	meta.Extraction = extraction
	uc.appendEvent(ctx, domain.NewTextExtracted(doc.ID, extraction))

	if extraction.QualityScore < uc.qualityThreshold {
		visionStarted := time.Now()
		vision := uc.vision.Analyze(ctx, localPath)
		uc.observeStage("vision", visionStarted)
		uc.trackCost(ctx, doc, visionCostEntry(vision))

		if !vision.Success {
			cause := domain.WrapError(domain.ErrQualityTooLow, "quality gate",
				fmt.Errorf("score %.2f below threshold %.2f; vision fallback: %s",
					extraction.QualityScore, uc.qualityThreshold, vision.Error))
			return uc.failRun(ctx, doc, started, meta, totalCost, domain.StatusPoorQuality, cause)
		}

		slog.Info("vision fallback replaced extraction",
			"document_id", doc.ID,
			"pages_processed", vision.PagesProcessed,
			"text_length", vision.TextLength,
		)
		meta.Extraction = visionExtraction(vision)
		totalCost += vision.CostUSD
	}

	// Full text feeds the AI clients; the stored copy is truncated later.
	text := meta.Extraction.Text

	analyzeStarted := time.Now()
	analysis, err := uc.analyzer.Analyze(ctx, text, "")
	analyzeDuration := time.Since(analyzeStarted)
	uc.observeStage("analyze", analyzeStarted)
	if err != nil {
		uc.trackCost(ctx, doc, domain.CostEntry{
			ServiceType:  domain.ServiceTextAnalysis,
			ModelName:    uc.analyzer.Model(),
			DurationMS:   analyzeDuration.Milliseconds(),
			Success:      false,
			ErrorMessage: err.Error(),
		})
		return uc.failRun(ctx, doc, started, meta, totalCost, domain.StatusExtractionFailed,
			domain.WrapError(domain.ErrAnalysisFailed, "primary analysis", err))
	}
	uc.trackCost(ctx, doc, domain.CostEntry{
		ServiceType:  domain.ServiceTextAnalysis,
		ModelName:    analysis.Result.Model,
		InputTokens:  analysis.InputTokens,
		OutputTokens: analysis.OutputTokens,
		CostUSD:      analysis.CostUSD,
		DurationMS:   analyzeDuration.Milliseconds(),
		Success:      true,
	})
	meta.Analysis = &analysis.Result
	totalCost += analysis.CostUSD

	entitiesResult, entitiesCost := uc.extractEntities(ctx, doc, text)
	meta.Entities = &entitiesResult
	totalCost += entitiesCost

	completed := time.Now().UTC()
	meta.Processing = &domain.ProcessingInfo{
		StartedAt:    &started,
		CompletedAt:  &completed,
		DurationMS:   completed.Sub(started).Milliseconds(),
		TotalCostUSD: domain.RoundUSD(totalCost, 5),
	}
	meta.Extraction.Text = domain.TruncateRunes(meta.Extraction.Text, domain.StoredTextLimit)

	if err := uc.repo.SaveAnalysis(ctx, doc.ID, domain.StatusAnalysisComplete, meta); err != nil {
		return nil, fmt.Errorf("persist analysis outcome: %w", err)
	}
	uc.appendEvent(ctx, domain.NewAnalyzed(doc.ID, meta.Analysis, meta.Entities, meta.Processing.TotalCostUSD))
	uc.projectGraph(ctx, doc, meta.Entities)

	slog.Info("analysis complete",
		"document_id", doc.ID,
		"classification", meta.Analysis.Classification,
		"total_cost_usd", meta.Processing.TotalCostUSD,
		"duration_ms", meta.Processing.DurationMS,
	)
	return &domain.AnalysisRun{
		DocumentID:   doc.ID,
		Status:       domain.StatusAnalysisComplete,
		TotalCostUSD: meta.Processing.TotalCostUSD,
		DurationMS:   meta.Processing.DurationMS,
	}, nil
}

// extractEntities runs the optional secondary model. Every failure
// degrades to an empty entity set with a recorded reason; nothing here
// stops the pipeline.
func (uc *AnalyzeDocumentUseCase) extractEntities(ctx context.Context, doc *domain.Document, text string) (domain.EntitiesResult, float64) {
	if !uc.entities.Enabled() {
		slog.Info("entity extraction disabled", "document_id", doc.ID)
		return domain.EmptyEntities("disabled", "GPT-4 disabled via OPENAI_ENABLED config"), 0
	}

	entitiesStarted := time.Now()
	output, err := uc.entities.Extract(ctx, text)
	uc.observeStage("extract_entities", entitiesStarted)
	if err != nil {
		uc.trackCost(ctx, doc, domain.CostEntry{
			ServiceType:  domain.ServiceEntityExtraction,
			ModelName:    uc.entities.Model(),
			DurationMS:   time.Since(entitiesStarted).Milliseconds(),
			Success:      false,
			ErrorMessage: err.Error(),
		})
		return uc.entityFallback(doc, err), 0
	}

	uc.trackCost(ctx, doc, domain.CostEntry{
		ServiceType:  domain.ServiceEntityExtraction,
		ModelName:    output.Result.Model,
		InputTokens:  output.InputTokens,
		OutputTokens: output.OutputTokens,
		CostUSD:      output.CostUSD,
		DurationMS:   time.Since(entitiesStarted).Milliseconds(),
		Success:      true,
	})
	return output.Result, output.CostUSD
}

func (uc *AnalyzeDocumentUseCase) entityFallback(doc *domain.Document, err error) domain.EntitiesResult {
	switch {
	case domain.IsKind(err, domain.ErrQuotaExceeded):
		slog.Warn("entity extraction degraded", "document_id", doc.ID, "reason", "quota", "error", err)
		return domain.EmptyEntities("unavailable", "OpenAI API quota exceeded")
	case domain.IsKind(err, domain.ErrUnauthorized):
		slog.Error("entity extraction degraded", "document_id", doc.ID, "reason", "auth", "error", err)
		return domain.EmptyEntities("unavailable", "OpenAI API authentication failed")
	default:
		slog.Error("entity extraction degraded", "document_id", doc.ID, "error", err)
		return domain.EmptyEntities("unavailable", "GPT-4 error: "+domain.TruncateRunes(err.Error(), 100))
	}
}

// failRun records a pipeline-semantic failure: one consolidated
// status+metadata write, then the single terminal AnalysisFailed event.
func (uc *AnalyzeDocumentUseCase) failRun(
	ctx context.Context,
	doc *domain.Document,
	started time.Time,
	meta domain.DocumentMetadata,
	totalCost float64,
	status domain.DocumentStatus,
	cause error,
) (*domain.AnalysisRun, error) {
	failedAt := time.Now().UTC()
	errorType := domain.ErrorLabel(cause)
	meta.Processing = &domain.ProcessingInfo{
		StartedAt: &started,
		Error:     cause.Error(),
		ErrorType: errorType,
		FailedAt:  &failedAt,
	}
	if meta.Extraction != nil {
		meta.Extraction.Text = domain.TruncateRunes(meta.Extraction.Text, domain.StoredTextLimit)
	}

	if err := uc.repo.SaveAnalysis(ctx, doc.ID, status, meta); err != nil {
		return nil, fmt.Errorf("persist failure outcome: %w", err)
	}
	uc.appendEvent(ctx, domain.NewAnalysisFailed(doc.ID, errorType, cause.Error()))

	slog.Warn("analysis failed",
		"document_id", doc.ID,
		"status", status,
		"error_type", errorType,
		"error", cause,
	)
	return &domain.AnalysisRun{
		DocumentID:   doc.ID,
		Status:       status,
		TotalCostUSD: domain.RoundUSD(totalCost, 5),
		DurationMS:   failedAt.Sub(started).Milliseconds(),
	}, nil
}

func (uc *AnalyzeDocumentUseCase) downloadToTemp(ctx context.Context, doc *domain.Document) (string, func(), error) {
	reader, err := uc.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", nil, fmt.Errorf("open stored document: %w", err)
	}
	defer reader.Close()

	// Keep the original extension so extraction dispatch can use it.
	tmp, err := os.CreateTemp("", "analysis-*"+filepath.Ext(doc.Filename))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("copy document to temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}

	cleanup := func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("temp file cleanup failed", "path", tmp.Name(), "error", err)
		}
	}
	return tmp.Name(), cleanup, nil
}

// appendEvent is fire-and-forget: document status is the source of
// truth and a lost event must not fail the run.
func (uc *AnalyzeDocumentUseCase) appendEvent(ctx context.Context, event domain.PipelineEvent) {
	if err := uc.events.Append(ctx, event); err != nil {
		slog.Error("event append failed",
			"event_type", event.EventType,
			"aggregate_id", event.AggregateID,
			"error", err,
		)
	}
}

func (uc *AnalyzeDocumentUseCase) trackCost(ctx context.Context, doc *domain.Document, entry domain.CostEntry) {
	entry.DocumentID = doc.ID
	entry.CaseID = doc.CaseID
	if _, err := uc.costs.Track(ctx, entry); err != nil {
		slog.Error("cost tracking failed",
			"document_id", doc.ID,
			"service_type", entry.ServiceType,
			"error", err,
		)
	}
	if uc.observer != nil {
		uc.observer.AICallObserved(entry.ServiceType, entry.ModelName,
			entry.InputTokens, entry.OutputTokens, entry.CostUSD, entry.Success)
	}
}

func (uc *AnalyzeDocumentUseCase) projectGraph(ctx context.Context, doc *domain.Document, entities *domain.EntitiesResult) {
	if uc.graph == nil || entities == nil {
		return
	}
	if err := uc.graph.ProjectEntities(ctx, doc, entities); err != nil {
		slog.Error("entity graph projection failed", "document_id", doc.ID, "error", err)
	}
}

func (uc *AnalyzeDocumentUseCase) observeStage(stage string, started time.Time) {
	if uc.observer != nil {
		uc.observer.StageObserved(stage, time.Since(started))
	}
}

func (uc *AnalyzeDocumentUseCase) observeRun(status domain.DocumentStatus, skipped bool, duration time.Duration) {
	if uc.observer != nil {
		uc.observer.RunFinished(status, skipped, duration)
	}
}

// visionCostEntry prices a vision attempt, successful or failed.
func visionCostEntry(vision *domain.VisionResult) domain.CostEntry {
	return domain.CostEntry{
		ServiceType:  domain.ServiceVisionAI,
		ModelName:    vision.Model,
		InputTokens:  vision.InputTokens,
		OutputTokens: vision.OutputTokens,
		CostUSD:      vision.CostUSD,
		DurationMS:   vision.DurationMS,
		Success:      vision.Success,
		ErrorMessage: vision.Error,
		ExtraData: map[string]any{
			"pages_processed": vision.PagesProcessed,
			"method":          vision.Method,
		},
	}
}

// visionExtraction normalizes a successful vision result to the shape
// the rest of the pipeline expects from the text extractor.
func visionExtraction(vision *domain.VisionResult) *domain.ExtractionResult {
	quality := vision.Confidence
	if quality <= 0 {
		quality = 0.8
	}
	details := map[string]any{
		"model":           vision.Model,
		"pages_processed": vision.PagesProcessed,
		"cost_usd":        domain.RoundUSD(vision.CostUSD, 4),
	}
	if vision.DocumentType != "" {
		details["document_type"] = vision.DocumentType
	}
	if len(vision.Entities) > 0 {
		details["entities"] = vision.Entities
	}
	if len(vision.FormFields) > 0 {
		details["form_fields"] = vision.FormFields
	}
	return &domain.ExtractionResult{
		Text:         vision.Text,
		TextLength:   vision.TextLength,
		QualityScore: quality,
		Method:       vision.Method,
		Details:      details,
		ExtractedAt:  time.Now().UTC(),
	}
}
