package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/case-analysis-backend/internal/bootstrap"
	"github.com/kirillkom/case-analysis-backend/internal/config"
	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
	"github.com/kirillkom/case-analysis-backend/internal/observability/logging"
	"github.com/kirillkom/case-analysis-backend/internal/observability/metrics"
)

// analysisTimeout bounds one pipeline run, vision fallback included.
const analysisTimeout = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	analyze := app.AnalyzeUC.WithObserver(workerMetrics)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{Addr: ":" + cfg.WorkerMetricsPort, Handler: metricsMux}
	go func() {
		slog.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeAnalysisRequested(ctx, func(handlerCtx context.Context, req domain.AnalysisRequest) error {
		if !req.RequestedAt.IsZero() {
			workerMetrics.ObserveQueueLag(time.Since(req.RequestedAt))
		}
		runCtx, cancel := context.WithTimeout(handlerCtx, analysisTimeout)
		defer cancel()
		_, err := analyze.AnalyzeByID(runCtx, req.DocumentID, req.Force)
		return err
	})
	if err != nil {
		if ctx.Err() == nil {
			log.Fatalf("worker subscribe error: %v", err)
		}
		slog.Error("worker drain error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
