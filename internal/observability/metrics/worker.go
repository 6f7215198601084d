package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

// WorkerMetrics exposes pipeline telemetry for the analysis worker.
// It satisfies usecase.PipelineObserver.
type WorkerMetrics struct {
	registry *prometheus.Registry
	service  string

	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	runsInFlight  prometheus.Gauge
	stageDuration *prometheus.HistogramVec
	aiCallsTotal  *prometheus.CounterVec
	aiTokensTotal *prometheus.CounterVec
	aiCostTotal   *prometheus.CounterVec
	queueLag      *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cab",
			Subsystem: "worker",
			Name:      "document_runs_total",
			Help:      "Total analysis runs by outcome.",
		},
		[]string{"service", "outcome"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cab",
			Subsystem: "worker",
			Name:      "document_run_duration_seconds",
			Help:      "Analysis run duration in seconds by outcome.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120, 300},
		},
		[]string{"service", "outcome"},
	)
	runsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cab",
			Subsystem: "worker",
			Name:      "document_runs_in_flight",
			Help:      "Number of in-flight analysis runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cab",
			Subsystem: "worker",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "stage"},
	)
	aiCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cab",
			Subsystem: "ai",
			Name:      "calls_total",
			Help:      "Total AI calls by service type, model and status.",
		},
		[]string{"service", "service_type", "model", "status"},
	)
	aiTokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cab",
			Subsystem: "ai",
			Name:      "tokens_total",
			Help:      "Token usage by direction.",
		},
		[]string{"service", "service_type", "model", "direction"},
	)
	aiCostTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cab",
			Subsystem: "ai",
			Name:      "cost_usd_total",
			Help:      "Accumulated AI spend in USD.",
		},
		[]string{"service", "service_type", "model"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cab",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between analysis request and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(runsTotal, runDuration, runsInFlight, stageDuration, aiCallsTotal, aiTokensTotal, aiCostTotal, queueLag)

	return &WorkerMetrics{
		registry:      registry,
		service:       service,
		runsTotal:     runsTotal,
		runDuration:   runDuration,
		runsInFlight:  runsInFlight,
		stageDuration: stageDuration,
		aiCallsTotal:  aiCallsTotal,
		aiTokensTotal: aiTokensTotal,
		aiCostTotal:   aiCostTotal,
		queueLag:      queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) RunStarted() {
	m.runsInFlight.Inc()
}

func (m *WorkerMetrics) RunFinished(status domain.DocumentStatus, skipped bool, duration time.Duration) {
	outcome := string(status)
	if skipped {
		// Skipped runs never reported RunStarted.
		outcome = "skipped"
	} else {
		m.runsInFlight.Dec()
	}

	m.runsTotal.WithLabelValues(m.service, outcome).Inc()
	m.runDuration.WithLabelValues(m.service, outcome).Observe(duration.Seconds())
}

func (m *WorkerMetrics) StageObserved(stage string, duration time.Duration) {
	m.stageDuration.WithLabelValues(m.service, stage).Observe(duration.Seconds())
}

func (m *WorkerMetrics) AICallObserved(service domain.ServiceType, model string, inputTokens, outputTokens int64, costUSD float64, success bool) {
	if model == "" {
		model = "unknown"
	}

	status := "success"
	if !success {
		status = "error"
	}
	m.aiCallsTotal.WithLabelValues(m.service, string(service), model, status).Inc()

	if inputTokens > 0 {
		m.aiTokensTotal.WithLabelValues(m.service, string(service), model, "in").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.aiTokensTotal.WithLabelValues(m.service, string(service), model, "out").Add(float64(outputTokens))
	}
	if costUSD > 0 {
		m.aiCostTotal.WithLabelValues(m.service, string(service), model).Add(costUSD)
	}
}

func (m *WorkerMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(m.service).Observe(lag.Seconds())
}
