package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kirillkom/case-analysis-backend/internal/config"
	"github.com/kirillkom/case-analysis-backend/internal/core/ports"
)

type Router struct {
	cfg      config.Config
	ingest   ports.DocumentIngestor
	reader   ports.DocumentReader
	events   ports.EventStore
	dispatch ports.AnalysisDispatcher
	estimate ports.CostEstimator
	costs    ports.CostReporter

	openapiJSON []byte
}

func NewRouter(
	cfg config.Config,
	ingest ports.DocumentIngestor,
	reader ports.DocumentReader,
	events ports.EventStore,
	dispatch ports.AnalysisDispatcher,
	estimate ports.CostEstimator,
	costs ports.CostReporter,
) *Router {
	openapiJSON, err := loadOpenAPIDocument()
	if err != nil {
		slog.Error("openapi document rejected", "error", err)
	}

	return &Router{
		cfg:         cfg,
		ingest:      ingest,
		reader:      reader,
		events:      events,
		dispatch:    dispatch,
		estimate:    estimate,
		costs:       costs,
		openapiJSON: openapiJSON,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/openapi.json", rt.openapiSpec)
	mux.HandleFunc("/v1/documents", rt.documentsCollection)
	mux.HandleFunc("/v1/documents/", rt.documentsSubtree)
	mux.HandleFunc("/v1/admin/costs/summary", rt.costsSummary)
	mux.HandleFunc("/v1/admin/costs/recent", rt.costsRecent)
	mux.HandleFunc("/v1/admin/costs/export", rt.costsExport)

	var handler http.Handler = mux
	if rt.cfg.APIMaxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.APIMaxConcurrent, backpressureWaitTimeout)
	}
	if rt.cfg.APIRateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) documentsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.uploadDocument(w, r)
	case http.MethodGet:
		rt.listDocuments(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

// documentsSubtree routes /v1/documents/{id}[/{action}] plus the two
// fixed collection actions that share the prefix.
func (rt *Router) documentsSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	head, action, _ := strings.Cut(rest, "/")

	switch head {
	case "":
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "document id is required"})
	case "analyze-bulk":
		rt.requirePost(w, r, action, rt.analyzeBulk)
	case "estimate-cost":
		rt.requirePost(w, r, action, rt.estimateCost)
	default:
		rt.documentResource(w, r, head, action)
	}
}

func (rt *Router) requirePost(w http.ResponseWriter, r *http.Request, action string, handler http.HandlerFunc) {
	if action != "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	handler(w, r)
}

func (rt *Router) documentResource(w http.ResponseWriter, r *http.Request, id, action string) {
	switch action {
	case "":
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		rt.getDocument(w, r, id)
	case "analysis":
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		rt.getAnalysis(w, r, id)
	case "events":
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		rt.listEvents(w, r, id)
	case "analyze":
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		rt.analyzeDocument(w, r, id)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
