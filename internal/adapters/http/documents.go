package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

// multipartOverheadBytes covers boundary markers and the case_id field
// on top of the configured file size cap.
const multipartOverheadBytes = 1 << 20

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes+multipartOverheadBytes)
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(
		r.Context(),
		r.FormValue("case_id"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	caseID := r.URL.Query().Get("case_id")
	if caseID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query parameter 'case_id' is required"})
		return
	}
	limit, err := bindQueryInt(r, "limit", 50)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid 'limit' parameter"})
		return
	}
	offset, err := bindQueryInt(r, "offset", 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid 'offset' parameter"})
		return
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := rt.reader.ListByCase(r.Context(), caseID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"case_id":   caseID,
		"documents": docs,
		"count":     len(docs),
	})
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// getAnalysis is the polling endpoint: 404 until the pipeline has
// written an analysis, then the consolidated metadata with the status.
func (rt *Router) getAnalysis(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if doc.Metadata.Analysis == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error":  "analysis not available",
			"status": string(doc.Status),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": doc.ID,
		"status":      doc.Status,
		"metadata":    doc.Metadata,
	})
}

func (rt *Router) listEvents(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := rt.reader.GetByID(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	events, err := rt.events.ListByDocument(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": id,
		"events":      events,
		"count":       len(events),
	})
}

func (rt *Router) analyzeDocument(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		ForceReanalyze bool `json:"force_reanalyze"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	if err := rt.dispatch.Dispatch(r.Context(), id, req.ForceReanalyze); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"document_id": id,
		"status":      domain.DispatchQueued,
	})
}

func (rt *Router) analyzeBulk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentIDs    []string `json:"document_ids"`
		ForceReanalyze bool     `json:"force_reanalyze"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	results, err := rt.dispatch.DispatchBulk(r.Context(), req.DocumentIDs, req.ForceReanalyze)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var queued, skipped, notFound int
	for _, result := range results {
		switch result.Status {
		case domain.DispatchQueued:
			queued++
		case domain.DispatchSkipped:
			skipped++
		case domain.DispatchNotFound:
			notFound++
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"total_documents": len(results),
		"queued":          queued,
		"skipped":         skipped,
		"not_found":       notFound,
		"results":         results,
	})
}

func (rt *Router) estimateCost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentIDs []string `json:"document_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	estimate, err := rt.estimate.EstimateBatch(r.Context(), req.DocumentIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, estimate)
}
