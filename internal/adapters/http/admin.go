package httpadapter

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/oapi-codegen/runtime"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (rt *Router) costsSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	days, err := bindQueryInt(r, "days", 7)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid 'days' parameter"})
		return
	}

	summary, err := rt.costs.Summary(r.Context(), days)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (rt *Router) costsRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	limit, err := bindQueryInt(r, "limit", 50)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid 'limit' parameter"})
		return
	}

	records, err := rt.costs.Recent(r.Context(), limit, r.URL.Query().Get("service_type"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

func (rt *Router) costsExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	days, err := bindQueryInt(r, "days", 7)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid 'days' parameter"})
		return
	}

	report, err := rt.costs.ExportXLSX(r.Context(), days)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	filename := fmt.Sprintf("cost-report-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(report)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report)
}

// bindQueryInt resolves an optional integer query parameter, falling
// back when the parameter is absent.
func bindQueryInt(r *http.Request, name string, fallback int) (int, error) {
	value := fallback
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &value); err != nil {
		return 0, fmt.Errorf("bind query parameter %s: %w", name, err)
	}
	return value, nil
}
