package api

import (
	"net/http"
	"time"

	"github.com/ZobairQ/taskflow-sub002/internal/auth"
	"github.com/ZobairQ/taskflow-sub002/internal/events"
)

func (h *Handler) handleAnalyticsDaily(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	userID, ok := requireScope(w, r, auth.ScopeTaskflowRead)
	if !ok {
		return
	}

	q := r.URL.Query()
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := q.Get("from"); raw != "" {
		parsed, err := time.Parse(events.DayFormat, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "from must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if raw := q.Get("to"); raw != "" {
		parsed, err := time.Parse(events.DayFormat, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "to must be YYYY-MM-DD")
			return
		}
		to = parsed
	}

	rows, err := h.analytics.Range(r.Context(), userID, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	items := make([]DailyAnalyticsView, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDailyAnalyticsView(row))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handler) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	userID, ok := requireScope(w, r, auth.ScopeTaskflowRead)
	if !ok {
		return
	}

	summary, err := h.analytics.Summary(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryView(summary))
}
