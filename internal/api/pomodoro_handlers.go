package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ZobairQ/taskflow-sub002/internal/auth"
	"github.com/ZobairQ/taskflow-sub002/internal/domain"
)

// StartPomodoroRequest is the payload for POST /v1/pomodoro/sessions.
// Omitted fields fall back to the classic 25/5 times four pattern.
type StartPomodoroRequest struct {
	TaskID        *string `json:"task_id,omitempty"`
	WorkMinutes   int     `json:"work_minutes"`
	BreakMinutes  int     `json:"break_minutes"`
	CyclesPlanned int     `json:"cycles_planned"`
}

// CompletePomodoroRequest is the payload for the complete action.
type CompletePomodoroRequest struct {
	CyclesCompleted int `json:"cycles_completed"`
}

func (h *Handler) handlePomodoroSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		userID, ok := requireScope(w, r, auth.ScopeTaskflowRead)
		if !ok {
			return
		}
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil {
				limit = parsed
			}
		}
		sessions, err := h.pomodoro.ListSessions(r.Context(), userID, limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		items := make([]PomodoroView, 0, len(sessions))
		for _, s := range sessions {
			items = append(items, toPomodoroView(s))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})

	case http.MethodPost:
		userID, ok := requireScope(w, r, auth.ScopeTaskflowWrite)
		if !ok {
			return
		}
		var req StartPomodoroRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		session, err := h.pomodoro.StartSession(r.Context(), domain.StartSessionInput{
			UserID:        userID,
			TaskID:        req.TaskID,
			WorkMinutes:   req.WorkMinutes,
			BreakMinutes:  req.BreakMinutes,
			CyclesPlanned: req.CyclesPlanned,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPomodoroView(*session))

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// handlePomodoroAction routes /v1/pomodoro/sessions/{id}/complete and /abandon.
func (h *Handler) handlePomodoroAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/pomodoro/sessions/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	userID, ok := requireScope(w, r, auth.ScopeTaskflowWrite)
	if !ok {
		return
	}
	id := parts[0]

	switch parts[1] {
	case "complete":
		var req CompletePomodoroRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		session, err := h.pomodoro.CompleteSession(r.Context(), userID, id, req.CyclesCompleted)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPomodoroView(*session))

	case "abandon":
		session, err := h.pomodoro.AbandonSession(r.Context(), userID, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPomodoroView(*session))

	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
	}
}
