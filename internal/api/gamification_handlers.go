package api

import (
	"encoding/json"
	"net/http"

	"github.com/ZobairQ/taskflow-sub002/internal/auth"
	"github.com/ZobairQ/taskflow-sub002/internal/domain"
)

// ActivatePowerUpRequest is the payload for POST /v1/gamification/powerups.
type ActivatePowerUpRequest struct {
	Kind string `json:"kind"`
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	userID, ok := requireScope(w, r, auth.ScopeTaskflowRead)
	if !ok {
		return
	}

	view, err := h.gamification.GetProfile(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileView(*view))
}

func (h *Handler) handlePowerUps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	userID, ok := requireScope(w, r, auth.ScopeTaskflowWrite)
	if !ok {
		return
	}

	var req ActivatePowerUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	powerUp, err := h.gamification.ActivatePowerUp(r.Context(), userID, domain.PowerUpKind(req.Kind))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPowerUpView(*powerUp))
}

func (h *Handler) handleAchievements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	userID, ok := requireScope(w, r, auth.ScopeTaskflowRead)
	if !ok {
		return
	}

	views, err := h.achievements.ListForUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	items := make([]AchievementView, 0, len(views))
	for _, v := range views {
		items = append(items, toAchievementView(v))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handler) handleChallengeToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	userID, ok := requireScope(w, r, auth.ScopeTaskflowRead)
	if !ok {
		return
	}

	view, err := h.challenges.Today(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChallengeView(*view))
}
