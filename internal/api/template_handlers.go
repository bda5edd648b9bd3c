package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ZobairQ/taskflow-sub002/internal/auth"
	"github.com/ZobairQ/taskflow-sub002/internal/domain"
)

// CreateTemplateRequest is the payload for POST /v1/templates.
type CreateTemplateRequest struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	Column      string `json:"column"`
}

// Validate ensures request correctness.
func (r CreateTemplateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	if r.Priority != "" && !domain.ValidPriority(domain.Priority(r.Priority)) {
		return errors.New("priority must be one of low, medium, high, urgent")
	}
	if r.Column != "" && !domain.ValidColumn(domain.BoardColumn(r.Column)) {
		return errors.New("column must be one of todo, in_progress, done")
	}
	return nil
}

// ApplyTemplateRequest is the payload for POST /v1/templates/{id}/apply.
type ApplyTemplateRequest struct {
	ProjectID *string    `json:"project_id,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
}

func (h *Handler) handleTemplates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		userID, ok := requireScope(w, r, auth.ScopeTaskflowRead)
		if !ok {
			return
		}
		templates, err := h.templates.ListTemplates(r.Context(), userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		items := make([]TemplateView, 0, len(templates))
		for _, t := range templates {
			items = append(items, toTemplateView(t))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})

	case http.MethodPost:
		userID, ok := requireScope(w, r, auth.ScopeTaskflowWrite)
		if !ok {
			return
		}
		var req CreateTemplateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		template, err := h.templates.CreateTemplate(r.Context(), domain.CreateTemplateInput{
			UserID:      userID,
			Name:        req.Name,
			Title:       req.Title,
			Description: req.Description,
			Priority:    domain.Priority(req.Priority),
			Category:    req.Category,
			Column:      domain.BoardColumn(req.Column),
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toTemplateView(*template))

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// handleTemplateSubtree routes /v1/templates/{id} and /v1/templates/{id}/apply.
func (h *Handler) handleTemplateSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/templates/")
	parts := strings.Split(rest, "/")
	if parts[0] == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing template id")
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		userID, ok := requireScope(w, r, auth.ScopeTaskflowWrite)
		if !ok {
			return
		}
		if err := h.templates.DeleteTemplate(r.Context(), userID, id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(parts) == 2 && parts[1] == "apply" && r.Method == http.MethodPost:
		userID, ok := requireScope(w, r, auth.ScopeTaskflowWrite)
		if !ok {
			return
		}
		var req ApplyTemplateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		task, err := h.templates.ApplyTemplate(r.Context(), userID, id, req.ProjectID, req.DueDate)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toTaskView(*task))

	case len(parts) == 1 || (len(parts) == 2 && parts[1] == "apply"):
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")

	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
	}
}
