package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ZobairQ/taskflow-sub002/internal/auth"
	"github.com/ZobairQ/taskflow-sub002/internal/domain"
)

// CreateProjectRequest is the payload for POST /v1/projects.
type CreateProjectRequest struct {
	Name     string `json:"name"`
	Color    string `json:"color"`
	Position int    `json:"position"`
}

// Validate ensures request correctness.
func (r CreateProjectRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.Color != "" && !strings.HasPrefix(r.Color, "#") {
		return errors.New("color must be a hex value")
	}
	return nil
}

// UpdateProjectRequest is the payload for PUT /v1/projects/{id}.
type UpdateProjectRequest struct {
	Name     *string `json:"name,omitempty"`
	Color    *string `json:"color,omitempty"`
	Position *int    `json:"position,omitempty"`
}

func (h *Handler) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		userID, ok := requireScope(w, r, auth.ScopeTaskflowRead)
		if !ok {
			return
		}
		projects, err := h.projects.ListProjects(r.Context(), userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		items := make([]ProjectView, 0, len(projects))
		for _, p := range projects {
			items = append(items, toProjectView(p))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})

	case http.MethodPost:
		userID, ok := requireScope(w, r, auth.ScopeTaskflowWrite)
		if !ok {
			return
		}
		var req CreateProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		project, err := h.projects.CreateProject(r.Context(), userID, req.Name, req.Color, req.Position)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toProjectView(*project))

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) handleProjectByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/projects/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing project id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		userID, ok := requireScope(w, r, auth.ScopeTaskflowRead)
		if !ok {
			return
		}
		project, err := h.projects.GetProject(r.Context(), userID, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProjectView(*project))

	case http.MethodPut:
		userID, ok := requireScope(w, r, auth.ScopeTaskflowWrite)
		if !ok {
			return
		}
		var req UpdateProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		project, err := h.projects.UpdateProject(r.Context(), userID, id, domain.UpdateProjectInput{
			Name:     req.Name,
			Color:    req.Color,
			Position: req.Position,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProjectView(*project))

	case http.MethodDelete:
		userID, ok := requireScope(w, r, auth.ScopeTaskflowWrite)
		if !ok {
			return
		}
		if err := h.projects.DeleteProject(r.Context(), userID, id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}
