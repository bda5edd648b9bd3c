package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ZobairQ/taskflow-sub002/internal/auth"
	"github.com/ZobairQ/taskflow-sub002/internal/domain"
	"github.com/ZobairQ/taskflow-sub002/internal/persistence"
)

// CreateTaskRequest is the payload for POST /v1/tasks.
type CreateTaskRequest struct {
	ProjectID   *string    `json:"project_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Column      string     `json:"column"`
	Position    int        `json:"position"`
}

// Validate ensures request correctness.
func (r CreateTaskRequest) Validate() error {
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

// UpdateTaskRequest is the payload for PUT /v1/tasks/{id}. A literal null
// due_date clears the deadline.
type UpdateTaskRequest struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Priority    *string          `json:"priority,omitempty"`
	Category    *string          `json:"category,omitempty"`
	DueDate     *json.RawMessage `json:"due_date,omitempty"`
	ProjectID   *string          `json:"project_id,omitempty"`
}

// MoveTaskRequest is the payload for POST /v1/tasks/{id}/move.
type MoveTaskRequest struct {
	Column   string `json:"column"`
	Position int    `json:"position"`
}

// AddDependencyRequest is the payload for POST /v1/tasks/{id}/dependencies.
type AddDependencyRequest struct {
	DependsOnID string `json:"depends_on_id"`
}

// CompleteTaskResponse reports the completion outcome and the XP award.
type CompleteTaskResponse struct {
	Task          TaskView `json:"task"`
	AwardedXP     int      `json:"awarded_xp"`
	Level         int      `json:"level"`
	XP            int      `json:"xp"`
	CurrentStreak int      `json:"current_streak"`
	Replay        bool     `json:"idempotent_replay"`
}

// ReopenTaskResponse reports the reverted task and the deducted award.
type ReopenTaskResponse struct {
	Task       TaskView `json:"task"`
	DeductedXP int      `json:"deducted_xp"`
}

// ListTasksResponse packages list results.
type ListTasksResponse struct {
	Items      []TaskView `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func (h *Handler) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listTasks(w, r)
	case http.MethodPost:
		h.createTask(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireScope(w, r, auth.ScopeTaskflowWrite)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), domain.CreateTaskInput{
		UserID:      userID,
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.Priority(req.Priority),
		Category:    req.Category,
		DueDate:     req.DueDate,
		Column:      domain.BoardColumn(req.Column),
		Position:    req.Position,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskView(*task))
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireScope(w, r, auth.ScopeTaskflowRead)
	if !ok {
		return
	}

	filter, err := parseTaskFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, parseErr := strconv.Atoi(raw); parseErr == nil && parsed > 0 {
			if parsed > 100 {
				parsed = 100
			}
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}
	// The cursor token is keyed on (created_at, task_id); under any other sort
	// the token would not line up with the page boundary.
	if cursor != nil && filter.Sort != domain.SortCreatedAt {
		writeError(w, http.StatusBadRequest, "validation_failed", "cursor pagination requires the created_at sort")
		return
	}

	tasks, next, err := h.tasks.ListTasks(r.Context(), userID, filter, cursor, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, toTaskView(t))
	}
	writeJSON(w, http.StatusOK, ListTasksResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func parseTaskFilter(r *http.Request) (domain.TaskFilter, error) {
	q := r.URL.Query()
	var filter domain.TaskFilter

	if raw := q.Get("project_id"); raw != "" {
		filter.ProjectID = &raw
	}
	if raw := q.Get("completed"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("completed must be a boolean")
		}
		filter.Completed = &parsed
	}
	if raw := q.Get("priority"); raw != "" {
		p := domain.Priority(raw)
		if !domain.ValidPriority(p) {
			return filter, errors.New("unknown priority filter")
		}
		filter.Priority = &p
	}
	if raw := q.Get("category"); raw != "" {
		filter.Category = &raw
	}
	if raw := q.Get("column"); raw != "" {
		c := domain.BoardColumn(raw)
		if !domain.ValidColumn(c) {
			return filter, errors.New("unknown column filter")
		}
		filter.Column = &c
	}
	if raw := q.Get("due_before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("due_before must be RFC3339")
		}
		filter.DueBefore = &t
	}
	if raw := q.Get("due_after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("due_after must be RFC3339")
		}
		filter.DueAfter = &t
	}
	filter.Search = q.Get("search")

	switch sort := q.Get("sort"); sort {
	case "", string(domain.SortCreatedAt):
		filter.Sort = domain.SortCreatedAt
	case string(domain.SortDueDate):
		filter.Sort = domain.SortDueDate
	case string(domain.SortPriority):
		filter.Sort = domain.SortPriority
	case string(domain.SortPosition):
		filter.Sort = domain.SortPosition
	default:
		return filter, errors.New("unknown sort key")
	}
	// Newest first unless the caller asks otherwise, matching the keyset index.
	filter.Ascending = q.Get("order") == "asc"

	return filter, nil
}

// handleTaskSubtree routes /v1/tasks/{id} and its nested actions.
func (h *Handler) handleTaskSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/tasks/")
	parts := strings.Split(rest, "/")
	if parts[0] == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing task id")
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1:
		h.taskByID(w, r, id)
	case len(parts) == 2 && parts[1] == "complete":
		h.completeTask(w, r, id)
	case len(parts) == 2 && parts[1] == "reopen":
		h.reopenTask(w, r, id)
	case len(parts) == 2 && parts[1] == "move":
		h.moveTask(w, r, id)
	case len(parts) == 2 && parts[1] == "dependencies":
		h.taskDependencies(w, r, id)
	case len(parts) == 3 && parts[1] == "dependencies" && parts[2] != "":
		h.removeTaskDependency(w, r, id, parts[2])
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
	}
}

func (h *Handler) taskByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		userID, ok := requireScope(w, r, auth.ScopeTaskflowRead)
		if !ok {
			return
		}
		task, err := h.tasks.GetTask(r.Context(), userID, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTaskView(*task))

	case http.MethodPut:
		h.updateTask(w, r, id)

	case http.MethodDelete:
		userID, ok := requireScope(w, r, auth.ScopeTaskflowWrite)
		if !ok {
			return
		}
		if err := h.tasks.DeleteTask(r.Context(), userID, id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := requireScope(w, r, auth.ScopeTaskflowWrite)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	input := domain.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ProjectID:   req.ProjectID,
	}
	if req.Priority != nil {
		p := domain.Priority(*req.Priority)
		if !domain.ValidPriority(p) {
			writeError(w, http.StatusBadRequest, "validation_failed", "unknown priority")
			return
		}
		input.Priority = &p
	}
	if req.DueDate != nil {
		if string(*req.DueDate) == "null" {
			input.ClearDue = true
		} else {
			var due time.Time
			if err := json.Unmarshal(*req.DueDate, &due); err != nil {
				writeError(w, http.StatusBadRequest, "validation_failed", "due_date must be RFC3339 or null")
				return
			}
			input.DueDate = &due
		}
	}

	task, err := h.tasks.UpdateTask(r.Context(), userID, id, input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskView(*task))
}

func (h *Handler) completeTask(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	userID, ok := requireScope(w, r, auth.ScopeTaskflowWrite)
	if !ok {
		return
	}

	result, err := h.tasks.CompleteTask(r.Context(), userID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CompleteTaskResponse{
		Task:          toTaskView(result.Task),
		AwardedXP:     result.AwardedXP,
		Level:         result.Profile.Level,
		XP:            result.Profile.XP,
		CurrentStreak: result.Profile.CurrentStreak,
		Replay:        result.Replay,
	})
}

func (h *Handler) reopenTask(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	userID, ok := requireScope(w, r, auth.ScopeTaskflowWrite)
	if !ok {
		return
	}

	task, deducted, err := h.tasks.ReopenTask(r.Context(), userID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReopenTaskResponse{
		Task:       toTaskView(*task),
		DeductedXP: deducted,
	})
}

func (h *Handler) moveTask(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	userID, ok := requireScope(w, r, auth.ScopeTaskflowWrite)
	if !ok {
		return
	}

	var req MoveTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	column := domain.BoardColumn(req.Column)
	if !domain.ValidColumn(column) {
		writeError(w, http.StatusBadRequest, "validation_failed", "column must be one of todo, in_progress, done")
		return
	}

	task, err := h.tasks.MoveTask(r.Context(), userID, id, column, req.Position)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskView(*task))
}

func (h *Handler) taskDependencies(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		userID, ok := requireScope(w, r, auth.ScopeTaskflowRead)
		if !ok {
			return
		}
		deps, err := h.tasks.ListDependencies(r.Context(), userID, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		items := make([]TaskView, 0, len(deps))
		for _, t := range deps {
			items = append(items, toTaskView(t))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})

	case http.MethodPost:
		userID, ok := requireScope(w, r, auth.ScopeTaskflowWrite)
		if !ok {
			return
		}
		var req AddDependencyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		if req.DependsOnID == "" {
			writeError(w, http.StatusBadRequest, "validation_failed", "depends_on_id is required")
			return
		}
		if err := h.tasks.AddDependency(r.Context(), userID, id, req.DependsOnID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) removeTaskDependency(w http.ResponseWriter, r *http.Request, id, depID string) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	userID, ok := requireScope(w, r, auth.ScopeTaskflowWrite)
	if !ok {
		return
	}
	if err := h.tasks.RemoveDependency(r.Context(), userID, id, depID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
