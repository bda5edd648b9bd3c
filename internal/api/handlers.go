// Package api exposes the HTTP handlers for the taskflow backend.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ZobairQ/taskflow-sub002/internal/auth"
	"github.com/ZobairQ/taskflow-sub002/internal/domain"
)

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	users        *domain.UserService
	projects     *domain.ProjectService
	tasks        *domain.TaskService
	gamification *domain.GamificationService
	achievements *domain.AchievementService
	challenges   *domain.ChallengeService
	pomodoro     *domain.PomodoroService
	templates    *domain.TemplateService
	analytics    *domain.AnalyticsService

	authConfig auth.Config
	accessTTL  time.Duration
}

// HandlerConfig bundles the services the Handler depends on.
type HandlerConfig struct {
	Users        *domain.UserService
	Projects     *domain.ProjectService
	Tasks        *domain.TaskService
	Gamification *domain.GamificationService
	Achievements *domain.AchievementService
	Challenges   *domain.ChallengeService
	Pomodoro     *domain.PomodoroService
	Templates    *domain.TemplateService
	Analytics    *domain.AnalyticsService

	AuthConfig auth.Config
	AccessTTL  time.Duration
}

// NewHandler builds a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		users:        cfg.Users,
		projects:     cfg.Projects,
		tasks:        cfg.Tasks,
		gamification: cfg.Gamification,
		achievements: cfg.Achievements,
		challenges:   cfg.Challenges,
		pomodoro:     cfg.Pomodoro,
		templates:    cfg.Templates,
		analytics:    cfg.Analytics,
		authConfig:   cfg.AuthConfig,
		accessTTL:    cfg.AccessTTL,
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/auth/register", h.handleRegister)
	mux.HandleFunc("/v1/auth/login", h.handleLogin)
	mux.HandleFunc("/v1/auth/refresh", h.handleRefresh)
	mux.HandleFunc("/v1/auth/logout", h.handleLogout)

	mux.HandleFunc("/v1/projects", h.handleProjects)
	mux.HandleFunc("/v1/projects/", h.handleProjectByID)

	mux.HandleFunc("/v1/tasks", h.handleTasks)
	mux.HandleFunc("/v1/tasks/", h.handleTaskSubtree)

	mux.HandleFunc("/v1/gamification/profile", h.handleProfile)
	mux.HandleFunc("/v1/gamification/powerups", h.handlePowerUps)
	mux.HandleFunc("/v1/achievements", h.handleAchievements)
	mux.HandleFunc("/v1/challenges/today", h.handleChallengeToday)

	mux.HandleFunc("/v1/pomodoro/sessions", h.handlePomodoroSessions)
	mux.HandleFunc("/v1/pomodoro/sessions/", h.handlePomodoroAction)

	mux.HandleFunc("/v1/templates", h.handleTemplates)
	mux.HandleFunc("/v1/templates/", h.handleTemplateSubtree)

	mux.HandleFunc("/v1/analytics/daily", h.handleAnalyticsDaily)
	mux.HandleFunc("/v1/analytics/summary", h.handleAnalyticsSummary)

	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// requireScope resolves the caller's user ID from the bearer claims and
// enforces the scope. Write scope implies read.
func requireScope(w http.ResponseWriter, r *http.Request, scope string) (string, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return "", false
	}
	allowed := claims.HasScope(scope)
	if !allowed && scope == auth.ScopeTaskflowRead {
		allowed = claims.HasScope(auth.ScopeTaskflowWrite)
	}
	if !allowed {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scope+" required")
		return "", false
	}
	return claims.Subject, true
}

// writeDomainError maps domain sentinels onto the HTTP error vocabulary.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "not_found", "task not found")
	case errors.Is(err, domain.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, "not_found", "project not found")
	case errors.Is(err, domain.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, "not_found", "template not found")
	case errors.Is(err, domain.ErrPomodoroNotFound):
		writeError(w, http.StatusNotFound, "not_found", "pomodoro session not found")
	case errors.Is(err, domain.ErrNoChallengeToday):
		writeError(w, http.StatusNotFound, "not_found", "no challenge for today")
	case errors.Is(err, domain.ErrDependencyUnmet):
		writeError(w, http.StatusConflict, "dependency_unmet", err.Error())
	case errors.Is(err, domain.ErrDependencyCycle):
		writeError(w, http.StatusBadRequest, "cycle_detected", err.Error())
	case errors.Is(err, domain.ErrDependencyExists):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrSelfDependency):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrPowerUpActive):
		writeError(w, http.StatusConflict, "already_active", err.Error())
	case errors.Is(err, domain.ErrUnknownPowerUp):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrSessionRunning):
		writeError(w, http.StatusConflict, "session_running", err.Error())
	case errors.Is(err, domain.ErrSessionFinished):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrRangeTooWide):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
