package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ZobairQ/taskflow-sub002/internal/auth"
	"github.com/ZobairQ/taskflow-sub002/internal/domain"
	"github.com/ZobairQ/taskflow-sub002/internal/persistence"
)

func authedRequest(method, target string, body string, scopes ...string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)

	scopeSet := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		scopeSet[s] = struct{}{}
	}
	claims := &auth.Claims{
		Subject:   "user-1",
		Scopes:    scopeSet,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

func TestCompleteTaskReportsAward(t *testing.T) {
	completedAt := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	repo := &mockTaskRepo{
		completion: &domain.CompletionResult{
			Task: domain.Task{
				ID:          "task-1",
				UserID:      "user-1",
				Title:       "Ship it",
				Priority:    domain.PriorityHigh,
				Column:      domain.ColumnDone,
				Completed:   true,
				CompletedAt: &completedAt,
				XPAwarded:   44,
			},
			Profile:   domain.Profile{UserID: "user-1", XP: 144, Level: 2, CurrentStreak: 5},
			AwardedXP: 44,
		},
	}
	h := NewHandler(HandlerConfig{Tasks: domain.NewTaskService(repo, &mockDepRepo{})})

	req := authedRequest(http.MethodPost, "/v1/tasks/task-1/complete", "", auth.ScopeTaskflowWrite)
	rr := httptest.NewRecorder()
	h.handleTaskSubtree(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp CompleteTaskResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 44, resp.AwardedXP)
	require.Equal(t, 2, resp.Level)
	require.Equal(t, 5, resp.CurrentStreak)
	require.False(t, resp.Replay)
	require.True(t, resp.Task.Completed)
}

func TestCompleteTaskDependencyUnmet(t *testing.T) {
	repo := &mockTaskRepo{completeErr: domain.ErrDependencyUnmet}
	h := NewHandler(HandlerConfig{Tasks: domain.NewTaskService(repo, &mockDepRepo{})})

	req := authedRequest(http.MethodPost, "/v1/tasks/task-1/complete", "", auth.ScopeTaskflowWrite)
	rr := httptest.NewRecorder()
	h.handleTaskSubtree(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "dependency_unmet")
}

func TestCreateTaskValidation(t *testing.T) {
	h := NewHandler(HandlerConfig{Tasks: domain.NewTaskService(&mockTaskRepo{}, &mockDepRepo{})})

	req := authedRequest(http.MethodPost, "/v1/tasks", `{"title":"","priority":"high"}`, auth.ScopeTaskflowWrite)
	rr := httptest.NewRecorder()
	h.handleTasks(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "validation_failed")
}

func TestCreateTaskRequiresWriteScope(t *testing.T) {
	h := NewHandler(HandlerConfig{Tasks: domain.NewTaskService(&mockTaskRepo{}, &mockDepRepo{})})

	req := authedRequest(http.MethodPost, "/v1/tasks", `{"title":"x"}`, auth.ScopeTaskflowRead)
	rr := httptest.NewRecorder()
	h.handleTasks(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestListTasksRejectsUnknownPriority(t *testing.T) {
	h := NewHandler(HandlerConfig{Tasks: domain.NewTaskService(&mockTaskRepo{}, &mockDepRepo{})})

	req := authedRequest(http.MethodGet, "/v1/tasks?priority=impossible", "", auth.ScopeTaskflowRead)
	rr := httptest.NewRecorder()
	h.handleTasks(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListTasksRejectsBadCursor(t *testing.T) {
	h := NewHandler(HandlerConfig{Tasks: domain.NewTaskService(&mockTaskRepo{}, &mockDepRepo{})})

	req := authedRequest(http.MethodGet, "/v1/tasks?cursor=%21%21%21", "", auth.ScopeTaskflowRead)
	rr := httptest.NewRecorder()
	h.handleTasks(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "invalid cursor")
}

func TestListTasksDefaultsToNewestFirst(t *testing.T) {
	repo := &mockTaskRepo{}
	h := NewHandler(HandlerConfig{Tasks: domain.NewTaskService(repo, &mockDepRepo{})})

	req := authedRequest(http.MethodGet, "/v1/tasks", "", auth.ScopeTaskflowRead)
	rr := httptest.NewRecorder()
	h.handleTasks(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, domain.SortCreatedAt, repo.lastFilter.Sort)
	require.False(t, repo.lastFilter.Ascending, "default listing must scan newest first")

	req = authedRequest(http.MethodGet, "/v1/tasks?order=asc", "", auth.ScopeTaskflowRead)
	rr = httptest.NewRecorder()
	h.handleTasks(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, repo.lastFilter.Ascending)
}

func TestListTasksCursorRequiresCreatedAtSort(t *testing.T) {
	repo := &mockTaskRepo{}
	h := NewHandler(HandlerConfig{Tasks: domain.NewTaskService(repo, &mockDepRepo{})})

	token := persistence.EncodeCursor(&domain.Cursor{CreatedAt: time.Now().UTC(), ID: "task-1"})

	req := authedRequest(http.MethodGet, "/v1/tasks?sort=due_date&cursor="+url.QueryEscape(token), "", auth.ScopeTaskflowRead)
	rr := httptest.NewRecorder()
	h.handleTasks(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "created_at sort")

	req = authedRequest(http.MethodGet, "/v1/tasks?cursor="+url.QueryEscape(token), "", auth.ScopeTaskflowRead)
	rr = httptest.NewRecorder()
	h.handleTasks(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, "created_at sort accepts the cursor")
	require.NotNil(t, repo.lastCursor)
}

func TestTasksRequireClaims(t *testing.T) {
	h := NewHandler(HandlerConfig{Tasks: domain.NewTaskService(&mockTaskRepo{}, &mockDepRepo{})})

	req := httptest.NewRequest(http.MethodGet, "/v1/tasks", nil)
	rr := httptest.NewRecorder()
	h.handleTasks(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAddDependencyCycleDetected(t *testing.T) {
	repo := &mockTaskRepo{byID: map[string]*domain.Task{
		"a": {ID: "a", UserID: "user-1"},
		"b": {ID: "b", UserID: "user-1"},
	}}
	deps := &mockDepRepo{edges: map[string][]string{"b": {"a"}}}
	h := NewHandler(HandlerConfig{Tasks: domain.NewTaskService(repo, deps)})

	req := authedRequest(http.MethodPost, "/v1/tasks/a/dependencies", `{"depends_on_id":"b"}`, auth.ScopeTaskflowWrite)
	rr := httptest.NewRecorder()
	h.handleTaskSubtree(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "cycle_detected")
}

func TestProfileZeroState(t *testing.T) {
	h := NewHandler(HandlerConfig{Gamification: domain.NewGamificationService(&mockGamificationRepo{})})

	req := authedRequest(http.MethodGet, "/v1/gamification/profile", "", auth.ScopeTaskflowRead)
	rr := httptest.NewRecorder()
	h.handleProfile(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp ProfileView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Level)
	require.Equal(t, 100, resp.XPForNextLevel)
	require.Empty(t, resp.ActivePowerUps)
}

func TestActivatePowerUpConflict(t *testing.T) {
	repo := &mockGamificationRepo{
		active: []domain.PowerUp{{Kind: domain.PowerUpDoubleXP, ExpiresAt: time.Now().UTC().Add(time.Hour)}},
	}
	h := NewHandler(HandlerConfig{Gamification: domain.NewGamificationService(repo)})

	req := authedRequest(http.MethodPost, "/v1/gamification/powerups", `{"kind":"double_xp"}`, auth.ScopeTaskflowWrite)
	rr := httptest.NewRecorder()
	h.handlePowerUps(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "already_active")
}

func TestChallengeTodayNotRotatedYet(t *testing.T) {
	h := NewHandler(HandlerConfig{Challenges: domain.NewChallengeService(&mockChallengeRepo{})})

	req := authedRequest(http.MethodGet, "/v1/challenges/today", "", auth.ScopeTaskflowRead)
	rr := httptest.NewRecorder()
	h.handleChallengeToday(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRegisterValidation(t *testing.T) {
	h := NewHandler(HandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(`{"email":"nope","password":"short","display_name":""}`))
	rr := httptest.NewRecorder()
	h.handleRegister(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "validation_failed")
}

func TestLoginInvalidCredentials(t *testing.T) {
	users := domain.NewUserService(&mockUserRepo{}, &mockTokenRepo{}, 4, time.Hour)
	h := NewHandler(HandlerConfig{
		Users:      users,
		AuthConfig: auth.Config{Secret: "s", Issuer: "taskflow.identity"},
		AccessTTL:  time.Minute,
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"email":"a@b.com","password":"whatever1"}`))
	rr := httptest.NewRecorder()
	h.handleLogin(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Body.String(), "invalid_credentials")
}

func TestRegisterIssuesTokenPair(t *testing.T) {
	users := domain.NewUserService(&mockUserRepo{}, &mockTokenRepo{}, 4, time.Hour)
	h := NewHandler(HandlerConfig{
		Users:      users,
		AuthConfig: auth.Config{Secret: "s", Issuer: "taskflow.identity"},
		AccessTTL:  15 * time.Minute,
	})

	body := `{"email":"a@b.com","password":"long-enough","display_name":"Ada"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.handleRegister(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, "Bearer", resp.TokenType)
	require.Equal(t, "a@b.com", resp.User.Email)

	claims, err := auth.Parse(resp.AccessToken, auth.Config{Secret: "s", Issuer: "taskflow.identity"})
	require.NoError(t, err)
	require.Equal(t, resp.User.UserID, claims.Subject)
}

type mockTaskRepo struct {
	byID        map[string]*domain.Task
	completion  *domain.CompletionResult
	completeErr error
	listResult  []domain.Task
	listNext    *domain.Cursor
	lastFilter  domain.TaskFilter
	lastCursor  *domain.Cursor
}

func (m *mockTaskRepo) Create(_ context.Context, _ domain.Task) error { return nil }

func (m *mockTaskRepo) Get(_ context.Context, _, taskID string) (*domain.Task, error) {
	if task, ok := m.byID[taskID]; ok {
		copied := *task
		return &copied, nil
	}
	return nil, nil
}

func (m *mockTaskRepo) List(_ context.Context, _ string, filter domain.TaskFilter, cursor *domain.Cursor, _ int) ([]domain.Task, *domain.Cursor, error) {
	m.lastFilter = filter
	m.lastCursor = cursor
	return m.listResult, m.listNext, nil
}

func (m *mockTaskRepo) Update(_ context.Context, _ domain.Task) error { return nil }

func (m *mockTaskRepo) Delete(_ context.Context, _, _ string) error { return nil }

func (m *mockTaskRepo) Move(_ context.Context, _, _ string, _ domain.BoardColumn, _ int, _ time.Time) (*domain.Task, error) {
	return nil, nil
}

func (m *mockTaskRepo) Complete(_ context.Context, _, _ string, _ time.Time) (*domain.CompletionResult, error) {
	if m.completeErr != nil {
		return nil, m.completeErr
	}
	return m.completion, nil
}

func (m *mockTaskRepo) Reopen(_ context.Context, _, _ string, _ time.Time) (*domain.Task, int, error) {
	return nil, 0, domain.ErrTaskNotFound
}

type mockDepRepo struct {
	edges map[string][]string
}

func (m *mockDepRepo) Add(_ context.Context, _, _, _ string) error    { return nil }
func (m *mockDepRepo) Remove(_ context.Context, _, _, _ string) error { return nil }

func (m *mockDepRepo) ListForTask(_ context.Context, _, _ string) ([]domain.Task, error) {
	return nil, nil
}

func (m *mockDepRepo) Edges(_ context.Context, _ string) (map[string][]string, error) {
	return m.edges, nil
}

type mockGamificationRepo struct {
	profile *domain.Profile
	active  []domain.PowerUp
}

func (m *mockGamificationRepo) GetProfile(_ context.Context, _ string) (*domain.Profile, error) {
	return m.profile, nil
}

func (m *mockGamificationRepo) ActivePowerUps(_ context.Context, _ string, _ time.Time) ([]domain.PowerUp, error) {
	return m.active, nil
}

func (m *mockGamificationRepo) ActivatePowerUp(_ context.Context, powerUp domain.PowerUp) error {
	m.active = append(m.active, powerUp)
	return nil
}

func (m *mockGamificationRepo) ResetStaleStreaks(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func (m *mockGamificationRepo) DeleteExpiredPowerUps(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

type mockChallengeRepo struct{}

func (m *mockChallengeRepo) EnsureForDay(_ context.Context, challenge domain.Challenge) (*domain.Challenge, error) {
	return &challenge, nil
}

func (m *mockChallengeRepo) GetForDay(_ context.Context, _ time.Time) (*domain.Challenge, error) {
	return nil, nil
}

func (m *mockChallengeRepo) GetProgress(_ context.Context, _, _ string) (*domain.ChallengeProgress, error) {
	return nil, nil
}

func (m *mockChallengeRepo) Advance(_ context.Context, _ string, _ domain.Challenge, _ int, _ time.Time) (bool, error) {
	return false, nil
}

type mockUserRepo struct {
	byEmail map[string]*domain.User
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	if m.byEmail == nil {
		m.byEmail = make(map[string]*domain.User)
	}
	m.byEmail[user.Email] = &user
	return nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if user, ok := m.byEmail[email]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, userID string) (*domain.User, error) {
	for _, user := range m.byEmail {
		if user.ID == userID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

type mockTokenRepo struct {
	byHash map[string]*domain.RefreshToken
}

func (m *mockTokenRepo) Store(_ context.Context, token domain.RefreshToken) error {
	if m.byHash == nil {
		m.byHash = make(map[string]*domain.RefreshToken)
	}
	m.byHash[token.TokenHash] = &token
	return nil
}

func (m *mockTokenRepo) Find(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	if token, ok := m.byHash[tokenHash]; ok {
		copied := *token
		return &copied, nil
	}
	return nil, nil
}

func (m *mockTokenRepo) Revoke(_ context.Context, tokenHash string) error {
	delete(m.byHash, tokenHash)
	return nil
}
