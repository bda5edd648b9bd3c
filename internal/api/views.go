package api

import (
	"time"

	"github.com/ZobairQ/taskflow-sub002/internal/domain"
)

// UserView exposes the public fields of an account.
type UserView struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserView(u domain.User) UserView {
	return UserView{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

// ProjectView exposes a project.
type ProjectView struct {
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toProjectView(p domain.Project) ProjectView {
	return ProjectView{
		ProjectID: p.ID,
		Name:      p.Name,
		Color:     p.Color,
		Position:  p.Position,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// TaskView exposes full details about a task.
type TaskView struct {
	TaskID      string     `json:"task_id"`
	ProjectID   *string    `json:"project_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Column      string     `json:"column"`
	Position    int        `json:"position"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	XPAwarded   int        `json:"xp_awarded"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toTaskView(t domain.Task) TaskView {
	return TaskView{
		TaskID:      t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Category:    t.Category,
		DueDate:     t.DueDate,
		Column:      string(t.Column),
		Position:    t.Position,
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		XPAwarded:   t.XPAwarded,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// ProfileView exposes the gamification profile with level progress.
type ProfileView struct {
	XP              int           `json:"xp"`
	Level           int           `json:"level"`
	XPIntoLevel     int           `json:"xp_into_level"`
	XPForNextLevel  int           `json:"xp_for_next_level"`
	CurrentStreak   int           `json:"current_streak"`
	LongestStreak   int           `json:"longest_streak"`
	LastCompletedOn *string       `json:"last_completed_on,omitempty"`
	ActivePowerUps  []PowerUpView `json:"active_power_ups"`
}

func toProfileView(view domain.ProfileView) ProfileView {
	out := ProfileView{
		XP:             view.Profile.XP,
		Level:          view.Profile.Level,
		XPIntoLevel:    view.XPIntoLevel,
		XPForNextLevel: view.XPForNext,
		CurrentStreak:  view.Profile.CurrentStreak,
		LongestStreak:  view.Profile.LongestStreak,
		ActivePowerUps: make([]PowerUpView, 0, len(view.ActivePowerUp)),
	}
	if view.Profile.LastCompletedOn != nil {
		day := view.Profile.LastCompletedOn.Format("2006-01-02")
		out.LastCompletedOn = &day
	}
	for _, p := range view.ActivePowerUp {
		out.ActivePowerUps = append(out.ActivePowerUps, toPowerUpView(p))
	}
	return out
}

// PowerUpView exposes an active power-up.
type PowerUpView struct {
	PowerUpID   string    `json:"power_up_id"`
	Kind        string    `json:"kind"`
	Multiplier  float64   `json:"multiplier"`
	ActivatedAt time.Time `json:"activated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func toPowerUpView(p domain.PowerUp) PowerUpView {
	return PowerUpView{
		PowerUpID:   p.ID,
		Kind:        string(p.Kind),
		Multiplier:  p.Multiplier,
		ActivatedAt: p.ActivatedAt,
		ExpiresAt:   p.ExpiresAt,
	}
}

// AchievementView exposes a definition with the caller's unlock state.
type AchievementView struct {
	Code        string     `json:"code"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Criterion   string     `json:"criterion"`
	Threshold   int        `json:"threshold"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

func toAchievementView(view domain.AchievementView) AchievementView {
	return AchievementView{
		Code:        view.Achievement.Code,
		Title:       view.Achievement.Title,
		Description: view.Achievement.Description,
		Criterion:   string(view.Achievement.Criterion),
		Threshold:   view.Achievement.Threshold,
		UnlockedAt:  view.UnlockedAt,
	}
}

// ChallengeView exposes the day's challenge with caller progress.
type ChallengeView struct {
	ChallengeID string     `json:"challenge_id"`
	Day         string     `json:"day"`
	Code        string     `json:"code"`
	Title       string     `json:"title"`
	Target      int        `json:"target"`
	RewardXP    int        `json:"reward_xp"`
	Progress    int        `json:"progress"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func toChallengeView(view domain.ChallengeView) ChallengeView {
	return ChallengeView{
		ChallengeID: view.Challenge.ID,
		Day:         view.Challenge.Day.Format("2006-01-02"),
		Code:        view.Challenge.Code,
		Title:       view.Challenge.Title,
		Target:      view.Challenge.Target,
		RewardXP:    view.Challenge.RewardXP,
		Progress:    view.Progress,
		CompletedAt: view.CompletedAt,
	}
}

// PomodoroView exposes a pomodoro session.
type PomodoroView struct {
	SessionID       string     `json:"session_id"`
	TaskID          *string    `json:"task_id,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	WorkMinutes     int        `json:"work_minutes"`
	BreakMinutes    int        `json:"break_minutes"`
	CyclesPlanned   int        `json:"cycles_planned"`
	CyclesCompleted int        `json:"cycles_completed"`
	State           string     `json:"state"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}

func toPomodoroView(s domain.PomodoroSession) PomodoroView {
	return PomodoroView{
		SessionID:       s.ID,
		TaskID:          s.TaskID,
		StartedAt:       s.StartedAt,
		WorkMinutes:     s.WorkMinutes,
		BreakMinutes:    s.BreakMinutes,
		CyclesPlanned:   s.CyclesPlanned,
		CyclesCompleted: s.CyclesCompleted,
		State:           string(s.State),
		EndedAt:         s.EndedAt,
	}
}

// TemplateView exposes a task template.
type TemplateView struct {
	TemplateID  string    `json:"template_id"`
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority"`
	Category    string    `json:"category,omitempty"`
	Column      string    `json:"column"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTemplateView(t domain.TaskTemplate) TemplateView {
	return TemplateView{
		TemplateID:  t.ID,
		Name:        t.Name,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Category:    t.Category,
		Column:      string(t.Column),
		CreatedAt:   t.CreatedAt,
	}
}

// DailyAnalyticsView exposes one rollup row.
type DailyAnalyticsView struct {
	Day             string `json:"day"`
	TasksCreated    int    `json:"tasks_created"`
	TasksCompleted  int    `json:"tasks_completed"`
	XPEarned        int    `json:"xp_earned"`
	PomodoroMinutes int    `json:"pomodoro_minutes"`
}

func toDailyAnalyticsView(d domain.DailyAnalytics) DailyAnalyticsView {
	return DailyAnalyticsView{
		Day:             d.Day.Format("2006-01-02"),
		TasksCreated:    d.TasksCreated,
		TasksCompleted:  d.TasksCompleted,
		XPEarned:        d.XPEarned,
		PomodoroMinutes: d.PomodoroMinutes,
	}
}

// SummaryView exposes lifetime analytics totals.
type SummaryView struct {
	TotalTasksCreated    int     `json:"total_tasks_created"`
	TotalTasksCompleted  int     `json:"total_tasks_completed"`
	TotalXPEarned        int     `json:"total_xp_earned"`
	TotalPomodoroMinutes int     `json:"total_pomodoro_minutes"`
	CompletionRate       float64 `json:"completion_rate"`
	CurrentStreak        int     `json:"current_streak"`
	LongestStreak        int     `json:"longest_streak"`
}

func toSummaryView(s domain.AnalyticsSummary) SummaryView {
	return SummaryView{
		TotalTasksCreated:    s.TotalTasksCreated,
		TotalTasksCompleted:  s.TotalTasksCompleted,
		TotalXPEarned:        s.TotalXPEarned,
		TotalPomodoroMinutes: s.TotalPomodoroMinutes,
		CompletionRate:       s.CompletionRate,
		CurrentStreak:        s.CurrentStreak,
		LongestStreak:        s.LongestStreak,
	}
}
