package domain

import (
	"context"
	"time"
)

// AchievementCriterion names the statistic an achievement threshold applies to.
type AchievementCriterion string

const (
	CriterionTasksCompleted AchievementCriterion = "tasks_completed"
	CriterionStreak         AchievementCriterion = "streak"
	CriterionLevel          AchievementCriterion = "level"
	CriterionPomodoros      AchievementCriterion = "pomodoros"
)

// Achievement is a global unlock definition.
type Achievement struct {
	ID          string
	Code        string
	Title       string
	Description string
	Criterion   AchievementCriterion
	Threshold   int
}

// AchievementUnlock records that a user earned an achievement.
type AchievementUnlock struct {
	UserID        string
	AchievementID string
	UnlockedAt    time.Time
}

// AchievementStats are the per-user counters achievements are judged against.
type AchievementStats struct {
	TasksCompleted int
	CurrentStreak  int
	Level          int
	Pomodoros      int
}

// Met reports whether the stats satisfy the achievement's criterion.
func (a Achievement) Met(stats AchievementStats) bool {
	switch a.Criterion {
	case CriterionTasksCompleted:
		return stats.TasksCompleted >= a.Threshold
	case CriterionStreak:
		return stats.CurrentStreak >= a.Threshold
	case CriterionLevel:
		return stats.Level >= a.Threshold
	case CriterionPomodoros:
		return stats.Pomodoros >= a.Threshold
	}
	return false
}

// AchievementRepository captures achievement persistence.
type AchievementRepository interface {
	ListDefinitions(ctx context.Context) ([]Achievement, error)
	ListUnlocks(ctx context.Context, userID string) ([]AchievementUnlock, error)
	// Unlock is idempotent: unlocking twice keeps the original timestamp.
	Unlock(ctx context.Context, userID, achievementID string, at time.Time) error
	Stats(ctx context.Context, userID string) (AchievementStats, error)
}

// AchievementService serves the achievement board and evaluates unlocks.
type AchievementService struct {
	repo AchievementRepository
	now  func() time.Time
}

// NewAchievementService constructs an AchievementService.
func NewAchievementService(repo AchievementRepository) *AchievementService {
	return &AchievementService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// AchievementView pairs a definition with the caller's unlock state.
type AchievementView struct {
	Achievement Achievement
	UnlockedAt  *time.Time
}

// ListForUser returns all definitions annotated with the caller's unlocks.
func (s *AchievementService) ListForUser(ctx context.Context, userID string) ([]AchievementView, error) {
	defs, err := s.repo.ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	unlocks, err := s.repo.ListUnlocks(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlockedAt := make(map[string]time.Time, len(unlocks))
	for _, u := range unlocks {
		unlockedAt[u.AchievementID] = u.UnlockedAt
	}

	views := make([]AchievementView, 0, len(defs))
	for _, def := range defs {
		view := AchievementView{Achievement: def}
		if at, ok := unlockedAt[def.ID]; ok {
			ts := at
			view.UnlockedAt = &ts
		}
		views = append(views, view)
	}
	return views, nil
}

// EvaluateUser unlocks every definition whose criterion the user now meets
// and returns the newly satisfied achievements.
func (s *AchievementService) EvaluateUser(ctx context.Context, userID string) ([]Achievement, error) {
	stats, err := s.repo.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	defs, err := s.repo.ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	unlocks, err := s.repo.ListUnlocks(ctx, userID)
	if err != nil {
		return nil, err
	}

	already := make(map[string]bool, len(unlocks))
	for _, u := range unlocks {
		already[u.AchievementID] = true
	}

	now := s.now()
	var earned []Achievement
	for _, def := range defs {
		if already[def.ID] || !def.Met(stats) {
			continue
		}
		if err := s.repo.Unlock(ctx, userID, def.ID, now); err != nil {
			return earned, err
		}
		earned = append(earned, def)
	}
	return earned, nil
}
