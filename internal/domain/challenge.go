package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNoChallengeToday is returned before the day's challenge has been rotated in.
var ErrNoChallengeToday = errors.New("no challenge for today")

// Challenge is the definition active for a single calendar day.
type Challenge struct {
	ID       string
	Day      time.Time
	Code     string
	Title    string
	Target   int
	RewardXP int
}

// ChallengeProgress tracks one user's progress against a challenge.
type ChallengeProgress struct {
	UserID      string
	ChallengeID string
	Progress    int
	CompletedAt *time.Time
}

// ChallengeTemplate is a catalog entry the scheduler rotates through.
type ChallengeTemplate struct {
	Code     string
	Title    string
	Target   int
	RewardXP int
}

// ChallengeCatalog is the rotating set of daily challenges. The entry for a
// day is picked by day-number modulo catalog length, so every instance of
// the worker derives the same challenge without coordination.
var ChallengeCatalog = []ChallengeTemplate{
	{Code: "complete_three", Title: "Complete 3 tasks", Target: 3, RewardXP: 60},
	{Code: "complete_high_priority", Title: "Complete a high or urgent priority task", Target: 1, RewardXP: 40},
	{Code: "finish_pomodoro", Title: "Finish a pomodoro session", Target: 1, RewardXP: 30},
	{Code: "complete_five", Title: "Complete 5 tasks", Target: 5, RewardXP: 100},
	{Code: "early_bird", Title: "Complete a task before noon", Target: 1, RewardXP: 25},
}

// TemplateForDay deterministically picks the catalog entry for a day.
func TemplateForDay(day time.Time) ChallengeTemplate {
	epochDays := int(DayUTC(day).Unix() / 86400)
	return ChallengeCatalog[epochDays%len(ChallengeCatalog)]
}

// ChallengeRepository captures daily challenge persistence. Advance runs the
// progress update, the completion flip, and the reward XP credit in one
// transaction; completing emits a challenge.completed outbox event.
type ChallengeRepository interface {
	// EnsureForDay inserts the day's challenge if absent and returns it.
	EnsureForDay(ctx context.Context, challenge Challenge) (*Challenge, error)
	GetForDay(ctx context.Context, day time.Time) (*Challenge, error)
	GetProgress(ctx context.Context, userID, challengeID string) (*ChallengeProgress, error)
	Advance(ctx context.Context, userID string, challenge Challenge, delta int, now time.Time) (completed bool, err error)
}

// ChallengeService serves the daily challenge and routes event-driven progress.
type ChallengeService struct {
	repo ChallengeRepository
	now  func() time.Time
}

// NewChallengeService constructs a ChallengeService.
func NewChallengeService(repo ChallengeRepository) *ChallengeService {
	return &ChallengeService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// ChallengeView pairs the day's challenge with the caller's progress.
type ChallengeView struct {
	Challenge   Challenge
	Progress    int
	CompletedAt *time.Time
}

// Today returns the current challenge and the caller's progress against it.
func (s *ChallengeService) Today(ctx context.Context, userID string) (*ChallengeView, error) {
	day := DayUTC(s.now())
	challenge, err := s.repo.GetForDay(ctx, day)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, ErrNoChallengeToday
	}

	view := ChallengeView{Challenge: *challenge}
	progress, err := s.repo.GetProgress(ctx, userID, challenge.ID)
	if err != nil {
		return nil, err
	}
	if progress != nil {
		view.Progress = progress.Progress
		view.CompletedAt = progress.CompletedAt
	}
	return &view, nil
}

// RecordTaskCompletion advances challenge progress for a completed task.
func (s *ChallengeService) RecordTaskCompletion(ctx context.Context, userID string, priority Priority, completedAt time.Time) error {
	challenge, err := s.repo.GetForDay(ctx, DayUTC(completedAt))
	if err != nil || challenge == nil {
		return err
	}

	switch challenge.Code {
	case "complete_three", "complete_five":
		// Any completion counts.
	case "complete_high_priority":
		if priority != PriorityHigh && priority != PriorityUrgent {
			return nil
		}
	case "early_bird":
		if completedAt.UTC().Hour() >= 12 {
			return nil
		}
	default:
		return nil
	}

	_, err = s.repo.Advance(ctx, userID, *challenge, 1, s.now())
	return err
}

// RecordPomodoroCompletion advances challenge progress for a finished session.
func (s *ChallengeService) RecordPomodoroCompletion(ctx context.Context, userID string, endedAt time.Time) error {
	challenge, err := s.repo.GetForDay(ctx, DayUTC(endedAt))
	if err != nil || challenge == nil {
		return err
	}
	if challenge.Code != "finish_pomodoro" {
		return nil
	}
	_, err = s.repo.Advance(ctx, userID, *challenge, 1, s.now())
	return err
}
