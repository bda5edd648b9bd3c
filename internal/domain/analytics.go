package domain

import (
	"context"
	"errors"
	"time"
)

// ErrRangeTooWide bounds analytics range queries.
var ErrRangeTooWide = errors.New("analytics range exceeds 92 days")

// DailyAnalytics is the per-user per-day rollup row maintained by the
// worker consumer.
type DailyAnalytics struct {
	UserID          string
	Day             time.Time
	TasksCreated    int
	TasksCompleted  int
	XPEarned        int
	PomodoroMinutes int
}

// DailyDelta is an increment applied to a rollup row.
type DailyDelta struct {
	TasksCreated    int
	TasksCompleted  int
	XPEarned        int
	PomodoroMinutes int
}

// AnalyticsSummary aggregates lifetime numbers for the summary endpoint.
type AnalyticsSummary struct {
	TotalTasksCreated    int
	TotalTasksCompleted  int
	TotalXPEarned        int
	TotalPomodoroMinutes int
	CompletionRate       float64
	CurrentStreak        int
	LongestStreak        int
}

// AnalyticsRepository captures rollup persistence.
type AnalyticsRepository interface {
	// IncrementDaily upserts the (user, day) row adding the delta.
	IncrementDaily(ctx context.Context, userID string, day time.Time, delta DailyDelta) error
	Range(ctx context.Context, userID string, from, to time.Time) ([]DailyAnalytics, error)
	Summary(ctx context.Context, userID string) (AnalyticsSummary, error)
}

// AnalyticsService serves rollup reads.
type AnalyticsService struct {
	repo AnalyticsRepository
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(repo AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

const maxRangeDays = 92

// Range returns daily rows between from and to inclusive.
func (s *AnalyticsService) Range(ctx context.Context, userID string, from, to time.Time) ([]DailyAnalytics, error) {
	from, to = DayUTC(from), DayUTC(to)
	if to.Before(from) {
		from, to = to, from
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return nil, ErrRangeTooWide
	}
	return s.repo.Range(ctx, userID, from, to)
}

// Summary returns lifetime aggregates for the caller.
func (s *AnalyticsService) Summary(ctx context.Context, userID string) (AnalyticsSummary, error) {
	return s.repo.Summary(ctx, userID)
}
