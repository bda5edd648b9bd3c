package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ZobairQ/taskflow-sub002/internal/domain"
	"github.com/ZobairQ/taskflow-sub002/internal/events"
)

// AnalyticsHandler folds task and pomodoro events into the daily_analytics
// rollup. Reopen events apply negative deltas; the repository clamps at zero.
type AnalyticsHandler struct {
	analytics domain.AnalyticsRepository
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(analytics domain.AnalyticsRepository) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Handle implements Handler.
func (h *AnalyticsHandler) Handle(ctx context.Context, msg Message) error {
	switch msg.EventType {
	case "task.created":
		var evt events.TaskCreated
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode task.created: %w", err)
		}
		day := domain.DayUTC(evt.CreatedAt)
		return h.analytics.IncrementDaily(ctx, evt.UserID, day, domain.DailyDelta{TasksCreated: 1})

	case "task.completed":
		var evt events.TaskCompleted
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode task.completed: %w", err)
		}
		day, err := eventDay(evt.Day, evt.CompletedAt)
		if err != nil {
			return err
		}
		return h.analytics.IncrementDaily(ctx, evt.UserID, day, domain.DailyDelta{
			TasksCompleted: 1,
			XPEarned:       evt.AwardedXP,
		})

	case "task.reopened":
		var evt events.TaskReopened
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode task.reopened: %w", err)
		}
		day, err := eventDay(evt.Day, evt.OccurredAt)
		if err != nil {
			return err
		}
		return h.analytics.IncrementDaily(ctx, evt.UserID, day, domain.DailyDelta{
			TasksCompleted: -1,
			XPEarned:       -evt.DeductedXP,
		})

	case "pomodoro.completed":
		var evt events.PomodoroCompleted
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode pomodoro.completed: %w", err)
		}
		day, err := eventDay(evt.Day, evt.EndedAt)
		if err != nil {
			return err
		}
		return h.analytics.IncrementDaily(ctx, evt.UserID, day, domain.DailyDelta{
			PomodoroMinutes: evt.WorkMinutes * evt.CyclesCompleted,
		})

	case "challenge.completed":
		var evt events.ChallengeCompleted
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode challenge.completed: %w", err)
		}
		day, err := eventDay(evt.Day, evt.CompletedAt)
		if err != nil {
			return err
		}
		return h.analytics.IncrementDaily(ctx, evt.UserID, day, domain.DailyDelta{
			XPEarned: evt.RewardXP,
		})
	}

	return nil
}

// eventDay prefers the explicit day field and falls back to the event timestamp.
func eventDay(day string, fallback time.Time) (time.Time, error) {
	if day == "" {
		return domain.DayUTC(fallback), nil
	}
	parsed, err := time.Parse(events.DayFormat, day)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse event day %q: %w", day, err)
	}
	return parsed, nil
}
