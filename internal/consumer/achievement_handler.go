package consumer

import (
	"context"
	"log/slog"

	"github.com/ZobairQ/taskflow-sub002/internal/domain"
)

// AchievementHandler re-evaluates a user's achievement criteria after
// progress-bearing events. Unlocks are idempotent, so re-delivery is safe.
type AchievementHandler struct {
	achievements *domain.AchievementService
	logger       *slog.Logger
}

// NewAchievementHandler constructs an AchievementHandler. A nil logger falls
// back to slog.Default.
func NewAchievementHandler(achievements *domain.AchievementService, logger *slog.Logger) *AchievementHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AchievementHandler{achievements: achievements, logger: logger}
}

// Handle implements Handler.
func (h *AchievementHandler) Handle(ctx context.Context, msg Message) error {
	switch msg.EventType {
	case "task.completed", "pomodoro.completed", "challenge.completed":
	default:
		return nil
	}
	if msg.UserID == "" {
		return nil
	}

	unlocked, err := h.achievements.EvaluateUser(ctx, msg.UserID)
	if err != nil {
		return err
	}
	for _, ach := range unlocked {
		h.logger.Info("achievement unlocked", "user_id", msg.UserID, "code", ach.Code)
	}
	return nil
}
