package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ZobairQ/taskflow-sub002/internal/domain"
	"github.com/ZobairQ/taskflow-sub002/internal/events"
)

// ChallengeHandler advances daily challenge progress from task and
// pomodoro completions.
type ChallengeHandler struct {
	challenges *domain.ChallengeService
}

// NewChallengeHandler constructs a ChallengeHandler.
func NewChallengeHandler(challenges *domain.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges}
}

// Handle implements Handler.
func (h *ChallengeHandler) Handle(ctx context.Context, msg Message) error {
	switch msg.EventType {
	case "task.completed":
		var evt events.TaskCompleted
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode task.completed: %w", err)
		}
		return h.challenges.RecordTaskCompletion(ctx, evt.UserID, domain.Priority(evt.Priority), evt.CompletedAt)

	case "pomodoro.completed":
		var evt events.PomodoroCompleted
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode pomodoro.completed: %w", err)
		}
		return h.challenges.RecordPomodoroCompletion(ctx, evt.UserID, evt.EndedAt)
	}

	return nil
}
