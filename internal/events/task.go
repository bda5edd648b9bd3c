// Package events defines the payloads carried by outbox events and
// consumed by the worker pipeline.
package events

import "time"

// TaskCreated is emitted when a new task is accepted.
type TaskCreated struct {
	TaskID    string    `json:"task_id"`
	UserID    string    `json:"user_id"`
	ProjectID *string   `json:"project_id,omitempty"`
	Priority  string    `json:"priority"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskCompleted is emitted when a task transitions to completed. It carries
// the XP award so downstream consumers never re-run the gamification math.
type TaskCompleted struct {
	TaskID      string    `json:"task_id"`
	UserID      string    `json:"user_id"`
	Priority    string    `json:"priority"`
	AwardedXP   int       `json:"awarded_xp"`
	Level       int       `json:"level"`
	Streak      int       `json:"streak"`
	CompletedAt time.Time `json:"completed_at"`
	Day         string    `json:"day"`
}

// TaskReopened is emitted when a completed task is reopened.
type TaskReopened struct {
	TaskID     string    `json:"task_id"`
	UserID     string    `json:"user_id"`
	DeductedXP int       `json:"deducted_xp"`
	OccurredAt time.Time `json:"occurred_at"`
	Day        string    `json:"day"`
}

// PomodoroCompleted is emitted when a pomodoro session finishes.
type PomodoroCompleted struct {
	SessionID       string    `json:"session_id"`
	UserID          string    `json:"user_id"`
	TaskID          *string   `json:"task_id,omitempty"`
	WorkMinutes     int       `json:"work_minutes"`
	CyclesCompleted int       `json:"cycles_completed"`
	EndedAt         time.Time `json:"ended_at"`
	Day             string    `json:"day"`
}

// ChallengeCompleted is emitted when a user finishes the daily challenge.
type ChallengeCompleted struct {
	ChallengeID string    `json:"challenge_id"`
	UserID      string    `json:"user_id"`
	Code        string    `json:"code"`
	RewardXP    int       `json:"reward_xp"`
	CompletedAt time.Time `json:"completed_at"`
	Day         string    `json:"day"`
}

// DayFormat is the date layout used in event payloads and analytics keys.
const DayFormat = "2006-01-02"
