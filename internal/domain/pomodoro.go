package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSessionRunning limits a user to one running pomodoro at a time.
	ErrSessionRunning = errors.New("a pomodoro session is already running")
	// ErrPomodoroNotFound is returned when a session cannot be located.
	ErrPomodoroNotFound = errors.New("pomodoro session not found")
	// ErrSessionFinished rejects transitions on completed or abandoned sessions.
	ErrSessionFinished = errors.New("pomodoro session already finished")
)

// PomodoroState is the lifecycle state of a session.
type PomodoroState string

const (
	PomodoroRunning   PomodoroState = "running"
	PomodoroCompleted PomodoroState = "completed"
	PomodoroAbandoned PomodoroState = "abandoned"
)

// PomodoroSession is one work/break timer run, optionally linked to a task.
type PomodoroSession struct {
	ID              string
	UserID          string
	TaskID          *string
	StartedAt       time.Time
	WorkMinutes     int
	BreakMinutes    int
	CyclesPlanned   int
	CyclesCompleted int
	State           PomodoroState
	EndedAt         *time.Time
}

// PomodoroRepository captures pomodoro persistence. Complete inserts the
// pomodoro.completed outbox event in the same transaction.
type PomodoroRepository interface {
	Create(ctx context.Context, session PomodoroSession) error
	Get(ctx context.Context, userID, sessionID string) (*PomodoroSession, error)
	GetRunning(ctx context.Context, userID string) (*PomodoroSession, error)
	List(ctx context.Context, userID string, limit int) ([]PomodoroSession, error)
	Complete(ctx context.Context, session PomodoroSession) error
	Abandon(ctx context.Context, session PomodoroSession) error
}

// PomodoroService orchestrates session lifecycle.
type PomodoroService struct {
	repo PomodoroRepository
	now  func() time.Time
}

// NewPomodoroService constructs a PomodoroService.
func NewPomodoroService(repo PomodoroRepository) *PomodoroService {
	return &PomodoroService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// StartSessionInput captures the payload for starting a session.
type StartSessionInput struct {
	UserID        string
	TaskID        *string
	WorkMinutes   int
	BreakMinutes  int
	CyclesPlanned int
}

// StartSession begins a session. The classic 25/5 pattern is the default.
func (s *PomodoroService) StartSession(ctx context.Context, input StartSessionInput) (*PomodoroSession, error) {
	running, err := s.repo.GetRunning(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if running != nil {
		return nil, ErrSessionRunning
	}

	if input.WorkMinutes <= 0 {
		input.WorkMinutes = 25
	}
	if input.BreakMinutes <= 0 {
		input.BreakMinutes = 5
	}
	if input.CyclesPlanned <= 0 {
		input.CyclesPlanned = 4
	}

	session := PomodoroSession{
		ID:            uuid.NewString(),
		UserID:        input.UserID,
		TaskID:        input.TaskID,
		StartedAt:     s.now(),
		WorkMinutes:   input.WorkMinutes,
		BreakMinutes:  input.BreakMinutes,
		CyclesPlanned: input.CyclesPlanned,
		State:         PomodoroRunning,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns the caller's most recent sessions.
func (s *PomodoroService) ListSessions(ctx context.Context, userID string, limit int) ([]PomodoroSession, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, userID, limit)
}

// CompleteSession finishes a running session with the cycles actually done.
func (s *PomodoroService) CompleteSession(ctx context.Context, userID, sessionID string, cyclesCompleted int) (*PomodoroSession, error) {
	session, err := s.repo.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrPomodoroNotFound
	}
	if session.State != PomodoroRunning {
		return nil, ErrSessionFinished
	}

	if cyclesCompleted < 0 {
		cyclesCompleted = 0
	}
	if cyclesCompleted > session.CyclesPlanned {
		cyclesCompleted = session.CyclesPlanned
	}

	now := s.now()
	session.CyclesCompleted = cyclesCompleted
	session.State = PomodoroCompleted
	session.EndedAt = &now

	if err := s.repo.Complete(ctx, *session); err != nil {
		return nil, err
	}
	return session, nil
}

// AbandonSession stops a running session without credit.
func (s *PomodoroService) AbandonSession(ctx context.Context, userID, sessionID string) (*PomodoroSession, error) {
	session, err := s.repo.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrPomodoroNotFound
	}
	if session.State != PomodoroRunning {
		return nil, ErrSessionFinished
	}

	now := s.now()
	session.State = PomodoroAbandoned
	session.EndedAt = &now

	if err := s.repo.Abandon(ctx, *session); err != nil {
		return nil, err
	}
	return session, nil
}

// WorkMinutesCredited is the focused time a completed session contributes to
// analytics: full cycles actually finished.
func (p PomodoroSession) WorkMinutesCredited() int {
	return p.WorkMinutes * p.CyclesCompleted
}
