package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStartSessionAppliesClassicDefaults(t *testing.T) {
	repo := &stubPomodoroRepo{}
	svc := NewPomodoroService(repo)

	session, err := svc.StartSession(context.Background(), StartSessionInput{UserID: "user-1"})
	require.NoError(t, err)
	require.Equal(t, 25, session.WorkMinutes)
	require.Equal(t, 5, session.BreakMinutes)
	require.Equal(t, 4, session.CyclesPlanned)
	require.Equal(t, PomodoroRunning, session.State)
}

func TestStartSessionRejectsSecondRunning(t *testing.T) {
	repo := &stubPomodoroRepo{
		running: &PomodoroSession{ID: "s-1", UserID: "user-1", State: PomodoroRunning},
	}
	svc := NewPomodoroService(repo)

	_, err := svc.StartSession(context.Background(), StartSessionInput{UserID: "user-1"})
	require.ErrorIs(t, err, ErrSessionRunning)
}

func TestCompleteSessionClampsCycles(t *testing.T) {
	repo := &stubPomodoroRepo{
		byID: map[string]*PomodoroSession{
			"s-1": {ID: "s-1", UserID: "user-1", WorkMinutes: 25, CyclesPlanned: 4, State: PomodoroRunning},
		},
	}
	svc := NewPomodoroService(repo)

	session, err := svc.CompleteSession(context.Background(), "user-1", "s-1", 9)
	require.NoError(t, err)
	require.Equal(t, 4, session.CyclesCompleted)
	require.Equal(t, PomodoroCompleted, session.State)
	require.NotNil(t, session.EndedAt)
	require.Equal(t, 100, session.WorkMinutesCredited())
}

func TestCompleteSessionRejectsFinished(t *testing.T) {
	repo := &stubPomodoroRepo{
		byID: map[string]*PomodoroSession{
			"s-1": {ID: "s-1", UserID: "user-1", State: PomodoroAbandoned},
		},
	}
	svc := NewPomodoroService(repo)

	_, err := svc.CompleteSession(context.Background(), "user-1", "s-1", 2)
	require.ErrorIs(t, err, ErrSessionFinished)
}

func TestAbandonSessionUnknownID(t *testing.T) {
	svc := NewPomodoroService(&stubPomodoroRepo{})

	_, err := svc.AbandonSession(context.Background(), "user-1", "missing")
	require.ErrorIs(t, err, ErrPomodoroNotFound)
}

type stubPomodoroRepo struct {
	byID    map[string]*PomodoroSession
	running *PomodoroSession
}

func (r *stubPomodoroRepo) Create(_ context.Context, session PomodoroSession) error {
	if r.byID == nil {
		r.byID = make(map[string]*PomodoroSession)
	}
	r.byID[session.ID] = &session
	return nil
}

func (r *stubPomodoroRepo) Get(_ context.Context, _, sessionID string) (*PomodoroSession, error) {
	if session, ok := r.byID[sessionID]; ok {
		copied := *session
		return &copied, nil
	}
	return nil, nil
}

func (r *stubPomodoroRepo) GetRunning(_ context.Context, _ string) (*PomodoroSession, error) {
	return r.running, nil
}

func (r *stubPomodoroRepo) List(_ context.Context, _ string, _ int) ([]PomodoroSession, error) {
	return nil, nil
}

func (r *stubPomodoroRepo) Complete(_ context.Context, session PomodoroSession) error {
	r.byID[session.ID] = &session
	return nil
}

func (r *stubPomodoroRepo) Abandon(_ context.Context, session PomodoroSession) error {
	r.byID[session.ID] = &session
	return nil
}
