package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZobairQ/taskflow-sub002/internal/domain"
	"github.com/ZobairQ/taskflow-sub002/internal/events"
)

// PomodoroRepository provides Postgres-backed pomodoro session storage.
type PomodoroRepository struct {
	pool *pgxpool.Pool
}

// NewPomodoroRepository constructs a PomodoroRepository.
func NewPomodoroRepository(pool *pgxpool.Pool) *PomodoroRepository {
	return &PomodoroRepository{pool: pool}
}

const pomodoroColumns = `session_id, user_id, task_id, started_at, work_minutes, break_minutes,
    cycles_planned, cycles_completed, state, ended_at`

func scanPomodoro(row pgx.Row) (*domain.PomodoroSession, error) {
	var s domain.PomodoroSession
	err := row.Scan(&s.ID, &s.UserID, &s.TaskID, &s.StartedAt, &s.WorkMinutes, &s.BreakMinutes,
		&s.CyclesPlanned, &s.CyclesCompleted, &s.State, &s.EndedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create persists a new session.
func (r *PomodoroRepository) Create(ctx context.Context, session domain.PomodoroSession) error {
	const stmt = `INSERT INTO pomodoro_sessions (session_id, user_id, task_id, started_at, work_minutes,
        break_minutes, cycles_planned, cycles_completed, state, ended_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

	_, err := r.pool.Exec(ctx, stmt, session.ID, session.UserID, session.TaskID, session.StartedAt,
		session.WorkMinutes, session.BreakMinutes, session.CyclesPlanned, session.CyclesCompleted,
		session.State, session.EndedAt)
	return err
}

// Get retrieves a session scoped to its owner. Missing rows return (nil, nil).
func (r *PomodoroRepository) Get(ctx context.Context, userID, sessionID string) (*domain.PomodoroSession, error) {
	session, err := scanPomodoro(r.pool.QueryRow(ctx,
		`SELECT `+pomodoroColumns+` FROM pomodoro_sessions WHERE user_id=$1 AND session_id=$2`, userID, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// GetRunning returns the user's running session, if any.
func (r *PomodoroRepository) GetRunning(ctx context.Context, userID string) (*domain.PomodoroSession, error) {
	session, err := scanPomodoro(r.pool.QueryRow(ctx,
		`SELECT `+pomodoroColumns+` FROM pomodoro_sessions WHERE user_id=$1 AND state='running'
         ORDER BY started_at DESC LIMIT 1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// List returns the user's most recent sessions.
func (r *PomodoroRepository) List(ctx context.Context, userID string, limit int) ([]domain.PomodoroSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+pomodoroColumns+` FROM pomodoro_sessions WHERE user_id=$1
         ORDER BY started_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PomodoroSession
	for rows.Next() {
		session, err := scanPomodoro(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *session)
	}
	return out, rows.Err()
}

// Complete finalises a session and records the pomodoro.completed event in
// the same transaction.
func (r *PomodoroRepository) Complete(ctx context.Context, session domain.PomodoroSession) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const stmt = `UPDATE pomodoro_sessions SET cycles_completed=$3, state=$4, ended_at=$5
        WHERE user_id=$1 AND session_id=$2 AND state='running'`
	tag, err := tx.Exec(ctx, stmt, session.UserID, session.ID, session.CyclesCompleted, session.State, session.EndedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionFinished
	}

	payload := events.PomodoroCompleted{
		SessionID:       session.ID,
		UserID:          session.UserID,
		TaskID:          session.TaskID,
		WorkMinutes:     session.WorkMinutesCredited(),
		CyclesCompleted: session.CyclesCompleted,
		EndedAt:         *session.EndedAt,
		Day:             domain.DayUTC(*session.EndedAt).Format(events.DayFormat),
	}
	dedupe := fmt.Sprintf("%s:pomodoro.completed", session.ID)
	if err := insertOutbox(ctx, tx, session.UserID, "pomodoro", session.ID, "pomodoro.completed", dedupe, payload); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Abandon finalises a session without credit.
func (r *PomodoroRepository) Abandon(ctx context.Context, session domain.PomodoroSession) error {
	const stmt = `UPDATE pomodoro_sessions SET state=$3, ended_at=$4
        WHERE user_id=$1 AND session_id=$2 AND state='running'`
	tag, err := r.pool.Exec(ctx, stmt, session.UserID, session.ID, session.State, session.EndedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionFinished
	}
	return nil
}
