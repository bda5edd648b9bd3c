package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZobairQ/taskflow-sub002/internal/domain"
	"github.com/ZobairQ/taskflow-sub002/internal/events"
)

// ChallengeRepository provides Postgres-backed daily challenge storage.
type ChallengeRepository struct {
	pool *pgxpool.Pool
}

// NewChallengeRepository constructs a ChallengeRepository.
func NewChallengeRepository(pool *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{pool: pool}
}

const challengeColumns = `challenge_id, day, code, title, target, reward_xp`

func scanChallenge(row pgx.Row) (*domain.Challenge, error) {
	var c domain.Challenge
	err := row.Scan(&c.ID, &c.Day, &c.Code, &c.Title, &c.Target, &c.RewardXP)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// EnsureForDay inserts the day's challenge if absent and returns the stored
// row, which wins over the argument if another instance raced the insert.
func (r *ChallengeRepository) EnsureForDay(ctx context.Context, challenge domain.Challenge) (*domain.Challenge, error) {
	const stmt = `INSERT INTO daily_challenges (challenge_id, day, code, title, target, reward_xp)
        VALUES ($1,$2,$3,$4,$5,$6) ON CONFLICT (day) DO NOTHING`

	if _, err := r.pool.Exec(ctx, stmt, challenge.ID, challenge.Day, challenge.Code,
		challenge.Title, challenge.Target, challenge.RewardXP); err != nil {
		return nil, err
	}
	return r.GetForDay(ctx, challenge.Day)
}

// GetForDay fetches the challenge for a day. Missing rows return (nil, nil).
func (r *ChallengeRepository) GetForDay(ctx context.Context, day time.Time) (*domain.Challenge, error) {
	challenge, err := scanChallenge(r.pool.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM daily_challenges WHERE day=$1`, domain.DayUTC(day)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return challenge, nil
}

// GetProgress fetches a user's progress row. Missing rows return (nil, nil).
func (r *ChallengeRepository) GetProgress(ctx context.Context, userID, challengeID string) (*domain.ChallengeProgress, error) {
	var p domain.ChallengeProgress
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, challenge_id, progress, completed_at FROM challenge_progress
         WHERE user_id=$1 AND challenge_id=$2`, userID, challengeID).
		Scan(&p.UserID, &p.ChallengeID, &p.Progress, &p.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Advance increments progress, and on first reaching the target flips the
// completion, credits the reward XP, and emits challenge.completed, all in
// one transaction. Further increments after completion are no-ops.
func (r *ChallengeRepository) Advance(ctx context.Context, userID string, challenge domain.Challenge, delta int, now time.Time) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	const upsert = `INSERT INTO challenge_progress (user_id, challenge_id, progress)
        VALUES ($1,$2,$3)
        ON CONFLICT (user_id, challenge_id) DO UPDATE
            SET progress = challenge_progress.progress + EXCLUDED.progress
            WHERE challenge_progress.completed_at IS NULL
        RETURNING progress, completed_at`

	var (
		progress    int
		completedAt *time.Time
	)
	if err := tx.QueryRow(ctx, upsert, userID, challenge.ID, delta).Scan(&progress, &completedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already completed; the guarded upsert returned nothing.
			return false, tx.Commit(ctx)
		}
		return false, err
	}

	if completedAt != nil || progress < challenge.Target {
		return false, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE challenge_progress SET completed_at=$3 WHERE user_id=$1 AND challenge_id=$2`,
		userID, challenge.ID, now); err != nil {
		return false, err
	}

	profile, err := lockProfile(ctx, tx, userID, now)
	if err != nil {
		return false, err
	}
	profile.XP += challenge.RewardXP
	if level := domain.LevelForXP(profile.XP); level > profile.Level {
		profile.Level = level
	}
	profile.UpdatedAt = now
	if err := upsertProfile(ctx, tx, *profile); err != nil {
		return false, err
	}

	payload := events.ChallengeCompleted{
		ChallengeID: challenge.ID,
		UserID:      userID,
		Code:        challenge.Code,
		RewardXP:    challenge.RewardXP,
		CompletedAt: now,
		Day:         domain.DayUTC(now).Format(events.DayFormat),
	}
	dedupe := fmt.Sprintf("%s:%s:challenge.completed", challenge.ID, userID)
	if err := insertOutbox(ctx, tx, userID, "challenge", challenge.ID, "challenge.completed", dedupe, payload); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}
