package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZobairQ/taskflow-sub002/internal/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so profile helpers
// can run standalone or inside a caller's transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GamificationRepository provides Postgres-backed profile and power-up storage.
type GamificationRepository struct {
	pool *pgxpool.Pool
}

// NewGamificationRepository constructs a GamificationRepository.
func NewGamificationRepository(pool *pgxpool.Pool) *GamificationRepository {
	return &GamificationRepository{pool: pool}
}

const profileColumns = `user_id, xp, level, current_streak, longest_streak, last_completed_on, updated_at`

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.UserID, &p.XP, &p.Level, &p.CurrentStreak, &p.LongestStreak, &p.LastCompletedOn, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfile returns the user's profile, or (nil, nil) when absent.
func (r *GamificationRepository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := scanProfile(r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM gamification_profiles WHERE user_id=$1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}

// lockProfile reads the profile row FOR UPDATE, falling back to the zero
// profile when the user has no row yet.
func lockProfile(ctx context.Context, tx pgx.Tx, userID string, now time.Time) (*domain.Profile, error) {
	profile, err := scanProfile(tx.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM gamification_profiles WHERE user_id=$1 FOR UPDATE`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			zero := domain.NewProfile(userID, now)
			return &zero, nil
		}
		return nil, err
	}
	return profile, nil
}

// upsertProfile writes the full profile row.
func upsertProfile(ctx context.Context, q querier, p domain.Profile) error {
	const stmt = `INSERT INTO gamification_profiles (user_id, xp, level, current_streak, longest_streak, last_completed_on, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (user_id) DO UPDATE SET xp=EXCLUDED.xp, level=EXCLUDED.level,
            current_streak=EXCLUDED.current_streak, longest_streak=EXCLUDED.longest_streak,
            last_completed_on=EXCLUDED.last_completed_on, updated_at=EXCLUDED.updated_at`

	_, err := q.Exec(ctx, stmt, p.UserID, p.XP, p.Level, p.CurrentStreak, p.LongestStreak, p.LastCompletedOn, p.UpdatedAt)
	return err
}

// activePowerUps lists the user's unexpired power-ups.
func activePowerUps(ctx context.Context, q querier, userID string, now time.Time) ([]domain.PowerUp, error) {
	const query = `SELECT power_up_id, user_id, kind, multiplier, activated_at, expires_at
        FROM power_ups WHERE user_id=$1 AND expires_at > $2 ORDER BY activated_at`

	rows, err := q.Query(ctx, query, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PowerUp
	for rows.Next() {
		var p domain.PowerUp
		if err := rows.Scan(&p.ID, &p.UserID, &p.Kind, &p.Multiplier, &p.ActivatedAt, &p.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ActivePowerUps lists the user's unexpired power-ups.
func (r *GamificationRepository) ActivePowerUps(ctx context.Context, userID string, now time.Time) ([]domain.PowerUp, error) {
	return activePowerUps(ctx, r.pool, userID, now)
}

// ActivatePowerUp records a new power-up activation.
func (r *GamificationRepository) ActivatePowerUp(ctx context.Context, p domain.PowerUp) error {
	const stmt = `INSERT INTO power_ups (power_up_id, user_id, kind, multiplier, activated_at, expires_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.pool.Exec(ctx, stmt, p.ID, p.UserID, p.Kind, p.Multiplier, p.ActivatedAt, p.ExpiresAt)
	return err
}

// ResetStaleStreaks zeroes streaks with no completion yesterday or today.
func (r *GamificationRepository) ResetStaleStreaks(ctx context.Context, now time.Time) (int, error) {
	const stmt = `UPDATE gamification_profiles SET current_streak=0, updated_at=$1
        WHERE current_streak > 0
          AND (last_completed_on IS NULL OR last_completed_on < ($1::date - INTERVAL '1 day'))`

	tag, err := r.pool.Exec(ctx, stmt, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// DeleteExpiredPowerUps sweeps power-up rows past their expiry.
func (r *GamificationRepository) DeleteExpiredPowerUps(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM power_ups WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
