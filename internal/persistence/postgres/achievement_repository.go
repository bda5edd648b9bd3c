package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZobairQ/taskflow-sub002/internal/domain"
)

// AchievementRepository provides Postgres-backed achievement storage.
type AchievementRepository struct {
	pool *pgxpool.Pool
}

// NewAchievementRepository constructs an AchievementRepository.
func NewAchievementRepository(pool *pgxpool.Pool) *AchievementRepository {
	return &AchievementRepository{pool: pool}
}

// ListDefinitions returns the global achievement catalog.
func (r *AchievementRepository) ListDefinitions(ctx context.Context) ([]domain.Achievement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT achievement_id, code, title, description, criterion, threshold FROM achievements ORDER BY threshold, code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		if err := rows.Scan(&a.ID, &a.Code, &a.Title, &a.Description, &a.Criterion, &a.Threshold); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListUnlocks returns the user's unlock records.
func (r *AchievementRepository) ListUnlocks(ctx context.Context, userID string) ([]domain.AchievementUnlock, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, achievement_id, unlocked_at FROM achievement_unlocks WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AchievementUnlock
	for rows.Next() {
		var u domain.AchievementUnlock
		if err := rows.Scan(&u.UserID, &u.AchievementID, &u.UnlockedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Unlock records an unlock idempotently; a repeat keeps the original timestamp.
func (r *AchievementRepository) Unlock(ctx context.Context, userID, achievementID string, at time.Time) error {
	const stmt = `INSERT INTO achievement_unlocks (user_id, achievement_id, unlocked_at)
        VALUES ($1,$2,$3) ON CONFLICT (user_id, achievement_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, stmt, userID, achievementID, at)
	return err
}

// Stats gathers the counters achievements are judged against.
func (r *AchievementRepository) Stats(ctx context.Context, userID string) (domain.AchievementStats, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM tasks WHERE user_id=$1 AND completed),
        COALESCE((SELECT current_streak FROM gamification_profiles WHERE user_id=$1), 0),
        COALESCE((SELECT level FROM gamification_profiles WHERE user_id=$1), 1),
        (SELECT COUNT(*) FROM pomodoro_sessions WHERE user_id=$1 AND state='completed')`

	var stats domain.AchievementStats
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&stats.TasksCompleted, &stats.CurrentStreak, &stats.Level, &stats.Pomodoros)
	if err != nil {
		return domain.AchievementStats{}, err
	}
	if stats.Level < 1 {
		stats.Level = 1
	}
	return stats, nil
}
