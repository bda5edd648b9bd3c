package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZobairQ/taskflow-sub002/internal/domain"
)

// AnalyticsRepository provides Postgres-backed rollup storage.
type AnalyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository constructs an AnalyticsRepository.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// IncrementDaily upserts the (user, day) row adding the delta. Negative
// deltas (task reopens) are clamped at zero by GREATEST.
func (r *AnalyticsRepository) IncrementDaily(ctx context.Context, userID string, day time.Time, delta domain.DailyDelta) error {
	const stmt = `INSERT INTO daily_analytics (user_id, day, tasks_created, tasks_completed, xp_earned, pomodoro_minutes)
        VALUES ($1,$2,GREATEST($3,0),GREATEST($4,0),GREATEST($5,0),GREATEST($6,0))
        ON CONFLICT (user_id, day) DO UPDATE SET
            tasks_created    = GREATEST(daily_analytics.tasks_created + $3, 0),
            tasks_completed  = GREATEST(daily_analytics.tasks_completed + $4, 0),
            xp_earned        = GREATEST(daily_analytics.xp_earned + $5, 0),
            pomodoro_minutes = GREATEST(daily_analytics.pomodoro_minutes + $6, 0)`

	_, err := r.pool.Exec(ctx, stmt, userID, domain.DayUTC(day),
		delta.TasksCreated, delta.TasksCompleted, delta.XPEarned, delta.PomodoroMinutes)
	return err
}

// Range returns daily rows between from and to inclusive, oldest first.
func (r *AnalyticsRepository) Range(ctx context.Context, userID string, from, to time.Time) ([]domain.DailyAnalytics, error) {
	const query = `SELECT user_id, day, tasks_created, tasks_completed, xp_earned, pomodoro_minutes
        FROM daily_analytics WHERE user_id=$1 AND day BETWEEN $2 AND $3 ORDER BY day`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailyAnalytics
	for rows.Next() {
		var row domain.DailyAnalytics
		if err := rows.Scan(&row.UserID, &row.Day, &row.TasksCreated, &row.TasksCompleted,
			&row.XPEarned, &row.PomodoroMinutes); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Summary aggregates lifetime rollups joined with the streak state.
func (r *AnalyticsRepository) Summary(ctx context.Context, userID string) (domain.AnalyticsSummary, error) {
	const query = `SELECT
        COALESCE(SUM(tasks_created), 0),
        COALESCE(SUM(tasks_completed), 0),
        COALESCE(SUM(xp_earned), 0),
        COALESCE(SUM(pomodoro_minutes), 0)
        FROM daily_analytics WHERE user_id=$1`

	var summary domain.AnalyticsSummary
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&summary.TotalTasksCreated, &summary.TotalTasksCompleted,
		&summary.TotalXPEarned, &summary.TotalPomodoroMinutes); err != nil {
		return domain.AnalyticsSummary{}, err
	}

	if summary.TotalTasksCreated > 0 {
		summary.CompletionRate = float64(summary.TotalTasksCompleted) / float64(summary.TotalTasksCreated)
	}

	const streakQuery = `SELECT current_streak, longest_streak FROM gamification_profiles WHERE user_id=$1`
	rows, err := r.pool.Query(ctx, streakQuery, userID)
	if err != nil {
		return domain.AnalyticsSummary{}, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&summary.CurrentStreak, &summary.LongestStreak); err != nil {
			return domain.AnalyticsSummary{}, err
		}
	}
	return summary, rows.Err()
}
