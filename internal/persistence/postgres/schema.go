// Package postgres provides pgx-backed persistence for the taskflow backend.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the full DDL for the taskflow database. Statements are
// idempotent so Migrate can run on every boot.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id       TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    display_name  TEXT NOT NULL DEFAULT '',
    google_id     TEXT,
    github_id     TEXT,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
    token_hash TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    expires_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
    project_id TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    name       TEXT NOT NULL,
    color      TEXT NOT NULL DEFAULT '#6366f1',
    position   INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
    task_id      TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    project_id   TEXT REFERENCES projects(project_id) ON DELETE CASCADE,
    title        TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    priority     TEXT NOT NULL DEFAULT 'medium',
    category     TEXT NOT NULL DEFAULT '',
    due_date     TIMESTAMPTZ,
    board_column TEXT NOT NULL DEFAULT 'todo',
    position     INT NOT NULL DEFAULT 0,
    completed    BOOLEAN NOT NULL DEFAULT FALSE,
    completed_at TIMESTAMPTZ,
    xp_awarded   INT NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS tasks_user_created_idx ON tasks (user_id, created_at DESC, task_id DESC);
CREATE INDEX IF NOT EXISTS tasks_user_project_idx ON tasks (user_id, project_id);

CREATE TABLE IF NOT EXISTS task_dependencies (
    task_id       TEXT NOT NULL REFERENCES tasks(task_id) ON DELETE CASCADE,
    depends_on_id TEXT NOT NULL REFERENCES tasks(task_id) ON DELETE CASCADE,
    PRIMARY KEY (task_id, depends_on_id),
    CHECK (task_id <> depends_on_id)
);

CREATE TABLE IF NOT EXISTS gamification_profiles (
    user_id           TEXT PRIMARY KEY REFERENCES users(user_id) ON DELETE CASCADE,
    xp                INT NOT NULL DEFAULT 0,
    level             INT NOT NULL DEFAULT 1,
    current_streak    INT NOT NULL DEFAULT 0,
    longest_streak    INT NOT NULL DEFAULT 0,
    last_completed_on DATE,
    updated_at        TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS power_ups (
    power_up_id  TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    kind         TEXT NOT NULL,
    multiplier   DOUBLE PRECISION NOT NULL,
    activated_at TIMESTAMPTZ NOT NULL,
    expires_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS power_ups_user_expiry_idx ON power_ups (user_id, expires_at);

CREATE TABLE IF NOT EXISTS achievements (
    achievement_id TEXT PRIMARY KEY,
    code           TEXT NOT NULL UNIQUE,
    title          TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    criterion      TEXT NOT NULL,
    threshold      INT NOT NULL
);

CREATE TABLE IF NOT EXISTS achievement_unlocks (
    user_id        TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    achievement_id TEXT NOT NULL REFERENCES achievements(achievement_id) ON DELETE CASCADE,
    unlocked_at    TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, achievement_id)
);

CREATE TABLE IF NOT EXISTS daily_challenges (
    challenge_id TEXT PRIMARY KEY,
    day          DATE NOT NULL UNIQUE,
    code         TEXT NOT NULL,
    title        TEXT NOT NULL,
    target       INT NOT NULL,
    reward_xp    INT NOT NULL
);

CREATE TABLE IF NOT EXISTS challenge_progress (
    user_id      TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    challenge_id TEXT NOT NULL REFERENCES daily_challenges(challenge_id) ON DELETE CASCADE,
    progress     INT NOT NULL DEFAULT 0,
    completed_at TIMESTAMPTZ,
    PRIMARY KEY (user_id, challenge_id)
);

CREATE TABLE IF NOT EXISTS pomodoro_sessions (
    session_id       TEXT PRIMARY KEY,
    user_id          TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    task_id          TEXT REFERENCES tasks(task_id) ON DELETE SET NULL,
    started_at       TIMESTAMPTZ NOT NULL,
    work_minutes     INT NOT NULL,
    break_minutes    INT NOT NULL,
    cycles_planned   INT NOT NULL,
    cycles_completed INT NOT NULL DEFAULT 0,
    state            TEXT NOT NULL DEFAULT 'running',
    ended_at         TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS pomodoro_user_started_idx ON pomodoro_sessions (user_id, started_at DESC);

CREATE TABLE IF NOT EXISTS task_templates (
    template_id  TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    name         TEXT NOT NULL,
    title        TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    priority     TEXT NOT NULL DEFAULT 'medium',
    category     TEXT NOT NULL DEFAULT '',
    board_column TEXT NOT NULL DEFAULT 'todo',
    created_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_analytics (
    user_id          TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    day              DATE NOT NULL,
    tasks_created    INT NOT NULL DEFAULT 0,
    tasks_completed  INT NOT NULL DEFAULT 0,
    xp_earned        INT NOT NULL DEFAULT 0,
    pomodoro_minutes INT NOT NULL DEFAULT 0,
    PRIMARY KEY (user_id, day)
);

CREATE TABLE IF NOT EXISTS outbox (
    event_id      BIGSERIAL PRIMARY KEY,
    user_id       TEXT NOT NULL,
    aggregate_type TEXT NOT NULL,
    aggregate_id  TEXT NOT NULL,
    event_type    TEXT NOT NULL,
    topic         TEXT NOT NULL,
    partition_key TEXT NOT NULL,
    payload       JSONB NOT NULL,
    dedupe_key    TEXT NOT NULL UNIQUE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    claimed_at    TIMESTAMPTZ,
    published_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS outbox_unpublished_idx ON outbox (event_id) WHERE published_at IS NULL;
`

// Migrate applies the schema and seeds the achievement catalog.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if err := seedAchievements(ctx, pool); err != nil {
		return fmt.Errorf("seed achievements: %w", err)
	}
	return nil
}

type achievementSeed struct {
	id, code, title, description, criterion string
	threshold                               int
}

var achievementSeeds = []achievementSeed{
	{"ach-first-task", "first_task", "Getting Started", "Complete your first task.", "tasks_completed", 1},
	{"ach-ten-tasks", "ten_tasks", "Momentum", "Complete 10 tasks.", "tasks_completed", 10},
	{"ach-hundred-tasks", "hundred_tasks", "Centurion", "Complete 100 tasks.", "tasks_completed", 100},
	{"ach-week-streak", "week_streak", "Habit Forming", "Hold a 7 day streak.", "streak", 7},
	{"ach-month-streak", "month_streak", "Unstoppable", "Hold a 30 day streak.", "streak", 30},
	{"ach-level-five", "level_five", "Rising Star", "Reach level 5.", "level", 5},
	{"ach-level-ten", "level_ten", "Taskmaster", "Reach level 10.", "level", 10},
	{"ach-first-pomodoro", "first_pomodoro", "Deep Focus", "Finish a pomodoro session.", "pomodoros", 1},
	{"ach-twenty-pomodoros", "twenty_pomodoros", "Time Bender", "Finish 20 pomodoro sessions.", "pomodoros", 20},
}

func seedAchievements(ctx context.Context, pool *pgxpool.Pool) error {
	const stmt = `INSERT INTO achievements (achievement_id, code, title, description, criterion, threshold)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (code) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
            criterion=EXCLUDED.criterion, threshold=EXCLUDED.threshold`

	for _, seed := range achievementSeeds {
		if _, err := pool.Exec(ctx, stmt, seed.id, seed.code, seed.title, seed.description, seed.criterion, seed.threshold); err != nil {
			return err
		}
	}
	return nil
}
