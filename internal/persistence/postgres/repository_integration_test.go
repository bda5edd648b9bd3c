//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/ZobairQ/taskflow-sub002/internal/domain"
)

func TestTaskCompletionAwardsAndReopenDeducts(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("taskflow"),
		postgrescontainer.WithUsername("taskflow"),
		postgrescontainer.WithPassword("taskflow"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	require.NoError(t, Migrate(ctx, pool))

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        "integration@taskflow.test",
		PasswordHash: "not-a-real-hash",
		DisplayName:  "Integration",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, NewUserRepository(pool).Create(ctx, user))

	tasks := NewTaskRepository(pool)
	task := domain.Task{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Title:     "Write the report",
		Priority:  domain.PriorityMedium,
		Column:    domain.ColumnTodo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, tasks.Create(ctx, task))

	result, err := tasks.Complete(ctx, user.ID, task.ID, now)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.False(t, result.Replay)
	require.Equal(t, 21, result.AwardedXP, "medium base 20 with first-day streak multiplier")
	require.Equal(t, 21, result.Profile.XP)
	require.Equal(t, 1, result.Profile.CurrentStreak)
	require.Equal(t, 1, result.Profile.Level)
	require.True(t, result.Task.Completed)
	require.Equal(t, domain.ColumnDone, result.Task.Column)

	replay, err := tasks.Complete(ctx, user.ID, task.ID, now.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, replay)
	require.True(t, replay.Replay)
	require.Zero(t, replay.AwardedXP)
	require.Equal(t, 21, replay.Profile.XP, "replays must not award twice")

	reopened, deducted, err := tasks.Reopen(ctx, user.ID, task.ID, now.Add(2*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, reopened)
	require.Equal(t, 21, deducted)
	require.False(t, reopened.Completed)
	require.Zero(t, reopened.XPAwarded)

	profile, err := NewGamificationRepository(pool).GetProfile(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.Zero(t, profile.XP, "reopen deducts the original award")

	var outboxEvents []string
	rows, err := pool.Query(ctx, `SELECT event_type FROM outbox WHERE user_id = $1 ORDER BY event_id`, user.ID)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var eventType string
		require.NoError(t, rows.Scan(&eventType))
		outboxEvents = append(outboxEvents, eventType)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{"task.created", "task.completed", "task.reopened"}, outboxEvents)
}

func TestTasksAreScopedToOwner(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("taskflow"),
		postgrescontainer.WithUsername("taskflow"),
		postgrescontainer.WithPassword("taskflow"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	require.NoError(t, Migrate(ctx, pool))

	now := time.Now().UTC()
	users := NewUserRepository(pool)
	owner := domain.User{ID: uuid.NewString(), Email: "owner@taskflow.test", PasswordHash: "x", DisplayName: "Owner", CreatedAt: now, UpdatedAt: now}
	other := domain.User{ID: uuid.NewString(), Email: "other@taskflow.test", PasswordHash: "x", DisplayName: "Other", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, users.Create(ctx, owner))
	require.NoError(t, users.Create(ctx, other))

	tasks := NewTaskRepository(pool)
	task := domain.Task{
		ID:        uuid.NewString(),
		UserID:    owner.ID,
		Title:     "Private task",
		Priority:  domain.PriorityLow,
		Column:    domain.ColumnTodo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, tasks.Create(ctx, task))

	stored, err := tasks.Get(ctx, owner.ID, task.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	crossUser, err := tasks.Get(ctx, other.ID, task.ID)
	require.NoError(t, err)
	require.Nil(t, crossUser, "tasks must not leak across accounts")
}

func TestTaskListingPagesWithCursor(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("taskflow"),
		postgrescontainer.WithUsername("taskflow"),
		postgrescontainer.WithPassword("taskflow"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	require.NoError(t, Migrate(ctx, pool))

	now := time.Now().UTC().Truncate(time.Microsecond)
	user := domain.User{ID: uuid.NewString(), Email: "pager@taskflow.test", PasswordHash: "x", DisplayName: "Pager", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewUserRepository(pool).Create(ctx, user))

	tasks := NewTaskRepository(pool)
	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		createdAt := now.Add(time.Duration(i) * time.Minute)
		task := domain.Task{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			Title:     "Paged task",
			Priority:  domain.PriorityLow,
			Column:    domain.ColumnTodo,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}
		require.NoError(t, tasks.Create(ctx, task))
		ids = append(ids, task.ID)
	}

	// Newest first, the default. Page one is the two youngest tasks.
	var filter domain.TaskFilter
	page1, next, err := tasks.List(ctx, user.ID, filter, nil, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotNil(t, next)
	require.Equal(t, ids[2], page1[0].ID)
	require.Equal(t, ids[1], page1[1].ID)

	page2, _, err := tasks.List(ctx, user.ID, filter, next, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1, "page two must advance past the cursor, not rewind")
	require.Equal(t, ids[0], page2[0].ID)

	// Ascending walk covers the flipped comparator.
	filter.Ascending = true
	page1, next, err = tasks.List(ctx, user.ID, filter, nil, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotNil(t, next)
	require.Equal(t, ids[0], page1[0].ID)
	require.Equal(t, ids[1], page1[1].ID)

	page2, _, err = tasks.List(ctx, user.ID, filter, next, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	require.Equal(t, ids[2], page2[0].ID)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
