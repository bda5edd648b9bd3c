package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZobairQ/taskflow-sub002/internal/domain"
	"github.com/ZobairQ/taskflow-sub002/internal/events"
	"github.com/ZobairQ/taskflow-sub002/internal/observability"
)

const taskColumns = `task_id, user_id, project_id, title, description, priority, category, due_date,
    board_column, position, completed, completed_at, xp_awarded, created_at, updated_at`

// TaskRepository provides Postgres-backed persistence for tasks. Mutations
// that feed the event pipeline write outbox rows in the same transaction.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository constructs a TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.UserID, &t.ProjectID, &t.Title, &t.Description, &t.Priority, &t.Category,
		&t.DueDate, &t.Column, &t.Position, &t.Completed, &t.CompletedAt, &t.XPAwarded, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create persists the task and records the task.created event.
func (r *TaskRepository) Create(ctx context.Context, task domain.Task) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const stmt = `INSERT INTO tasks (task_id, user_id, project_id, title, description, priority, category, due_date,
        board_column, position, completed, completed_at, xp_awarded, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	if _, err = tx.Exec(ctx, stmt,
		task.ID, task.UserID, task.ProjectID, task.Title, task.Description, task.Priority, task.Category,
		task.DueDate, task.Column, task.Position, task.Completed, task.CompletedAt, task.XPAwarded,
		task.CreatedAt, task.UpdatedAt,
	); err != nil {
		return err
	}

	payload := events.TaskCreated{
		TaskID:    task.ID,
		UserID:    task.UserID,
		ProjectID: task.ProjectID,
		Priority:  string(task.Priority),
		Category:  task.Category,
		CreatedAt: task.CreatedAt,
	}
	dedupe := fmt.Sprintf("%s:task.created", task.ID)
	if err = insertOutbox(ctx, tx, task.UserID, "task", task.ID, "task.created", dedupe, payload); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Get retrieves a task scoped to its owner. Missing rows return (nil, nil).
func (r *TaskRepository) Get(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE user_id=$1 AND task_id=$2`, taskColumns)

	task, err := scanTask(r.pool.QueryRow(ctx, query, userID, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return task, nil
}

// List returns tasks matching the filter with keyset pagination on
// (created_at, task_id).
func (r *TaskRepository) List(ctx context.Context, userID string, filter domain.TaskFilter, cursor *domain.Cursor, limit int) ([]domain.Task, *domain.Cursor, error) {
	var (
		conds = []string{"user_id=$1"}
		args  = []interface{}{userID}
	)
	add := func(cond string, value interface{}) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.ProjectID != nil {
		add("project_id=$%d", *filter.ProjectID)
	}
	if filter.Completed != nil {
		add("completed=$%d", *filter.Completed)
	}
	if filter.Priority != nil {
		add("priority=$%d", *filter.Priority)
	}
	if filter.Category != nil {
		add("category=$%d", *filter.Category)
	}
	if filter.Column != nil {
		add("board_column=$%d", *filter.Column)
	}
	if filter.DueBefore != nil {
		add("due_date <= $%d", *filter.DueBefore)
	}
	if filter.DueAfter != nil {
		add("due_date >= $%d", *filter.DueAfter)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if cursor != nil {
		// The comparator must match the scan direction or page two walks
		// back over page one.
		cmp := "<"
		if filter.Ascending {
			cmp = ">"
		}
		args = append(args, cursor.CreatedAt, cursor.ID)
		conds = append(conds, fmt.Sprintf("(created_at, task_id) %s ($%d, $%d)", cmp, len(args)-1, len(args)))
	}

	args = append(args, limit)
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE %s ORDER BY %s LIMIT $%d`,
		taskColumns, strings.Join(conds, " AND "), orderClause(filter), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.Task, 0, limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var nextCursor *domain.Cursor
	if len(results) == limit && limit > 0 {
		last := results[len(results)-1]
		nextCursor = &domain.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return results, nextCursor, nil
}

// orderClause maps the requested sort to SQL. The cursor key columns always
// appear last so pagination stays stable under equal sort values.
func orderClause(filter domain.TaskFilter) string {
	dir := "DESC"
	if filter.Ascending {
		dir = "ASC"
	}
	switch filter.Sort {
	case domain.SortDueDate:
		return fmt.Sprintf("due_date %s NULLS LAST, created_at DESC, task_id DESC", dir)
	case domain.SortPriority:
		return fmt.Sprintf(`CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END %s, created_at DESC, task_id DESC`, dir)
	case domain.SortPosition:
		return fmt.Sprintf("board_column, position %s, created_at DESC, task_id DESC", dir)
	default:
		return fmt.Sprintf("created_at %s, task_id %s", dir, dir)
	}
}

// Update rewrites the mutable columns of a task.
func (r *TaskRepository) Update(ctx context.Context, task domain.Task) error {
	const stmt = `UPDATE tasks SET project_id=$3, title=$4, description=$5, priority=$6, category=$7,
        due_date=$8, updated_at=$9 WHERE user_id=$1 AND task_id=$2`

	tag, err := r.pool.Exec(ctx, stmt, task.UserID, task.ID, task.ProjectID, task.Title, task.Description,
		task.Priority, task.Category, task.DueDate, task.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Delete removes a task. Dependency edges cascade.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE user_id=$1 AND task_id=$2`, userID, taskID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Move relocates a task on the board. Missing rows return (nil, nil).
func (r *TaskRepository) Move(ctx context.Context, userID, taskID string, column domain.BoardColumn, position int, now time.Time) (*domain.Task, error) {
	query := fmt.Sprintf(`UPDATE tasks SET board_column=$3, position=$4, updated_at=$5
        WHERE user_id=$1 AND task_id=$2 RETURNING %s`, taskColumns)

	task, err := scanTask(r.pool.QueryRow(ctx, query, userID, taskID, column, position, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return task, nil
}

// Complete marks the task done, applies the XP award to the locked profile
// row, and records the task.completed event, all in one transaction.
// Completing an already-completed task is an idempotent replay.
func (r *TaskRepository) Complete(ctx context.Context, userID, taskID string, now time.Time) (*domain.CompletionResult, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE user_id=$1 AND task_id=$2 FOR UPDATE`, taskColumns)
	task, err := scanTask(tx.QueryRow(ctx, query, userID, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	if task.Completed {
		profile, err := lockProfile(ctx, tx, userID, now)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return &domain.CompletionResult{Task: *task, Profile: *profile, Replay: true}, nil
	}

	const depQuery = `SELECT COUNT(*) FROM task_dependencies d
        JOIN tasks t ON t.task_id = d.depends_on_id
        WHERE d.task_id=$1 AND NOT t.completed`
	var unmet int
	if err := tx.QueryRow(ctx, depQuery, taskID).Scan(&unmet); err != nil {
		return nil, err
	}
	if unmet > 0 {
		return nil, domain.ErrDependencyUnmet
	}

	profile, err := lockProfile(ctx, tx, userID, now)
	if err != nil {
		return nil, err
	}
	powerUps, err := activePowerUps(ctx, tx, userID, now)
	if err != nil {
		return nil, err
	}

	updated, awarded := domain.ApplyCompletion(*profile, task.Priority, powerUps, now)

	task.Completed = true
	task.CompletedAt = &now
	task.XPAwarded = awarded
	task.Column = domain.ColumnDone
	task.UpdatedAt = now

	const taskStmt = `UPDATE tasks SET completed=TRUE, completed_at=$3, xp_awarded=$4, board_column=$5, updated_at=$3
        WHERE user_id=$1 AND task_id=$2`
	if _, err := tx.Exec(ctx, taskStmt, userID, taskID, now, awarded, domain.ColumnDone); err != nil {
		return nil, err
	}
	if err := upsertProfile(ctx, tx, updated); err != nil {
		return nil, err
	}

	payload := events.TaskCompleted{
		TaskID:      task.ID,
		UserID:      userID,
		Priority:    string(task.Priority),
		AwardedXP:   awarded,
		Level:       updated.Level,
		Streak:      updated.CurrentStreak,
		CompletedAt: now,
		Day:         domain.DayUTC(now).Format(events.DayFormat),
	}
	dedupe := fmt.Sprintf("%s:task.completed:%d", task.ID, now.UnixNano())
	if err := insertOutbox(ctx, tx, userID, "task", task.ID, "task.completed", dedupe, payload); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	observability.RecordTaskCompleted(now)
	observability.RecordXPAwarded(awarded)
	return &domain.CompletionResult{Task: *task, Profile: updated, AwardedXP: awarded}, nil
}

// Reopen reverts a completed task and deducts its original award. Reopening
// an open task is a no-op.
func (r *TaskRepository) Reopen(ctx context.Context, userID, taskID string, now time.Time) (*domain.Task, int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE user_id=$1 AND task_id=$2 FOR UPDATE`, taskColumns)
	task, err := scanTask(tx.QueryRow(ctx, query, userID, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, domain.ErrTaskNotFound
		}
		return nil, 0, err
	}

	if !task.Completed {
		if err := tx.Commit(ctx); err != nil {
			return nil, 0, err
		}
		return task, 0, nil
	}

	deducted := task.XPAwarded

	profile, err := lockProfile(ctx, tx, userID, now)
	if err != nil {
		return nil, 0, err
	}
	updated := domain.ApplyReopen(*profile, deducted, now)

	task.Completed = false
	task.CompletedAt = nil
	task.XPAwarded = 0
	task.Column = domain.ColumnTodo
	task.UpdatedAt = now

	const taskStmt = `UPDATE tasks SET completed=FALSE, completed_at=NULL, xp_awarded=0, board_column=$3, updated_at=$4
        WHERE user_id=$1 AND task_id=$2`
	if _, err := tx.Exec(ctx, taskStmt, userID, taskID, domain.ColumnTodo, now); err != nil {
		return nil, 0, err
	}
	if err := upsertProfile(ctx, tx, updated); err != nil {
		return nil, 0, err
	}

	payload := events.TaskReopened{
		TaskID:     task.ID,
		UserID:     userID,
		DeductedXP: deducted,
		OccurredAt: now,
		Day:        domain.DayUTC(now).Format(events.DayFormat),
	}
	dedupe := fmt.Sprintf("%s:task.reopened:%d", task.ID, now.UnixNano())
	if err := insertOutbox(ctx, tx, userID, "task", task.ID, "task.reopened", dedupe, payload); err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return task, deducted, nil
}
