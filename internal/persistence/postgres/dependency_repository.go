package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZobairQ/taskflow-sub002/internal/domain"
)

// DependencyRepository provides Postgres-backed storage for depends-on edges.
type DependencyRepository struct {
	pool *pgxpool.Pool
}

// NewDependencyRepository constructs a DependencyRepository.
func NewDependencyRepository(pool *pgxpool.Pool) *DependencyRepository {
	return &DependencyRepository{pool: pool}
}

// Add inserts an edge. Duplicates surface as ErrDependencyExists.
func (r *DependencyRepository) Add(ctx context.Context, userID, taskID, dependsOnID string) error {
	// Ownership is re-checked here so a raced delete cannot attach an edge
	// to another user's task.
	const stmt = `INSERT INTO task_dependencies (task_id, depends_on_id)
        SELECT $2, $3 WHERE EXISTS (SELECT 1 FROM tasks WHERE user_id=$1 AND task_id=$2)
            AND EXISTS (SELECT 1 FROM tasks WHERE user_id=$1 AND task_id=$3)`

	tag, err := r.pool.Exec(ctx, stmt, userID, taskID, dependsOnID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDependencyExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Remove deletes an edge scoped to the owner.
func (r *DependencyRepository) Remove(ctx context.Context, userID, taskID, dependsOnID string) error {
	const stmt = `DELETE FROM task_dependencies d USING tasks t
        WHERE d.task_id=$2 AND d.depends_on_id=$3 AND t.task_id=d.task_id AND t.user_id=$1`

	tag, err := r.pool.Exec(ctx, stmt, userID, taskID, dependsOnID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// ListForTask returns the tasks that taskID depends on.
func (r *DependencyRepository) ListForTask(ctx context.Context, userID, taskID string) ([]domain.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks t
        JOIN task_dependencies d ON d.depends_on_id = t.task_id
        WHERE d.task_id=$2 AND t.user_id=$1 ORDER BY t.created_at`, prefixedTaskColumns("t"))

	rows, err := r.pool.Query(ctx, query, userID, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *task)
	}
	return out, rows.Err()
}

// Edges returns the full depends-on adjacency for a user's tasks.
func (r *DependencyRepository) Edges(ctx context.Context, userID string) (map[string][]string, error) {
	const query = `SELECT d.task_id, d.depends_on_id FROM task_dependencies d
        JOIN tasks t ON t.task_id = d.task_id WHERE t.user_id=$1`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	edges := make(map[string][]string)
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, err
		}
		edges[from] = append(edges[from], to)
	}
	return edges, rows.Err()
}

// prefixedTaskColumns qualifies the task column list with a table alias.
func prefixedTaskColumns(alias string) string {
	return alias + `.task_id, ` + alias + `.user_id, ` + alias + `.project_id, ` + alias + `.title, ` +
		alias + `.description, ` + alias + `.priority, ` + alias + `.category, ` + alias + `.due_date, ` +
		alias + `.board_column, ` + alias + `.position, ` + alias + `.completed, ` + alias + `.completed_at, ` +
		alias + `.xp_awarded, ` + alias + `.created_at, ` + alias + `.updated_at`
}
