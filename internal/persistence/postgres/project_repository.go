package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZobairQ/taskflow-sub002/internal/domain"
)

// ProjectRepository provides Postgres-backed project storage.
type ProjectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository constructs a ProjectRepository.
func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

const projectColumns = `project_id, user_id, name, color, position, created_at, updated_at`

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Color, &p.Position, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persists a new project.
func (r *ProjectRepository) Create(ctx context.Context, project domain.Project) error {
	const stmt = `INSERT INTO projects (project_id, user_id, name, color, position, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.pool.Exec(ctx, stmt, project.ID, project.UserID, project.Name, project.Color,
		project.Position, project.CreatedAt, project.UpdatedAt)
	return err
}

// Get retrieves a project scoped to its owner. Missing rows return (nil, nil).
func (r *ProjectRepository) Get(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	project, err := scanProject(r.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id=$1 AND project_id=$2`, userID, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return project, nil
}

// List returns the user's projects ordered by position then creation.
func (r *ProjectRepository) List(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id=$1 ORDER BY position, created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *project)
	}
	return out, rows.Err()
}

// Update rewrites the mutable columns of a project.
func (r *ProjectRepository) Update(ctx context.Context, project domain.Project) error {
	const stmt = `UPDATE projects SET name=$3, color=$4, position=$5, updated_at=$6
        WHERE user_id=$1 AND project_id=$2`
	tag, err := r.pool.Exec(ctx, stmt, project.UserID, project.ID, project.Name, project.Color,
		project.Position, project.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

// Delete removes a project. Its tasks cascade.
func (r *ProjectRepository) Delete(ctx context.Context, userID, projectID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE user_id=$1 AND project_id=$2`, userID, projectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}
