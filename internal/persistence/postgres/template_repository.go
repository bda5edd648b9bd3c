package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZobairQ/taskflow-sub002/internal/domain"
)

// TemplateRepository provides Postgres-backed task template storage.
type TemplateRepository struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository constructs a TemplateRepository.
func NewTemplateRepository(pool *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

const templateColumns = `template_id, user_id, name, title, description, priority, category, board_column, created_at`

func scanTemplate(row pgx.Row) (*domain.TaskTemplate, error) {
	var t domain.TaskTemplate
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Title, &t.Description, &t.Priority, &t.Category, &t.Column, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create persists a new template.
func (r *TemplateRepository) Create(ctx context.Context, template domain.TaskTemplate) error {
	const stmt = `INSERT INTO task_templates (template_id, user_id, name, title, description, priority, category, board_column, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.pool.Exec(ctx, stmt, template.ID, template.UserID, template.Name, template.Title,
		template.Description, template.Priority, template.Category, template.Column, template.CreatedAt)
	return err
}

// Get retrieves a template scoped to its owner. Missing rows return (nil, nil).
func (r *TemplateRepository) Get(ctx context.Context, userID, templateID string) (*domain.TaskTemplate, error) {
	template, err := scanTemplate(r.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM task_templates WHERE user_id=$1 AND template_id=$2`, userID, templateID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return template, nil
}

// List returns the user's templates by name.
func (r *TemplateRepository) List(ctx context.Context, userID string) ([]domain.TaskTemplate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+templateColumns+` FROM task_templates WHERE user_id=$1 ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TaskTemplate
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *template)
	}
	return out, rows.Err()
}

// Delete removes a template.
func (r *TemplateRepository) Delete(ctx context.Context, userID, templateID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM task_templates WHERE user_id=$1 AND template_id=$2`, userID, templateID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTemplateNotFound
	}
	return nil
}
