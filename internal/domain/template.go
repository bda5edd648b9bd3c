package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrTemplateNotFound is returned when a template cannot be located.
var ErrTemplateNotFound = errors.New("template not found")

// TaskTemplate stores task defaults a user can stamp out repeatedly.
type TaskTemplate struct {
	ID          string
	UserID      string
	Name        string
	Title       string
	Description string
	Priority    Priority
	Category    string
	Column      BoardColumn
	CreatedAt   time.Time
}

// TemplateRepository captures template persistence operations.
type TemplateRepository interface {
	Create(ctx context.Context, template TaskTemplate) error
	Get(ctx context.Context, userID, templateID string) (*TaskTemplate, error)
	List(ctx context.Context, userID string) ([]TaskTemplate, error)
	Delete(ctx context.Context, userID, templateID string) error
}

// TemplateService manages templates and instantiates tasks from them.
type TemplateService struct {
	repo  TemplateRepository
	tasks *TaskService
	now   func() time.Time
}

// NewTemplateService constructs a TemplateService.
func NewTemplateService(repo TemplateRepository, tasks *TaskService) *TemplateService {
	return &TemplateService{repo: repo, tasks: tasks, now: func() time.Time { return time.Now().UTC() }}
}

// CreateTemplateInput captures the payload for saving a template.
type CreateTemplateInput struct {
	UserID      string
	Name        string
	Title       string
	Description string
	Priority    Priority
	Category    string
	Column      BoardColumn
}

// CreateTemplate persists a new template with defaults applied.
func (s *TemplateService) CreateTemplate(ctx context.Context, input CreateTemplateInput) (*TaskTemplate, error) {
	if input.Priority == "" {
		input.Priority = PriorityMedium
	}
	if input.Column == "" {
		input.Column = ColumnTodo
	}
	template := TaskTemplate{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Name:        strings.TrimSpace(input.Name),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Priority:    input.Priority,
		Category:    input.Category,
		Column:      input.Column,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, template); err != nil {
		return nil, err
	}
	return &template, nil
}

// ListTemplates returns the caller's templates.
func (s *TemplateService) ListTemplates(ctx context.Context, userID string) ([]TaskTemplate, error) {
	return s.repo.List(ctx, userID)
}

// DeleteTemplate removes a template.
func (s *TemplateService) DeleteTemplate(ctx context.Context, userID, templateID string) error {
	return s.repo.Delete(ctx, userID, templateID)
}

// ApplyTemplate creates a task from the template's defaults.
func (s *TemplateService) ApplyTemplate(ctx context.Context, userID, templateID string, projectID *string, dueDate *time.Time) (*Task, error) {
	template, err := s.repo.Get(ctx, userID, templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, ErrTemplateNotFound
	}

	return s.tasks.CreateTask(ctx, CreateTaskInput{
		UserID:      userID,
		ProjectID:   projectID,
		Title:       template.Title,
		Description: template.Description,
		Priority:    template.Priority,
		Category:    template.Category,
		DueDate:     dueDate,
		Column:      template.Column,
	})
}
