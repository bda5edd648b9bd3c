package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrProjectNotFound is returned when a project cannot be located.
var ErrProjectNotFound = errors.New("project not found")

// Project groups tasks under a user-chosen name and color.
type Project struct {
	ID        string
	UserID    string
	Name      string
	Color     string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProjectRepository captures project persistence operations.
type ProjectRepository interface {
	Create(ctx context.Context, project Project) error
	Get(ctx context.Context, userID, projectID string) (*Project, error)
	List(ctx context.Context, userID string) ([]Project, error)
	Update(ctx context.Context, project Project) error
	Delete(ctx context.Context, userID, projectID string) error
}

// ProjectService orchestrates project workflows.
type ProjectService struct {
	repo ProjectRepository
	now  func() time.Time
}

// NewProjectService constructs a ProjectService.
func NewProjectService(repo ProjectRepository) *ProjectService {
	return &ProjectService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// CreateProject persists a new project.
func (s *ProjectService) CreateProject(ctx context.Context, userID, name, color string, position int) (*Project, error) {
	now := s.now()
	if color == "" {
		color = "#6366f1"
	}
	project := Project{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Color:     color,
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProject fetches a project by ID scoped to its owner.
func (s *ProjectService) GetProject(ctx context.Context, userID, projectID string) (*Project, error) {
	project, err := s.repo.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

// ListProjects returns the caller's projects ordered by position.
func (s *ProjectService) ListProjects(ctx context.Context, userID string) ([]Project, error) {
	return s.repo.List(ctx, userID)
}

// UpdateProjectInput holds the optional fields for a partial update.
type UpdateProjectInput struct {
	Name     *string
	Color    *string
	Position *int
}

// UpdateProject applies a partial update.
func (s *ProjectService) UpdateProject(ctx context.Context, userID, projectID string, input UpdateProjectInput) (*Project, error) {
	project, err := s.GetProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		project.Name = strings.TrimSpace(*input.Name)
	}
	if input.Color != nil {
		project.Color = *input.Color
	}
	if input.Position != nil {
		project.Position = *input.Position
	}
	project.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, *project); err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject removes a project; its tasks cascade in the database.
func (s *ProjectService) DeleteProject(ctx context.Context, userID, projectID string) error {
	return s.repo.Delete(ctx, userID, projectID)
}
