package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrTaskNotFound is returned when a task cannot be located for the caller.
	ErrTaskNotFound = errors.New("task not found")
	// ErrDependencyUnmet blocks completion while a dependency is incomplete.
	ErrDependencyUnmet = errors.New("task has incomplete dependencies")
	// ErrDependencyCycle rejects dependency edges that would close a cycle.
	ErrDependencyCycle = errors.New("dependency would create a cycle")
	// ErrDependencyExists is returned for duplicate dependency edges.
	ErrDependencyExists = errors.New("dependency already exists")
	// ErrSelfDependency rejects a task depending on itself.
	ErrSelfDependency = errors.New("task cannot depend on itself")
)

// TaskRepository captures task persistence operations. Complete and Reopen
// run the gamification upsert and outbox insert in the same transaction as
// the task mutation.
type TaskRepository interface {
	Create(ctx context.Context, task Task) error
	Get(ctx context.Context, userID, taskID string) (*Task, error)
	List(ctx context.Context, userID string, filter TaskFilter, cursor *Cursor, limit int) ([]Task, *Cursor, error)
	Update(ctx context.Context, task Task) error
	Delete(ctx context.Context, userID, taskID string) error
	Move(ctx context.Context, userID, taskID string, column BoardColumn, position int, now time.Time) (*Task, error)
	Complete(ctx context.Context, userID, taskID string, now time.Time) (*CompletionResult, error)
	Reopen(ctx context.Context, userID, taskID string, now time.Time) (*Task, int, error)
}

// DependencyRepository stores the depends-on edges between tasks.
type DependencyRepository interface {
	Add(ctx context.Context, userID, taskID, dependsOnID string) error
	Remove(ctx context.Context, userID, taskID, dependsOnID string) error
	ListForTask(ctx context.Context, userID, taskID string) ([]Task, error)
	Edges(ctx context.Context, userID string) (map[string][]string, error)
}

// TaskService orchestrates task workflows.
type TaskService struct {
	tasks TaskRepository
	deps  DependencyRepository
	now   func() time.Time
}

// NewTaskService constructs a TaskService.
func NewTaskService(tasks TaskRepository, deps DependencyRepository) *TaskService {
	return &TaskService{tasks: tasks, deps: deps, now: func() time.Time { return time.Now().UTC() }}
}

// CreateTaskInput captures the payload from the API layer.
type CreateTaskInput struct {
	UserID      string
	ProjectID   *string
	Title       string
	Description string
	Priority    Priority
	Category    string
	DueDate     *time.Time
	Column      BoardColumn
	Position    int
}

// CreateTask persists a new task with defaults applied.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*Task, error) {
	now := s.now()
	if input.Priority == "" {
		input.Priority = PriorityMedium
	}
	if input.Column == "" {
		input.Column = ColumnTodo
	}

	task := Task{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		ProjectID:   input.ProjectID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Priority:    input.Priority,
		Category:    input.Category,
		DueDate:     input.DueDate,
		Column:      input.Column,
		Position:    input.Position,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask fetches a task by ID scoped to its owner.
func (s *TaskService) GetTask(ctx context.Context, userID, taskID string) (*Task, error) {
	task, err := s.tasks.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// ListTasks fetches tasks with filtering and cursor pagination.
func (s *TaskService) ListTasks(ctx context.Context, userID string, filter TaskFilter, cursor *Cursor, limit int) ([]Task, *Cursor, error) {
	return s.tasks.List(ctx, userID, filter, cursor, limit)
}

// UpdateTaskInput holds the optional fields for a partial update.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *Priority
	Category    *string
	DueDate     *time.Time
	ClearDue    bool
	ProjectID   *string
}

// UpdateTask applies a partial update to a task.
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID string, input UpdateTaskInput) (*Task, error) {
	task, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Category != nil {
		task.Category = *input.Category
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.ClearDue {
		task.DueDate = nil
	}
	if input.ProjectID != nil {
		if *input.ProjectID == "" {
			task.ProjectID = nil
		} else {
			task.ProjectID = input.ProjectID
		}
	}
	task.UpdatedAt = s.now()

	if err := s.tasks.Update(ctx, *task); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task; dependency edges cascade in the database.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID string) error {
	return s.tasks.Delete(ctx, userID, taskID)
}

// MoveTask relocates a task on the Kanban board.
func (s *TaskService) MoveTask(ctx context.Context, userID, taskID string, column BoardColumn, position int) (*Task, error) {
	task, err := s.tasks.Move(ctx, userID, taskID, column, position, s.now())
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// CompleteTask marks a task done and applies the XP award. Completing an
// already-completed task is an idempotent replay with a zero award.
func (s *TaskService) CompleteTask(ctx context.Context, userID, taskID string) (*CompletionResult, error) {
	return s.tasks.Complete(ctx, userID, taskID, s.now())
}

// ReopenTask reverts a completed task and deducts its original award.
func (s *TaskService) ReopenTask(ctx context.Context, userID, taskID string) (*Task, int, error) {
	return s.tasks.Reopen(ctx, userID, taskID, s.now())
}

// AddDependency records that taskID depends on dependsOnID after checking
// that the new edge keeps the graph acyclic.
func (s *TaskService) AddDependency(ctx context.Context, userID, taskID, dependsOnID string) error {
	if taskID == dependsOnID {
		return ErrSelfDependency
	}

	// Both endpoints must exist and belong to the caller.
	if _, err := s.GetTask(ctx, userID, taskID); err != nil {
		return err
	}
	if _, err := s.GetTask(ctx, userID, dependsOnID); err != nil {
		return err
	}

	edges, err := s.deps.Edges(ctx, userID)
	if err != nil {
		return err
	}
	if reachable(edges, dependsOnID, taskID) {
		return ErrDependencyCycle
	}

	return s.deps.Add(ctx, userID, taskID, dependsOnID)
}

// RemoveDependency deletes a depends-on edge.
func (s *TaskService) RemoveDependency(ctx context.Context, userID, taskID, dependsOnID string) error {
	return s.deps.Remove(ctx, userID, taskID, dependsOnID)
}

// ListDependencies returns the tasks that taskID depends on.
func (s *TaskService) ListDependencies(ctx context.Context, userID, taskID string) ([]Task, error) {
	if _, err := s.GetTask(ctx, userID, taskID); err != nil {
		return nil, err
	}
	return s.deps.ListForTask(ctx, userID, taskID)
}

// reachable walks depends-on edges breadth-first from start looking for target.
func reachable(edges map[string][]string, start, target string) bool {
	if start == target {
		return true
	}
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range edges[node] {
			if next == target {
				return true
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}
