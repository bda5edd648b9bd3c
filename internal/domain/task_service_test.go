package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateTaskAppliesDefaults(t *testing.T) {
	tasks := &stubTaskRepo{}
	svc := NewTaskService(tasks, &stubDepRepo{})

	task, err := svc.CreateTask(context.Background(), CreateTaskInput{
		UserID: "user-1",
		Title:  "  Write report  ",
	})
	require.NoError(t, err)
	require.Equal(t, "Write report", task.Title)
	require.Equal(t, PriorityMedium, task.Priority)
	require.Equal(t, ColumnTodo, task.Column)
	require.NotEmpty(t, task.ID)
	require.Len(t, tasks.created, 1)
}

func TestUpdateTaskClearsDueDate(t *testing.T) {
	due := time.Now().UTC().Add(48 * time.Hour)
	existing := Task{ID: "task-1", UserID: "user-1", Title: "x", Priority: PriorityLow, Column: ColumnTodo, DueDate: &due}
	tasks := &stubTaskRepo{byID: map[string]*Task{"task-1": &existing}}
	svc := NewTaskService(tasks, &stubDepRepo{})

	updated, err := svc.UpdateTask(context.Background(), "user-1", "task-1", UpdateTaskInput{ClearDue: true})
	require.NoError(t, err)
	require.Nil(t, updated.DueDate)
}

func TestUpdateTaskUnknownID(t *testing.T) {
	svc := NewTaskService(&stubTaskRepo{}, &stubDepRepo{})

	_, err := svc.UpdateTask(context.Background(), "user-1", "missing", UpdateTaskInput{})
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestAddDependencyRejectsSelf(t *testing.T) {
	svc := NewTaskService(&stubTaskRepo{}, &stubDepRepo{})

	err := svc.AddDependency(context.Background(), "user-1", "task-1", "task-1")
	require.ErrorIs(t, err, ErrSelfDependency)
}

func TestAddDependencyDetectsDirectCycle(t *testing.T) {
	tasks := &stubTaskRepo{byID: map[string]*Task{
		"a": {ID: "a", UserID: "user-1"},
		"b": {ID: "b", UserID: "user-1"},
	}}
	// b already depends on a.
	deps := &stubDepRepo{edges: map[string][]string{"b": {"a"}}}
	svc := NewTaskService(tasks, deps)

	err := svc.AddDependency(context.Background(), "user-1", "a", "b")
	require.ErrorIs(t, err, ErrDependencyCycle)
}

func TestAddDependencyDetectsTransitiveCycle(t *testing.T) {
	tasks := &stubTaskRepo{byID: map[string]*Task{
		"a": {ID: "a", UserID: "user-1"},
		"b": {ID: "b", UserID: "user-1"},
		"c": {ID: "c", UserID: "user-1"},
	}}
	deps := &stubDepRepo{edges: map[string][]string{"c": {"b"}, "b": {"a"}}}
	svc := NewTaskService(tasks, deps)

	err := svc.AddDependency(context.Background(), "user-1", "a", "c")
	require.ErrorIs(t, err, ErrDependencyCycle)
}

func TestAddDependencyAcceptsAcyclicEdge(t *testing.T) {
	tasks := &stubTaskRepo{byID: map[string]*Task{
		"a": {ID: "a", UserID: "user-1"},
		"b": {ID: "b", UserID: "user-1"},
	}}
	deps := &stubDepRepo{}
	svc := NewTaskService(tasks, deps)

	require.NoError(t, svc.AddDependency(context.Background(), "user-1", "a", "b"))
	require.Equal(t, 1, deps.addCalls)
}

func TestAddDependencyRequiresBothTasks(t *testing.T) {
	tasks := &stubTaskRepo{byID: map[string]*Task{"a": {ID: "a", UserID: "user-1"}}}
	svc := NewTaskService(tasks, &stubDepRepo{})

	err := svc.AddDependency(context.Background(), "user-1", "a", "missing")
	require.ErrorIs(t, err, ErrTaskNotFound)
}

type stubTaskRepo struct {
	byID    map[string]*Task
	created []Task
	updated []Task
}

func (r *stubTaskRepo) Create(_ context.Context, task Task) error {
	r.created = append(r.created, task)
	return nil
}

func (r *stubTaskRepo) Get(_ context.Context, _, taskID string) (*Task, error) {
	if task, ok := r.byID[taskID]; ok {
		copied := *task
		return &copied, nil
	}
	return nil, nil
}

func (r *stubTaskRepo) List(_ context.Context, _ string, _ TaskFilter, _ *Cursor, _ int) ([]Task, *Cursor, error) {
	return nil, nil, nil
}

func (r *stubTaskRepo) Update(_ context.Context, task Task) error {
	r.updated = append(r.updated, task)
	return nil
}

func (r *stubTaskRepo) Delete(_ context.Context, _, _ string) error { return nil }

func (r *stubTaskRepo) Move(_ context.Context, _, taskID string, column BoardColumn, position int, now time.Time) (*Task, error) {
	task, ok := r.byID[taskID]
	if !ok {
		return nil, nil
	}
	task.Column = column
	task.Position = position
	task.UpdatedAt = now
	copied := *task
	return &copied, nil
}

func (r *stubTaskRepo) Complete(_ context.Context, _, _ string, _ time.Time) (*CompletionResult, error) {
	return &CompletionResult{}, nil
}

func (r *stubTaskRepo) Reopen(_ context.Context, _, _ string, _ time.Time) (*Task, int, error) {
	return &Task{}, 0, nil
}

type stubDepRepo struct {
	edges    map[string][]string
	addCalls int
}

func (r *stubDepRepo) Add(_ context.Context, _, taskID, dependsOnID string) error {
	r.addCalls++
	if r.edges == nil {
		r.edges = make(map[string][]string)
	}
	r.edges[taskID] = append(r.edges[taskID], dependsOnID)
	return nil
}

func (r *stubDepRepo) Remove(_ context.Context, _, _, _ string) error { return nil }

func (r *stubDepRepo) ListForTask(_ context.Context, _, _ string) ([]Task, error) {
	return nil, nil
}

func (r *stubDepRepo) Edges(_ context.Context, _ string) (map[string][]string, error) {
	return r.edges, nil
}
