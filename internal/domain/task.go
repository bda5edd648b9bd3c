// Package domain defines the business logic for the taskflow backend.
package domain

import "time"

// Priority orders tasks by urgency and drives the base XP award.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriority reports whether p is a known priority level.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// BoardColumn is the Kanban column a task sits in.
type BoardColumn string

const (
	ColumnTodo       BoardColumn = "todo"
	ColumnInProgress BoardColumn = "in_progress"
	ColumnDone       BoardColumn = "done"
)

// ValidColumn reports whether c is a known board column.
func ValidColumn(c BoardColumn) bool {
	switch c {
	case ColumnTodo, ColumnInProgress, ColumnDone:
		return true
	}
	return false
}

// Task is the canonical task record stored in PostgreSQL.
type Task struct {
	ID          string
	UserID      string
	ProjectID   *string
	Title       string
	Description string
	Priority    Priority
	Category    string
	DueDate     *time.Time
	Column      BoardColumn
	Position    int
	Completed   bool
	CompletedAt *time.Time
	XPAwarded   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskSort names the supported list orderings.
type TaskSort string

const (
	SortCreatedAt TaskSort = "created_at"
	SortDueDate   TaskSort = "due_date"
	SortPriority  TaskSort = "priority"
	SortPosition  TaskSort = "position"
)

// TaskFilter holds the optional predicates for listing tasks.
type TaskFilter struct {
	ProjectID *string
	Completed *bool
	Priority  *Priority
	Category  *string
	Column    *BoardColumn
	DueBefore *time.Time
	DueAfter  *time.Time
	Search    string
	Sort      TaskSort
	Ascending bool
}

// Cursor models the keyset pagination token for task listings.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// CompletionResult captures the outcome of completing a task, including the
// gamification state after the award.
type CompletionResult struct {
	Task      Task
	Profile   Profile
	AwardedXP int
	Replay    bool
}
