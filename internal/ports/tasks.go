package ports

import (
	"context"
	"time"

	"github.com/taskflow/core/internal/domain/entities"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortableFields enumerates the fields a task list may be ordered by.
var SortableFields = map[string]bool{
	"id":          true,
	"title":       true,
	"status":      true,
	"priority":    true,
	"created_at":  true,
	"updated_at":  true,
	"due_date":    true,
	"assigned_to": true,
}

// TaskFilter describes one bounded list query: exact-match filters, a
// case-insensitive substring search over title and description, sort field
// and direction, and pagination. All filters are conjoined. Skip and Limit
// apply after filtering and sorting; the returned total never includes them.
type TaskFilter struct {
	Status     *entities.TaskStatus
	Priority   *entities.TaskPriority
	AssignedTo *string
	Search     *string
	SortBy     string
	SortOrder  SortOrder
	Skip       int
	Limit      int
}

// TaskChanges carries the fields of a partial update. Nil fields are left
// untouched on the target task(s).
type TaskChanges struct {
	Title       *string
	Description *string
	Status      *entities.TaskStatus
	Priority    *entities.TaskPriority
	DueDate     *time.Time
	AssignedTo  *string
}

// IsEmpty reports whether the change set touches no fields at all.
func (c TaskChanges) IsEmpty() bool {
	return c.Title == nil && c.Description == nil && c.Status == nil &&
		c.Priority == nil && c.DueDate == nil && c.AssignedTo == nil
}

// TaskStatistics aggregates counts grouped by status and by priority. Every
// known status and priority appears as a key even when its count is zero.
type TaskStatistics struct {
	TotalTasks        int                             `json:"total_tasks"`
	StatusBreakdown   map[entities.TaskStatus]int     `json:"status_breakdown"`
	PriorityBreakdown map[entities.TaskPriority]int   `json:"priority_breakdown"`
}

// TaskRepository defines the interface for task persistence.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) (*entities.Task, error)
	GetByID(ctx context.Context, id int64) (*entities.Task, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*entities.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, int, error)
	Update(ctx context.Context, task *entities.Task) (*entities.Task, error)
	Delete(ctx context.Context, id int64) error
	// BulkApply writes the non-nil fields of changes plus updatedAt to every
	// task in ids within a single transaction. Callers have already verified
	// existence and transitions.
	BulkApply(ctx context.Context, ids []int64, changes TaskChanges, updatedAt time.Time) (int, error)
	// BulkDelete removes whichever of ids exist and returns the ids it
	// actually deleted.
	BulkDelete(ctx context.Context, ids []int64) ([]int64, error)
	Statistics(ctx context.Context) (*TaskStatistics, error)
}

// Request payloads consumed by the task service.

// CreateTaskRequest carries the fields of a new task. Status and Priority
// default to pending and medium when left empty.
type CreateTaskRequest struct {
	Title       string                 `json:"title" validate:"required"`
	Description *string                `json:"description"`
	Status      entities.TaskStatus    `json:"status"`
	Priority    entities.TaskPriority  `json:"priority"`
	DueDate     *time.Time             `json:"due_date"`
	AssignedTo  *string                `json:"assigned_to"`
}

// UpdateTaskRequest carries a partial update; absent fields stay untouched.
type UpdateTaskRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Status      *entities.TaskStatus   `json:"status"`
	Priority    *entities.TaskPriority `json:"priority"`
	DueDate     *time.Time             `json:"due_date"`
	AssignedTo  *string                `json:"assigned_to"`
}

// Changes converts the request into a repository change set.
func (r UpdateTaskRequest) Changes() TaskChanges {
	return TaskChanges{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
		AssignedTo:  r.AssignedTo,
	}
}

// BulkUpdateRequest applies one update payload to a set of task ids.
type BulkUpdateRequest struct {
	TaskIDs    []int64           `json:"task_ids" validate:"required,min=1"`
	UpdateData UpdateTaskRequest `json:"update_data"`
}

// BulkDeleteRequest deletes a set of task ids.
type BulkDeleteRequest struct {
	TaskIDs []int64 `json:"task_ids" validate:"required,min=1"`
}
