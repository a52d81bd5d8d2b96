package entities

import "time"

// TaskStatus enumerates the lifecycle states of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskPriority enumerates task priorities. Each variant carries a fixed
// numeric rank used for ordering; the string form is what gets persisted.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// AllStatuses lists every status in rank-free declaration order. Statistics
// iterate over this so that empty buckets are still reported.
var AllStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusCancelled,
}

// AllPriorities lists every priority from lowest to highest rank.
var AllPriorities = []TaskPriority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityUrgent,
}

// priorityRanks is the single source of truth for priority ordering. Both
// the SQL sort expression and the in-memory comparator consult this map so
// the two can never drift apart.
var priorityRanks = map[TaskPriority]int{
	PriorityLow:    1,
	PriorityMedium: 2,
	PriorityHigh:   3,
	PriorityUrgent: 4,
}

// statusTransitions is the fixed adjacency table for status changes.
// There is deliberately no self-loop for any state: updating a status to
// its current value is rejected. completed and cancelled cannot reach each
// other directly.
var statusTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:    {TaskStatusInProgress, TaskStatusCancelled},
	TaskStatusInProgress: {TaskStatusCompleted, TaskStatusCancelled, TaskStatusPending},
	TaskStatusCompleted:  {TaskStatusInProgress},
	TaskStatusCancelled:  {TaskStatusPending, TaskStatusInProgress},
}

// Task represents a task record in the system.
type Task struct {
	ID          int64        `json:"id" db:"id"`
	Title       string       `json:"title" db:"title"`
	Description *string      `json:"description" db:"description"`
	Status      TaskStatus   `json:"status" db:"status"`
	Priority    TaskPriority `json:"priority" db:"priority"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time   `json:"updated_at" db:"updated_at"`
	DueDate     *time.Time   `json:"due_date" db:"due_date"`
	AssignedTo  *string      `json:"assigned_to" db:"assigned_to"`
}

// IsValid reports whether the status is one of the known variants.
func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// IsValid reports whether the priority is one of the known variants.
func (tp TaskPriority) IsValid() bool {
	_, ok := priorityRanks[tp]
	return ok
}

// SortRank returns the numeric rank of the priority (low=1 .. urgent=4).
// Unknown priorities rank below low.
func (tp TaskPriority) SortRank() int {
	return priorityRanks[tp]
}

// CanTransitionTo reports whether the status can move to next according to
// the transition table.
func (ts TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range statusTransitions[ts] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsOverdue reports whether the task has a due date in the past and is not
// completed. Due dates are only validated against the clock when they are
// set, so an open task can legitimately become overdue.
func (t *Task) IsOverdue() bool {
	if t.DueDate == nil {
		return false
	}
	return time.Now().UTC().After(*t.DueDate) && t.Status != TaskStatusCompleted
}
