package entities

import (
	"fmt"
	"strings"
)

// InvalidInputError reports a field that failed validation. It is always a
// caller error, never an internal one.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewInvalidInput builds an InvalidInputError for the given field.
func NewInvalidInput(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

// NotFoundError reports one or more requested task ids that do not exist.
type NotFoundError struct {
	IDs []int64
}

func (e *NotFoundError) Error() string {
	if len(e.IDs) == 0 {
		return "no matching tasks found"
	}
	if len(e.IDs) == 1 {
		return fmt.Sprintf("task %d not found", e.IDs[0])
	}
	parts := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("tasks not found: %s", strings.Join(parts, ", "))
}

// InvalidTransitionError reports a status change rejected by the transition
// table. TaskID is zero for single-task updates where the id is implicit.
type InvalidTransitionError struct {
	TaskID int64
	From   TaskStatus
	To     TaskStatus
}

func (e *InvalidTransitionError) Error() string {
	if e.TaskID != 0 {
		return fmt.Sprintf("invalid status transition from %s to %s for task %d", e.From, e.To, e.TaskID)
	}
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}
