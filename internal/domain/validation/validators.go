// Package validation holds the pure field validators for task input. Each
// function is total over its declared inputs: it either returns the
// sanitized value or an entities.InvalidInputError, and never panics.
package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/taskflow/core/internal/domain/entities"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
	maxAssigneeLen    = 100
)

// Title trims the title and rejects empty, whitespace-only, or oversized
// values.
func Title(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", entities.NewInvalidInput("title", "cannot be empty or whitespace only")
	}
	if utf8.RuneCountInString(trimmed) > maxTitleLen {
		return "", entities.NewInvalidInput("title", fmt.Sprintf("cannot exceed %d characters", maxTitleLen))
	}
	return trimmed, nil
}

// Description passes nil through and otherwise returns the trimmed value.
// A value that trims to the empty string is kept as the empty string, not
// normalized to nil; assignees behave differently on purpose.
func Description(description *string) (*string, error) {
	if description == nil {
		return nil, nil
	}
	if utf8.RuneCountInString(*description) > maxDescriptionLen {
		return nil, entities.NewInvalidInput("description", fmt.Sprintf("cannot exceed %d characters", maxDescriptionLen))
	}
	trimmed := strings.TrimSpace(*description)
	return &trimmed, nil
}

// DueDate passes nil through and rejects dates that are not strictly in the
// future at the moment of validation. Already-stored due dates are never
// re-checked, so tasks may become overdue as time advances.
func DueDate(dueDate *time.Time) (*time.Time, error) {
	if dueDate == nil {
		return nil, nil
	}
	if !dueDate.After(time.Now().UTC()) {
		return nil, entities.NewInvalidInput("due_date", "must be in the future")
	}
	return dueDate, nil
}

// AssignedTo passes nil through, trims the value, normalizes an empty or
// whitespace-only assignee to nil, and rejects oversized values.
func AssignedTo(assignedTo *string) (*string, error) {
	if assignedTo == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*assignedTo)
	if utf8.RuneCountInString(trimmed) > maxAssigneeLen {
		return nil, entities.NewInvalidInput("assigned_to", fmt.Sprintf("cannot exceed %d characters", maxAssigneeLen))
	}
	if trimmed == "" {
		return nil, nil
	}
	return &trimmed, nil
}

// Priority rejects unknown priority variants. Request decoding normally
// prevents these from appearing, so this is a defensive check.
func Priority(priority entities.TaskPriority) (entities.TaskPriority, error) {
	if !priority.IsValid() {
		return "", entities.NewInvalidInput("priority", fmt.Sprintf("unknown priority %q", priority))
	}
	return priority, nil
}

// Status rejects unknown status variants.
func Status(status entities.TaskStatus) (entities.TaskStatus, error) {
	if !status.IsValid() {
		return "", entities.NewInvalidInput("status", fmt.Sprintf("unknown status %q", status))
	}
	return status, nil
}

// StatusTransition consults the transition table and reports whether next is
// reachable from current. It never errors; callers decide how to react.
func StatusTransition(current, next entities.TaskStatus) bool {
	return current.CanTransitionTo(next)
}
