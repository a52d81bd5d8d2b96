package validation_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/core/internal/domain/entities"
	"github.com/taskflow/core/internal/domain/validation"
)

func strPtr(s string) *string { return &s }

func TestTitle(t *testing.T) {
	t.Parallel()

	title, err := validation.Title("  Fix the login bug  ")
	require.NoError(t, err)
	assert.Equal(t, "Fix the login bug", title)

	// Trimming is idempotent: validating an already-trimmed title is a no-op.
	again, err := validation.Title(title)
	require.NoError(t, err)
	assert.Equal(t, title, again)

	_, err = validation.Title("")
	assert.Error(t, err)

	_, err = validation.Title("   \t\n  ")
	assert.Error(t, err)

	atLimit, err := validation.Title(strings.Repeat("a", 200))
	require.NoError(t, err)
	assert.Len(t, atLimit, 200)

	_, err = validation.Title(strings.Repeat("a", 201))
	assert.Error(t, err)

	var invalidInput *entities.InvalidInputError
	require.ErrorAs(t, err, &invalidInput)
	assert.Equal(t, "title", invalidInput.Field)
}

func TestLengthLimitsCountCharactersNotBytes(t *testing.T) {
	t.Parallel()

	// "é" is two bytes in UTF-8; 200 of them are 400 bytes but exactly 200
	// characters and must pass.
	title, err := validation.Title(strings.Repeat("é", 200))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 200), title)

	_, err = validation.Title(strings.Repeat("é", 201))
	assert.Error(t, err)

	desc, err := validation.Description(strPtr(strings.Repeat("é", 1000)))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 1000), *desc)

	_, err = validation.Description(strPtr(strings.Repeat("é", 1001)))
	assert.Error(t, err)

	assignee, err := validation.AssignedTo(strPtr(strings.Repeat("é", 100)))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 100), *assignee)

	_, err = validation.AssignedTo(strPtr(strings.Repeat("é", 101)))
	assert.Error(t, err)
}

func TestDescription(t *testing.T) {
	t.Parallel()

	result, err := validation.Description(nil)
	require.NoError(t, err)
	assert.Nil(t, result)

	result, err = validation.Description(strPtr("  some details  "))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "some details", *result)

	// A whitespace-only description stays as an empty string; it is not
	// normalized to nil.
	result, err = validation.Description(strPtr("   "))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "", *result)

	result, err = validation.Description(strPtr(strings.Repeat("d", 1000)))
	require.NoError(t, err)
	assert.Len(t, *result, 1000)

	_, err = validation.Description(strPtr(strings.Repeat("d", 1001)))
	assert.Error(t, err)
}

func TestDueDate(t *testing.T) {
	t.Parallel()

	result, err := validation.DueDate(nil)
	require.NoError(t, err)
	assert.Nil(t, result)

	future := time.Now().UTC().Add(time.Hour)
	result, err = validation.DueDate(&future)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Equal(future))

	past := time.Now().UTC().Add(-time.Second)
	_, err = validation.DueDate(&past)
	require.Error(t, err)

	var invalidInput *entities.InvalidInputError
	require.ErrorAs(t, err, &invalidInput)
	assert.Equal(t, "due_date", invalidInput.Field)
}

func TestAssignedTo(t *testing.T) {
	t.Parallel()

	result, err := validation.AssignedTo(nil)
	require.NoError(t, err)
	assert.Nil(t, result)

	result, err = validation.AssignedTo(strPtr("  alice  "))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "alice", *result)

	// Empty and whitespace-only assignees normalize to nil (unassigned).
	result, err = validation.AssignedTo(strPtr(""))
	require.NoError(t, err)
	assert.Nil(t, result)

	result, err = validation.AssignedTo(strPtr("   "))
	require.NoError(t, err)
	assert.Nil(t, result)

	result, err = validation.AssignedTo(strPtr(strings.Repeat("a", 100)))
	require.NoError(t, err)
	assert.Len(t, *result, 100)

	_, err = validation.AssignedTo(strPtr(strings.Repeat("a", 101)))
	assert.Error(t, err)
}

func TestPriority(t *testing.T) {
	t.Parallel()

	for _, p := range entities.AllPriorities {
		result, err := validation.Priority(p)
		require.NoError(t, err)
		assert.Equal(t, p, result)
	}

	_, err := validation.Priority(entities.TaskPriority("critical"))
	require.Error(t, err)

	var invalidInput *entities.InvalidInputError
	require.ErrorAs(t, err, &invalidInput)
	assert.Equal(t, "priority", invalidInput.Field)
}

func TestStatus(t *testing.T) {
	t.Parallel()

	for _, s := range entities.AllStatuses {
		result, err := validation.Status(s)
		require.NoError(t, err)
		assert.Equal(t, s, result)
	}

	_, err := validation.Status(entities.TaskStatus("archived"))
	assert.Error(t, err)
}

func TestStatusTransition(t *testing.T) {
	t.Parallel()

	assert.True(t, validation.StatusTransition(entities.TaskStatusPending, entities.TaskStatusInProgress))
	assert.False(t, validation.StatusTransition(entities.TaskStatusPending, entities.TaskStatusCompleted))
	assert.False(t, validation.StatusTransition(entities.TaskStatusCompleted, entities.TaskStatusCompleted))
}
