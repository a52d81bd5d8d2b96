package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/core/internal/domain/entities"
	"github.com/taskflow/core/internal/ports"
)

func TestBuildWhereEmpty(t *testing.T) {
	t.Parallel()

	clause, args := buildWhere(ports.TaskFilter{})
	assert.Empty(t, clause)
	assert.Empty(t, args)
}

func TestBuildWhereSingleFilter(t *testing.T) {
	t.Parallel()

	status := entities.TaskStatusPending
	clause, args := buildWhere(ports.TaskFilter{Status: &status})

	assert.Equal(t, "WHERE status = $1", clause)
	require.Len(t, args, 1)
	assert.Equal(t, status, args[0])
}

func TestBuildWhereConjoinsAllFilters(t *testing.T) {
	t.Parallel()

	status := entities.TaskStatusInProgress
	priority := entities.PriorityHigh
	assignee := "alice"
	search := "Login"

	clause, args := buildWhere(ports.TaskFilter{
		Status:     &status,
		Priority:   &priority,
		AssignedTo: &assignee,
		Search:     &search,
	})

	assert.Equal(t,
		"WHERE status = $1 AND priority = $2 AND assigned_to = $3 AND (LOWER(title) LIKE $4 OR LOWER(description) LIKE $4)",
		clause,
	)
	require.Len(t, args, 4)
	assert.Equal(t, status, args[0])
	assert.Equal(t, priority, args[1])
	assert.Equal(t, assignee, args[2])
	// Search terms are lowercased and wrapped for substring matching.
	assert.Equal(t, "%login%", args[3])
}

func TestBuildWhereIgnoresEmptyValues(t *testing.T) {
	t.Parallel()

	empty := ""
	clause, args := buildWhere(ports.TaskFilter{AssignedTo: &empty, Search: &empty})
	assert.Empty(t, clause)
	assert.Empty(t, args)
}

func TestBuildOrderByDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ORDER BY created_at DESC, id ASC", buildOrderBy("", ports.SortDesc))

	// Unknown sort fields fall back to the default instead of reaching SQL.
	assert.Equal(t, "ORDER BY created_at DESC, id ASC", buildOrderBy("password_hash", ports.SortAsc))
}

func TestBuildOrderByDirection(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ORDER BY title ASC, id ASC", buildOrderBy("title", ports.SortAsc))
	assert.Equal(t, "ORDER BY title DESC, id ASC", buildOrderBy("title", ports.SortDesc))
	assert.Equal(t, "ORDER BY due_date ASC, id ASC", buildOrderBy("due_date", ports.SortAsc))
}

func TestBuildOrderByPriorityUsesRankExpression(t *testing.T) {
	t.Parallel()

	expected := "ORDER BY CASE priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 WHEN 'urgent' THEN 4 ELSE 0 END ASC, id ASC"
	assert.Equal(t, expected, buildOrderBy("priority", ports.SortAsc))
}

func TestBulkApplyEmptyIDsSkipsSQL(t *testing.T) {
	t.Parallel()

	// Must return before touching the connection; IN () is not valid SQL.
	repo := NewTaskRepository(nil)

	priority := entities.PriorityUrgent
	affected, err := repo.BulkApply(context.Background(), nil, ports.TaskChanges{Priority: &priority}, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestBulkDeleteEmptyIDsSkipsSQL(t *testing.T) {
	t.Parallel()

	repo := NewTaskRepository(nil)

	deleted, err := repo.BulkDelete(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}
