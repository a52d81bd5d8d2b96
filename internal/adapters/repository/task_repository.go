package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/taskflow/core/internal/domain/entities"
	"github.com/taskflow/core/internal/infrastructure/database"
	"github.com/taskflow/core/internal/ports"
)

// TaskRepository implements ports.TaskRepository on Postgres.
type TaskRepository struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = "id, title, description, status, priority, created_at, updated_at, due_date, assigned_to"

// buildWhere assembles the conjunction of filter predicates. The same clause
// backs both the page query and the total count so the two can never see
// different row sets.
func buildWhere(filter ports.TaskFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.Priority != nil {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", argIndex))
		args = append(args, *filter.Priority)
		argIndex++
	}

	if filter.AssignedTo != nil && *filter.AssignedTo != "" {
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", argIndex))
		args = append(args, *filter.AssignedTo)
		argIndex++
	}

	if filter.Search != nil && *filter.Search != "" {
		pattern := "%" + strings.ToLower(*filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d)", argIndex, argIndex))
		args = append(args, pattern)
		argIndex++
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// prioritySortExpr maps the stored priority strings onto their numeric ranks
// so ORDER BY follows low < medium < high < urgent instead of lexical order.
// Values come from the fixed enum table, never from request input.
func prioritySortExpr() string {
	var b strings.Builder
	b.WriteString("CASE priority")
	for _, p := range entities.AllPriorities {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", p, p.SortRank())
	}
	b.WriteString(" ELSE 0 END")
	return b.String()
}

// buildOrderBy returns the ORDER BY expression for the filter. Sort fields
// are checked against the whitelist; anything else falls back to the
// default created_at DESC. An id tiebreak keeps page order deterministic.
func buildOrderBy(sortBy string, order ports.SortOrder) string {
	column := "created_at"
	direction := "DESC"

	if ports.SortableFields[sortBy] {
		column = sortBy
		direction = "DESC"
		if order == ports.SortAsc {
			direction = "ASC"
		}
	}

	if column == "priority" {
		column = prioritySortExpr()
	}

	return fmt.Sprintf("ORDER BY %s %s, id ASC", column, direction)
}

// Create inserts a new task and returns it with its assigned id.
func (r *TaskRepository) Create(ctx context.Context, task *entities.Task) (*entities.Task, error) {
	query := `
		INSERT INTO tasks (title, description, status, priority, created_at, updated_at, due_date, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.CreatedAt,
		task.UpdatedAt,
		task.DueDate,
		task.AssignedTo,
	).Scan(&task.ID)

	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// GetByID retrieves a task by id.
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*entities.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE id = $1", taskColumns)

	var task entities.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, &entities.NotFoundError{IDs: []int64{id}}
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &task, nil
}

// GetByIDs retrieves every task whose id appears in ids. Missing ids are
// simply absent from the result; callers compare lengths.
func (r *TaskRepository) GetByIDs(ctx context.Context, ids []int64) ([]*entities.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s FROM tasks WHERE id IN (?) ORDER BY id ASC", taskColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build id query: %w", err)
	}
	query = r.db.Rebind(query)

	var tasks []*entities.Task
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get tasks by ids: %w", err)
	}

	return tasks, nil
}

// List retrieves one page of tasks plus the total count under the same
// filter. Pagination bounds are enforced by the service before this call.
func (r *TaskRepository) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, int, error) {
	whereClause, args := buildWhere(filter)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM tasks %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM tasks %s %s LIMIT $%d OFFSET $%d",
		taskColumns,
		whereClause,
		buildOrderBy(filter.SortBy, filter.SortOrder),
		len(args)+1,
		len(args)+2,
	)
	args = append(args, filter.Limit, filter.Skip)

	var tasks []*entities.Task
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// Update persists every column of the task in one statement.
func (r *TaskRepository) Update(ctx context.Context, task *entities.Task) (*entities.Task, error) {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5, updated_at = $6, due_date = $7, assigned_to = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.UpdatedAt,
		task.DueDate,
		task.AssignedTo,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, &entities.NotFoundError{IDs: []int64{task.ID}}
	}

	return task, nil
}

// Delete removes a task immediately. There is no soft delete.
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &entities.NotFoundError{IDs: []int64{id}}
	}

	return nil
}

// BulkApply writes the non-nil change fields and the shared updated_at to
// every target row in a single transactional UPDATE.
func (r *TaskRepository) BulkApply(ctx context.Context, ids []int64, changes ports.TaskChanges, updatedAt time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var sets []string
	var args []interface{}
	argIndex := 1

	appendSet := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if changes.Title != nil {
		appendSet("title", *changes.Title)
	}
	if changes.Description != nil {
		appendSet("description", *changes.Description)
	}
	if changes.Status != nil {
		appendSet("status", *changes.Status)
	}
	if changes.Priority != nil {
		appendSet("priority", *changes.Priority)
	}
	if changes.DueDate != nil {
		appendSet("due_date", *changes.DueDate)
	}
	if changes.AssignedTo != nil {
		if *changes.AssignedTo == "" {
			appendSet("assigned_to", nil) // empty marker clears the assignee
		} else {
			appendSet("assigned_to", *changes.AssignedTo)
		}
	}
	appendSet("updated_at", updatedAt)

	placeholders := make([]string, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", argIndex)
		args = append(args, id)
		argIndex++
	}

	query := fmt.Sprintf(
		"UPDATE tasks SET %s WHERE id IN (%s)",
		strings.Join(sets, ", "),
		strings.Join(placeholders, ", "),
	)

	var affected int
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to bulk update tasks: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		affected = int(rowsAffected)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return affected, nil
}

// BulkDelete removes whichever of ids exist and returns the deleted ids.
// Missing ids are tolerated; the service decides whether an empty result is
// an error.
func (r *TaskRepository) BulkDelete(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var deleted []int64
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := sqlx.In("SELECT id FROM tasks WHERE id IN (?) ORDER BY id ASC", ids)
		if err != nil {
			return fmt.Errorf("failed to build id query: %w", err)
		}
		query = tx.Rebind(query)

		if err := tx.SelectContext(ctx, &deleted, query, args...); err != nil {
			return fmt.Errorf("failed to resolve existing tasks: %w", err)
		}
		if len(deleted) == 0 {
			return nil
		}

		query, args, err = sqlx.In("DELETE FROM tasks WHERE id IN (?)", deleted)
		if err != nil {
			return fmt.Errorf("failed to build delete query: %w", err)
		}
		query = tx.Rebind(query)

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to bulk delete tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

// Statistics counts tasks overall and per status and priority bucket. Every
// bucket is present in the result even at zero.
func (r *TaskRepository) Statistics(ctx context.Context) (*ports.TaskStatistics, error) {
	stats := &ports.TaskStatistics{
		StatusBreakdown:   make(map[entities.TaskStatus]int, len(entities.AllStatuses)),
		PriorityBreakdown: make(map[entities.TaskPriority]int, len(entities.AllPriorities)),
	}
	for _, s := range entities.AllStatuses {
		stats.StatusBreakdown[s] = 0
	}
	for _, p := range entities.AllPriorities {
		stats.PriorityBreakdown[p] = 0
	}

	if err := r.db.GetContext(ctx, &stats.TotalTasks, "SELECT COUNT(*) FROM tasks"); err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	type bucket struct {
		Key   string `db:"key"`
		Count int    `db:"count"`
	}

	var byStatus []bucket
	if err := r.db.SelectContext(ctx, &byStatus, "SELECT status AS key, COUNT(*) AS count FROM tasks GROUP BY status"); err != nil {
		return nil, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	for _, b := range byStatus {
		stats.StatusBreakdown[entities.TaskStatus(b.Key)] = b.Count
	}

	var byPriority []bucket
	if err := r.db.SelectContext(ctx, &byPriority, "SELECT priority AS key, COUNT(*) AS count FROM tasks GROUP BY priority"); err != nil {
		return nil, fmt.Errorf("failed to count tasks by priority: %w", err)
	}
	for _, b := range byPriority {
		stats.PriorityBreakdown[entities.TaskPriority(b.Key)] = b.Count
	}

	return stats, nil
}
