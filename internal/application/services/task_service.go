package services

import (
	"context"
	"fmt"
	"time"

	"github.com/taskflow/core/internal/domain/entities"
	"github.com/taskflow/core/internal/domain/validation"
	"github.com/taskflow/core/internal/infrastructure/config"
	"github.com/taskflow/core/internal/infrastructure/logger"
	"github.com/taskflow/core/internal/ports"
)

// TaskService implements the task query and mutation operations. It is
// stateless between calls: each operation validates first, then writes, and
// atomicity is delegated to the repository's transaction boundary.
type TaskService struct {
	taskRepo   ports.TaskRepository
	pagination config.PaginationConfig
	logger     *logger.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(taskRepo ports.TaskRepository, pagination config.PaginationConfig, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		pagination: pagination,
		logger:     logger,
	}
}

// CreateTask validates every field, assigns timestamps, and persists a new
// task. Status defaults to pending and priority to medium.
func (s *TaskService) CreateTask(ctx context.Context, req ports.CreateTaskRequest) (*entities.Task, error) {
	title, err := validation.Title(req.Title)
	if err != nil {
		return nil, err
	}

	description, err := validation.Description(req.Description)
	if err != nil {
		return nil, err
	}

	dueDate, err := validation.DueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	assignedTo, err := validation.AssignedTo(req.AssignedTo)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = entities.TaskStatusPending
	}
	if status, err = validation.Status(status); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = entities.PriorityMedium
	}
	if priority, err = validation.Priority(priority); err != nil {
		return nil, err
	}

	task := &entities.Task{
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		DueDate:     dueDate,
		AssignedTo:  assignedTo,
		CreatedAt:   time.Now().UTC(),
	}

	created, err := s.taskRepo.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("Task created", "task_id", created.ID, "title", created.Title)

	return created, nil
}

// GetTask retrieves a task by id.
func (s *TaskService) GetTask(ctx context.Context, id int64) (*entities.Task, error) {
	return s.taskRepo.GetByID(ctx, id)
}

// ListTasks runs one bounded list query. The limit is clamped to the
// configured [1, max_page_size] range, defaulting when unset; skip is never
// negative. Total always counts the filtered-but-unpaginated set.
func (s *TaskService) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, int, error) {
	filter = s.BoundFilter(filter)

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// ListTasksByStatus lists tasks with a fixed status filter.
func (s *TaskService) ListTasksByStatus(ctx context.Context, status entities.TaskStatus, filter ports.TaskFilter) ([]*entities.Task, int, error) {
	if _, err := validation.Status(status); err != nil {
		return nil, 0, err
	}
	filter.Status = &status
	return s.ListTasks(ctx, filter)
}

// ListTasksByPriority lists tasks with a fixed priority filter.
func (s *TaskService) ListTasksByPriority(ctx context.Context, priority entities.TaskPriority, filter ports.TaskFilter) ([]*entities.Task, int, error) {
	if _, err := validation.Priority(priority); err != nil {
		return nil, 0, err
	}
	filter.Priority = &priority
	return s.ListTasks(ctx, filter)
}

// UpdateTask applies a partial update to one task. Present fields are
// revalidated; a status change must be allowed by the transition table or
// the whole mutation is aborted.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, req ports.UpdateTaskRequest) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes, err := s.validateChanges(req)
	if err != nil {
		return nil, err
	}

	if changes.Status != nil && !validation.StatusTransition(task.Status, *changes.Status) {
		return nil, &entities.InvalidTransitionError{From: task.Status, To: *changes.Status}
	}

	applyChanges(task, changes)
	now := time.Now().UTC()
	task.UpdatedAt = &now

	updated, err := s.taskRepo.Update(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Info("Task updated", "task_id", updated.ID)

	return updated, nil
}

// DeleteTask removes a task immediately.
func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Task deleted", "task_id", id)

	return nil
}

// BulkUpdateTasks applies one payload to every target task, all or nothing.
// Every id must exist, the payload must touch at least one field, and a
// status change must be a valid transition from each task's own current
// status. All targets share the same updated_at.
func (s *TaskService) BulkUpdateTasks(ctx context.Context, req ports.BulkUpdateRequest) (int, []int64, error) {
	// Duplicate ids in the request must not double-count a target.
	targetIDs := dedupeIDs(req.TaskIDs)

	tasks, err := s.taskRepo.GetByIDs(ctx, targetIDs)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to resolve tasks: %w", err)
	}

	existing := make(map[int64]bool, len(tasks))
	for _, task := range tasks {
		existing[task.ID] = true
	}
	var missing []int64
	for _, id := range targetIDs {
		if !existing[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return 0, nil, &entities.NotFoundError{IDs: missing}
	}

	if req.UpdateData.Changes().IsEmpty() {
		return 0, nil, entities.NewInvalidInput("update_data", "no fields provided")
	}

	changes, err := s.validateChanges(req.UpdateData)
	if err != nil {
		return 0, nil, err
	}

	if changes.Status != nil {
		for _, task := range tasks {
			if !validation.StatusTransition(task.Status, *changes.Status) {
				return 0, nil, &entities.InvalidTransitionError{TaskID: task.ID, From: task.Status, To: *changes.Status}
			}
		}
	}

	ids := make([]int64, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}

	affected, err := s.taskRepo.BulkApply(ctx, ids, changes, time.Now().UTC())
	if err != nil {
		return 0, nil, fmt.Errorf("failed to bulk update tasks: %w", err)
	}

	s.logger.Info("Tasks bulk updated", "affected", affected)

	return affected, ids, nil
}

// BulkDeleteTasks deletes whichever of the target ids exist. Missing ids are
// tolerated silently; only an entirely unmatched request is an error. This
// is deliberately more lenient than bulk update.
func (s *TaskService) BulkDeleteTasks(ctx context.Context, req ports.BulkDeleteRequest) (int, []int64, error) {
	deleted, err := s.taskRepo.BulkDelete(ctx, req.TaskIDs)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to bulk delete tasks: %w", err)
	}
	if len(deleted) == 0 {
		return 0, nil, &entities.NotFoundError{}
	}

	s.logger.Info("Tasks bulk deleted", "affected", len(deleted))

	return len(deleted), deleted, nil
}

// Statistics returns the total count plus per-status and per-priority
// breakdowns with every bucket present.
func (s *TaskService) Statistics(ctx context.Context) (*ports.TaskStatistics, error) {
	stats, err := s.taskRepo.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	return stats, nil
}

// BoundFilter normalizes pagination to the configured bounds. List methods
// apply it themselves; the HTTP layer also calls it so responses echo the
// effective skip and limit.
func (s *TaskService) BoundFilter(filter ports.TaskFilter) ports.TaskFilter {
	if filter.Skip < 0 {
		filter.Skip = 0
	}
	if filter.Limit <= 0 {
		filter.Limit = s.pagination.DefaultPageSize
	}
	if filter.Limit > s.pagination.MaxPageSize {
		filter.Limit = s.pagination.MaxPageSize
	}
	return filter
}

// validateChanges revalidates every present field of a partial update and
// returns the sanitized change set. Transition checks happen separately
// because they depend on each target's current status.
func (s *TaskService) validateChanges(req ports.UpdateTaskRequest) (ports.TaskChanges, error) {
	changes := req.Changes()

	if changes.Title != nil {
		title, err := validation.Title(*changes.Title)
		if err != nil {
			return ports.TaskChanges{}, err
		}
		changes.Title = &title
	}

	if changes.Description != nil {
		description, err := validation.Description(changes.Description)
		if err != nil {
			return ports.TaskChanges{}, err
		}
		changes.Description = description
	}

	if changes.DueDate != nil {
		dueDate, err := validation.DueDate(changes.DueDate)
		if err != nil {
			return ports.TaskChanges{}, err
		}
		changes.DueDate = dueDate
	}

	if changes.AssignedTo != nil {
		assignedTo, err := validation.AssignedTo(changes.AssignedTo)
		if err != nil {
			return ports.TaskChanges{}, err
		}
		if assignedTo == nil {
			// Explicitly empty assignee clears the field; keep the field
			// present in the change set with the empty-string marker.
			empty := ""
			assignedTo = &empty
		}
		changes.AssignedTo = assignedTo
	}

	if changes.Priority != nil {
		priority, err := validation.Priority(*changes.Priority)
		if err != nil {
			return ports.TaskChanges{}, err
		}
		changes.Priority = &priority
	}

	if changes.Status != nil {
		status, err := validation.Status(*changes.Status)
		if err != nil {
			return ports.TaskChanges{}, err
		}
		changes.Status = &status
	}

	return changes, nil
}

// dedupeIDs drops repeated ids, keeping first-occurrence order.
func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique
}

func applyChanges(task *entities.Task, changes ports.TaskChanges) {
	if changes.Title != nil {
		task.Title = *changes.Title
	}
	if changes.Description != nil {
		task.Description = changes.Description
	}
	if changes.Status != nil {
		task.Status = *changes.Status
	}
	if changes.Priority != nil {
		task.Priority = *changes.Priority
	}
	if changes.DueDate != nil {
		task.DueDate = changes.DueDate
	}
	if changes.AssignedTo != nil {
		if *changes.AssignedTo == "" {
			task.AssignedTo = nil
		} else {
			task.AssignedTo = changes.AssignedTo
		}
	}
}
