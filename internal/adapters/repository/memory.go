package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taskflow/core/internal/domain/entities"
	"github.com/taskflow/core/internal/ports"
)

// MemoryTaskRepository is an in-memory ports.TaskRepository. It honors the
// exact filter, search, sort, and pagination contract of the Postgres store
// and backs the service and handler tests.
type MemoryTaskRepository struct {
	mu     sync.RWMutex
	tasks  map[int64]*entities.Task
	nextID int64
}

// NewMemoryTaskRepository creates an empty in-memory task store.
func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{
		tasks:  make(map[int64]*entities.Task),
		nextID: 1,
	}
}

func cloneTask(t *entities.Task) *entities.Task {
	copied := *t
	return &copied
}

// Create assigns the next id and stores the task.
func (r *MemoryTaskRepository) Create(ctx context.Context, task *entities.Task) (*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task.ID = r.nextID
	r.nextID++
	r.tasks[task.ID] = cloneTask(task)

	return cloneTask(task), nil
}

// GetByID retrieves a task by id.
func (r *MemoryTaskRepository) GetByID(ctx context.Context, id int64) (*entities.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, &entities.NotFoundError{IDs: []int64{id}}
	}
	return cloneTask(task), nil
}

// GetByIDs returns the tasks that exist among ids, ordered by id.
func (r *MemoryTaskRepository) GetByIDs(ctx context.Context, ids []int64) ([]*entities.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found []*entities.Task
	for _, id := range ids {
		if task, ok := r.tasks[id]; ok {
			found = append(found, cloneTask(task))
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found, nil
}

func matchesFilter(t *entities.Task, filter ports.TaskFilter) bool {
	if filter.Status != nil && t.Status != *filter.Status {
		return false
	}
	if filter.Priority != nil && t.Priority != *filter.Priority {
		return false
	}
	if filter.AssignedTo != nil && *filter.AssignedTo != "" {
		if t.AssignedTo == nil || *t.AssignedTo != *filter.AssignedTo {
			return false
		}
	}
	if filter.Search != nil && *filter.Search != "" {
		needle := strings.ToLower(*filter.Search)
		inTitle := strings.Contains(strings.ToLower(t.Title), needle)
		inDescription := t.Description != nil && strings.Contains(strings.ToLower(*t.Description), needle)
		if !inTitle && !inDescription {
			return false
		}
	}
	return true
}

func compareOptionalTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	default:
		return 0
	}
}

func compareOptionalString(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return strings.Compare(*a, *b)
	}
}

// compareTasks orders a before b for the given sort field ascending.
// Priority sorts by numeric rank, everything else by natural field order.
func compareTasks(a, b *entities.Task, sortBy string) int {
	switch sortBy {
	case "id":
		return int(a.ID - b.ID)
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "status":
		return strings.Compare(string(a.Status), string(b.Status))
	case "priority":
		return a.Priority.SortRank() - b.Priority.SortRank()
	case "updated_at":
		return compareOptionalTime(a.UpdatedAt, b.UpdatedAt)
	case "due_date":
		return compareOptionalTime(a.DueDate, b.DueDate)
	case "assigned_to":
		return compareOptionalString(a.AssignedTo, b.AssignedTo)
	default: // created_at
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		default:
			return 0
		}
	}
}

// List filters, sorts, then paginates; total counts the filtered set before
// pagination.
func (r *MemoryTaskRepository) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*entities.Task
	for _, task := range r.tasks {
		if matchesFilter(task, filter) {
			matched = append(matched, cloneTask(task))
		}
	}
	total := len(matched)

	sortBy := "created_at"
	descending := true
	if ports.SortableFields[filter.SortBy] {
		sortBy = filter.SortBy
		descending = filter.SortOrder != ports.SortAsc
	}

	sort.Slice(matched, func(i, j int) bool {
		cmp := compareTasks(matched[i], matched[j], sortBy)
		if descending {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp < 0
		}
		return matched[i].ID < matched[j].ID
	})

	start := filter.Skip
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], total, nil
}

// Update replaces the stored task.
func (r *MemoryTaskRepository) Update(ctx context.Context, task *entities.Task) (*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.ID]; !ok {
		return nil, &entities.NotFoundError{IDs: []int64{task.ID}}
	}
	r.tasks[task.ID] = cloneTask(task)
	return cloneTask(task), nil
}

// Delete removes the task.
func (r *MemoryTaskRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return &entities.NotFoundError{IDs: []int64{id}}
	}
	delete(r.tasks, id)
	return nil
}

// BulkApply writes the non-nil change fields to every existing target.
func (r *MemoryTaskRepository) BulkApply(ctx context.Context, ids []int64, changes ports.TaskChanges, updatedAt time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	affected := 0
	for _, id := range ids {
		task, ok := r.tasks[id]
		if !ok {
			continue
		}
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
		ts := updatedAt
		task.UpdatedAt = &ts
		affected++
	}
	return affected, nil
}

// BulkDelete removes whichever of ids exist and returns the deleted ids.
func (r *MemoryTaskRepository) BulkDelete(ctx context.Context, ids []int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted []int64
	for _, id := range ids {
		if _, ok := r.tasks[id]; ok {
			delete(r.tasks, id)
			deleted = append(deleted, id)
		}
	}
	sort.Slice(deleted, func(i, j int) bool { return deleted[i] < deleted[j] })
	return deleted, nil
}

// Statistics counts tasks per status and priority, reporting zero buckets.
func (r *MemoryTaskRepository) Statistics(ctx context.Context) (*ports.TaskStatistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &ports.TaskStatistics{
		TotalTasks:        len(r.tasks),
		StatusBreakdown:   make(map[entities.TaskStatus]int, len(entities.AllStatuses)),
		PriorityBreakdown: make(map[entities.TaskPriority]int, len(entities.AllPriorities)),
	}
	for _, s := range entities.AllStatuses {
		stats.StatusBreakdown[s] = 0
	}
	for _, p := range entities.AllPriorities {
		stats.PriorityBreakdown[p] = 0
	}
	for _, task := range r.tasks {
		stats.StatusBreakdown[task.Status]++
		stats.PriorityBreakdown[task.Priority]++
	}
	return stats, nil
}
