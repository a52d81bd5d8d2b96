package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskflow/core/internal/application/services"
	"github.com/taskflow/core/internal/domain/entities"
	"github.com/taskflow/core/internal/infrastructure/logger"
	"github.com/taskflow/core/internal/ports"
)

// TaskHandler handles task-related requests.
type TaskHandler struct {
	taskService *services.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService *services.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Create task failed", "error", err)
		return domainError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

// GetTask handles GET /tasks/:id.
func (h *TaskHandler) GetTask(c echo.Context) error {
	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// ListTasks handles GET /tasks with filtering, search, sorting, and
// pagination.
func (h *TaskHandler) ListTasks(c echo.Context) error {
	filter, err := parseFilter(c)
	if err != nil {
		return err
	}
	filter = h.taskService.BoundFilter(filter)

	tasks, total, err := h.taskService.ListTasks(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("List tasks failed", "error", err)
		return domainError(err)
	}

	return c.JSON(http.StatusOK, newTaskListResponse(tasks, total, filter))
}

// ListTasksByStatus handles GET /tasks/status/:status.
func (h *TaskHandler) ListTasksByStatus(c echo.Context) error {
	status := entities.TaskStatus(c.Param("status"))

	filter, err := parseFilter(c)
	if err != nil {
		return err
	}
	filter = h.taskService.BoundFilter(filter)

	tasks, total, err := h.taskService.ListTasksByStatus(c.Request().Context(), status, filter)
	if err != nil {
		return domainError(err)
	}

	filter.Status = &status
	return c.JSON(http.StatusOK, newTaskListResponse(tasks, total, filter))
}

// ListTasksByPriority handles GET /tasks/priority/:priority.
func (h *TaskHandler) ListTasksByPriority(c echo.Context) error {
	priority := entities.TaskPriority(c.Param("priority"))

	filter, err := parseFilter(c)
	if err != nil {
		return err
	}
	filter = h.taskService.BoundFilter(filter)

	tasks, total, err := h.taskService.ListTasksByPriority(c.Request().Context(), priority, filter)
	if err != nil {
		return domainError(err)
	}

	filter.Priority = &priority
	return c.JSON(http.StatusOK, newTaskListResponse(tasks, total, filter))
}

// UpdateTask handles PUT /tasks/:id.
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), id, req)
	if err != nil {
		h.logger.Error("Update task failed", "error", err, "task_id", id)
		return domainError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/:id.
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), id); err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Task deleted successfully"})
}

// BulkUpdateTasks handles PUT /tasks/bulk.
func (h *TaskHandler) BulkUpdateTasks(c echo.Context) error {
	var req ports.BulkUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	affected, ids, err := h.taskService.BulkUpdateTasks(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Bulk update failed", "error", err)
		return domainError(err)
	}

	return c.JSON(http.StatusOK, BulkOperationResponse{
		Success:       true,
		AffectedCount: affected,
		Message:       fmt.Sprintf("Successfully updated %d tasks", affected),
		TaskIDs:       ids,
	})
}

// BulkDeleteTasks handles DELETE /tasks/bulk.
func (h *TaskHandler) BulkDeleteTasks(c echo.Context) error {
	var req ports.BulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	affected, ids, err := h.taskService.BulkDeleteTasks(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Bulk delete failed", "error", err)
		return domainError(err)
	}

	return c.JSON(http.StatusOK, BulkOperationResponse{
		Success:       true,
		AffectedCount: affected,
		Message:       fmt.Sprintf("Successfully deleted %d tasks", affected),
		TaskIDs:       ids,
	})
}

// GetStatistics handles GET /tasks/statistics.
func (h *TaskHandler) GetStatistics(c echo.Context) error {
	stats, err := h.taskService.Statistics(c.Request().Context())
	if err != nil {
		h.logger.Error("Statistics failed", "error", err)
		return domainError(err)
	}

	return c.JSON(http.StatusOK, stats)
}

// parseTaskID parses the :id path parameter.
func parseTaskID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}
	return id, nil
}

// parseFilter reads the list query parameters. Enum-valued parameters are
// rejected up front; pagination bounds are enforced later by the service.
func parseFilter(c echo.Context) (ports.TaskFilter, error) {
	var filter ports.TaskFilter

	if skipStr := c.QueryParam("skip"); skipStr != "" {
		skip, err := strconv.Atoi(skipStr)
		if err != nil || skip < 0 {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "Invalid skip parameter")
		}
		filter.Skip = skip
	}

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "Invalid limit parameter")
		}
		filter.Limit = limit
	}

	if statusStr := c.QueryParam("status"); statusStr != "" {
		status := entities.TaskStatus(statusStr)
		if !status.IsValid() {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "Invalid status filter")
		}
		filter.Status = &status
	}

	if priorityStr := c.QueryParam("priority"); priorityStr != "" {
		priority := entities.TaskPriority(priorityStr)
		if !priority.IsValid() {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "Invalid priority filter")
		}
		filter.Priority = &priority
	}

	if assignedTo := c.QueryParam("assigned_to"); assignedTo != "" {
		filter.AssignedTo = &assignedTo
	}

	if search := c.QueryParam("search"); search != "" {
		filter.Search = &search
	}

	if sortBy := c.QueryParam("sort_by"); sortBy != "" {
		if !ports.SortableFields[sortBy] {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "Invalid sort_by parameter")
		}
		filter.SortBy = sortBy
	}

	switch order := c.QueryParam("sort_order"); order {
	case "", string(ports.SortDesc):
		filter.SortOrder = ports.SortDesc
	case string(ports.SortAsc):
		filter.SortOrder = ports.SortAsc
	default:
		return filter, echo.NewHTTPError(http.StatusBadRequest, "Invalid sort_order parameter")
	}

	return filter, nil
}

// domainError maps the engine's error taxonomy onto HTTP status codes.
// Anything outside the taxonomy falls through to the server error handler
// as a 500.
func domainError(err error) error {
	var notFound *entities.NotFoundError
	if errors.As(err, &notFound) {
		return echo.NewHTTPError(http.StatusNotFound, notFound.Error())
	}

	var invalidInput *entities.InvalidInputError
	if errors.As(err, &invalidInput) {
		return echo.NewHTTPError(http.StatusBadRequest, invalidInput.Error())
	}

	var invalidTransition *entities.InvalidTransitionError
	if errors.As(err, &invalidTransition) {
		return echo.NewHTTPError(http.StatusBadRequest, invalidTransition.Error())
	}

	return err
}

// Response types.

// TaskListResponse is the payload of every paginated list endpoint.
type TaskListResponse struct {
	Tasks     []*entities.Task `json:"tasks"`
	Total     int              `json:"total"`
	Skip      int              `json:"skip"`
	Limit     int              `json:"limit"`
	SortBy    string           `json:"sort_by,omitempty"`
	SortOrder string           `json:"sort_order,omitempty"`
}

func newTaskListResponse(tasks []*entities.Task, total int, filter ports.TaskFilter) TaskListResponse {
	if tasks == nil {
		tasks = []*entities.Task{}
	}
	return TaskListResponse{
		Tasks:     tasks,
		Total:     total,
		Skip:      filter.Skip,
		Limit:     filter.Limit,
		SortBy:    filter.SortBy,
		SortOrder: string(filter.SortOrder),
	}
}

// BulkOperationResponse reports the outcome of a bulk mutation.
type BulkOperationResponse struct {
	Success       bool    `json:"success"`
	AffectedCount int     `json:"affected_count"`
	Message       string  `json:"message"`
	TaskIDs       []int64 `json:"task_ids"`
}

// MessageResponse is a simple confirmation payload.
type MessageResponse struct {
	Message string `json:"message"`
}
