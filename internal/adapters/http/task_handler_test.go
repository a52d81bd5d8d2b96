package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	taskhttp "github.com/taskflow/core/internal/adapters/http"
	"github.com/taskflow/core/internal/adapters/repository"
	"github.com/taskflow/core/internal/application/services"
	"github.com/taskflow/core/internal/domain/entities"
	"github.com/taskflow/core/internal/infrastructure/config"
	"github.com/taskflow/core/internal/infrastructure/logger"
	"github.com/taskflow/core/internal/ports"
)

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

type testEnv struct {
	echo    *echo.Echo
	handler *taskhttp.TaskHandler
	service *services.TaskService
}

func newTestEnv() *testEnv {
	repo := repository.NewMemoryTaskRepository()
	pagination := config.PaginationConfig{DefaultPageSize: 100, MaxPageSize: 1000}
	svc := services.NewTaskService(repo, pagination, logger.NewNop())

	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}

	return &testEnv{
		echo:    e,
		handler: taskhttp.NewTaskHandler(svc, logger.NewNop()),
		service: svc,
	}
}

func (env *testEnv) request(method, target, body string) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return rec, env.echo.NewContext(req, rec)
}

func (env *testEnv) seed(t *testing.T, req ports.CreateTaskRequest) *entities.Task {
	t.Helper()
	task, err := env.service.CreateTask(context.Background(), req)
	require.NoError(t, err)
	return task
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func TestCreateTaskHandler(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	rec, c := env.request(http.MethodPost, "/api/v1/tasks", `{"title":"Write report","priority":"high"}`)
	require.NoError(t, env.handler.CreateTask(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var task entities.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, entities.PriorityHigh, task.Priority)
	assert.Equal(t, entities.TaskStatusPending, task.Status)
	assert.NotZero(t, task.ID)
}

func TestCreateTaskHandlerRequiresTitle(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	_, c := env.request(http.MethodPost, "/api/v1/tasks", `{"priority":"high"}`)
	err := env.handler.CreateTask(c)
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestCreateTaskHandlerRejectsPastDueDate(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	_, c := env.request(http.MethodPost, "/api/v1/tasks", `{"title":"late","due_date":"2020-01-01T00:00:00Z"}`)
	err := env.handler.CreateTask(c)
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestGetTaskHandler(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	task := env.seed(t, ports.CreateTaskRequest{Title: "fetch me"})

	rec, c := env.request(http.MethodGet, "/api/v1/tasks/1", "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprintf("%d", task.ID))

	require.NoError(t, env.handler.GetTask(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var got entities.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, task.ID, got.ID)
}

func TestGetTaskHandlerNotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	_, c := env.request(http.MethodGet, "/api/v1/tasks/999", "")
	c.SetParamNames("id")
	c.SetParamValues("999")

	err := env.handler.GetTask(c)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestGetTaskHandlerInvalidID(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	_, c := env.request(http.MethodGet, "/api/v1/tasks/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")

	err := env.handler.GetTask(c)
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestListTasksHandler(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	env.seed(t, ports.CreateTaskRequest{Title: "first"})
	env.seed(t, ports.CreateTaskRequest{Title: "second"})

	rec, c := env.request(http.MethodGet, "/api/v1/tasks", "")
	require.NoError(t, env.handler.ListTasks(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp taskhttp.TaskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Tasks, 2)
	assert.Equal(t, 0, resp.Skip)
	// The response echoes the effective limit, not the omitted request value.
	assert.Equal(t, 100, resp.Limit)
}

func TestListTasksHandlerEmptyStoreReturnsEmptySlice(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	rec, c := env.request(http.MethodGet, "/api/v1/tasks", "")
	require.NoError(t, env.handler.ListTasks(c))

	assert.Contains(t, rec.Body.String(), `"tasks":[]`)
}

func TestListTasksHandlerRejectsBadParams(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	cases := []string{
		"/api/v1/tasks?skip=-1",
		"/api/v1/tasks?limit=0",
		"/api/v1/tasks?limit=abc",
		"/api/v1/tasks?status=archived",
		"/api/v1/tasks?priority=critical",
		"/api/v1/tasks?sort_by=password",
		"/api/v1/tasks?sort_order=sideways",
	}

	for _, target := range cases {
		target := target
		t.Run(target, func(t *testing.T) {
			t.Parallel()
			_, c := env.request(http.MethodGet, target, "")
			err := env.handler.ListTasks(c)
			assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
		})
	}
}

func TestListTasksHandlerFiltersAndSearch(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	env.seed(t, ports.CreateTaskRequest{Title: "Fix login bug", Priority: entities.PriorityHigh})
	env.seed(t, ports.CreateTaskRequest{Title: "Write docs", Priority: entities.PriorityLow})

	rec, c := env.request(http.MethodGet, "/api/v1/tasks?search=LOGIN&priority=high", "")
	require.NoError(t, env.handler.ListTasks(c))

	var resp taskhttp.TaskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Tasks, 1)
	assert.Equal(t, "Fix login bug", resp.Tasks[0].Title)
}

func TestListTasksByStatusHandler(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	env.seed(t, ports.CreateTaskRequest{Title: "pending one"})
	env.seed(t, ports.CreateTaskRequest{Title: "running", Status: entities.TaskStatusInProgress})

	rec, c := env.request(http.MethodGet, "/api/v1/tasks/status/in_progress", "")
	c.SetParamNames("status")
	c.SetParamValues("in_progress")

	require.NoError(t, env.handler.ListTasksByStatus(c))

	var resp taskhttp.TaskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Tasks, 1)
	assert.Equal(t, "running", resp.Tasks[0].Title)
}

func TestListTasksByStatusHandlerRejectsUnknown(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	_, c := env.request(http.MethodGet, "/api/v1/tasks/status/archived", "")
	c.SetParamNames("status")
	c.SetParamValues("archived")

	err := env.handler.ListTasksByStatus(c)
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestUpdateTaskHandler(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	task := env.seed(t, ports.CreateTaskRequest{Title: "before"})

	rec, c := env.request(http.MethodPut, "/api/v1/tasks/1", `{"title":"after","status":"in_progress"}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprintf("%d", task.ID))

	require.NoError(t, env.handler.UpdateTask(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var got entities.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "after", got.Title)
	assert.Equal(t, entities.TaskStatusInProgress, got.Status)
	assert.NotNil(t, got.UpdatedAt)
}

func TestUpdateTaskHandlerInvalidTransition(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	task := env.seed(t, ports.CreateTaskRequest{Title: "pending"})

	_, c := env.request(http.MethodPut, "/api/v1/tasks/1", `{"status":"completed"}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprintf("%d", task.ID))

	err := env.handler.UpdateTask(c)
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestDeleteTaskHandler(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	task := env.seed(t, ports.CreateTaskRequest{Title: "doomed"})

	rec, c := env.request(http.MethodDelete, "/api/v1/tasks/1", "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprintf("%d", task.ID))

	require.NoError(t, env.handler.DeleteTask(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Task deleted successfully")
}

func TestBulkUpdateTasksHandler(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	first := env.seed(t, ports.CreateTaskRequest{Title: "one"})
	second := env.seed(t, ports.CreateTaskRequest{Title: "two"})

	body := fmt.Sprintf(`{"task_ids":[%d,%d],"update_data":{"priority":"urgent"}}`, first.ID, second.ID)
	rec, c := env.request(http.MethodPut, "/api/v1/tasks/bulk", body)

	require.NoError(t, env.handler.BulkUpdateTasks(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp taskhttp.BulkOperationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.AffectedCount)
	assert.Equal(t, []int64{first.ID, second.ID}, resp.TaskIDs)
}

func TestBulkUpdateTasksHandlerMissingIDIs404(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	task := env.seed(t, ports.CreateTaskRequest{Title: "one"})

	body := fmt.Sprintf(`{"task_ids":[%d,999],"update_data":{"priority":"urgent"}}`, task.ID)
	_, c := env.request(http.MethodPut, "/api/v1/tasks/bulk", body)

	err := env.handler.BulkUpdateTasks(c)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestBulkUpdateTasksHandlerRequiresIDs(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	_, c := env.request(http.MethodPut, "/api/v1/tasks/bulk", `{"task_ids":[],"update_data":{"priority":"urgent"}}`)
	err := env.handler.BulkUpdateTasks(c)
	assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestBulkDeleteTasksHandler(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	first := env.seed(t, ports.CreateTaskRequest{Title: "one"})
	env.seed(t, ports.CreateTaskRequest{Title: "survivor"})

	body := fmt.Sprintf(`{"task_ids":[%d,999]}`, first.ID)
	rec, c := env.request(http.MethodDelete, "/api/v1/tasks/bulk", body)

	require.NoError(t, env.handler.BulkDeleteTasks(c))

	var resp taskhttp.BulkOperationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.AffectedCount)
	assert.Equal(t, []int64{first.ID}, resp.TaskIDs)
}

func TestBulkDeleteTasksHandlerAllMissingIs404(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	_, c := env.request(http.MethodDelete, "/api/v1/tasks/bulk", `{"task_ids":[7,8]}`)
	err := env.handler.BulkDeleteTasks(c)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestGetStatisticsHandler(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	env.seed(t, ports.CreateTaskRequest{Title: "one", Priority: entities.PriorityUrgent})

	rec, c := env.request(http.MethodGet, "/api/v1/tasks/statistics", "")
	require.NoError(t, env.handler.GetStatistics(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var stats ports.TaskStatistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalTasks)
	assert.Equal(t, 1, stats.PriorityBreakdown[entities.PriorityUrgent])
	// Zero buckets are still present in the payload.
	assert.Contains(t, stats.StatusBreakdown, entities.TaskStatusCancelled)
}
