package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmboard/internal/models"
	"pmboard/internal/storage"
	"pmboard/internal/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, store storage.Store) *Server {
	t.Helper()
	if store == nil {
		store = memory.New()
	}
	return New(store, Options{Logger: quietLogger(), Clock: func() time.Time { return testNow }})
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type taskEnvelope struct {
	Task    models.Task `json:"task"`
	Changed bool        `json:"changed"`
	Notices []struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	} `json:"notices"`
}

func TestHealth(t *testing.T) {
	w := doJSON(t, newTestServer(t, nil), http.MethodGet, "/api/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestTaskCRUDAndMove(t *testing.T) {
	srv := newTestServer(t, nil)

	w := doJSON(t, srv, http.MethodPost, "/api/tasks", map[string]any{
		"title": "Fix bug", "status": "todo", "priority": "high", "role": "dev", "tags": []string{"api"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[taskEnvelope](t, w).Task
	assert.Equal(t, int64(1), created.ID)
	assert.False(t, created.AssigneeID.Valid)

	w = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/tasks/%d/move", created.ID), map[string]any{"status": "inprogress"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	moved := decode[taskEnvelope](t, w)
	assert.True(t, moved.Changed)
	assert.Equal(t, models.StatusInProgress, moved.Task.Status)
	assert.True(t, moved.Task.UpdatedAt.After(created.CreatedAt))
	require.Len(t, moved.Notices, 1)
	assert.Equal(t, "Task moved to In Progress", moved.Notices[0].Message)

	w = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/tasks/%d/move", created.ID), map[string]any{"status": "inprogress"})
	require.Equal(t, http.StatusOK, w.Code)
	again := decode[taskEnvelope](t, w)
	assert.False(t, again.Changed)
	assert.Empty(t, again.Notices)

	w = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/tasks/%d", created.ID), map[string]any{"assigneeId": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.RefTo(3), decode[taskEnvelope](t, w).Task.AssigneeID)

	w = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/tasks/%d", created.ID), map[string]any{"assigneeId": nil})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[taskEnvelope](t, w).Task
	assert.False(t, updated.AssigneeID.Valid)
	assert.Equal(t, models.StatusInProgress, updated.Status)

	w = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", created.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/tasks/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMoveMissingTaskIsNotFound(t *testing.T) {
	w := doJSON(t, newTestServer(t, nil), http.MethodPost, "/api/tasks/9/move", map[string]any{"status": "done"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMoveRejectsUnknownStatus(t *testing.T) {
	srv := newTestServer(t, nil)
	w := doJSON(t, srv, http.MethodPost, "/api/tasks", map[string]any{"title": "x"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/tasks/1/move", map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, srv, http.MethodPost, "/api/tasks/1/move", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteMissingTaskIsNotFound(t *testing.T) {
	w := doJSON(t, newTestServer(t, nil), http.MethodDelete, "/api/tasks/77", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvalidInputs(t *testing.T) {
	srv := newTestServer(t, nil)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, srv, http.MethodGet, "/api/tasks/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, srv, http.MethodPost, "/api/tasks", map[string]any{"title": ""}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, srv, http.MethodPost, "/api/tasks", map[string]any{"title": "x", "priority": "urgent"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, srv, http.MethodPost, "/api/members", map[string]any{"name": "Zed", "role": "dev", "capacity": 0}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, srv, http.MethodGet, "/api/tasks?assigneeId=abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, srv, http.MethodGet, "/api/team?workload=extreme", nil).Code)
}

func TestVersionConflict(t *testing.T) {
	srv := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/tasks", map[string]any{"title": "x"}).Code)

	w := doJSON(t, srv, http.MethodPut, "/api/tasks/1", map[string]any{"title": "y", "expectedVersion": 5})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func seedBoard(t *testing.T, srv *Server) {
	t.Helper()
	members := []map[string]any{
		{"name": "Ada", "role": "dev", "capacity": 2, "skills": []string{"go", "rust"}},
		{"name": "Bob", "role": "tester", "capacity": 5},
	}
	for _, m := range members {
		require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/members", m).Code)
	}
	tasks := []map[string]any{
		{"title": "Fix login bug", "role": "dev", "priority": "high", "assigneeId": 1, "status": "done"},
		{"title": "Refactor bug tracker", "role": "dev", "priority": "low", "assigneeId": 1, "status": "inprogress"},
		{"title": "Test plan", "role": "tester", "priority": "high", "assigneeId": 2, "status": "todo"},
		{"title": "Roadmap", "role": "pm", "priority": "medium", "status": "inreview"},
	}
	for _, task := range tasks {
		require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/tasks", task).Code)
	}
}

func TestListTasksWithFilters(t *testing.T) {
	srv := newTestServer(t, nil)
	seedBoard(t, srv)

	type listResponse struct {
		Tasks    []models.Task `json:"tasks"`
		Total    int           `json:"total"`
		Filtered bool          `json:"filtered"`
	}

	all := decode[listResponse](t, doJSON(t, srv, http.MethodGet, "/api/tasks", nil))
	assert.Len(t, all.Tasks, 4)
	assert.False(t, all.Filtered)

	got := decode[listResponse](t, doJSON(t, srv, http.MethodGet, "/api/tasks?search=BUG&assigneeId=1", nil))
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, 4, got.Total)
	assert.True(t, got.Filtered)

	got = decode[listResponse](t, doJSON(t, srv, http.MethodGet, "/api/tasks?role=dev&priority=high", nil))
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, "Fix login bug", got.Tasks[0].Title)
}

func TestBoardGroupsColumns(t *testing.T) {
	srv := newTestServer(t, nil)
	seedBoard(t, srv)

	type lane struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Count int    `json:"count"`
	}
	resp := decode[struct {
		Columns []lane `json:"columns"`
	}](t, doJSON(t, srv, http.MethodGet, "/api/board?role=dev", nil))

	require.Len(t, resp.Columns, 4)
	assert.Equal(t, "todo", resp.Columns[0].ID)
	assert.Equal(t, 0, resp.Columns[0].Count)
	assert.Equal(t, 1, resp.Columns[1].Count)
	assert.Equal(t, 0, resp.Columns[2].Count)
	assert.Equal(t, 1, resp.Columns[3].Count)
}

func TestAnalytics(t *testing.T) {
	srv := newTestServer(t, nil)
	seedBoard(t, srv)

	var resp struct {
		Metrics struct {
			TotalTasks     int `json:"totalTasks"`
			CompletedTasks int `json:"completedTasks"`
			CompletionRate int `json:"completionRate"`
			Velocity       int `json:"velocity"`
		} `json:"metrics"`
		ByStatus map[string]int `json:"byStatus"`
		ByRole   map[string]int `json:"byRole"`
		Burndown []int          `json:"burndown"`
	}
	w := doJSON(t, srv, http.MethodGet, "/api/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 4, resp.Metrics.TotalTasks)
	assert.Equal(t, 1, resp.Metrics.CompletedTasks)
	assert.Equal(t, 25, resp.Metrics.CompletionRate)
	assert.Equal(t, 1, resp.Metrics.Velocity)
	assert.Equal(t, map[string]int{"todo": 1, "inprogress": 1, "inreview": 1, "done": 1}, resp.ByStatus)
	assert.Equal(t, map[string]int{"dev": 2, "tester": 1, "pm": 1}, resp.ByRole)
	assert.Len(t, resp.Burndown, burndownDays)
}

func TestTeamAndMemberSummary(t *testing.T) {
	srv := newTestServer(t, nil)
	seedBoard(t, srv)

	var team struct {
		Metrics struct {
			TotalMembers int `json:"totalMembers"`
			AvgWorkload  int `json:"avgWorkload"`
		} `json:"metrics"`
		Members []struct {
			Member   models.TeamMember `json:"member"`
			Workload int               `json:"workload"`
			Level    string            `json:"level"`
		} `json:"members"`
	}
	w := doJSON(t, srv, http.MethodGet, "/api/team?workload=high", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &team))

	assert.Equal(t, 2, team.Metrics.TotalMembers)
	// Ada 2/2 = 100%, Bob 1/5 = 20%.
	assert.Equal(t, 60, team.Metrics.AvgWorkload)
	require.Len(t, team.Members, 1)
	assert.Equal(t, "Ada", team.Members[0].Member.Name)
	assert.Equal(t, []string{"go", "rust"}, team.Members[0].Member.Skills)
	assert.Equal(t, 100, team.Members[0].Workload)
	assert.Equal(t, "high", team.Members[0].Level)

	w = doJSON(t, srv, http.MethodGet, "/api/members/2/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary struct {
		Summary struct {
			TaskCount int `json:"taskCount"`
			Workload  int `json:"workload"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Summary.TaskCount)
	assert.Equal(t, 20, summary.Summary.Workload)

	assert.Equal(t, http.StatusNotFound, doJSON(t, srv, http.MethodGet, "/api/members/99/summary", nil).Code)
}

func TestSprintEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	w := doJSON(t, srv, http.MethodGet, "/api/sprints/active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sprint":null}`, w.Body.String())

	for _, name := range []string{"Sprint 1", "Sprint 2"} {
		w = doJSON(t, srv, http.MethodPost, "/api/sprints", map[string]any{
			"name": name, "startDate": start, "endDate": start.AddDate(0, 0, 14), "status": "active",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	var active struct {
		Sprint models.Sprint `json:"sprint"`
	}
	w = doJSON(t, srv, http.MethodGet, "/api/sprints/active", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &active))
	assert.Equal(t, "Sprint 1", active.Sprint.Name)

	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/tasks", map[string]any{"title": "a", "sprintId": 2, "status": "done"}).Code)
	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/tasks", map[string]any{"title": "b", "sprintId": 2}).Code)

	var progress struct {
		Progress struct {
			TaskCount int `json:"taskCount"`
			Progress  int `json:"progress"`
		} `json:"progress"`
	}
	w = doJSON(t, srv, http.MethodGet, "/api/sprints/2/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &progress))
	assert.Equal(t, 2, progress.Progress.TaskCount)
	assert.Equal(t, 50, progress.Progress.Progress)

	w = doJSON(t, srv, http.MethodPost, "/api/sprints", map[string]any{
		"name": "Backwards", "startDate": start, "endDate": start.AddDate(0, 0, -1),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodDelete, "/api/sprints/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, srv, http.MethodDelete, "/api/sprints/1", nil).Code)
}

type unavailableStore struct {
	*memory.Store
}

func (unavailableStore) ListTasks(context.Context) ([]models.Task, error) {
	return nil, fmt.Errorf("list tasks: %w", storage.ErrUnavailable)
}

func TestStoreFailureIsServiceUnavailable(t *testing.T) {
	srv := newTestServer(t, unavailableStore{memory.New()})
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, srv, http.MethodGet, "/api/tasks", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, srv, http.MethodGet, "/api/analytics", nil).Code)
}

func TestMetricsEndpointCountsStoreOperations(t *testing.T) {
	srv := newTestServer(t, nil)
	doJSON(t, srv, http.MethodGet, "/api/tasks", nil)
	doJSON(t, srv, http.MethodDelete, "/api/tasks/5", nil)

	w := doJSON(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `pmboard_store_operations_total{entity="task",op="list",result="ok"} 1`)
	assert.Contains(t, body, `pmboard_store_operations_total{entity="task",op="delete",result="not_found"} 1`)
}

func TestUnknownAPIPathIsJSON404(t *testing.T) {
	w := doJSON(t, newTestServer(t, nil), http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"endpoint not found"}`, w.Body.String())
}

func TestStaticFallbackServesIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>board</html>"), 0o644))

	srv := New(memory.New(), Options{Logger: quietLogger(), StaticDir: dir})
	w := doJSON(t, srv, http.MethodGet, "/sprints", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "board")
}

func TestTaskEstimateCanBeCleared(t *testing.T) {
	srv := newTestServer(t, nil)
	w := doJSON(t, srv, http.MethodPost, "/api/tasks", map[string]any{"title": "Estimate me", "estimate": 5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, decode[taskEnvelope](t, w).Task.Estimate)

	w = doJSON(t, srv, http.MethodPut, "/api/tasks/1", map[string]any{"title": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code)
	kept := decode[taskEnvelope](t, w).Task
	require.NotNil(t, kept.Estimate)
	assert.Equal(t, 5.0, *kept.Estimate)

	w = doJSON(t, srv, http.MethodPut, "/api/tasks/1", map[string]any{"estimate": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, decode[taskEnvelope](t, w).Task.Estimate)
	assert.Contains(t, w.Body.String(), `"estimate":null`)
}

func TestSprintCreateAcceptsDateInputs(t *testing.T) {
	srv := newTestServer(t, nil)
	w := doJSON(t, srv, http.MethodPost, "/api/sprints", map[string]any{
		"name": "Sprint 7", "startDate": "2025-03-01", "endDate": "2025-03-14",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Sprint models.Sprint `json:"sprint"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), created.Sprint.StartDate)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), created.Sprint.EndDate)

	w = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/sprints/%d", created.Sprint.ID), map[string]any{"endDate": "2025-03-21"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, srv, http.MethodPost, "/api/sprints", map[string]any{
		"name": "Bad", "startDate": "first of march", "endDate": "2025-03-14",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelledRequestIsServiceUnavailable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := memory.New().ListTasks(ctx)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(err))
}
