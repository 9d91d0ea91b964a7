package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disciplinebaby/app"
	"disciplinebaby/config"
	"disciplinebaby/logging"
	"disciplinebaby/models"
	"disciplinebaby/services"
	"disciplinebaby/storage"
)

// Monday
var fixedNow = time.Date(2024, time.May, 6, 9, 0, 0, 0, time.UTC)

func testConfig() config.Config {
	return config.Config{UserID: models.DefaultUserID, LocalDir: "/data"}
}

func setupServer(t *testing.T) (*fiber.App, *app.App) {
	t.Helper()
	cfg := testConfig()
	sel, err := storage.Open(context.Background(), app.OpenOptions(cfg, afero.NewMemMapFs(), logging.Discard()))
	require.NoError(t, err)
	a := app.Assemble(cfg, sel, logging.Discard(), func() time.Time { return fixedNow })
	t.Cleanup(func() { _ = a.Close() })
	return NewServer(a, ServerOptions{}), a
}

func do(t *testing.T, server *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := server.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

type tasksResponse struct {
	Tasks []models.Task `json:"tasks"`
	User  models.User   `json:"user"`
}

func TestGetUser_CreatesDefault(t *testing.T) {
	server, _ := setupServer(t)

	resp, body := do(t, server, "GET", "/api/user", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var u models.User
	require.NoError(t, json.Unmarshal(body, &u))
	assert.Equal(t, models.DefaultUserID, u.ID)
	assert.Equal(t, 1, u.Level)
	assert.Equal(t, "pet1", u.PetStyle)
}

func TestPostUser_MergesBody(t *testing.T) {
	server, _ := setupServer(t)

	resp, body := do(t, server, "POST", "/api/user", `{"name":"Mia","id":"someone-else"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var u models.User
	require.NoError(t, json.Unmarshal(body, &u))
	assert.Equal(t, "Mia", u.Name)
	assert.Equal(t, models.DefaultUserID, u.ID)
	assert.Equal(t, "Bubbles", u.PetName)
}

func TestPostTasks_AddCompleteDelete(t *testing.T) {
	server, _ := setupServer(t)

	resp, body := do(t, server, "POST", "/api/tasks",
		`{"action":"add","task":{"title":"Brush teeth","difficulty":"Hard","status":"active","dueDate":"2024-05-06"}}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out tasksResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Tasks, 3)
	added := out.Tasks[0]
	assert.Equal(t, "Brush teeth", added.Title)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, models.DefaultUserID, added.UserID)
	xpBefore := out.User.XP

	complete := `{"action":"complete","taskId":"` + added.ID + `","completed":true}`
	_, body = do(t, server, "POST", "/api/tasks", complete)
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.Tasks[0].Completed)
	assert.Equal(t, xpBefore+15, out.User.XP)

	_, body = do(t, server, "POST", "/api/tasks", complete)
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, xpBefore+15, out.User.XP, "repeating a completion awards nothing")

	_, body = do(t, server, "POST", "/api/tasks", `{"action":"delete","taskId":"`+added.ID+`"}`)
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Len(t, out.Tasks, 2)
}

func TestPostTasks_CompleteUnknownTaskChangesNothing(t *testing.T) {
	server, _ := setupServer(t)

	resp, body := do(t, server, "POST", "/api/tasks", `{"action":"complete","taskId":"nope","completed":true}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out tasksResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 75, out.User.XP)
}

func TestPostTasks_UnknownAction(t *testing.T) {
	server, _ := setupServer(t)

	resp, body := do(t, server, "POST", "/api/tasks", `{"action":"explode"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Unknown action")
}

func TestGetTasksToday(t *testing.T) {
	server, _ := setupServer(t)

	_, body := do(t, server, "GET", "/api/tasks/today", "")
	var tasks []models.Task
	require.NoError(t, json.Unmarshal(body, &tasks))
	require.Len(t, tasks, 1, "only the weekday reading task is due on a Monday")
	assert.Equal(t, "Read for 20 minutes", tasks[0].Title)
}

func TestGetTasksToday_OnlyActiveStatus(t *testing.T) {
	server, _ := setupServer(t)

	do(t, server, "POST", "/api/tasks", `{"action":"add","task":{"title":"Water plants","difficulty":"Easy","dueDate":"2024-05-06"}}`)
	do(t, server, "POST", "/api/tasks", `{"action":"add","task":{"title":"Old habit","difficulty":"Easy","status":"archived","dueDate":"2024-05-06"}}`)

	_, body := do(t, server, "GET", "/api/tasks/today", "")
	var tasks []models.Task
	require.NoError(t, json.Unmarshal(body, &tasks))
	titles := make([]string, 0, len(tasks))
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	assert.ElementsMatch(t, []string{"Water plants", "Read for 20 minutes"}, titles)
}

func TestPostRewards_AddEditDelete(t *testing.T) {
	server, _ := setupServer(t)

	_, body := do(t, server, "POST", "/api/rewards", `{"action":"add","item":{"title":"Ice cream","tasksRequired":3}}`)
	var rewards []models.Reward
	require.NoError(t, json.Unmarshal(body, &rewards))
	require.Len(t, rewards, 10)
	id := rewards[0].ID
	assert.Equal(t, "Ice cream", rewards[0].Title)

	_, body = do(t, server, "POST", "/api/rewards", `{"action":"edit","itemId":"`+id+`","item":{"title":"Frozen yogurt"}}`)
	require.NoError(t, json.Unmarshal(body, &rewards))
	assert.Equal(t, "Frozen yogurt", rewards[0].Title)
	assert.Equal(t, 3, rewards[0].TasksRequired)

	_, body = do(t, server, "POST", "/api/rewards", `{"action":"delete","itemId":"`+id+`"}`)
	require.NoError(t, json.Unmarshal(body, &rewards))
	assert.Len(t, rewards, 9)
}

func TestGetAchievements(t *testing.T) {
	server, _ := setupServer(t)

	_, body := do(t, server, "GET", "/api/achievements", "")
	var achievements []models.Achievement
	require.NoError(t, json.Unmarshal(body, &achievements))
	require.Len(t, achievements, 3)
	assert.True(t, achievements[0].Unlocked)
}

func TestRecordVisit(t *testing.T) {
	server, _ := setupServer(t)

	_, body := do(t, server, "POST", "/api/user/visit", "")
	var out struct {
		User    models.User `json:"user"`
		Counted bool        `json:"counted"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.Counted)
	assert.Equal(t, 1, out.User.ActiveDays)

	_, body = do(t, server, "POST", "/api/user/visit", "")
	require.NoError(t, json.Unmarshal(body, &out))
	assert.False(t, out.Counted)
}

func TestWeeklyReportAndProgress(t *testing.T) {
	server, _ := setupServer(t)

	resp, body := do(t, server, "GET", "/api/reports/weekly", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var report services.WeeklyReport
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Len(t, report.Days, 7)

	resp, body = do(t, server, "GET", "/api/progress", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var overview services.ProgressOverview
	require.NoError(t, json.Unmarshal(body, &overview))
	assert.Len(t, overview.Rewards, 9)
}

func TestStatusAndSyncOnLocalOnly(t *testing.T) {
	server, _ := setupServer(t)

	_, body := do(t, server, "GET", "/api/status", "")
	var status struct {
		Backend    string `json:"backend"`
		Persistent bool   `json:"persistent"`
	}
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, "local", status.Backend)
	assert.False(t, status.Persistent)

	resp, body := do(t, server, "POST", "/api/sync", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var res services.SyncResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestUnknownPath(t *testing.T) {
	server, _ := setupServer(t)

	resp, body := do(t, server, "GET", "/api/nothing", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Endpoint not found"}`, string(body))
}

func TestHealth(t *testing.T) {
	server, _ := setupServer(t)

	resp, body := do(t, server, "GET", "/health", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")
}

func TestEventsRequireUpgrade(t *testing.T) {
	server, _ := setupServer(t)

	resp, _ := do(t, server, "GET", "/ws/events", "")
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

// brokenStore reads nothing and fails every write.
type brokenStore struct{}

func (brokenStore) Backend() storage.Backend { return storage.BackendDatabase }
func (brokenStore) Get(context.Context, storage.Key, any) (bool, error) {
	return false, nil
}
func (brokenStore) Put(context.Context, storage.Key, any) error {
	return errors.New("disk on fire")
}
func (brokenStore) Delete(context.Context, storage.Key) error { return nil }

func TestWriteFailureIs500WithMessage(t *testing.T) {
	sel := &storage.Selection{Store: brokenStore{}, Status: storage.Status{Backend: storage.BackendDatabase, Persistent: true}}
	a := app.Assemble(testConfig(), sel, logging.Discard(), func() time.Time { return fixedNow })
	server := NewServer(a, ServerOptions{})

	resp, body := do(t, server, "POST", "/api/user", `{"name":"Mia"}`)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Contains(t, out["error"], "disk on fire")

	resp, _ = do(t, server, "GET", "/api/user", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "reads degrade to defaults")
}
