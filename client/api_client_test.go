package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"task-tracker/handlers"
	"task-tracker/models"
	"task-tracker/repositories"
	"task-tracker/services"
)

type apiFixture struct {
	server *httptest.Server
	repo   *repositories.MemoryRepository
	users  map[string]*models.User
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	repo := repositories.NewMemoryRepository()
	jwtService := services.NewJWTService("client-secret", time.Hour)
	userService := services.NewUserService(repo, jwtService)

	f := &apiFixture{repo: repo, users: map[string]*models.User{}}
	for name, role := range map[string]models.Role{"manager": models.RoleManager, "worker": models.RoleUser} {
		hash, err := bcrypt.GenerateFromPassword([]byte("Secret1!"), bcrypt.MinCost)
		require.NoError(t, err)
		u, err := repo.InsertUser(context.Background(), models.User{
			Name: name, Email: name + "@example.com", Role: role, Password: string(hash),
		})
		require.NoError(t, err)
		f.users[name] = u
	}

	f.server = httptest.NewServer(handlers.NewRouter(handlers.RouterConfig{
		Tasks:      handlers.NewTaskHandler(services.NewTaskService(repo), nil),
		Auth:       handlers.NewAuthHandler(userService),
		Identity:   jwtService,
		CORSOrigin: "*",
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *apiFixture) login(t *testing.T, name string) *APIClient {
	t.Helper()
	c := NewAPIClient(f.server.URL, NewTaskCache(), WithHTTPClient(f.server.Client()))
	_, err := c.Login(context.Background(), name+"@example.com", "Secret1!")
	require.NoError(t, err)
	return c
}

func TestAPIClient_RoundTrip(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()
	manager := f.login(t, "manager")

	created, err := manager.CreateTask(ctx, services.CreateTaskInput{Title: "Ship report", AssignedTo: f.users["worker"].ID})
	require.NoError(t, err)
	assert.Equal(t, 1, manager.Cache().Len())

	require.NoError(t, manager.FetchTasks(ctx, ""))
	assert.Equal(t, StatusSucceeded, manager.Cache().Status())
	assert.Equal(t, 1, manager.Cache().Len(), "fetch does not duplicate the acknowledged create")
	assert.Len(t, manager.Cache().Users(), 2)

	worker := f.login(t, "worker")
	require.NoError(t, worker.FetchTasks(ctx, ""))
	require.Equal(t, 1, worker.Cache().Len())
	assert.Empty(t, worker.Cache().Users())

	done := models.StatusDone
	updated, err := worker.UpdateTask(ctx, created.ID.Hex(), models.TaskPatch{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, updated.Status)
	got, _ := worker.Cache().Get(created.ID.Hex())
	assert.Equal(t, models.StatusDone, got.Status)
	assert.Equal(t, 1, worker.Cache().Summary()[models.StatusDone])

	err = worker.DeleteTask(ctx, created.ID.Hex())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "assigned by manager, non-deletable", apiErr.Reason)
	assert.Equal(t, 1, worker.Cache().Len(), "a rejected delete leaves the cache alone")
}

func TestAPIClient_FetchFailureMarksCacheFailed(t *testing.T) {
	f := newAPIFixture(t)
	c := NewAPIClient(f.server.URL, NewTaskCache(), WithHTTPClient(f.server.Client()), WithToken("garbage"))
	c.Cache().ApplyCreated(models.TaskView{Task: models.Task{Title: "local"}})

	err := c.FetchTasks(context.Background(), "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, StatusFailed, c.Cache().Status())
	assert.Zero(t, c.Cache().Len())
}

func TestAPIClient_BreakerOpensOnServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewAPIClient(server.URL, NewTaskCache(), WithHTTPClient(server.Client()))
	for i := 0; i < 4; i++ {
		assert.Error(t, c.FetchTasks(context.Background(), ""))
	}
	err := c.FetchTasks(context.Background(), "")
	assert.Error(t, err)
	assert.Equal(t, 4, calls, "open breaker short-circuits requests")
	assert.Equal(t, StatusFailed, c.Cache().Status())
}

func TestAPIClient_DeleteAcceptsAnyHexSpelling(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()
	worker := f.login(t, "worker")

	task, err := worker.CreateTask(ctx, services.CreateTaskInput{Title: "scratch", AssignedTo: f.users["worker"].ID})
	require.NoError(t, err)
	require.Equal(t, 1, worker.Cache().Len())

	require.NoError(t, worker.DeleteTask(ctx, strings.ToUpper(task.ID.Hex())))
	assert.Zero(t, worker.Cache().Len())
	_, ok := worker.Cache().Get(task.ID.Hex())
	assert.False(t, ok)

	_, err = f.repo.FindByID(ctx, task.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestAPIClient_RejectsMalformedTaskIDs(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()
	worker := f.login(t, "worker")

	assert.Error(t, worker.DeleteTask(ctx, "not-a-task"))
	_, err := worker.UpdateTask(ctx, "not-a-task", models.TaskPatch{})
	assert.Error(t, err)
}
