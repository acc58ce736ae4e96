package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-tracker/logging"
	"task-tracker/models"
	"task-tracker/services"
	"task-tracker/utils"
)

// APIError is a non-2xx answer from the task API.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Reason     string `json:"reason,omitempty"`
	Kind       string `json:"kind,omitempty"`
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("api error %d: %s (%s)", e.StatusCode, e.Message, e.Reason)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// APIClient talks to the task API and feeds every successful response into
// its TaskCache.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	cache      *TaskCache

	mu    sync.RWMutex
	token string
}

type ClientOption func(*APIClient)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(a *APIClient) { a.httpClient = c }
}

func WithToken(token string) ClientOption {
	return func(a *APIClient) { a.token = token }
}

func NewAPIClient(baseURL string, cache *TaskCache, opts ...ClientOption) *APIClient {
	a := &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: utils.NewHTTPClient(),
		cache:      cache,
	}
	a.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "TasksAPICB",
		MaxRequests: 1,
		Timeout:     2 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		// 4xx answers mean the server is healthy.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *APIClient) Cache() *TaskCache {
	return a.cache
}

func (a *APIClient) SetToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
}

func (a *APIClient) bearer() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	_, err := a.breaker.Execute(func() (interface{}, error) {
		var reader io.Reader
		if body != nil {
			buf, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request: %w", err)
			}
			reader = bytes.NewReader(buf)
		}

		req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if token := a.bearer(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := &APIError{StatusCode: resp.StatusCode}
			if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
				apiErr.Message = resp.Status
			}
			return nil, apiErr
		}
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return nil, fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil, nil
	})
	return err
}

// Login stores the returned token for subsequent calls.
func (a *APIClient) Login(ctx context.Context, email, password string) (*services.Session, error) {
	var session services.Session
	body := map[string]string{"email": email, "password": password}
	if err := a.do(ctx, http.MethodPost, "/api/auth/login", body, &session); err != nil {
		return nil, err
	}
	a.SetToken(session.Token)
	return &session, nil
}

// FetchTasks loads the actor's tasks. Any failure leaves the cache in the
// failed state with its contents cleared.
func (a *APIClient) FetchTasks(ctx context.Context, status models.TaskStatus) error {
	a.cache.BeginFetch()

	path := "/api/tasks"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var listing models.TaskListing
	if err := a.do(ctx, http.MethodGet, path, nil, &listing); err != nil {
		logging.Logger.Warnf("Event ID: TASK_FETCH_FAILED, Description: %v", err)
		a.cache.FailFetch(err)
		return err
	}
	a.cache.ApplyFetch(listing)
	return nil
}

type taskEnvelope struct {
	Message string          `json:"message"`
	Task    models.TaskView `json:"task"`
}

func (a *APIClient) CreateTask(ctx context.Context, in services.CreateTaskInput) (*models.TaskView, error) {
	var resp taskEnvelope
	if err := a.do(ctx, http.MethodPost, "/api/tasks", in, &resp); err != nil {
		return nil, err
	}
	a.cache.ApplyCreated(resp.Task)
	return &resp.Task, nil
}

func (a *APIClient) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.TaskView, error) {
	oid, err := parseTaskID(id)
	if err != nil {
		return nil, err
	}
	var resp taskEnvelope
	if err := a.do(ctx, http.MethodPut, "/api/tasks/"+oid.Hex(), patch, &resp); err != nil {
		return nil, err
	}
	a.cache.ApplyUpdated(resp.Task)
	return &resp.Task, nil
}

func (a *APIClient) DeleteTask(ctx context.Context, id string) error {
	oid, err := parseTaskID(id)
	if err != nil {
		return err
	}
	if err := a.do(ctx, http.MethodDelete, "/api/tasks/"+oid.Hex(), nil, nil); err != nil {
		return err
	}
	a.cache.ApplyDeleted(oid)
	return nil
}

// parseTaskID normalizes id to the canonical lowercase hex the cache is keyed by.
func parseTaskID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid task id %q: %w", id, err)
	}
	return oid, nil
}
