package client

import (
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"

	"task-tracker/models"
)

type FetchStatus string

const (
	StatusIdle      FetchStatus = "idle"
	StatusLoading   FetchStatus = "loading"
	StatusSucceeded FetchStatus = "succeeded"
	StatusFailed    FetchStatus = "failed"
)

// TaskCache is the client's view of the server's tasks. Every server response
// is merged in through one of the Apply methods, in arrival order.
//
// Merge rules:
//   - a fetch overwrites every id it carries and never removes ids it lacks
//   - a create ack inserts only when the id is unknown
//   - an update ack overwrites
//   - a delete ack removes
type TaskCache struct {
	mu     sync.Mutex
	tasks  map[string]models.TaskView
	users  []models.User
	status FetchStatus
	err    error

	tombstoneTTL time.Duration
	tombstones   map[string]time.Time
	now          func() time.Time
}

type Option func(*TaskCache)

// WithTombstoneTTL makes the cache remember deleted ids for d, so a fetch
// that was already in flight when the delete landed cannot bring the task
// back. Zero disables tombstones.
func WithTombstoneTTL(d time.Duration) Option {
	return func(c *TaskCache) { c.tombstoneTTL = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *TaskCache) { c.now = now }
}

func NewTaskCache(opts ...Option) *TaskCache {
	c := &TaskCache{
		tasks:      map[string]models.TaskView{},
		tombstones: map[string]time.Time{},
		status:     StatusIdle,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *TaskCache) BeginFetch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusLoading
	c.err = nil
}

func (c *TaskCache) ApplyFetch(listing models.TaskListing) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expireTombstones()
	for _, t := range listing.Tasks {
		id := t.ID.Hex()
		if _, dead := c.tombstones[id]; dead {
			continue
		}
		c.tasks[id] = t
	}
	c.users = append([]models.User(nil), listing.Users...)
	c.status = StatusSucceeded
	c.err = nil
}

// FailFetch drops everything the cache knows. Nothing is retried.
func (c *TaskCache) FailFetch(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusFailed
	c.err = err
	c.tasks = map[string]models.TaskView{}
	c.users = nil
}

// ApplyCreated reports whether the task was inserted.
func (c *TaskCache) ApplyCreated(t models.TaskView) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := t.ID.Hex()
	if _, ok := c.tasks[id]; ok {
		return false
	}
	c.tasks[id] = t
	return true
}

func (c *TaskCache) ApplyUpdated(t models.TaskView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks[t.ID.Hex()] = t
}

func (c *TaskCache) ApplyDeleted(id primitive.ObjectID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := id.Hex()
	delete(c.tasks, key)
	if c.tombstoneTTL > 0 {
		c.tombstones[key] = c.now().Add(c.tombstoneTTL)
	}
}

// expireTombstones must be called with mu held.
func (c *TaskCache) expireTombstones() {
	now := c.now()
	for id, until := range c.tombstones {
		if !now.Before(until) {
			delete(c.tombstones, id)
		}
	}
}

func (c *TaskCache) Get(id string) (models.TaskView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tasks[id]
	return t, ok
}

// Tasks returns a snapshot ordered by id.
func (c *TaskCache) Tasks() []models.TaskView {
	c.mu.Lock()
	out := make([]models.TaskView, 0, len(c.tasks))
	for _, t := range c.tasks {
		out = append(out, t)
	}
	c.mu.Unlock()

	slices.SortFunc(out, func(a, b models.TaskView) int {
		return strings.Compare(a.ID.Hex(), b.ID.Hex())
	})
	return out
}

func (c *TaskCache) Users() []models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.User(nil), c.users...)
}

func (c *TaskCache) Status() FetchStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *TaskCache) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *TaskCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

// Summary counts cached tasks per status. Every known status is present.
func (c *TaskCache) Summary() map[models.TaskStatus]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := map[models.TaskStatus]int{
		models.StatusTodo:       0,
		models.StatusInProgress: 0,
		models.StatusDone:       0,
	}
	for _, t := range c.tasks {
		counts[t.Status]++
	}
	return counts
}
