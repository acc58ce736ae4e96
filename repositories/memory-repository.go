package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-tracker/models"
)

// MemoryRepository keeps tasks and users in process. It backs tests and the
// STORAGE_BACKEND=memory mode.
type MemoryRepository struct {
	mu    sync.RWMutex
	tasks map[primitive.ObjectID]models.Task
	users map[primitive.ObjectID]models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tasks: map[primitive.ObjectID]models.Task{},
		users: map[primitive.ObjectID]models.User{},
	}
}

func matchesTask(f TaskFilter, t models.Task) bool {
	if !f.InvolvedUser.IsZero() && t.CreatedBy != f.InvolvedUser && t.AssignedTo != f.InvolvedUser {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return true
}

func (r *MemoryRepository) Find(_ context.Context, f TaskFilter) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if matchesTask(f, t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (r *MemoryRepository) Insert(_ context.Context, t models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if _, exists := r.tasks[t.ID]; exists {
		return nil, ErrDuplicate
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	r.tasks[t.ID] = t
	return &t, nil
}

func (r *MemoryRepository) UpdateByID(_ context.Context, id primitive.ObjectID, p models.TaskPatch) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Apply(&t)
	t.UpdatedAt = time.Now().UTC()

	r.tasks[id] = t
	return &t, nil
}

func (r *MemoryRepository) DeleteByID(_ context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return false, nil
	}
	delete(r.tasks, id)
	return true, nil
}

func (r *MemoryRepository) FindUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryRepository) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) FindUsers(_ context.Context, f UserFilter) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids map[primitive.ObjectID]bool
	if len(f.IDs) > 0 {
		ids = make(map[primitive.ObjectID]bool, len(f.IDs))
		for _, id := range f.IDs {
			ids[id] = true
		}
	}

	out := []models.User{}
	for _, u := range r.users {
		if ids != nil && !ids[u.ID] {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		u.Password = ""
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *MemoryRepository) InsertUser(_ context.Context, u models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u.Email = strings.ToLower(u.Email)
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return nil, ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.users[u.ID] = u
	return &u, nil
}
