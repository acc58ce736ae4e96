package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-tracker/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// TaskFilter narrows Find. Zero values mean "don't care".
type TaskFilter struct {
	// InvolvedUser matches tasks created by or assigned to this user.
	InvolvedUser primitive.ObjectID
	Status       models.TaskStatus
}

type UserFilter struct {
	IDs  []primitive.ObjectID
	Role models.Role
}

// TaskRepository is the storage contract the task service runs against.
// UpdateByID must be an atomic read-modify-write for a single id; nothing
// spanning several tasks is required.
type TaskRepository interface {
	Find(ctx context.Context, filter TaskFilter) ([]models.Task, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	Insert(ctx context.Context, task models.Task) (*models.Task, error)
	UpdateByID(ctx context.Context, id primitive.ObjectID, patch models.TaskPatch) (*models.Task, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) (bool, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUsers(ctx context.Context, filter UserFilter) ([]models.User, error)
}

// UserRepository backs registration and login.
type UserRepository interface {
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	InsertUser(ctx context.Context, user models.User) (*models.User, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotificationsByUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkNotificationAsRead(ctx context.Context, userID, notificationID string) error
}
