package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"task-tracker/logging"
	"task-tracker/models"
	"task-tracker/repositories"
)

type NotificationService struct {
	store   repositories.NotificationStore
	breaker *gobreaker.CircuitBreaker
	now     func() time.Time
}

// NewNotificationBreaker trips after more than three consecutive store
// failures and probes again after timeout.
func NewNotificationBreaker(timeout time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notifications-cb",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
}

func NewNotificationService(store repositories.NotificationStore, breaker *gobreaker.CircuitBreaker) *NotificationService {
	return &NotificationService{store: store, breaker: breaker, now: time.Now}
}

// NotifyAssignment records that the task now belongs to its assignee. Tasks
// an actor assigns to themselves produce nothing.
func (ns *NotificationService) NotifyAssignment(ctx context.Context, actor models.Actor, task models.TaskView) error {
	if task.AssignedTo == actor.ID {
		return nil
	}
	by := "a manager"
	if task.Creator != nil && task.Creator.ID == actor.ID && task.Creator.Name != "" {
		by = task.Creator.Name
	}
	n := &models.Notification{
		UserID:    task.AssignedTo.Hex(),
		TaskID:    task.ID.Hex(),
		Message:   fmt.Sprintf("%s assigned you the task %q", by, task.Title),
		CreatedAt: ns.now().UTC(),
	}

	_, err := ns.breaker.Execute(func() (interface{}, error) {
		return nil, ns.store.CreateNotification(ctx, n)
	})
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

func (ns *NotificationService) ListForActor(ctx context.Context, actor models.Actor) ([]models.Notification, error) {
	res, err := ns.breaker.Execute(func() (interface{}, error) {
		return ns.store.GetNotificationsByUser(ctx, actor.ID.Hex())
	})
	if err != nil {
		return nil, repositoryFault("list notifications", err)
	}
	return res.([]models.Notification), nil
}

func (ns *NotificationService) MarkRead(ctx context.Context, actor models.Actor, notificationID string) error {
	missing := false
	_, err := ns.breaker.Execute(func() (interface{}, error) {
		err := ns.store.MarkNotificationAsRead(ctx, actor.ID.Hex(), notificationID)
		if errors.Is(err, repositories.ErrNotFound) {
			// not a store failure, keep it out of the breaker counts
			missing = true
			return nil, nil
		}
		return nil, err
	})
	if err != nil {
		return repositoryFault("mark notification read", err)
	}
	if missing {
		return fmt.Errorf("%w: notification %s", ErrNotFound, notificationID)
	}
	return nil
}
