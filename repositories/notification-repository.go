package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"

	"task-tracker/models"
)

type CassandraNotificationRepo struct {
	session *gocql.Session
	logger  *logrus.Logger
}

// NewCassandraNotificationRepo connects to the cluster, creates the
// notifications keyspace when missing and reconnects into it.
func NewCassandraNotificationRepo(hosts []string, logger *logrus.Logger) (*CassandraNotificationRepo, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = "system"
	session, err := cluster.CreateSession()
	if err != nil {
		logger.Errorf("Event ID: CASSANDRA_CONNECT_FAILED, Description: %v", err)
		return nil, err
	}

	err = session.Query(
		`CREATE KEYSPACE IF NOT EXISTS notifications
         WITH replication = {
             'class': 'SimpleStrategy',
             'replication_factor': 1
         }`).Exec()
	session.Close()
	if err != nil {
		logger.Errorf("Event ID: CASSANDRA_KEYSPACE_FAILED, Description: Failed to create keyspace: %v", err)
		return nil, err
	}

	cluster.Keyspace = "notifications"
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		logger.Errorf("Event ID: CASSANDRA_CONNECT_FAILED, Description: Failed to connect to notifications keyspace: %v", err)
		return nil, err
	}

	logger.Info("Event ID: CASSANDRA_CONNECTED, Description: Connected to Cassandra notifications keyspace")
	return &CassandraNotificationRepo{session: session, logger: logger}, nil
}

func (nr *CassandraNotificationRepo) CloseSession() {
	nr.session.Close()
	nr.logger.Info("Event ID: CASSANDRA_CLOSED, Description: Cassandra session closed")
}

// CreateTable uses a timeuuid clustering key so rows come back newest first
// and can be addressed by (user_id, id) alone.
func (nr *CassandraNotificationRepo) CreateTable() error {
	err := nr.session.Query(
		`CREATE TABLE IF NOT EXISTS task_notifications (
			user_id TEXT,
			id TIMEUUID,
			task_id TEXT,
			message TEXT,
			created_at TIMESTAMP,
			is_read BOOLEAN,
			PRIMARY KEY ((user_id), id)
		) WITH CLUSTERING ORDER BY (id DESC)`).Exec()
	if err != nil {
		return fmt.Errorf("failed to create notifications table: %w", err)
	}
	return nil
}

func (nr *CassandraNotificationRepo) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = gocql.UUIDFromTime(n.CreatedAt).String()
	}
	err := nr.session.Query(
		`INSERT INTO task_notifications (user_id, id, task_id, message, created_at, is_read)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID, n.ID, n.TaskID, n.Message, n.CreatedAt, n.IsRead,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (nr *CassandraNotificationRepo) GetNotificationsByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	iter := nr.session.Query(
		`SELECT id, user_id, task_id, message, created_at, is_read
		 FROM task_notifications WHERE user_id = ?`, userID,
	).WithContext(ctx).Iter()

	notifications := []models.Notification{}
	var n models.Notification
	for iter.Scan(&n.ID, &n.UserID, &n.TaskID, &n.Message, &n.CreatedAt, &n.IsRead) {
		notifications = append(notifications, n)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	return notifications, nil
}

func (nr *CassandraNotificationRepo) MarkNotificationAsRead(ctx context.Context, userID, notificationID string) error {
	id, err := gocql.ParseUUID(notificationID)
	if err != nil {
		return ErrNotFound
	}

	// UPDATE is an upsert in Cassandra, so check the row exists first.
	var found gocql.UUID
	err = nr.session.Query(
		`SELECT id FROM task_notifications WHERE user_id = ? AND id = ?`, userID, id,
	).WithContext(ctx).Scan(&found)
	if errors.Is(err, gocql.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load notification: %w", err)
	}

	err = nr.session.Query(
		`UPDATE task_notifications SET is_read = true WHERE user_id = ? AND id = ?`, userID, id,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

// MemoryNotificationStore is used when no Cassandra hosts are configured.
type MemoryNotificationStore struct {
	mu     sync.Mutex
	byUser map[string][]models.Notification
}

func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{byUser: map[string][]models.Notification{}}
}

func (s *MemoryNotificationStore) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = gocql.UUIDFromTime(n.CreatedAt).String()
	}
	s.byUser[n.UserID] = append(s.byUser[n.UserID], *n)
	return nil
}

func (s *MemoryNotificationStore) GetNotificationsByUser(_ context.Context, userID string) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]models.Notification{}, s.byUser[userID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryNotificationStore) MarkNotificationAsRead(_ context.Context, userID, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byUser[userID]
	for i := range list {
		if list[i].ID == notificationID {
			list[i].IsRead = true
			return nil
		}
	}
	return ErrNotFound
}
