package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"task-tracker/config"
	"task-tracker/handlers"
	"task-tracker/logging"
	"task-tracker/repositories"
	"task-tracker/services"
)

type store interface {
	repositories.TaskRepository
	repositories.UserRepository
}

func openStore(ctx context.Context, cfg *config.Config) (store, func(), error) {
	if cfg.StorageBackend == config.BackendMemory {
		logging.Logger.Warn("Event ID: STORAGE_MEMORY, Description: Using in-memory storage, data is lost on restart")
		return repositories.NewMemoryRepository(), func() {}, nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("database connection for MongoDB failed: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, fmt.Errorf("MongoDB connection ping error: %w", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", cfg.MongoURI)

	repo := repositories.NewMongoRepository(client.Database(cfg.MongoDBName), cfg.MongoTasksCollection, cfg.MongoUsersCollection)
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, nil, err
	}
	logging.Logger.Infof("Event ID: DB_COLLECTION_SET, Description: Using MongoDB collections: %s/%s and %s/%s", cfg.MongoDBName, cfg.MongoTasksCollection, cfg.MongoDBName, cfg.MongoUsersCollection)

	closer := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logging.Logger.Errorf("Event ID: DB_DISCONNECT_FAILED, Description: %v", err)
		}
	}
	return repo, closer, nil
}

func openNotificationStore(cfg *config.Config) (repositories.NotificationStore, func()) {
	if len(cfg.CassandraHosts) == 0 {
		logging.Logger.Info("Event ID: NOTIFICATIONS_MEMORY, Description: CASS_DB not set, keeping notifications in memory")
		return repositories.NewMemoryNotificationStore(), func() {}
	}

	repo, err := repositories.NewCassandraNotificationRepo(cfg.CassandraHosts, logging.Logger)
	if err != nil {
		logging.Logger.Fatalf("Event ID: CASSANDRA_INIT_FAILED, Description: Failed to initialize notifications store: %v", err)
	}
	if err := repo.CreateTable(); err != nil {
		logging.Logger.Fatalf("Event ID: CASSANDRA_TABLE_FAILED, Description: %v", err)
	}
	return repo, repo.CloseSession
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: %v", err)
	}

	logging.InitLogger(logging.Options{
		SystemName: "tasks-service",
		File:       cfg.LogFile,
		Level:      cfg.LogLevel,
	})
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Tasks Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	repo, closeStore, err := openStore(ctx, cfg)
	cancel()
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_INIT_FAILED, Description: %v", err)
	}
	defer closeStore()

	notificationStore, closeNotifications := openNotificationStore(cfg)
	defer closeNotifications()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	userService := services.NewUserService(repo, jwtService)
	taskService := services.NewTaskService(repo)
	notificationService := services.NewNotificationService(notificationStore, services.NewNotificationBreaker(5*time.Second))

	if cfg.SeedFile != "" {
		seed, err := config.LoadSeed(cfg.SeedFile)
		if err != nil {
			logging.Logger.Fatalf("Event ID: SEED_LOAD_FAILED, Description: %v", err)
		}
		created, err := userService.EnsureSeedUsers(context.Background(), seed)
		if err != nil {
			logging.Logger.Fatalf("Event ID: SEED_FAILED, Description: %v", err)
		}
		logging.Logger.Infof("Event ID: SEED_DONE, Description: %d seed account(s) created", created)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Tasks:         handlers.NewTaskHandler(taskService, notificationService),
		Auth:          handlers.NewAuthHandler(userService),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Identity:      jwtService,
		CORSOrigin:    cfg.CORSOrigin,
	})

	srv := &http.Server{
		Handler:      router,
		Addr:         fmt.Sprintf(":%s", cfg.ServerPort),
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_FAILED, Description: %v", err)
	}
	logging.Logger.Info("Event ID: SERVICE_STOPPED, Description: Tasks Service stopped")
}
