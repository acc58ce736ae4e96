package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"task-tracker/middleware"
	"task-tracker/services"
)

type RouterConfig struct {
	Tasks         *TaskHandler
	Auth          *AuthHandler
	Notifications *NotificationHandler
	Identity      services.IdentityProvider
	CORSOrigin    string
}

// NewRouter mounts every route. Everything under /api except register and
// login sits behind JWTAuthMiddleware. CORS wraps the whole router so
// preflight requests never reach route matching.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/register", cfg.Auth.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", cfg.Auth.Login).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTAuthMiddleware(cfg.Identity))
	api.HandleFunc("/auth/me", cfg.Auth.Me).Methods(http.MethodGet)
	api.HandleFunc("/tasks", cfg.Tasks.GetTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", cfg.Tasks.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", cfg.Tasks.UpdateTask).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{id}", cfg.Tasks.DeleteTask).Methods(http.MethodDelete)
	if cfg.Notifications != nil {
		api.HandleFunc("/notifications", cfg.Notifications.List).Methods(http.MethodGet)
		api.HandleFunc("/notifications/{id}/read", cfg.Notifications.MarkRead).Methods(http.MethodPut)
	}

	corsRouter := middleware.EnableCORS(cfg.CORSOrigin)(r)
	return middleware.WithRequestID(middleware.WithAccessLog(corsRouter))
}
