package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"task-tracker/logging"
	"task-tracker/middleware"
	"task-tracker/models"
	"task-tracker/services"
)

type errorBody struct {
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Message: message})
}

// writeServiceError is the single place service errors become status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var perr *services.PermissionError
	switch {
	case errors.As(err, &perr):
		writeJSON(w, http.StatusForbidden, errorBody{
			Message: "Access forbidden",
			Reason:  string(perr.Reason),
			Kind:    string(perr.Kind),
		})
	case errors.Is(err, services.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: %s %s (request %s): %v", r.Method, r.URL.Path, middleware.RequestIDFromContext(r.Context()), err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requireActor returns the authenticated actor or writes 401.
func requireActor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
	}
	return actor, ok
}
