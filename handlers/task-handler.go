package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-tracker/logging"
	"task-tracker/models"
	"task-tracker/services"
)

// AssignmentNotifier is told about tasks that land on someone else's list.
type AssignmentNotifier interface {
	NotifyAssignment(ctx context.Context, actor models.Actor, task models.TaskView) error
}

type TaskHandler struct {
	service  *services.TaskService
	notifier AssignmentNotifier
}

// NewTaskHandler wires the handler. notifier may be nil.
func NewTaskHandler(service *services.TaskService, notifier AssignmentNotifier) *TaskHandler {
	return &TaskHandler{service: service, notifier: notifier}
}

func taskIDFromPath(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *TaskHandler) notify(ctx context.Context, actor models.Actor, task models.TaskView) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.NotifyAssignment(ctx, actor, task); err != nil {
		logging.Logger.Warnf("Event ID: NOTIFICATION_FAILED, Description: assignment notice for task %s not recorded: %v", task.ID.Hex(), err)
	}
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	opts := services.ListOptions{Status: models.TaskStatus(r.URL.Query().Get("status"))}
	listing, err := h.service.ListTasks(r.Context(), actor, opts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var in services.CreateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.service.CreateTask(r.Context(), actor, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.notify(r.Context(), actor, *task)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Task created successfully",
		"task":    task,
	})
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	var patch models.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, reassigned, err := h.service.UpdateTask(r.Context(), actor, id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if reassigned {
		h.notify(r.Context(), actor, *task)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task updated successfully",
		"task":    task,
	})
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}
