package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type Task struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Status      TaskStatus         `json:"status" bson:"status"`
	CreatedBy   primitive.ObjectID `json:"createdBy" bson:"createdBy"`
	AssignedTo  primitive.ObjectID `json:"assignedTo" bson:"assignedTo"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// TaskPatch is a partial update. A nil field means "no change".
type TaskPatch struct {
	Title       *string             `json:"title,omitempty"`
	Description *string             `json:"description,omitempty"`
	Status      *TaskStatus         `json:"status,omitempty"`
	AssignedTo  *primitive.ObjectID `json:"assignedTo,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.AssignedTo == nil
}

// Apply merges the patch into t in place.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
}

// TaskView is a task with its creator and assignee resolved for display.
type TaskView struct {
	Task     `bson:",inline"`
	Creator  *UserSummary `json:"creator,omitempty" bson:"-"`
	Assignee *UserSummary `json:"assignee,omitempty" bson:"-"`
}

// TaskListing is what a list request returns. Users is only filled for managers.
type TaskListing struct {
	Tasks []TaskView `json:"tasks"`
	Users []User     `json:"users,omitempty"`
}
