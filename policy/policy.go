// Package policy decides who may list, create, update and delete tasks.
//
// Every function here is a pure function of the actor and the task (or the
// proposed assignment). Nothing touches storage, so callers load whatever the
// decision needs first and ask afterwards.
package policy

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-tracker/models"
)

// Kind tells the caller whether a denial came from the actor's role or from
// the actor's relationship to the task.
type Kind string

const (
	KindRole         Kind = "role"
	KindRelationship Kind = "relationship"
)

type Reason string

const (
	ReasonUnknownRole        Reason = "unknown role"
	ReasonUserSelfAssignOnly Reason = "users can only assign tasks to themselves"
	ReasonManagerSelfAssign  Reason = "managers cannot assign tasks to themselves"
	ReasonManagerToManager   Reason = "managers cannot assign tasks to other managers"
	ReasonNotAssignee        Reason = "only a manager or the assignee can modify this task"
	ReasonManagerOwnTask     Reason = "managers cannot delete tasks they created"
	ReasonManagerAssigned    Reason = "assigned by manager, non-deletable"
	ReasonNotYourTask        Reason = "not your task"
)

// Decision is either Allow or Deny(reason).
type Decision struct {
	Allowed bool
	Reason  Reason
	Kind    Kind
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason Reason, kind Kind) Decision {
	return Decision{Reason: reason, Kind: kind}
}

// Scope is the slice of the task pool an actor may list.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeInvolved
	ScopeAll
)

// ListScope returns what the actor may list. Managers see every task and the
// user directory; users see tasks they created or are assigned to.
func ListScope(actor models.Actor) Scope {
	switch actor.Role {
	case models.RoleManager:
		return ScopeAll
	case models.RoleUser:
		return ScopeInvolved
	}
	return ScopeNone
}

// CanListUsers reports whether the actor may read the full user directory.
func CanListUsers(actor models.Actor) bool {
	return ListScope(actor) == ScopeAll
}

// Visible applies ListScope to a single task.
func Visible(actor models.Actor, task models.Task) bool {
	switch ListScope(actor) {
	case ScopeAll:
		return true
	case ScopeInvolved:
		return involved(actor.ID, task)
	}
	return false
}

// Assignment is a proposed assignee for a new or reassigned task.
type Assignment struct {
	AssigneeID   primitive.ObjectID
	AssigneeRole models.Role
}

// CanCreate decides whether the actor may hand a task to the proposed assignee.
func CanCreate(actor models.Actor, a Assignment) Decision {
	switch actor.Role {
	case models.RoleUser:
		if a.AssigneeID != actor.ID {
			return Deny(ReasonUserSelfAssignOnly, KindRole)
		}
		return Allow()
	case models.RoleManager:
		if a.AssigneeID == actor.ID {
			return Deny(ReasonManagerSelfAssign, KindRelationship)
		}
		if a.AssigneeRole == models.RoleManager {
			return Deny(ReasonManagerToManager, KindRole)
		}
		return Allow()
	}
	return Deny(ReasonUnknownRole, KindRole)
}

// CanUpdate allows managers and the task's assignee.
func CanUpdate(actor models.Actor, task models.Task) Decision {
	switch actor.Role {
	case models.RoleManager:
		return Allow()
	case models.RoleUser:
		if actor.ID == task.AssignedTo {
			return Allow()
		}
		return Deny(ReasonNotAssignee, KindRelationship)
	}
	return Deny(ReasonUnknownRole, KindRole)
}

// CanDelete allows a manager to delete any task they did not create, and a
// user to delete only a task they both created and assigned to themselves.
func CanDelete(actor models.Actor, task models.Task) Decision {
	switch actor.Role {
	case models.RoleManager:
		if actor.ID == task.CreatedBy {
			return Deny(ReasonManagerOwnTask, KindRelationship)
		}
		return Allow()
	case models.RoleUser:
		if task.CreatedBy == actor.ID && task.AssignedTo == actor.ID {
			return Allow()
		}
		if task.AssignedTo == actor.ID {
			return Deny(ReasonManagerAssigned, KindRelationship)
		}
		return Deny(ReasonNotYourTask, KindRelationship)
	}
	return Deny(ReasonUnknownRole, KindRole)
}

func involved(id primitive.ObjectID, task models.Task) bool {
	return task.CreatedBy == id || task.AssignedTo == id
}
