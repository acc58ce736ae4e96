package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-tracker/logging"
	"task-tracker/models"
	"task-tracker/policy"
	"task-tracker/repositories"
)

// TaskService is the only path through which tasks are mutated. Each call
// validates input, asks the policy and only then touches the repository.
// Nothing here retries; faults go back to the caller.
type TaskService struct {
	repo repositories.TaskRepository
}

func NewTaskService(repo repositories.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

type ListOptions struct {
	Status models.TaskStatus
}

type CreateTaskInput struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      models.TaskStatus  `json:"status"`
	AssignedTo  primitive.ObjectID `json:"assignedTo"`
}

// ListTasks returns every task and the user directory to a manager, and only
// the tasks the actor created or is assigned to otherwise.
func (s *TaskService) ListTasks(ctx context.Context, actor models.Actor, opts ListOptions) (*models.TaskListing, error) {
	if opts.Status != "" && !opts.Status.Valid() {
		return nil, validationError("unknown status %q", opts.Status)
	}

	filter := repositories.TaskFilter{Status: opts.Status}
	switch policy.ListScope(actor) {
	case policy.ScopeAll:
	case policy.ScopeInvolved:
		filter.InvolvedUser = actor.ID
	default:
		return &models.TaskListing{Tasks: []models.TaskView{}}, nil
	}

	tasks, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, repositoryFault("list tasks", err)
	}

	listing := &models.TaskListing{}
	var directory map[primitive.ObjectID]models.User
	if policy.CanListUsers(actor) {
		users, err := s.repo.FindUsers(ctx, repositories.UserFilter{})
		if err != nil {
			return nil, repositoryFault("list users", err)
		}
		listing.Users = users
		directory = indexUsers(users)
	} else {
		directory, err = s.lookupUsers(ctx, tasks)
		if err != nil {
			return nil, err
		}
	}

	listing.Tasks = make([]models.TaskView, 0, len(tasks))
	for _, t := range tasks {
		listing.Tasks = append(listing.Tasks, view(t, directory))
	}
	return listing, nil
}

func (s *TaskService) CreateTask(ctx context.Context, actor models.Actor, in CreateTaskInput) (*models.TaskView, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, validationError("title is required")
	}
	if in.AssignedTo.IsZero() {
		return nil, validationError("assignedTo is required")
	}
	if in.Status == "" {
		in.Status = models.StatusTodo
	}
	if !in.Status.Valid() {
		return nil, validationError("unknown status %q", in.Status)
	}

	assignee, err := s.findUser(ctx, in.AssignedTo)
	if err != nil {
		return nil, err
	}

	if d := policy.CanCreate(actor, policy.Assignment{AssigneeID: assignee.ID, AssigneeRole: assignee.Role}); !d.Allowed {
		logging.Logger.Warnf("Event ID: TASK_CREATE_DENIED, Description: actor %s (%s) may not assign to %s: %s", actor.ID.Hex(), actor.Role, assignee.ID.Hex(), d.Reason)
		return nil, denied(d)
	}

	stored, err := s.repo.Insert(ctx, models.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		CreatedBy:   actor.ID,
		AssignedTo:  assignee.ID,
	})
	if err != nil {
		return nil, repositoryFault("create task", err)
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: task %s created by %s for %s", stored.ID.Hex(), actor.ID.Hex(), assignee.ID.Hex())

	directory, err := s.lookupUsers(ctx, []models.Task{*stored})
	if err != nil {
		return nil, err
	}
	v := view(*stored, directory)
	return &v, nil
}

// UpdateTask applies patch and reports whether the task changed hands.
func (s *TaskService) UpdateTask(ctx context.Context, actor models.Actor, taskID primitive.ObjectID, patch models.TaskPatch) (*models.TaskView, bool, error) {
	if err := validatePatch(patch); err != nil {
		return nil, false, err
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}

	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, false, err
	}

	if d := policy.CanUpdate(actor, *task); !d.Allowed {
		logging.Logger.Warnf("Event ID: TASK_UPDATE_DENIED, Description: actor %s may not update task %s: %s", actor.ID.Hex(), taskID.Hex(), d.Reason)
		return nil, false, denied(d)
	}

	reassigned := patch.AssignedTo != nil && *patch.AssignedTo != task.AssignedTo
	if reassigned {
		if _, err := s.findUser(ctx, *patch.AssignedTo); err != nil {
			return nil, false, err
		}
	}

	updated, err := s.repo.UpdateByID(ctx, taskID, patch)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, false, fmt.Errorf("%w: task %s", ErrNotFound, taskID.Hex())
	}
	if err != nil {
		return nil, false, repositoryFault("update task", err)
	}

	directory, err := s.lookupUsers(ctx, []models.Task{*updated})
	if err != nil {
		return nil, false, err
	}
	v := view(*updated, directory)
	return &v, reassigned, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, actor models.Actor, taskID primitive.ObjectID) error {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return err
	}

	if d := policy.CanDelete(actor, *task); !d.Allowed {
		logging.Logger.Warnf("Event ID: TASK_DELETE_DENIED, Description: actor %s may not delete task %s: %s", actor.ID.Hex(), taskID.Hex(), d.Reason)
		return denied(d)
	}

	removed, err := s.repo.DeleteByID(ctx, taskID)
	if err != nil {
		return repositoryFault("delete task", err)
	}
	if !removed {
		return fmt.Errorf("%w: task %s", ErrNotFound, taskID.Hex())
	}
	logging.Logger.Infof("Event ID: TASK_DELETED, Description: task %s deleted by %s", taskID.Hex(), actor.ID.Hex())
	return nil
}

func validatePatch(p models.TaskPatch) error {
	if p.Empty() {
		return validationError("nothing to update")
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return validationError("title cannot be empty")
	}
	if p.Status != nil && !p.Status.Valid() {
		return validationError("unknown status %q", *p.Status)
	}
	if p.AssignedTo != nil && p.AssignedTo.IsZero() {
		return validationError("assignedTo cannot be empty")
	}
	return nil
}

func (s *TaskService) findTask(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, repositoryFault("load task", err)
	}
	return task, nil
}

func (s *TaskService) findUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.repo.FindUserByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, repositoryFault("load user", err)
	}
	return user, nil
}

// lookupUsers loads the creators and assignees referenced by tasks.
func (s *TaskService) lookupUsers(ctx context.Context, tasks []models.Task) (map[primitive.ObjectID]models.User, error) {
	if len(tasks) == 0 {
		return map[primitive.ObjectID]models.User{}, nil
	}
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, t := range tasks {
		for _, id := range []primitive.ObjectID{t.CreatedBy, t.AssignedTo} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	users, err := s.repo.FindUsers(ctx, repositories.UserFilter{IDs: ids})
	if err != nil {
		return nil, repositoryFault("resolve users", err)
	}
	return indexUsers(users), nil
}

func indexUsers(users []models.User) map[primitive.ObjectID]models.User {
	out := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out
}

func view(t models.Task, directory map[primitive.ObjectID]models.User) models.TaskView {
	v := models.TaskView{Task: t}
	if u, ok := directory[t.CreatedBy]; ok {
		v.Creator = u.Summary()
	}
	if u, ok := directory[t.AssignedTo]; ok {
		v.Assignee = u.Summary()
	}
	return v
}
