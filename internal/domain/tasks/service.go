package tasks

import (
	"context"
	"errors"
	"strings"

	"peopleops/internal/domain/auth"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// caller resolves the employee profile behind p. Admins without a profile
// get an empty participant and rely on OpManageAnyTask instead.
func (s *Service) caller(ctx context.Context, p auth.Principal) (Participant, error) {
	if err := auth.Authorize(p, auth.OpUseTasks, ""); err != nil {
		return Participant{}, err
	}
	me, err := s.store.ParticipantByIdentity(ctx, p.IdentityID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) && auth.Allowed(p, auth.OpManageAnyTask, "") {
			return Participant{IdentityID: p.IdentityID}, nil
		}
		return Participant{}, err
	}
	return me, nil
}

// List returns tasks assigned to or by the caller. Task managers see all.
func (s *Service) List(ctx context.Context, p auth.Principal, status Status) ([]Task, error) {
	me, err := s.caller(ctx, p)
	if err != nil {
		return nil, err
	}
	filter := Filter{ParticipantID: me.EmployeeID, Status: status}
	if auth.Allowed(p, auth.OpManageAnyTask, "") {
		filter.ParticipantID = ""
	}
	return s.store.List(ctx, filter)
}

// Get returns a task the caller takes part in. Other tasks are reported as
// not found.
func (s *Service) Get(ctx context.Context, p auth.Principal, id string) (Task, error) {
	me, err := s.caller(ctx, p)
	if err != nil {
		return Task{}, err
	}
	task, err := s.store.Get(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if !visible(p, me, task) {
		return Task{}, ErrTaskNotFound
	}
	return task, nil
}

func visible(p auth.Principal, me Participant, task Task) bool {
	if auth.Allowed(p, auth.OpManageAnyTask, "") {
		return true
	}
	return me.EmployeeID != "" && (task.AssignedTo == me.EmployeeID || task.AssignedBy == me.EmployeeID)
}

func canEdit(p auth.Principal, me Participant, task Task) bool {
	if auth.Allowed(p, auth.OpManageAnyTask, "") {
		return true
	}
	return me.EmployeeID != "" && task.AssignedBy == me.EmployeeID
}

// Create assigns a new in-progress task from the caller to in.AssignedTo.
func (s *Service) Create(ctx context.Context, p auth.Principal, in Input) (Task, error) {
	me, err := s.caller(ctx, p)
	if err != nil {
		return Task{}, err
	}
	if me.EmployeeID == "" {
		return Task{}, ErrProfileNotFound
	}
	task := Task{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Status:      StatusInProgress,
		Deadline:    in.Deadline,
		AssignedTo:  strings.TrimSpace(in.AssignedTo),
		AssignedBy:  me.EmployeeID,
	}
	if err := s.validate(ctx, task); err != nil {
		return Task{}, err
	}
	return s.store.Create(ctx, task)
}

func (s *Service) validate(ctx context.Context, task Task) error {
	if task.Title == "" {
		return ErrInvalidTask.WithMessage("title is required")
	}
	if len(task.Title) > 200 {
		return ErrInvalidTask.WithMessage("title must be at most 200 characters")
	}
	if task.AssignedTo == "" {
		return ErrInvalidTask.WithMessage("assignedTo is required")
	}
	ok, err := s.store.EmployeeExists(ctx, task.AssignedTo)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssigneeNotFound
	}
	return nil
}

// Update edits task details. Only the assigner or a task manager may edit;
// the status is never changed here.
func (s *Service) Update(ctx context.Context, p auth.Principal, id string, in Update) (Task, error) {
	me, err := s.caller(ctx, p)
	if err != nil {
		return Task{}, err
	}
	if in.AssignedTo != nil {
		ok, err := s.store.EmployeeExists(ctx, strings.TrimSpace(*in.AssignedTo))
		if err != nil {
			return Task{}, err
		}
		if !ok {
			return Task{}, ErrAssigneeNotFound
		}
	}
	return s.store.Mutate(ctx, id, func(task *Task) error {
		if !visible(p, me, *task) {
			return ErrTaskNotFound
		}
		if !canEdit(p, me, *task) {
			return ErrNotAssigner
		}
		if in.Title != nil {
			task.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			task.Description = strings.TrimSpace(*in.Description)
		}
		if in.Deadline != nil {
			task.Deadline = in.Deadline
		}
		if in.ClearDeadline {
			task.Deadline = nil
		}
		if in.AssignedTo != nil {
			task.AssignedTo = strings.TrimSpace(*in.AssignedTo)
		}
		if task.Title == "" {
			return ErrInvalidTask.WithMessage("title is required")
		}
		return nil
	})
}

func (s *Service) Delete(ctx context.Context, p auth.Principal, id string) error {
	me, err := s.caller(ctx, p)
	if err != nil {
		return err
	}
	task, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !visible(p, me, task) {
		return ErrTaskNotFound
	}
	if !canEdit(p, me, task) {
		return ErrNotAssigner
	}
	return s.store.Delete(ctx, id)
}

// Submit hands the task back to its assigner. Only the assignee may submit;
// anyone else is told the task does not exist.
func (s *Service) Submit(ctx context.Context, p auth.Principal, id string) (Task, error) {
	me, err := s.caller(ctx, p)
	if err != nil {
		return Task{}, err
	}
	return s.store.Mutate(ctx, id, func(task *Task) error {
		if me.EmployeeID == "" || task.AssignedTo != me.EmployeeID {
			return ErrTaskNotFound
		}
		return Submit(task)
	})
}

// Review accepts or rejects a submitted task. Only the assigner may review.
func (s *Service) Review(ctx context.Context, p auth.Principal, id string, action string, comment string) (Task, error) {
	me, err := s.caller(ctx, p)
	if err != nil {
		return Task{}, err
	}
	return s.store.Mutate(ctx, id, func(task *Task) error {
		if me.EmployeeID == "" || task.AssignedBy != me.EmployeeID {
			return ErrTaskNotFound
		}
		return Review(task, action, comment)
	})
}
