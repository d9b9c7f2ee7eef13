package tasks

import "peopleops/internal/domain/apperr"

var (
	ErrTaskNotFound     = apperr.New(apperr.ErrNotFound, "task_not_found", "task not found")
	ErrProfileNotFound  = apperr.New(apperr.ErrNotFound, "profile_not_found", "no employee profile linked to this identity")
	ErrAssigneeNotFound = apperr.New(apperr.ErrValidation, "assignee_not_found", "assignee does not exist")
	ErrInvalidTask      = apperr.New(apperr.ErrValidation, "invalid_task", "invalid task")
	ErrNotSubmittable   = apperr.New(apperr.ErrInvalidTransition, "invalid_transition", "only in-progress tasks can be submitted")
	ErrNotReviewable    = apperr.New(apperr.ErrInvalidTransition, "invalid_transition", "only submitted tasks can be reviewed")
	ErrInvalidReview    = apperr.New(apperr.ErrInvalidAction, "invalid_action", "action must be accept or reject")
	ErrNotAssigner      = apperr.New(apperr.ErrForbidden, "not_assigner", "only the assigner can change this task")
)
