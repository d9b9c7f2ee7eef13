package requests

import "peopleops/internal/domain/apperr"

var (
	ErrRequestNotFound   = apperr.New(apperr.ErrNotFound, "request_not_found", "request not found")
	ErrLeaveTypeNotFound = apperr.New(apperr.ErrNotFound, "leave_type_not_found", "leave type not found")
	ErrProfileNotFound   = apperr.New(apperr.ErrNotFound, "profile_not_found", "no employee profile linked to this identity")
	ErrInvalidRequest    = apperr.New(apperr.ErrValidation, "invalid_request", "invalid request")
	ErrInvalidDates      = apperr.New(apperr.ErrValidation, "invalid_dates", "end date must not be before start date")
	ErrInvalidLeaveType  = apperr.New(apperr.ErrValidation, "invalid_leave_type", "invalid leave type")
	ErrLeaveTypeExists   = apperr.New(apperr.ErrConflict, "leave_type_exists", "a leave type with this name already exists")
	ErrInvalidReview     = apperr.New(apperr.ErrInvalidAction, "invalid_action", "action must be complete or decline")
	ErrAlreadyReviewed   = apperr.New(apperr.ErrInvalidTransition, "invalid_transition", "only pending requests can be reviewed")
)
