package attendance

import "peopleops/internal/domain/apperr"

var (
	ErrInvalidAction          = apperr.New(apperr.ErrInvalidAction, "invalid_action", "action must be clock_in or clock_out")
	ErrEmployeeNotFound       = apperr.New(apperr.ErrNotFound, "employee_not_found", "employee not found")
	ErrProfileNotFound        = apperr.New(apperr.ErrNotFound, "profile_not_found", "no employee profile linked to this identity")
	ErrManagerProfileNotFound = apperr.New(apperr.ErrNotFound, "manager_profile_not_found", "manager profile not found")
)
