package directory

import "peopleops/internal/domain/apperr"

var (
	ErrDepartmentNotFound = apperr.New(apperr.ErrNotFound, "department_not_found", "department not found")
	ErrEmployeeNotFound   = apperr.New(apperr.ErrNotFound, "employee_not_found", "employee not found")
	ErrProfileNotFound    = apperr.New(apperr.ErrNotFound, "profile_not_found", "no employee profile linked to this identity")
	ErrManagerNotFound    = apperr.New(apperr.ErrValidation, "manager_not_found", "manager does not exist")
	ErrManagerCycle       = apperr.New(apperr.ErrValidation, "manager_cycle", "manager assignment would create a reporting cycle")
	ErrIdentityNotFound   = apperr.New(apperr.ErrValidation, "identity_not_found", "identity does not exist")
	ErrEmployeeCodeTaken  = apperr.New(apperr.ErrConflict, "employee_code_taken", "employee code already in use")
	ErrProfileExists      = apperr.New(apperr.ErrConflict, "profile_exists", "identity already has an employee profile")
	ErrInvalidDepartment  = apperr.New(apperr.ErrValidation, "invalid_department", "invalid department fields")
	ErrInvalidEmployee    = apperr.New(apperr.ErrValidation, "invalid_employee", "invalid employee fields")
)
