package attendance

import (
	"context"
	"time"
)

type StoreAPI interface {
	Employee(ctx context.Context, employeeID string) (EmployeeRef, error)
	EmployeeByIdentity(ctx context.Context, identityID string) (EmployeeRef, error)
	// Mark atomically creates or updates the (employee, day) record, setting
	// the column that action names to at.
	Mark(ctx context.Context, employeeID string, day time.Time, action Action, at time.Time) (Record, error)
	ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error)
	ListRecent(ctx context.Context, employeeID string, limit int) ([]Record, error)
	ListByDepartment(ctx context.Context, departmentID string, window Range) ([]Record, error)
}
