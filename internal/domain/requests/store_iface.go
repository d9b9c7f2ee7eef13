package requests

import "context"

type StoreAPI interface {
	EmployeeByIdentity(ctx context.Context, identityID string) (string, error)
	List(ctx context.Context, filter Filter) ([]Request, int, error)
	Get(ctx context.Context, id string) (Request, error)
	Create(ctx context.Context, req Request) (Request, error)
	// Mutate loads the request under a row lock, applies fn and persists
	// the review columns in the same transaction.
	Mutate(ctx context.Context, id string, fn func(*Request) error) (Request, error)

	ListLeaveTypes(ctx context.Context) ([]LeaveType, error)
	GetLeaveType(ctx context.Context, id string) (LeaveType, error)
	CreateLeaveType(ctx context.Context, lt LeaveType) (LeaveType, error)
	DeleteLeaveType(ctx context.Context, id string) error
}
