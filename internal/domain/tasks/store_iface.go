package tasks

import "context"

type StoreAPI interface {
	ParticipantByIdentity(ctx context.Context, identityID string) (Participant, error)
	EmployeeExists(ctx context.Context, employeeID string) (bool, error)
	List(ctx context.Context, filter Filter) ([]Task, error)
	Get(ctx context.Context, id string) (Task, error)
	Create(ctx context.Context, task Task) (Task, error)
	// Mutate loads the task under a row lock, applies fn and persists the
	// result in the same transaction. Nothing is written when fn fails.
	Mutate(ctx context.Context, id string, fn func(*Task) error) (Task, error)
	Delete(ctx context.Context, id string) error
}
