package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"peopleops/internal/platform/querier"
)

type Store struct {
	DB querier.TxQuerier
}

func NewStore(db querier.TxQuerier) *Store {
	return &Store{DB: db}
}

func (s *Store) ParticipantByIdentity(ctx context.Context, identityID string) (Participant, error) {
	var out Participant
	err := s.DB.QueryRow(ctx, `
    SELECT id::text, identity_id::text FROM employees WHERE identity_id::text = $1
  `, identityID).Scan(&out.EmployeeID, &out.IdentityID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Participant{}, ErrProfileNotFound
	}
	return out, err
}

func (s *Store) EmployeeExists(ctx context.Context, employeeID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM employees WHERE id::text = $1)", employeeID).Scan(&exists)
	return exists, err
}

const taskSelectSQL = `
    SELECT t.id::text, t.title, t.description, t.status, t.deadline,
           t.assigned_to::text, trim(ae.first_name || ' ' || ae.last_name),
           COALESCE(t.assigned_by::text, ''), COALESCE(trim(be.first_name || ' ' || be.last_name), ''),
           t.rejection_comment, t.created_at, t.updated_at
    FROM tasks t
    JOIN employees ae ON ae.id = t.assigned_to
    LEFT JOIN employees be ON be.id = t.assigned_by`

func scanTask(row pgx.Row) (Task, error) {
	var out Task
	var status string
	err := row.Scan(
		&out.ID, &out.Title, &out.Description, &status, &out.Deadline,
		&out.AssignedTo, &out.AssignedToName, &out.AssignedBy, &out.AssignedByName,
		&out.RejectionComment, &out.CreatedAt, &out.UpdatedAt,
	)
	out.Status = Status(status)
	return out, err
}

func (s *Store) List(ctx context.Context, filter Filter) ([]Task, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filter.ParticipantID != "" {
		args = append(args, filter.ParticipantID)
		where += fmt.Sprintf(" AND (t.assigned_to::text = $%d OR t.assigned_by::text = $%d)", len(args), len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where += fmt.Sprintf(" AND t.status = $%d", len(args))
	}

	rows, err := s.DB.Query(ctx, taskSelectSQL+where+" ORDER BY t.created_at DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Task, error) {
	return getTask(ctx, s.DB, id, false)
}

func getTask(ctx context.Context, q querier.Querier, id string, lock bool) (Task, error) {
	query := taskSelectSQL + " WHERE t.id::text = $1"
	if lock {
		query += " FOR UPDATE OF t"
	}
	task, err := scanTask(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrTaskNotFound
	}
	return task, err
}

func (s *Store) Create(ctx context.Context, task Task) (Task, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO tasks (title, description, status, deadline, assigned_to, assigned_by)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING id::text
  `, task.Title, task.Description, string(task.Status), task.Deadline, task.AssignedTo, nullIfEmpty(task.AssignedBy)).Scan(&id)
	if err != nil {
		return Task{}, mapTaskWriteError(err)
	}
	return s.Get(ctx, id)
}

func (s *Store) Mutate(ctx context.Context, id string, fn func(*Task) error) (Task, error) {
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		task, err := getTask(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := fn(&task); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
      UPDATE tasks
      SET title = $2, description = $3, status = $4, deadline = $5, assigned_to = $6,
          rejection_comment = $7, updated_at = now()
      WHERE id::text = $1
    `, id, task.Title, task.Description, string(task.Status), task.Deadline, task.AssignedTo, task.RejectionComment)
		return mapTaskWriteError(err)
	})
	if err != nil {
		return Task{}, err
	}
	return s.Get(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM tasks WHERE id::text = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func mapTaskWriteError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := querier.ForeignKeyViolation(err); ok {
		return ErrAssigneeNotFound
	}
	if _, ok := querier.CheckViolation(err); ok {
		return ErrInvalidTask
	}
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
