package requests

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

func (s *Store) EmployeeByIdentity(ctx context.Context, identityID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "SELECT id::text FROM employees WHERE identity_id::text = $1", identityID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrProfileNotFound
	}
	return id, err
}

const requestSelectSQL = `
    SELECT r.id::text, r.kind, r.name, r.description, r.submitted_by::text,
           trim(e.first_name || ' ' || e.last_name), r.status, r.admin_comment,
           COALESCE(r.leave_type_id::text, ''), COALESCE(lt.name, ''), r.start_date, r.end_date,
           r.submitted_at, r.reviewed_at, COALESCE(r.reviewed_by::text, '')
    FROM requests r
    JOIN employees e ON e.id = r.submitted_by
    LEFT JOIN leave_types lt ON lt.id = r.leave_type_id`

func scanRequest(row pgx.Row) (Request, error) {
	var out Request
	var kind, status string
	err := row.Scan(
		&out.ID, &kind, &out.Name, &out.Description, &out.SubmittedBy,
		&out.SubmittedByName, &status, &out.AdminComment,
		&out.LeaveTypeID, &out.LeaveTypeName, &out.StartDate, &out.EndDate,
		&out.SubmittedAt, &out.ReviewedAt, &out.ReviewedBy,
	)
	out.Kind = Kind(kind)
	out.Status = Status(status)
	return out, err
}

func (s *Store) List(ctx context.Context, filter Filter) ([]Request, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filter.SubmittedBy != "" {
		args = append(args, filter.SubmittedBy)
		where += fmt.Sprintf(" AND r.submitted_by::text = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where += fmt.Sprintf(" AND r.status = $%d", len(args))
	}
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		where += fmt.Sprintf(" AND r.kind = $%d", len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM requests r"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := requestSelectSQL + where + " ORDER BY r.submitted_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, total, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Request, error) {
	return getRequest(ctx, s.DB, id, false)
}

func getRequest(ctx context.Context, q querier.Querier, id string, lock bool) (Request, error) {
	query := requestSelectSQL + " WHERE r.id::text = $1"
	if lock {
		query += " FOR UPDATE OF r"
	}
	req, err := scanRequest(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrRequestNotFound
	}
	return req, err
}

func (s *Store) Create(ctx context.Context, req Request) (Request, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO requests (kind, name, description, submitted_by, status, leave_type_id, start_date, end_date)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING id::text
  `, string(req.Kind), req.Name, req.Description, req.SubmittedBy, string(req.Status),
		nullIfEmpty(req.LeaveTypeID), req.StartDate, req.EndDate,
	).Scan(&id)
	if err != nil {
		return Request{}, mapRequestWriteError(err)
	}
	return s.Get(ctx, id)
}

func (s *Store) Mutate(ctx context.Context, id string, fn func(*Request) error) (Request, error) {
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		req, err := getRequest(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := fn(&req); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
      UPDATE requests
      SET status = $2, admin_comment = $3, reviewed_at = $4, reviewed_by = $5
      WHERE id::text = $1
    `, id, string(req.Status), req.AdminComment, req.ReviewedAt, nullIfEmpty(req.ReviewedBy))
		return err
	})
	if err != nil {
		return Request{}, err
	}
	return s.Get(ctx, id)
}

func (s *Store) ListLeaveTypes(ctx context.Context) ([]LeaveType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, name, description, default_days, created_at
    FROM leave_types
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LeaveType{}
	for rows.Next() {
		var lt LeaveType
		if err := rows.Scan(&lt.ID, &lt.Name, &lt.Description, &lt.DefaultDays, &lt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, lt)
	}
	return out, rows.Err()
}

func (s *Store) GetLeaveType(ctx context.Context, id string) (LeaveType, error) {
	var lt LeaveType
	err := s.DB.QueryRow(ctx, `
    SELECT id::text, name, description, default_days, created_at
    FROM leave_types WHERE id::text = $1
  `, id).Scan(&lt.ID, &lt.Name, &lt.Description, &lt.DefaultDays, &lt.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveType{}, ErrLeaveTypeNotFound
	}
	return lt, err
}

func (s *Store) CreateLeaveType(ctx context.Context, lt LeaveType) (LeaveType, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_types (name, description, default_days)
    VALUES ($1, $2, $3)
    RETURNING id::text, created_at
  `, lt.Name, lt.Description, lt.DefaultDays).Scan(&lt.ID, &lt.CreatedAt)
	if _, ok := querier.UniqueViolation(err); ok {
		return LeaveType{}, ErrLeaveTypeExists
	}
	return lt, err
}

func (s *Store) DeleteLeaveType(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM leave_types WHERE id::text = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLeaveTypeNotFound
	}
	return nil
}

func mapRequestWriteError(err error) error {
	if constraint, ok := querier.ForeignKeyViolation(err); ok {
		if constraint == "requests_leave_type_id_fkey" {
			return ErrLeaveTypeNotFound
		}
		return ErrProfileNotFound
	}
	if _, ok := querier.CheckViolation(err); ok {
		return ErrInvalidRequest
	}
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
