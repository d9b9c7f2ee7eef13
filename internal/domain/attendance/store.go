package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"peopleops/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const employeeRefSQL = `
    SELECT id::text, identity_id::text, trim(first_name || ' ' || last_name),
           COALESCE(department_id::text, ''), COALESCE(manager_id::text, '')
    FROM employees`

func scanEmployeeRef(row pgx.Row) (EmployeeRef, error) {
	var out EmployeeRef
	err := row.Scan(&out.ID, &out.IdentityID, &out.Name, &out.DepartmentID, &out.ManagerID)
	return out, err
}

func (s *Store) Employee(ctx context.Context, employeeID string) (EmployeeRef, error) {
	ref, err := scanEmployeeRef(s.DB.QueryRow(ctx, employeeRefSQL+" WHERE id::text = $1", employeeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return EmployeeRef{}, ErrEmployeeNotFound
	}
	return ref, err
}

func (s *Store) EmployeeByIdentity(ctx context.Context, identityID string) (EmployeeRef, error) {
	ref, err := scanEmployeeRef(s.DB.QueryRow(ctx, employeeRefSQL+" WHERE identity_id::text = $1", identityID))
	if errors.Is(err, pgx.ErrNoRows) {
		return EmployeeRef{}, ErrProfileNotFound
	}
	return ref, err
}

// markColumns whitelists the column each action writes.
var markColumns = map[Action]string{
	ActionClockIn:  "clock_in",
	ActionClockOut: "clock_out",
}

func (s *Store) Mark(ctx context.Context, employeeID string, day time.Time, action Action, at time.Time) (Record, error) {
	column, ok := markColumns[action]
	if !ok {
		return Record{}, ErrInvalidAction
	}
	query := fmt.Sprintf(`
    WITH upserted AS (
      INSERT INTO attendance (employee_id, work_date, %[1]s)
      VALUES ($1, $2, $3)
      ON CONFLICT (employee_id, work_date) DO UPDATE
      SET %[1]s = EXCLUDED.%[1]s, updated_at = now()
      RETURNING id, employee_id, work_date, clock_in, clock_out
    )
    SELECT u.id::text, u.employee_id::text, trim(e.first_name || ' ' || e.last_name),
           u.work_date, u.clock_in, u.clock_out
    FROM upserted u
    JOIN employees e ON e.id = u.employee_id
  `, column)

	rec, err := scanRecord(s.DB.QueryRow(ctx, query, employeeID, day, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrEmployeeNotFound
	}
	if _, ok := querier.ForeignKeyViolation(err); ok {
		return Record{}, ErrEmployeeNotFound
	}
	return rec, err
}

const recordSelectSQL = `
    SELECT a.id::text, a.employee_id::text, trim(e.first_name || ' ' || e.last_name),
           a.work_date, a.clock_in, a.clock_out
    FROM attendance a
    JOIN employees e ON e.id = a.employee_id`

func scanRecord(row pgx.Row) (Record, error) {
	var out Record
	err := row.Scan(&out.ID, &out.EmployeeID, &out.EmployeeName, &out.Date, &out.ClockIn, &out.ClockOut)
	return out, err
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()
	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error) {
	rows, err := s.DB.Query(ctx, recordSelectSQL+`
    WHERE a.employee_id::text = $1 AND a.work_date BETWEEN $2 AND $3
    ORDER BY a.work_date
  `, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (s *Store) ListRecent(ctx context.Context, employeeID string, limit int) ([]Record, error) {
	rows, err := s.DB.Query(ctx, recordSelectSQL+`
    WHERE a.employee_id::text = $1
    ORDER BY a.work_date DESC
    LIMIT $2
  `, employeeID, limit)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (s *Store) ListByDepartment(ctx context.Context, departmentID string, window Range) ([]Record, error) {
	query := recordSelectSQL + " WHERE e.department_id::text = $1"
	args := []any{departmentID}
	if !window.From.IsZero() {
		args = append(args, window.From)
		query += fmt.Sprintf(" AND a.work_date >= $%d", len(args))
	}
	if !window.To.IsZero() {
		args = append(args, window.To)
		query += fmt.Sprintf(" AND a.work_date <= $%d", len(args))
	}
	query += " ORDER BY a.work_date DESC, e.last_name, e.first_name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}
