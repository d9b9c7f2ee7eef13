package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"peopleops/internal/platform/querier"
)

type Store struct {
	DB querier.TxQuerier
}

func NewStore(db querier.TxQuerier) *Store {
	return &Store{DB: db}
}

// maxChainDepth bounds the manager walk so rows written before cycle checks
// existed cannot loop forever.
const maxChainDepth = 64

func (s *Store) ListDepartments(ctx context.Context) ([]DepartmentSummary, error) {
	rows, err := s.DB.Query(ctx, departmentSummarySQL+" GROUP BY d.id ORDER BY d.name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DepartmentSummary
	for rows.Next() {
		dep, err := scanDepartmentSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, dep)
	}
	return out, rows.Err()
}

func (s *Store) GetDepartment(ctx context.Context, id string) (DepartmentSummary, error) {
	dep, err := scanDepartmentSummary(s.DB.QueryRow(ctx, departmentSummarySQL+" WHERE d.id::text = $1 GROUP BY d.id", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return DepartmentSummary{}, ErrDepartmentNotFound
	}
	return dep, err
}

const departmentSummarySQL = `
    SELECT d.id::text, d.name, d.description, d.created_at, d.updated_at,
           COUNT(e.id), COALESCE(SUM(e.salary), 0)::text
    FROM departments d
    LEFT JOIN employees e ON e.department_id = d.id`

func scanDepartmentSummary(row pgx.Row) (DepartmentSummary, error) {
	var out DepartmentSummary
	var total string
	if err := row.Scan(&out.ID, &out.Name, &out.Description, &out.CreatedAt, &out.UpdatedAt, &out.EmployeeCount, &total); err != nil {
		return DepartmentSummary{}, err
	}
	parsed, err := decimal.NewFromString(total)
	if err != nil {
		return DepartmentSummary{}, fmt.Errorf("parse department total %q: %w", total, err)
	}
	out.TotalSalary = parsed
	return out, nil
}

func (s *Store) CreateDepartment(ctx context.Context, dep Department) (Department, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO departments (name, description)
    VALUES ($1, $2)
    RETURNING id::text, created_at, updated_at
  `, dep.Name, dep.Description).Scan(&dep.ID, &dep.CreatedAt, &dep.UpdatedAt)
	return dep, err
}

func (s *Store) UpdateDepartment(ctx context.Context, dep Department) (Department, error) {
	err := s.DB.QueryRow(ctx, `
    UPDATE departments SET name = $2, description = $3, updated_at = now()
    WHERE id::text = $1
    RETURNING created_at, updated_at
  `, dep.ID, dep.Name, dep.Description).Scan(&dep.CreatedAt, &dep.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Department{}, ErrDepartmentNotFound
	}
	return dep, err
}

func (s *Store) DeleteDepartment(ctx context.Context, id string) (int64, error) {
	var detached int64
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx, "SELECT id::text FROM departments WHERE id::text = $1 FOR UPDATE", id).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDepartmentNotFound
		}
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, "UPDATE employees SET department_id = NULL, updated_at = now() WHERE department_id::text = $1", id)
		if err != nil {
			return err
		}
		detached = tag.RowsAffected()
		_, err = tx.Exec(ctx, "DELETE FROM departments WHERE id::text = $1", id)
		return err
	})
	return detached, err
}

const employeeSelectSQL = `
    SELECT e.id::text, e.identity_id::text, e.employee_code, e.first_name, e.last_name, e.gender,
           e.date_of_birth, e.address, e.hire_date, COALESCE(e.manager_id::text, ''), e.position,
           e.salary::text, COALESCE(e.department_id::text, ''), e.is_active, i.email,
           d.name, m.first_name, mi.email, e.created_at, e.updated_at
    FROM employees e
    JOIN identities i ON i.id = e.identity_id
    LEFT JOIN departments d ON d.id = e.department_id
    LEFT JOIN employees m ON m.id = e.manager_id
    LEFT JOIN identities mi ON mi.id = m.identity_id`

func scanEmployee(row pgx.Row) (Employee, error) {
	var out Employee
	var salary string
	err := row.Scan(
		&out.ID, &out.IdentityID, &out.EmployeeCode, &out.FirstName, &out.LastName, &out.Gender,
		&out.DateOfBirth, &out.Address, &out.HireDate, &out.ManagerID, &out.Position,
		&salary, &out.DepartmentID, &out.IsActive, &out.Email,
		&out.DepartmentName, &out.ManagerName, &out.ManagerEmail, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return Employee{}, err
	}
	parsed, err := decimal.NewFromString(salary)
	if err != nil {
		return Employee{}, fmt.Errorf("parse salary %q: %w", salary, err)
	}
	out.Salary = parsed
	return out, nil
}

func (s *Store) ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		where += fmt.Sprintf(" AND e.department_id::text = $%d", len(args))
	}
	if filter.ManagerID != "" {
		args = append(args, filter.ManagerID)
		where += fmt.Sprintf(" AND e.manager_id::text = $%d", len(args))
	}
	if filter.ActiveOnly {
		where += " AND e.is_active"
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees e"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := employeeSelectSQL + where + " ORDER BY e.last_name, e.first_name, e.employee_code"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, emp)
	}
	return out, total, rows.Err()
}

func (s *Store) ListDepartmentEmployees(ctx context.Context, departmentID string) ([]EmployeeSummary, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id::text, e.first_name, e.last_name, e.position, e.salary::text, i.email
    FROM employees e
    JOIN identities i ON i.id = e.identity_id
    WHERE e.department_id::text = $1
    ORDER BY e.last_name, e.first_name
  `, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []EmployeeSummary{}
	for rows.Next() {
		var item EmployeeSummary
		var first, last, salary string
		if err := rows.Scan(&item.ID, &first, &last, &item.Position, &salary, &item.Email); err != nil {
			return nil, err
		}
		item.Name = Employee{FirstName: first, LastName: last}.FullName()
		if item.Salary, err = decimal.NewFromString(salary); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, id string) (Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx, employeeSelectSQL+" WHERE e.id::text = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	return emp, err
}

func (s *Store) GetEmployeeByIdentity(ctx context.Context, identityID string) (Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx, employeeSelectSQL+" WHERE e.identity_id::text = $1", identityID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrProfileNotFound
	}
	return emp, err
}

func (s *Store) CreateEmployee(ctx context.Context, emp Employee) (Employee, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (identity_id, employee_code, first_name, last_name, gender, date_of_birth, address,
                           hire_date, manager_id, position, salary, department_id, is_active)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11::numeric,$12,$13)
    RETURNING id::text
  `, emp.IdentityID, emp.EmployeeCode, emp.FirstName, emp.LastName, emp.Gender, emp.DateOfBirth, emp.Address,
		emp.HireDate, nullIfEmpty(emp.ManagerID), emp.Position, emp.Salary.StringFixed(2), nullIfEmpty(emp.DepartmentID), emp.IsActive,
	).Scan(&id)
	if err != nil {
		return Employee{}, mapEmployeeWriteError(err)
	}
	return s.GetEmployee(ctx, id)
}

// MutateEmployee loads the employee row under FOR UPDATE, lets fn edit it and
// writes it back in the same transaction.
func (s *Store) MutateEmployee(ctx context.Context, id string, fn func(*Employee, ChainReader) error) (Employee, error) {
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		emp, err := scanEmployee(tx.QueryRow(ctx, employeeSelectSQL+" WHERE e.id::text = $1 FOR UPDATE OF e", id))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrEmployeeNotFound
		}
		if err != nil {
			return err
		}
		if err := fn(&emp, &hierarchyTx{tx: tx}); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
      UPDATE employees
      SET employee_code = $2, first_name = $3, last_name = $4, gender = $5, date_of_birth = $6, address = $7,
          hire_date = $8, manager_id = $9, position = $10, salary = $11::numeric, department_id = $12,
          is_active = $13, updated_at = now()
      WHERE id::text = $1
    `, id, emp.EmployeeCode, emp.FirstName, emp.LastName, emp.Gender, emp.DateOfBirth, emp.Address,
			emp.HireDate, nullIfEmpty(emp.ManagerID), emp.Position, emp.Salary.StringFixed(2), nullIfEmpty(emp.DepartmentID), emp.IsActive,
		)
		return mapEmployeeWriteError(err)
	})
	if err != nil {
		return Employee{}, err
	}
	return s.GetEmployee(ctx, id)
}

// hierarchyLockKey is the advisory lock held by any mutation that walks the
// manager chain, until its transaction ends.
const hierarchyLockKey int64 = 0x6869657261726368

type hierarchyTx struct {
	tx     pgx.Tx
	locked bool
}

func (h *hierarchyTx) ManagementChain(ctx context.Context, employeeID string) ([]string, error) {
	if !h.locked {
		if _, err := h.tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", hierarchyLockKey); err != nil {
			return nil, fmt.Errorf("lock hierarchy: %w", err)
		}
		h.locked = true
	}
	return managementChain(ctx, h.tx, employeeID)
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM employees WHERE id::text = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func managementChain(ctx context.Context, q querier.Querier, employeeID string) ([]string, error) {
	rows, err := q.Query(ctx, `
    WITH RECURSIVE chain (id, manager_id, depth) AS (
      SELECT id, manager_id, 0 FROM employees WHERE id::text = $1
      UNION ALL
      SELECT e.id, e.manager_id, c.depth + 1
      FROM employees e
      JOIN chain c ON e.id = c.manager_id
      WHERE c.depth < $2
    )
    SELECT id::text FROM chain ORDER BY depth
  `, employeeID, maxChainDepth)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func mapEmployeeWriteError(err error) error {
	if constraint, ok := querier.UniqueViolation(err); ok {
		if constraint == "employees_identity_id_key" {
			return ErrProfileExists
		}
		return ErrEmployeeCodeTaken
	}
	if constraint, ok := querier.ForeignKeyViolation(err); ok {
		switch constraint {
		case "employees_identity_id_fkey":
			return ErrIdentityNotFound
		case "employees_manager_id_fkey":
			return ErrManagerNotFound
		case "employees_department_id_fkey":
			return ErrInvalidEmployee.WithMessage("department does not exist")
		}
		return ErrInvalidEmployee
	}
	if _, ok := querier.CheckViolation(err); ok {
		return ErrInvalidEmployee
	}
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
