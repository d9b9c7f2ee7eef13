package directory

import "context"

type StoreAPI interface {
	ListDepartments(ctx context.Context) ([]DepartmentSummary, error)
	GetDepartment(ctx context.Context, id string) (DepartmentSummary, error)
	CreateDepartment(ctx context.Context, dep Department) (Department, error)
	UpdateDepartment(ctx context.Context, dep Department) (Department, error)
	// DeleteDepartment detaches member employees and removes the department,
	// returning how many employees were detached.
	DeleteDepartment(ctx context.Context, id string) (int64, error)

	ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, int, error)
	ListDepartmentEmployees(ctx context.Context, departmentID string) ([]EmployeeSummary, error)
	GetEmployee(ctx context.Context, id string) (Employee, error)
	GetEmployeeByIdentity(ctx context.Context, identityID string) (Employee, error)
	CreateEmployee(ctx context.Context, emp Employee) (Employee, error)
	// MutateEmployee applies fn to the locked employee row and persists the
	// result atomically. Chain walks made through the reader are serialised
	// against every other mutation that walks the chain.
	MutateEmployee(ctx context.Context, id string, fn func(*Employee, ChainReader) error) (Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
}

type ChainReader interface {
	// ManagementChain returns employeeID followed by its managers, nearest first.
	ManagementChain(ctx context.Context, employeeID string) ([]string, error)
}
