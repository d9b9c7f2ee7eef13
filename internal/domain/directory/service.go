package directory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"peopleops/internal/domain/auth"
)

type DepartmentInput struct {
	Name        string
	Description string
}

type EmployeeInput struct {
	IdentityID   string
	EmployeeCode string
	FirstName    string
	LastName     string
	Gender       string
	DateOfBirth  time.Time
	Address      string
	HireDate     time.Time
	ManagerID    string
	Position     string
	Salary       decimal.Decimal
	DepartmentID string
	IsActive     *bool
}

// EmployeeUpdate is a partial update; nil fields are left untouched. An
// empty ManagerID or DepartmentID clears the reference.
type EmployeeUpdate struct {
	EmployeeCode *string
	FirstName    *string
	LastName     *string
	Gender       *string
	DateOfBirth  *time.Time
	Address      *string
	HireDate     *time.Time
	ManagerID    *string
	Position     *string
	Salary       *decimal.Decimal
	DepartmentID *string
	IsActive     *bool
}

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) ListDepartments(ctx context.Context, p auth.Principal) ([]DepartmentSummary, error) {
	if err := auth.Authorize(p, auth.OpReadDirectory, ""); err != nil {
		return nil, err
	}
	deps, err := s.store.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}
	if deps == nil {
		deps = []DepartmentSummary{}
	}
	return deps, nil
}

func (s *Service) GetDepartment(ctx context.Context, p auth.Principal, id string) (DepartmentSummary, error) {
	if err := auth.Authorize(p, auth.OpReadDirectory, ""); err != nil {
		return DepartmentSummary{}, err
	}
	return s.store.GetDepartment(ctx, id)
}

func (s *Service) CreateDepartment(ctx context.Context, p auth.Principal, in DepartmentInput) (Department, error) {
	if err := auth.Authorize(p, auth.OpWriteDirectory, ""); err != nil {
		return Department{}, err
	}
	dep := Department{Name: strings.TrimSpace(in.Name), Description: strings.TrimSpace(in.Description)}
	if err := validateDepartment(dep); err != nil {
		return Department{}, err
	}
	return s.store.CreateDepartment(ctx, dep)
}

func (s *Service) UpdateDepartment(ctx context.Context, p auth.Principal, id string, in DepartmentInput) (Department, error) {
	if err := auth.Authorize(p, auth.OpWriteDirectory, ""); err != nil {
		return Department{}, err
	}
	dep := Department{ID: id, Name: strings.TrimSpace(in.Name), Description: strings.TrimSpace(in.Description)}
	if err := validateDepartment(dep); err != nil {
		return Department{}, err
	}
	return s.store.UpdateDepartment(ctx, dep)
}

// DeleteDepartment removes a department. Its employees are kept and detached.
func (s *Service) DeleteDepartment(ctx context.Context, p auth.Principal, id string) (int64, error) {
	if err := auth.Authorize(p, auth.OpWriteDirectory, ""); err != nil {
		return 0, err
	}
	return s.store.DeleteDepartment(ctx, id)
}

// DepartmentEmployees lists the roster of one department.
func (s *Service) DepartmentEmployees(ctx context.Context, p auth.Principal, departmentID string) ([]EmployeeSummary, error) {
	if err := auth.Authorize(p, auth.OpReadDirectory, ""); err != nil {
		return nil, err
	}
	if _, err := s.store.GetDepartment(ctx, departmentID); err != nil {
		return nil, err
	}
	return s.store.ListDepartmentEmployees(ctx, departmentID)
}

func (s *Service) ListEmployees(ctx context.Context, p auth.Principal, filter EmployeeFilter) ([]Employee, int, error) {
	if err := auth.Authorize(p, auth.OpReadDirectory, ""); err != nil {
		return nil, 0, err
	}
	emps, total, err := s.store.ListEmployees(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if emps == nil {
		emps = []Employee{}
	}
	return emps, total, nil
}

func (s *Service) GetEmployee(ctx context.Context, p auth.Principal, id string) (Employee, error) {
	if err := auth.Authorize(p, auth.OpReadDirectory, ""); err != nil {
		return Employee{}, err
	}
	return s.store.GetEmployee(ctx, id)
}

// MyProfile returns the employee profile linked to the caller's identity.
func (s *Service) MyProfile(ctx context.Context, p auth.Principal) (Employee, error) {
	if err := auth.Authorize(p, auth.OpReadDirectory, ""); err != nil {
		return Employee{}, err
	}
	return s.store.GetEmployeeByIdentity(ctx, p.IdentityID)
}

func (s *Service) DirectReports(ctx context.Context, p auth.Principal, managerID string) ([]Employee, error) {
	if err := auth.Authorize(p, auth.OpReadDirectory, ""); err != nil {
		return nil, err
	}
	if _, err := s.store.GetEmployee(ctx, managerID); err != nil {
		return nil, err
	}
	reports, _, err := s.store.ListEmployees(ctx, EmployeeFilter{ManagerID: managerID})
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []Employee{}
	}
	return reports, nil
}

func (s *Service) CreateEmployee(ctx context.Context, p auth.Principal, in EmployeeInput) (Employee, error) {
	if err := auth.Authorize(p, auth.OpWriteDirectory, ""); err != nil {
		return Employee{}, err
	}
	emp := Employee{
		IdentityID:   strings.TrimSpace(in.IdentityID),
		EmployeeCode: strings.TrimSpace(in.EmployeeCode),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Gender:       strings.ToUpper(strings.TrimSpace(in.Gender)),
		DateOfBirth:  in.DateOfBirth,
		Address:      strings.TrimSpace(in.Address),
		HireDate:     in.HireDate,
		ManagerID:    strings.TrimSpace(in.ManagerID),
		Position:     strings.TrimSpace(in.Position),
		Salary:       in.Salary,
		DepartmentID: strings.TrimSpace(in.DepartmentID),
		IsActive:     true,
	}
	if in.IsActive != nil {
		emp.IsActive = *in.IsActive
	}
	if !isUUID(emp.IdentityID) {
		return Employee{}, ErrInvalidEmployee.WithMessage("identityId must be a valid id")
	}
	if err := validateEmployee(emp); err != nil {
		return Employee{}, err
	}
	return s.store.CreateEmployee(ctx, emp)
}

// UpdateEmployee applies a partial update. A manager change is rejected when
// it would make the employee its own indirect manager.
func (s *Service) UpdateEmployee(ctx context.Context, p auth.Principal, id string, upd EmployeeUpdate) (Employee, error) {
	if err := auth.Authorize(p, auth.OpWriteDirectory, ""); err != nil {
		return Employee{}, err
	}
	return s.store.MutateEmployee(ctx, id, func(emp *Employee, chains ChainReader) error {
		managerChanged := applyEmployeeUpdate(emp, upd)
		if err := validateEmployee(*emp); err != nil {
			return err
		}
		if managerChanged && emp.ManagerID != "" {
			return checkManagerCycle(ctx, chains, emp.ID, emp.ManagerID)
		}
		return nil
	})
}

func applyEmployeeUpdate(emp *Employee, upd EmployeeUpdate) (managerChanged bool) {
	if upd.EmployeeCode != nil {
		emp.EmployeeCode = strings.TrimSpace(*upd.EmployeeCode)
	}
	if upd.FirstName != nil {
		emp.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		emp.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.Gender != nil {
		emp.Gender = strings.ToUpper(strings.TrimSpace(*upd.Gender))
	}
	if upd.DateOfBirth != nil {
		emp.DateOfBirth = *upd.DateOfBirth
	}
	if upd.Address != nil {
		emp.Address = strings.TrimSpace(*upd.Address)
	}
	if upd.HireDate != nil {
		emp.HireDate = *upd.HireDate
	}
	if upd.ManagerID != nil {
		next := strings.TrimSpace(*upd.ManagerID)
		managerChanged = next != emp.ManagerID
		emp.ManagerID = next
	}
	if upd.Position != nil {
		emp.Position = strings.TrimSpace(*upd.Position)
	}
	if upd.Salary != nil {
		emp.Salary = *upd.Salary
	}
	if upd.DepartmentID != nil {
		emp.DepartmentID = strings.TrimSpace(*upd.DepartmentID)
	}
	if upd.IsActive != nil {
		emp.IsActive = *upd.IsActive
	}
	return managerChanged
}

func (s *Service) DeleteEmployee(ctx context.Context, p auth.Principal, id string) error {
	if err := auth.Authorize(p, auth.OpWriteDirectory, ""); err != nil {
		return err
	}
	return s.store.DeleteEmployee(ctx, id)
}

func checkManagerCycle(ctx context.Context, chains ChainReader, employeeID, managerID string) error {
	if managerID == employeeID {
		return ErrManagerCycle
	}
	chain, err := chains.ManagementChain(ctx, managerID)
	if err != nil {
		return err
	}
	if len(chain) == 0 {
		return ErrManagerNotFound
	}
	if slices.Contains(chain, employeeID) {
		return ErrManagerCycle
	}
	return nil
}

func validateDepartment(dep Department) error {
	if dep.Name == "" {
		return ErrInvalidDepartment.WithMessage("name is required")
	}
	if len(dep.Name) > 100 {
		return ErrInvalidDepartment.WithMessage("name must be at most 100 characters")
	}
	return nil
}

func validateEmployee(emp Employee) error {
	switch {
	case emp.EmployeeCode == "":
		return ErrInvalidEmployee.WithMessage("employeeCode is required")
	case emp.FirstName == "" || emp.LastName == "":
		return ErrInvalidEmployee.WithMessage("firstName and lastName are required")
	case !slices.Contains(Genders, emp.Gender):
		return ErrInvalidEmployee.WithMessage("gender must be one of M, F, O")
	case emp.DateOfBirth.IsZero():
		return ErrInvalidEmployee.WithMessage("dateOfBirth is required")
	case emp.HireDate.IsZero():
		return ErrInvalidEmployee.WithMessage("hireDate is required")
	case emp.HireDate.Before(emp.DateOfBirth):
		return ErrInvalidEmployee.WithMessage("hireDate must be after dateOfBirth")
	case emp.Salary.IsNegative():
		return ErrInvalidEmployee.WithMessage("salary must not be negative")
	case emp.ManagerID != "" && !isUUID(emp.ManagerID):
		return ErrManagerNotFound
	case emp.DepartmentID != "" && !isUUID(emp.DepartmentID):
		return ErrInvalidEmployee.WithMessage("department does not exist")
	case emp.ManagerID != "" && emp.ManagerID == emp.ID:
		return ErrManagerCycle
	}
	return nil
}

func isUUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
