package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

type fakeStore struct {
	mu          sync.Mutex
	seq         int
	departments map[string]Department
	employees   map[string]Employee
	emails      map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		departments: map[string]Department{},
		employees:   map[string]Employee{},
		emails:      map[string]string{},
	}
}

func (f *fakeStore) nextID() string {
	f.seq++
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", f.seq)
}

func (f *fakeStore) summary(dep Department) DepartmentSummary {
	out := DepartmentSummary{Department: dep, TotalSalary: decimal.Zero}
	for _, emp := range f.employees {
		if emp.DepartmentID == dep.ID {
			out.EmployeeCount++
			out.TotalSalary = out.TotalSalary.Add(emp.Salary)
		}
	}
	return out
}

func (f *fakeStore) ListDepartments(_ context.Context) ([]DepartmentSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []DepartmentSummary
	for _, dep := range f.departments {
		out = append(out, f.summary(dep))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetDepartment(_ context.Context, id string) (DepartmentSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dep, ok := f.departments[id]
	if !ok {
		return DepartmentSummary{}, ErrDepartmentNotFound
	}
	return f.summary(dep), nil
}

func (f *fakeStore) CreateDepartment(_ context.Context, dep Department) (Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dep.ID = f.nextID()
	f.departments[dep.ID] = dep
	return dep, nil
}

func (f *fakeStore) UpdateDepartment(_ context.Context, dep Department) (Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.departments[dep.ID]; !ok {
		return Department{}, ErrDepartmentNotFound
	}
	f.departments[dep.ID] = dep
	return dep, nil
}

func (f *fakeStore) DeleteDepartment(_ context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.departments[id]; !ok {
		return 0, ErrDepartmentNotFound
	}
	var detached int64
	for empID, emp := range f.employees {
		if emp.DepartmentID == id {
			emp.DepartmentID = ""
			emp.DepartmentName = nil
			f.employees[empID] = emp
			detached++
		}
	}
	delete(f.departments, id)
	return detached, nil
}

func (f *fakeStore) ListEmployees(_ context.Context, filter EmployeeFilter) ([]Employee, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Employee
	for _, emp := range f.employees {
		if filter.DepartmentID != "" && emp.DepartmentID != filter.DepartmentID {
			continue
		}
		if filter.ManagerID != "" && emp.ManagerID != filter.ManagerID {
			continue
		}
		if filter.ActiveOnly && !emp.IsActive {
			continue
		}
		out = append(out, emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeCode < out[j].EmployeeCode })
	return out, len(out), nil
}

func (f *fakeStore) ListDepartmentEmployees(_ context.Context, departmentID string) ([]EmployeeSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []EmployeeSummary{}
	for _, emp := range f.employees {
		if emp.DepartmentID == departmentID {
			out = append(out, EmployeeSummary{ID: emp.ID, Name: emp.FullName(), Position: emp.Position, Salary: emp.Salary, Email: emp.Email})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetEmployee(_ context.Context, id string) (Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	emp, ok := f.employees[id]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return f.project(emp), nil
}

func (f *fakeStore) GetEmployeeByIdentity(_ context.Context, identityID string) (Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, emp := range f.employees {
		if emp.IdentityID == identityID {
			return f.project(emp), nil
		}
	}
	return Employee{}, ErrProfileNotFound
}

func (f *fakeStore) project(emp Employee) Employee {
	emp.Email = f.emails[emp.IdentityID]
	emp.DepartmentName, emp.ManagerName, emp.ManagerEmail = nil, nil, nil
	if dep, ok := f.departments[emp.DepartmentID]; ok {
		name := dep.Name
		emp.DepartmentName = &name
	}
	if mgr, ok := f.employees[emp.ManagerID]; ok {
		name := mgr.FirstName
		email := f.emails[mgr.IdentityID]
		emp.ManagerName = &name
		emp.ManagerEmail = &email
	}
	return emp
}

func (f *fakeStore) CreateEmployee(_ context.Context, emp Employee) (Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.employees {
		if existing.EmployeeCode == emp.EmployeeCode {
			return Employee{}, ErrEmployeeCodeTaken
		}
		if existing.IdentityID == emp.IdentityID {
			return Employee{}, ErrProfileExists
		}
	}
	if emp.ManagerID != "" {
		if _, ok := f.employees[emp.ManagerID]; !ok {
			return Employee{}, ErrManagerNotFound
		}
	}
	emp.ID = f.nextID()
	f.employees[emp.ID] = emp
	return f.project(emp), nil
}

func (f *fakeStore) MutateEmployee(_ context.Context, id string, fn func(*Employee, ChainReader) error) (Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	emp, ok := f.employees[id]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	emp = f.project(emp)
	if err := fn(&emp, lockedChain{f}); err != nil {
		return Employee{}, err
	}
	if emp.ManagerID != "" {
		if _, ok := f.employees[emp.ManagerID]; !ok {
			return Employee{}, ErrManagerNotFound
		}
	}
	f.employees[id] = emp
	return f.project(emp), nil
}

func (f *fakeStore) DeleteEmployee(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.employees[id]; !ok {
		return ErrEmployeeNotFound
	}
	delete(f.employees, id)
	return nil
}

// lockedChain reads the hierarchy while MutateEmployee holds f.mu.
type lockedChain struct{ f *fakeStore }

func (c lockedChain) ManagementChain(_ context.Context, employeeID string) ([]string, error) {
	var out []string
	current := employeeID
	for depth := 0; depth <= maxChainDepth; depth++ {
		emp, ok := c.f.employees[current]
		if !ok {
			break
		}
		out = append(out, emp.ID)
		if emp.ManagerID == "" {
			break
		}
		current = emp.ManagerID
	}
	return out, nil
}
