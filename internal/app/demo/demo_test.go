package demo

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peopleops/internal/domain/auth"
	"peopleops/internal/domain/directory"
)

type fakeAccounts struct {
	mu        sync.Mutex
	usernames map[string]string
	roles     map[string]string
}

func (f *fakeAccounts) CreateAccount(_ context.Context, in auth.NewAccount) (auth.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.usernames[in.Username]; taken {
		return auth.Identity{}, errors.New("duplicate username " + in.Username)
	}
	id := uuid.NewString()
	f.usernames[in.Username] = id
	f.roles[id] = in.Role
	return auth.Identity{ID: id, Username: in.Username, Role: in.Role}, nil
}

type fakeDirectory struct {
	mu          sync.Mutex
	departments []directory.Department
	employees   []directory.EmployeeInput
	fail        bool
}

func (f *fakeDirectory) CreateDepartment(_ context.Context, p auth.Principal, in directory.DepartmentInput) (directory.Department, error) {
	if err := auth.Authorize(p, auth.OpWriteDirectory, ""); err != nil {
		return directory.Department{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	dep := directory.Department{ID: uuid.NewString(), Name: in.Name}
	f.departments = append(f.departments, dep)
	return dep, nil
}

func (f *fakeDirectory) CreateEmployee(_ context.Context, p auth.Principal, in directory.EmployeeInput) (directory.Employee, error) {
	if err := auth.Authorize(p, auth.OpWriteDirectory, ""); err != nil {
		return directory.Employee{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return directory.Employee{}, errors.New("insert failed")
	}
	f.employees = append(f.employees, in)
	return directory.Employee{ID: uuid.NewString(), IdentityID: in.IdentityID, DepartmentID: in.DepartmentID, ManagerID: in.ManagerID}, nil
}

func newFakes() (*fakeAccounts, *fakeDirectory) {
	return &fakeAccounts{usernames: map[string]string{}, roles: map[string]string{}}, &fakeDirectory{}
}

var operator = auth.NewPrincipal("operator", "peopleopsctl", auth.RoleAdmin)

func TestSeedBuildsDepartments(t *testing.T) {
	accounts, dir := newFakes()
	now := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

	res, err := Seed(context.Background(), accounts, dir, operator, Options{
		Departments:   2,
		PerDepartment: 3,
		Password:      "demo-password-1",
		Tag:           "t1",
		Now:           now,
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", res.Tag)
	assert.Equal(t, 2, res.Departments)
	assert.EqualValues(t, 8, res.Employees)
	require.Len(t, dir.departments, 2)
	require.Len(t, dir.employees, 8)

	managers := 0
	codes := map[string]bool{}
	for _, emp := range dir.employees {
		assert.NotEmpty(t, emp.DepartmentID)
		assert.Contains(t, directory.Genders, emp.Gender)
		assert.False(t, emp.HireDate.Before(emp.DateOfBirth.AddDate(18, 0, 0)))
		assert.False(t, emp.HireDate.After(now))
		assert.True(t, emp.Salary.IsPositive())
		assert.False(t, codes[emp.EmployeeCode], "duplicate code %s", emp.EmployeeCode)
		codes[emp.EmployeeCode] = true
		if accounts.roles[emp.IdentityID] == auth.RoleManager {
			managers++
			assert.Empty(t, emp.ManagerID)
		} else {
			assert.NotEmpty(t, emp.ManagerID)
		}
	}
	assert.Equal(t, 2, managers)
}

func TestSeedCapsDepartments(t *testing.T) {
	accounts, dir := newFakes()
	res, err := Seed(context.Background(), accounts, dir, operator, Options{
		Departments: len(departmentNames) + 5,
		Password:    "demo-password-1",
	})
	require.NoError(t, err)
	assert.Equal(t, len(departmentNames), res.Departments)
	assert.Len(t, res.Tag, 6)
}

func TestSeedStopsOnError(t *testing.T) {
	accounts, dir := newFakes()
	dir.fail = true
	_, err := Seed(context.Background(), accounts, dir, operator, Options{Departments: 1, Password: "demo-password-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert failed")
}

func TestSeedNeedsWriter(t *testing.T) {
	accounts, dir := newFakes()
	viewer := auth.NewPrincipal("viewer", "eve", auth.RoleEmployee)
	_, err := Seed(context.Background(), accounts, dir, viewer, Options{Departments: 1, Password: "demo-password-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrForbidden))
}

func TestNewProfileUsernamesDiffer(t *testing.T) {
	now := time.Now().UTC()
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		prof := NewProfile("x", i, now)
		assert.False(t, seen[prof.Username])
		seen[prof.Username] = true
		assert.True(t, slices.Contains(directory.Genders, prof.Gender))
		assert.Equal(t, prof.Username+"@example.com", prof.Email)
	}
}
