// Package demo fills an empty installation with fake departments, accounts
// and employee profiles.
package demo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"peopleops/internal/domain/auth"
	"peopleops/internal/domain/directory"
)

var departmentNames = []string{"Engineering", "Sales", "Operations", "Finance", "People", "Support", "Marketing", "Legal"}

type Accounts interface {
	CreateAccount(ctx context.Context, in auth.NewAccount) (auth.Identity, error)
}

type Directory interface {
	CreateDepartment(ctx context.Context, p auth.Principal, in directory.DepartmentInput) (directory.Department, error)
	CreateEmployee(ctx context.Context, p auth.Principal, in directory.EmployeeInput) (directory.Employee, error)
}

type Options struct {
	Departments   int
	PerDepartment int
	Password      string
	// Concurrency bounds parallel inserts; zero means 4.
	Concurrency   int
	// Tag keeps names unique across runs. Empty picks a random one.
	Tag           string
	Now           time.Time
}

type Result struct {
	Tag         string
	Departments int
	Employees   int64
}

// Profile is one fake person.
type Profile struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Gender    string
	Address   string
	Position  string
	Birth     time.Time
	Hired     time.Time
	Salary    decimal.Decimal
}

// NewProfile invents a person. index keeps the username unique within a run.
func NewProfile(tag string, index int, now time.Time) Profile {
	first := gofakeit.FirstName()
	last := gofakeit.LastName()
	username := fmt.Sprintf("%s.%s.%s%d", strings.ToLower(first), strings.ToLower(last), tag, index)
	username = strings.ReplaceAll(username, " ", "")

	gender := directory.GenderOther
	switch gofakeit.Gender() {
	case "male":
		gender = directory.GenderMale
	case "female":
		gender = directory.GenderFemale
	}

	birth := civil(gofakeit.DateRange(now.AddDate(-62, 0, 0), now.AddDate(-20, 0, 0)))
	hired := civil(gofakeit.DateRange(birth.AddDate(18, 0, 0), now))
	return Profile{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: first,
		LastName:  last,
		Gender:    gender,
		Address:   gofakeit.Street() + ", " + gofakeit.City(),
		Position:  gofakeit.JobTitle(),
		Birth:     birth,
		Hired:     hired,
		Salary:    decimal.NewFromFloat(gofakeit.Price(30000, 150000)).Round(2),
	}
}

func civil(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Seed creates opts.Departments departments, each with a manager and
// opts.PerDepartment reports. Departments are filled concurrently.
func Seed(ctx context.Context, accounts Accounts, dir Directory, p auth.Principal, opts Options) (Result, error) {
	if opts.Tag == "" {
		opts.Tag = strings.ReplaceAll(gofakeit.UUID(), "-", "")[:6]
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Departments > len(departmentNames) {
		opts.Departments = len(departmentNames)
	}

	s := &seeder{accounts: accounts, dir: dir, principal: p, opts: opts}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i := 0; i < opts.Departments; i++ {
		g.Go(func() error {
			return s.department(gctx, i)
		})
	}
	err := g.Wait()
	return Result{Tag: opts.Tag, Departments: int(s.departments.Load()), Employees: s.employees.Load()}, err
}

type seeder struct {
	accounts  Accounts
	dir       Directory
	principal auth.Principal
	opts      Options

	mu          sync.Mutex
	next        int
	departments atomic.Int32
	employees   atomic.Int64
}

func (s *seeder) index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

func (s *seeder) department(ctx context.Context, i int) error {
	dep, err := s.dir.CreateDepartment(ctx, s.principal, directory.DepartmentInput{
		Name:        departmentNames[i] + " " + s.opts.Tag,
		Description: gofakeit.Sentence(8),
	})
	if err != nil {
		return fmt.Errorf("department %s: %w", departmentNames[i], err)
	}
	s.departments.Add(1)

	manager, err := s.person(ctx, dep.ID, "", auth.RoleManager)
	if err != nil {
		return err
	}
	for j := 0; j < s.opts.PerDepartment; j++ {
		if _, err := s.person(ctx, dep.ID, manager.ID, auth.RoleEmployee); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) person(ctx context.Context, departmentID, managerID, role string) (directory.Employee, error) {
	n := s.index()
	prof := NewProfile(s.opts.Tag, n, s.opts.Now)
	ident, err := s.accounts.CreateAccount(ctx, auth.NewAccount{
		Username:  prof.Username,
		Email:     prof.Email,
		FirstName: prof.FirstName,
		LastName:  prof.LastName,
		Role:      role,
		Password:  s.opts.Password,
	})
	if err != nil {
		return directory.Employee{}, fmt.Errorf("account %s: %w", prof.Username, err)
	}
	emp, err := s.dir.CreateEmployee(ctx, s.principal, directory.EmployeeInput{
		IdentityID:   ident.ID,
		EmployeeCode: fmt.Sprintf("D-%s-%04d", strings.ToUpper(s.opts.Tag), n),
		FirstName:    prof.FirstName,
		LastName:     prof.LastName,
		Gender:       prof.Gender,
		DateOfBirth:  prof.Birth,
		Address:      prof.Address,
		HireDate:     prof.Hired,
		ManagerID:    managerID,
		Position:     prof.Position,
		Salary:       prof.Salary,
		DepartmentID: departmentID,
	})
	if err != nil {
		return directory.Employee{}, fmt.Errorf("employee %s: %w", prof.Username, err)
	}
	s.employees.Add(1)
	return emp, nil
}
