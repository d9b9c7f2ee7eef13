package directory

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderOther  = "O"
)

var Genders = []string{GenderMale, GenderFemale, GenderOther}

type Department struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DepartmentSummary is a department with its computed head count and payroll total.
type DepartmentSummary struct {
	Department
	EmployeeCount int             `json:"employeeCount"`
	TotalSalary   decimal.Decimal `json:"totalSalary"`
}

func (d DepartmentSummary) MarshalJSON() ([]byte, error) {
	type alias DepartmentSummary
	return json.Marshal(struct {
		alias
		TotalSalary string `json:"totalSalary"`
	}{alias: alias(d), TotalSalary: money(d.TotalSalary)})
}

type Employee struct {
	ID             string          `json:"id"`
	IdentityID     string          `json:"identityId"`
	EmployeeCode   string          `json:"employeeCode"`
	FirstName      string          `json:"firstName"`
	LastName       string          `json:"lastName"`
	Gender         string          `json:"gender"`
	DateOfBirth    time.Time       `json:"dateOfBirth"`
	Address        string          `json:"address"`
	HireDate       time.Time       `json:"hireDate"`
	ManagerID      string          `json:"managerId"`
	Position       string          `json:"position"`
	Salary         decimal.Decimal `json:"salary"`
	DepartmentID   string          `json:"departmentId"`
	IsActive       bool            `json:"isActive"`
	Email          string          `json:"email"`
	DepartmentName *string         `json:"departmentName"`
	ManagerName    *string         `json:"managerName"`
	ManagerEmail   *string         `json:"managerEmail"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (e Employee) FullName() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

func (e Employee) MarshalJSON() ([]byte, error) {
	type alias Employee
	return json.Marshal(struct {
		alias
		Salary      string `json:"salary"`
		DateOfBirth string `json:"dateOfBirth"`
		HireDate    string `json:"hireDate"`
	}{
		alias:       alias(e),
		Salary:      money(e.Salary),
		DateOfBirth: civilDate(e.DateOfBirth),
		HireDate:    civilDate(e.HireDate),
	})
}

// EmployeeSummary is the department roster projection.
type EmployeeSummary struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Position string          `json:"position"`
	Salary   decimal.Decimal `json:"salary"`
	Email    string          `json:"email"`
}

func (e EmployeeSummary) MarshalJSON() ([]byte, error) {
	type alias EmployeeSummary
	return json.Marshal(struct {
		alias
		Salary string `json:"salary"`
	}{alias: alias(e), Salary: money(e.Salary)})
}

type EmployeeFilter struct {
	DepartmentID string
	ManagerID    string
	ActiveOnly   bool
	Limit        int
	Offset       int
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func civilDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
