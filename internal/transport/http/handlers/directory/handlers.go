package directoryhandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"peopleops/internal/domain/audit"
	"peopleops/internal/domain/auth"
	"peopleops/internal/domain/directory"
	"peopleops/internal/transport/http/api"
	"peopleops/internal/transport/http/middleware"
	"peopleops/internal/transport/http/shared"
)

type Directory interface {
	ListDepartments(ctx context.Context, p auth.Principal) ([]directory.DepartmentSummary, error)
	GetDepartment(ctx context.Context, p auth.Principal, id string) (directory.DepartmentSummary, error)
	CreateDepartment(ctx context.Context, p auth.Principal, in directory.DepartmentInput) (directory.Department, error)
	UpdateDepartment(ctx context.Context, p auth.Principal, id string, in directory.DepartmentInput) (directory.Department, error)
	DeleteDepartment(ctx context.Context, p auth.Principal, id string) (int64, error)
	DepartmentEmployees(ctx context.Context, p auth.Principal, departmentID string) ([]directory.EmployeeSummary, error)
	ListEmployees(ctx context.Context, p auth.Principal, filter directory.EmployeeFilter) ([]directory.Employee, int, error)
	GetEmployee(ctx context.Context, p auth.Principal, id string) (directory.Employee, error)
	MyProfile(ctx context.Context, p auth.Principal) (directory.Employee, error)
	DirectReports(ctx context.Context, p auth.Principal, managerID string) ([]directory.Employee, error)
	CreateEmployee(ctx context.Context, p auth.Principal, in directory.EmployeeInput) (directory.Employee, error)
	UpdateEmployee(ctx context.Context, p auth.Principal, id string, upd directory.EmployeeUpdate) (directory.Employee, error)
	DeleteEmployee(ctx context.Context, p auth.Principal, id string) error
}

type Handler struct {
	Service Directory
	Audit   audit.Recorder
}

func NewHandler(service Directory, auditSvc audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequireOperation(auth.OpReadDirectory, nil)
	write := middleware.RequireOperation(auth.OpWriteDirectory, nil)

	r.Route("/departments", func(r chi.Router) {
		r.With(read).Get("/", h.handleListDepartments)
		r.With(write).Post("/", h.handleCreateDepartment)
		r.With(read).Get("/{departmentID}", h.handleGetDepartment)
		r.With(write).Put("/{departmentID}", h.handleUpdateDepartment)
		r.With(write).Delete("/{departmentID}", h.handleDeleteDepartment)
		r.With(read).Get("/{departmentID}/employees", h.handleDepartmentEmployees)
	})
	r.Route("/employees", func(r chi.Router) {
		r.With(read).Get("/", h.handleListEmployees)
		r.With(write).Post("/", h.handleCreateEmployee)
		r.With(read).Get("/me", h.handleMyProfile)
		r.With(read).Get("/{employeeID}", h.handleGetEmployee)
		r.With(write).Put("/{employeeID}", h.handleUpdateEmployee)
		r.With(write).Delete("/{employeeID}", h.handleDeleteEmployee)
		r.With(read).Get("/{employeeID}/reports", h.handleDirectReports)
	})
}

type departmentPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	deps, err := h.Service.ListDepartments(r.Context(), middleware.Principal(r.Context()))
	if err != nil {
		shared.FailError(w, err, "departments_list_failed", reqID)
		return
	}
	api.Success(w, deps, reqID)
}

func (h *Handler) handleGetDepartment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	dep, err := h.Service.GetDepartment(r.Context(), middleware.Principal(r.Context()), chi.URLParam(r, "departmentID"))
	if err != nil {
		shared.FailError(w, err, "department_get_failed", reqID)
		return
	}
	api.Success(w, dep, reqID)
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload departmentPayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if v.Reject(w, reqID) {
		return
	}
	dep, err := h.Service.CreateDepartment(r.Context(), middleware.Principal(r.Context()), directory.DepartmentInput(payload))
	if err != nil {
		shared.FailError(w, err, "department_create_failed", reqID)
		return
	}
	h.record(r, "department.create", "department", dep.ID, nil, dep)
	api.Created(w, dep, reqID)
}

func (h *Handler) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload departmentPayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	dep, err := h.Service.UpdateDepartment(r.Context(), middleware.Principal(r.Context()), chi.URLParam(r, "departmentID"), directory.DepartmentInput(payload))
	if err != nil {
		shared.FailError(w, err, "department_update_failed", reqID)
		return
	}
	h.record(r, "department.update", "department", dep.ID, nil, dep)
	api.Success(w, dep, reqID)
}

func (h *Handler) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "departmentID")
	detached, err := h.Service.DeleteDepartment(r.Context(), middleware.Principal(r.Context()), id)
	if err != nil {
		shared.FailError(w, err, "department_delete_failed", reqID)
		return
	}
	h.record(r, "department.delete", "department", id, nil, map[string]int64{"detachedEmployees": detached})
	api.Success(w, map[string]int64{"detachedEmployees": detached}, reqID)
}

func (h *Handler) handleDepartmentEmployees(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	emps, err := h.Service.DepartmentEmployees(r.Context(), middleware.Principal(r.Context()), chi.URLParam(r, "departmentID"))
	if err != nil {
		shared.FailError(w, err, "department_employees_failed", reqID)
		return
	}
	api.Success(w, emps, reqID)
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	query := r.URL.Query()
	filter := directory.EmployeeFilter{
		DepartmentID: strings.TrimSpace(query.Get("departmentId")),
		ManagerID:    strings.TrimSpace(query.Get("managerId")),
		ActiveOnly:   query.Get("active") == "true",
		Limit:        page.Limit,
		Offset:       page.Offset,
	}
	emps, total, err := h.Service.ListEmployees(r.Context(), middleware.Principal(r.Context()), filter)
	if err != nil {
		shared.FailError(w, err, "employees_list_failed", reqID)
		return
	}
	api.SuccessList(w, emps, page.Meta(total), reqID)
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	emp, err := h.Service.GetEmployee(r.Context(), middleware.Principal(r.Context()), chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.FailError(w, err, "employee_get_failed", reqID)
		return
	}
	api.Success(w, emp, reqID)
}

func (h *Handler) handleMyProfile(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	emp, err := h.Service.MyProfile(r.Context(), middleware.Principal(r.Context()))
	if err != nil {
		shared.FailError(w, err, "profile_get_failed", reqID)
		return
	}
	api.Success(w, emp, reqID)
}

func (h *Handler) handleDirectReports(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	emps, err := h.Service.DirectReports(r.Context(), middleware.Principal(r.Context()), chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.FailError(w, err, "reports_list_failed", reqID)
		return
	}
	api.Success(w, emps, reqID)
}

type employeePayload struct {
	IdentityID   *string          `json:"identityId"`
	EmployeeCode *string          `json:"employeeCode"`
	FirstName    *string          `json:"firstName"`
	LastName     *string          `json:"lastName"`
	Gender       *string          `json:"gender"`
	DateOfBirth  *string          `json:"dateOfBirth"`
	Address      *string          `json:"address"`
	HireDate     *string          `json:"hireDate"`
	ManagerID    *string          `json:"managerId"`
	Position     *string          `json:"position"`
	Salary       *decimal.Decimal `json:"salary"`
	DepartmentID *string          `json:"departmentId"`
	IsActive     *bool            `json:"isActive"`
}

// dates parses the optional date fields, recording issues on v.
func (p employeePayload) dates(v *shared.Validator) (dob, hired *time.Time) {
	if p.DateOfBirth != nil {
		if parsed, ok := v.Date("dateOfBirth", *p.DateOfBirth); ok {
			dob = &parsed
		}
	}
	if p.HireDate != nil {
		if parsed, ok := v.Date("hireDate", *p.HireDate); ok {
			hired = &parsed
		}
	}
	return dob, hired
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload employeePayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Required("identityId", deref(payload.IdentityID), "is required")
	v.Required("employeeCode", deref(payload.EmployeeCode), "is required")
	v.Required("firstName", deref(payload.FirstName), "is required")
	v.Required("lastName", deref(payload.LastName), "is required")
	v.Enum("gender", deref(payload.Gender), directory.Genders, "must be one of M, F, O")
	v.Required("dateOfBirth", deref(payload.DateOfBirth), "is required")
	v.Required("hireDate", deref(payload.HireDate), "is required")
	if payload.Salary == nil {
		v.Add("salary", "is required")
	}
	dob, hired := payload.dates(v)
	if v.Reject(w, reqID) {
		return
	}

	in := directory.EmployeeInput{
		IdentityID:   deref(payload.IdentityID),
		EmployeeCode: deref(payload.EmployeeCode),
		FirstName:    deref(payload.FirstName),
		LastName:     deref(payload.LastName),
		Gender:       deref(payload.Gender),
		DateOfBirth:  *dob,
		Address:      deref(payload.Address),
		HireDate:     *hired,
		ManagerID:    deref(payload.ManagerID),
		Position:     deref(payload.Position),
		Salary:       *payload.Salary,
		DepartmentID: deref(payload.DepartmentID),
		IsActive:     payload.IsActive,
	}
	emp, err := h.Service.CreateEmployee(r.Context(), middleware.Principal(r.Context()), in)
	if err != nil {
		shared.FailError(w, err, "employee_create_failed", reqID)
		return
	}
	h.record(r, "employee.create", "employee", emp.ID, nil, emp)
	api.Created(w, emp, reqID)
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "employeeID")
	var payload employeePayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	if payload.IdentityID != nil {
		v.Add("identityId", "cannot be changed")
	}
	if payload.Gender != nil {
		v.Enum("gender", *payload.Gender, directory.Genders, "must be one of M, F, O")
	}
	dob, hired := payload.dates(v)
	if v.Reject(w, reqID) {
		return
	}

	p := middleware.Principal(r.Context())
	before, err := h.Service.GetEmployee(r.Context(), p, id)
	if err != nil {
		shared.FailError(w, err, "employee_update_failed", reqID)
		return
	}
	emp, err := h.Service.UpdateEmployee(r.Context(), p, id, directory.EmployeeUpdate{
		EmployeeCode: payload.EmployeeCode,
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Gender:       payload.Gender,
		DateOfBirth:  dob,
		Address:      payload.Address,
		HireDate:     hired,
		ManagerID:    payload.ManagerID,
		Position:     payload.Position,
		Salary:       payload.Salary,
		DepartmentID: payload.DepartmentID,
		IsActive:     payload.IsActive,
	})
	if err != nil {
		shared.FailError(w, err, "employee_update_failed", reqID)
		return
	}
	h.record(r, "employee.update", "employee", id, before, emp)
	api.Success(w, emp, reqID)
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "employeeID")
	if err := h.Service.DeleteEmployee(r.Context(), middleware.Principal(r.Context()), id); err != nil {
		shared.FailError(w, err, "employee_delete_failed", reqID)
		return
	}
	h.record(r, "employee.delete", "employee", id, nil, nil)
	api.NoContent(w)
}

func (h *Handler) record(r *http.Request, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	actor := middleware.Principal(r.Context()).IdentityID
	if err := h.Audit.Record(r.Context(), actor, action, entityType, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
