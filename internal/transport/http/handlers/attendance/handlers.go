package attendancehandler

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/domain/attendance"
	"peopleops/internal/domain/auth"
	"peopleops/internal/platform/metrics"
	"peopleops/internal/transport/http/api"
	"peopleops/internal/transport/http/middleware"
	"peopleops/internal/transport/http/shared"
)

type Ledger interface {
	Mark(ctx context.Context, p auth.Principal, employeeID string, action string) (attendance.Record, error)
	Monthly(ctx context.Context, p auth.Principal, employeeID string) (attendance.EmployeeRef, []attendance.DaySummary, error)
	MyRecent(ctx context.Context, p auth.Principal) ([]attendance.Record, error)
	Department(ctx context.Context, p auth.Principal, window attendance.Range) (attendance.EmployeeRef, []attendance.Record, error)
}

type Handler struct {
	Service  Ledger
	Metrics  *metrics.Collector
	Location *time.Location
}

func NewHandler(service Ledger, collector *metrics.Collector, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{Service: service, Metrics: collector, Location: loc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/mark", h.handleMark)
		r.Get("/me", h.handleMine)
		r.Get("/employees/{employeeID}/monthly", h.handleMonthly)
		r.Get("/employees/{employeeID}/monthly.pdf", h.handleMonthlyPDF)
		r.Get("/department", h.handleDepartment)
		r.Get("/department/export.xlsx", h.handleDepartmentExport)
	})
}

type markPayload struct {
	EmployeeID string `json:"employeeId"`
	Action     string `json:"action"`
}

func (h *Handler) handleMark(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload markPayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "is required")
	v.Required("action", payload.Action, "is required")
	if v.Reject(w, reqID) {
		return
	}
	rec, err := h.Service.Mark(r.Context(), middleware.Principal(r.Context()), strings.TrimSpace(payload.EmployeeID), strings.TrimSpace(payload.Action))
	if err != nil {
		shared.FailError(w, err, "attendance_mark_failed", reqID)
		return
	}
	h.Metrics.Inc("attendance." + strings.TrimSpace(payload.Action))
	api.Success(w, rec, reqID)
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	records, err := h.Service.MyRecent(r.Context(), middleware.Principal(r.Context()))
	if err != nil {
		shared.FailError(w, err, "attendance_list_failed", reqID)
		return
	}
	api.Success(w, records, reqID)
}

type employeeView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type monthlyView struct {
	Employee employeeView            `json:"employee"`
	Days     []attendance.DaySummary `json:"days"`
}

func (h *Handler) handleMonthly(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	emp, days, err := h.Service.Monthly(r.Context(), middleware.Principal(r.Context()), chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.FailError(w, err, "attendance_summary_failed", reqID)
		return
	}
	api.Success(w, monthlyView{Employee: employeeView{ID: emp.ID, Name: emp.Name}, Days: days}, reqID)
}

func (h *Handler) handleMonthlyPDF(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	emp, days, err := h.Service.Monthly(r.Context(), middleware.Principal(r.Context()), chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.FailError(w, err, "attendance_summary_failed", reqID)
		return
	}
	var buf bytes.Buffer
	if err := attendance.WriteMonthlyPDF(&buf, emp, days, h.Location); err != nil {
		shared.FailError(w, err, "attendance_report_failed", reqID)
		return
	}
	h.Metrics.Inc("attendance.report.pdf")
	api.File(w, "application/pdf", "attendance-"+emp.ID+".pdf", buf.Bytes())
}

// window reads the optional from/to query parameters.
func window(r *http.Request, v *shared.Validator) attendance.Range {
	var out attendance.Range
	query := r.URL.Query()
	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		out.From, _ = v.Date("from", raw)
	}
	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		out.To, _ = v.Date("to", raw)
	}
	v.DateOrder("from", out.From, "to", out.To)
	return out
}

func (h *Handler) handleDepartment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	rng := window(r, v)
	if v.Reject(w, reqID) {
		return
	}
	_, records, err := h.Service.Department(r.Context(), middleware.Principal(r.Context()), rng)
	if err != nil {
		shared.FailError(w, err, "attendance_department_failed", reqID)
		return
	}
	api.Success(w, records, reqID)
}

func (h *Handler) handleDepartmentExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	rng := window(r, v)
	if v.Reject(w, reqID) {
		return
	}
	_, records, err := h.Service.Department(r.Context(), middleware.Principal(r.Context()), rng)
	if err != nil {
		shared.FailError(w, err, "attendance_department_failed", reqID)
		return
	}
	var buf bytes.Buffer
	if err := attendance.WriteDepartmentXLSX(&buf, records, h.Location); err != nil {
		shared.FailError(w, err, "attendance_export_failed", reqID)
		return
	}
	h.Metrics.Inc("attendance.report.xlsx")
	api.File(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "department-attendance.xlsx", buf.Bytes())
}
