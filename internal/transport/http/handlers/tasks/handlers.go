package taskshandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/domain/audit"
	"peopleops/internal/domain/auth"
	"peopleops/internal/domain/tasks"
	"peopleops/internal/platform/metrics"
	"peopleops/internal/transport/http/api"
	"peopleops/internal/transport/http/middleware"
	"peopleops/internal/transport/http/shared"
)

type Board interface {
	List(ctx context.Context, p auth.Principal, status tasks.Status) ([]tasks.Task, error)
	Get(ctx context.Context, p auth.Principal, id string) (tasks.Task, error)
	Create(ctx context.Context, p auth.Principal, in tasks.Input) (tasks.Task, error)
	Update(ctx context.Context, p auth.Principal, id string, in tasks.Update) (tasks.Task, error)
	Delete(ctx context.Context, p auth.Principal, id string) error
	Submit(ctx context.Context, p auth.Principal, id string) (tasks.Task, error)
	Review(ctx context.Context, p auth.Principal, id string, action string, comment string) (tasks.Task, error)
}

type Handler struct {
	Service Board
	Audit   audit.Recorder
	Metrics *metrics.Collector
}

func NewHandler(service Board, auditSvc audit.Recorder, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Audit: auditSvc, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Use(middleware.RequireOperation(auth.OpUseTasks, nil))
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{taskID}", h.handleGet)
		r.Put("/{taskID}", h.handleUpdate)
		r.Delete("/{taskID}", h.handleDelete)
		r.Post("/{taskID}/submit", h.handleSubmit)
		r.Post("/{taskID}/review", h.handleReview)
	})
}

var statuses = []string{string(tasks.StatusInProgress), string(tasks.StatusSubmitted), string(tasks.StatusCompleted)}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	v := shared.NewValidator()
	v.Enum("status", status, statuses, "must be one of in_progress, submitted, completed")
	if v.Reject(w, reqID) {
		return
	}
	items, err := h.Service.List(r.Context(), middleware.Principal(r.Context()), tasks.Status(status))
	if err != nil {
		shared.FailError(w, err, "tasks_list_failed", reqID)
		return
	}
	api.Success(w, items, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	task, err := h.Service.Get(r.Context(), middleware.Principal(r.Context()), chi.URLParam(r, "taskID"))
	if err != nil {
		shared.FailError(w, err, "task_get_failed", reqID)
		return
	}
	api.Success(w, task, reqID)
}

type taskPayload struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Deadline    *string `json:"deadline"`
	AssignedTo  *string `json:"assignedTo"`
}

// deadline parses the optional deadline. An explicit empty string means
// "no deadline" and is reported through clear.
func (p taskPayload) deadline(v *shared.Validator) (at *time.Time, clear bool) {
	if p.Deadline == nil {
		return nil, false
	}
	raw := strings.TrimSpace(*p.Deadline)
	if raw == "" {
		return nil, true
	}
	if parsed, ok := v.Date("deadline", raw); ok {
		return &parsed, false
	}
	return nil, false
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload taskPayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Required("title", value(payload.Title), "is required")
	v.Required("assignedTo", value(payload.AssignedTo), "is required")
	deadline, _ := payload.deadline(v)
	if v.Reject(w, reqID) {
		return
	}
	task, err := h.Service.Create(r.Context(), middleware.Principal(r.Context()), tasks.Input{
		Title:       value(payload.Title),
		Description: value(payload.Description),
		Deadline:    deadline,
		AssignedTo:  value(payload.AssignedTo),
	})
	if err != nil {
		shared.FailError(w, err, "task_create_failed", reqID)
		return
	}
	h.record(r, "task.create", task.ID, nil, task)
	api.Created(w, task, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload taskPayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	deadline, clear := payload.deadline(v)
	if v.Reject(w, reqID) {
		return
	}
	task, err := h.Service.Update(r.Context(), middleware.Principal(r.Context()), chi.URLParam(r, "taskID"), tasks.Update{
		Title:         payload.Title,
		Description:   payload.Description,
		Deadline:      deadline,
		ClearDeadline: clear,
		AssignedTo:    payload.AssignedTo,
	})
	if err != nil {
		shared.FailError(w, err, "task_update_failed", reqID)
		return
	}
	h.record(r, "task.update", task.ID, nil, task)
	api.Success(w, task, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "taskID")
	if err := h.Service.Delete(r.Context(), middleware.Principal(r.Context()), id); err != nil {
		shared.FailError(w, err, "task_delete_failed", reqID)
		return
	}
	h.record(r, "task.delete", id, nil, nil)
	api.NoContent(w)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	task, err := h.Service.Submit(r.Context(), middleware.Principal(r.Context()), chi.URLParam(r, "taskID"))
	if err != nil {
		shared.FailError(w, err, "task_submit_failed", reqID)
		return
	}
	h.Metrics.Inc("tasks.submitted")
	h.record(r, "task.submit", task.ID, nil, task)
	api.Success(w, task, reqID)
}

type reviewPayload struct {
	Action  string `json:"action"`
	Comment string `json:"comment"`
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload reviewPayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	task, err := h.Service.Review(r.Context(), middleware.Principal(r.Context()), chi.URLParam(r, "taskID"), strings.TrimSpace(payload.Action), payload.Comment)
	if err != nil {
		shared.FailError(w, err, "task_review_failed", reqID)
		return
	}
	h.Metrics.Inc("tasks.review." + strings.TrimSpace(payload.Action))
	h.record(r, "task.review", task.ID, nil, task)
	api.Success(w, task, reqID)
}

func (h *Handler) record(r *http.Request, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	actor := middleware.Principal(r.Context()).IdentityID
	if err := h.Audit.Record(r.Context(), actor, action, "task", entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}
