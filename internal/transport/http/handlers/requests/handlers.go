package requestshandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/domain/audit"
	"peopleops/internal/domain/auth"
	"peopleops/internal/domain/requests"
	"peopleops/internal/platform/metrics"
	"peopleops/internal/transport/http/api"
	"peopleops/internal/transport/http/middleware"
	"peopleops/internal/transport/http/shared"
)

const createEndpoint = "requests.create"

type Queue interface {
	Submit(ctx context.Context, p auth.Principal, in requests.Input) (requests.Request, error)
	ListMine(ctx context.Context, p auth.Principal, filter requests.Filter) ([]requests.Request, int, error)
	ListAll(ctx context.Context, p auth.Principal, filter requests.Filter) ([]requests.Request, int, error)
	Review(ctx context.Context, p auth.Principal, id string, action string, comment string) (requests.Request, error)
	ListLeaveTypes(ctx context.Context, p auth.Principal) ([]requests.LeaveType, error)
	CreateLeaveType(ctx context.Context, p auth.Principal, in requests.LeaveTypeInput) (requests.LeaveType, error)
	DeleteLeaveType(ctx context.Context, p auth.Principal, id string) error
}

// Replayer stores responses of keyed writes.
type Replayer interface {
	Reserve(ctx context.Context, identityID, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, identityID, endpoint, key, requestHash string, response json.RawMessage) error
	Release(ctx context.Context, identityID, endpoint, key, requestHash string) error
}

type Handler struct {
	Service     Queue
	Audit       audit.Recorder
	Idempotency Replayer
	Metrics     *metrics.Collector
}

func NewHandler(service Queue, auditSvc audit.Recorder, idem Replayer, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Audit: auditSvc, Idempotency: idem, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/requests", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleListMine)
		r.Post("/", h.handleSubmit)
		r.Get("/admin", h.handleListAll)
		r.Patch("/{requestID}/review", h.handleReview)
	})
	r.Route("/leave-types", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleListLeaveTypes)
		r.Post("/", h.handleCreateLeaveType)
		r.Delete("/{leaveTypeID}", h.handleDeleteLeaveType)
	})
}

var (
	statuses = []string{string(requests.StatusPending), string(requests.StatusCompleted), string(requests.StatusDeclined)}
	kinds    = []string{string(requests.KindGeneral), string(requests.KindLeave)}
)

func parseFilter(r *http.Request, v *shared.Validator) requests.Filter {
	query := r.URL.Query()
	status := strings.TrimSpace(query.Get("status"))
	kind := strings.TrimSpace(query.Get("kind"))
	v.Enum("status", status, statuses, "must be one of pending, completed, declined")
	v.Enum("kind", kind, kinds, "must be one of general, leave")
	page := shared.ParsePagination(r, 50, 200)
	return requests.Filter{
		Status: requests.Status(status),
		Kind:   requests.Kind(kind),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.ListMine)
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.ListAll)
}

type lister func(ctx context.Context, p auth.Principal, filter requests.Filter) ([]requests.Request, int, error)

func (h *Handler) list(w http.ResponseWriter, r *http.Request, fn lister) {
	reqID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	filter := parseFilter(r, v)
	if v.Reject(w, reqID) {
		return
	}
	items, total, err := fn(r.Context(), middleware.Principal(r.Context()), filter)
	if err != nil {
		shared.FailError(w, err, "requests_list_failed", reqID)
		return
	}
	api.SuccessList(w, items, api.ListMeta{Total: total, Limit: filter.Limit, Offset: filter.Offset}, reqID)
}

type submitPayload struct {
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LeaveTypeID string `json:"leaveTypeId"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	p := middleware.Principal(r.Context())

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request payload too large", reqID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var payload submitPayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Enum("kind", payload.Kind, kinds, "must be one of general, leave")
	in := requests.Input{
		Kind:        strings.TrimSpace(payload.Kind),
		Name:        payload.Name,
		Description: payload.Description,
		LeaveTypeID: payload.LeaveTypeID,
	}
	if strings.TrimSpace(payload.StartDate) != "" {
		if start, ok := v.Date("startDate", payload.StartDate); ok {
			in.StartDate = &start
		}
	}
	if strings.TrimSpace(payload.EndDate) != "" {
		if end, ok := v.Date("endDate", payload.EndDate); ok {
			in.EndDate = &end
		}
	}
	if in.StartDate != nil && in.EndDate != nil {
		v.DateOrder("startDate", *in.StartDate, "endDate", *in.EndDate)
	}
	if v.Reject(w, reqID) {
		return
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	hash := middleware.RequestHash(raw)
	held := false
	if key != "" && h.Idempotency != nil {
		stored, reserved, err := h.Idempotency.Reserve(r.Context(), p.IdentityID, createEndpoint, key, hash)
		switch {
		case errors.Is(err, middleware.ErrIdempotencyConflict):
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different payload", reqID)
			return
		case errors.Is(err, middleware.ErrIdempotencyInProgress):
			api.Fail(w, http.StatusConflict, "idempotency_in_progress", "a request with this idempotency key is still being processed", reqID)
			return
		case err != nil:
			slog.Warn("idempotency reserve failed", "err", err)
		case !reserved:
			api.Created(w, stored, reqID)
			return
		default:
			held = true
		}
	}

	req, err := h.Service.Submit(r.Context(), p, in)
	if err != nil {
		if held {
			if err := h.Idempotency.Release(r.Context(), p.IdentityID, createEndpoint, key, hash); err != nil {
				slog.Warn("idempotency release failed", "err", err)
			}
		}
		shared.FailError(w, err, "request_submit_failed", reqID)
		return
	}
	h.Metrics.Inc("requests.submitted")
	h.record(r, "request.submit", "request", req.ID, nil, req)

	if held {
		encoded, err := json.Marshal(req)
		if err != nil {
			slog.Warn("idempotency response marshal failed", "err", err)
		} else if err := h.Idempotency.Save(r.Context(), p.IdentityID, createEndpoint, key, hash, encoded); err != nil {
			slog.Warn("idempotency save failed", "err", err)
		}
	}
	api.Created(w, req, reqID)
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
	req, err := h.Service.Review(r.Context(), middleware.Principal(r.Context()), chi.URLParam(r, "requestID"), strings.TrimSpace(payload.Action), payload.Comment)
	if err != nil {
		shared.FailError(w, err, "request_review_failed", reqID)
		return
	}
	h.Metrics.Inc("requests.review." + string(req.Status))
	h.record(r, "request.review", "request", req.ID, nil, req)
	api.Success(w, req, reqID)
}

func (h *Handler) handleListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	items, err := h.Service.ListLeaveTypes(r.Context(), middleware.Principal(r.Context()))
	if err != nil {
		shared.FailError(w, err, "leave_types_list_failed", reqID)
		return
	}
	api.Success(w, items, reqID)
}

type leaveTypePayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DefaultDays int    `json:"defaultDays"`
}

func (h *Handler) handleCreateLeaveType(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload leaveTypePayload
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if payload.DefaultDays < 0 {
		v.Add("defaultDays", "must not be negative")
	}
	if v.Reject(w, reqID) {
		return
	}
	lt, err := h.Service.CreateLeaveType(r.Context(), middleware.Principal(r.Context()), requests.LeaveTypeInput(payload))
	if err != nil {
		shared.FailError(w, err, "leave_type_create_failed", reqID)
		return
	}
	h.record(r, "leave_type.create", "leave_type", lt.ID, nil, lt)
	api.Created(w, lt, reqID)
}

func (h *Handler) handleDeleteLeaveType(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "leaveTypeID")
	if err := h.Service.DeleteLeaveType(r.Context(), middleware.Principal(r.Context()), id); err != nil {
		shared.FailError(w, err, "leave_type_delete_failed", reqID)
		return
	}
	h.record(r, "leave_type.delete", "leave_type", id, nil, nil)
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

