package identityhandler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/domain/audit"
	"peopleops/internal/domain/auth"
	"peopleops/internal/transport/http/api"
	"peopleops/internal/transport/http/middleware"
	"peopleops/internal/transport/http/shared"
)

type Accounts interface {
	ListAccounts(ctx context.Context, limit, offset int) ([]auth.Identity, int, error)
	GetAccount(ctx context.Context, id string) (auth.Identity, error)
	CreateAccount(ctx context.Context, in auth.NewAccount) (auth.Identity, error)
	UpdateAccount(ctx context.Context, id string, upd auth.AccountUpdate) (auth.Identity, error)
	DeleteAccount(ctx context.Context, id string) error
}

type Handler struct {
	Service Accounts
	Audit   audit.Recorder
}

func NewHandler(service Accounts, auditSvc audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	self := middleware.OwnerParam("identityID")
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequireOperation(auth.OpListIdentities, nil)).Get("/", h.handleList)
		r.With(middleware.RequireOperation(auth.OpCreateIdentity, nil)).Post("/", h.handleCreate)
		r.With(middleware.RequireOperation(auth.OpGetIdentity, self)).Get("/{identityID}", h.handleGet)
		r.With(middleware.RequireOperation(auth.OpUpdateIdentity, self)).Put("/{identityID}", h.handleUpdate)
		r.With(middleware.RequireOperation(auth.OpDeleteIdentity, nil)).Delete("/{identityID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	items, total, err := h.Service.ListAccounts(r.Context(), page.Limit, page.Offset)
	if err != nil {
		shared.FailError(w, err, "users_list_failed", reqID)
		return
	}
	api.SuccessList(w, items, page.Meta(total), reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload auth.NewAccount
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Required("username", payload.Username, "is required")
	v.Required("password", payload.Password, "is required")
	v.Enum("role", payload.Role, auth.Roles, "must be one of admin, manager, employee")
	if v.Reject(w, reqID) {
		return
	}

	ident, err := h.Service.CreateAccount(r.Context(), payload)
	if err != nil {
		shared.FailError(w, err, "user_create_failed", reqID)
		return
	}
	h.record(r, "identity.create", ident.ID, nil, ident)
	api.Created(w, ident, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	ident, err := h.Service.GetAccount(r.Context(), chi.URLParam(r, "identityID"))
	if err != nil {
		shared.FailError(w, err, "user_get_failed", reqID)
		return
	}
	api.Success(w, ident, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "identityID")
	var payload auth.AccountUpdate
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	// Self-service updates may not touch the role.
	p := middleware.Principal(r.Context())
	if payload.Role != nil && !p.Can(auth.CapIdentitiesWrite) {
		api.Fail(w, http.StatusForbidden, "forbidden", "only admins can change roles", reqID)
		return
	}

	before, err := h.Service.GetAccount(r.Context(), id)
	if err != nil {
		shared.FailError(w, err, "user_update_failed", reqID)
		return
	}
	ident, err := h.Service.UpdateAccount(r.Context(), id, payload)
	if err != nil {
		shared.FailError(w, err, "user_update_failed", reqID)
		return
	}
	h.record(r, "identity.update", id, before, ident)
	api.Success(w, ident, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "identityID")
	if id == middleware.Principal(r.Context()).IdentityID {
		api.Fail(w, http.StatusBadRequest, "invalid_action", "you cannot delete your own account", reqID)
		return
	}
	if err := h.Service.DeleteAccount(r.Context(), id); err != nil {
		shared.FailError(w, err, "user_delete_failed", reqID)
		return
	}
	h.record(r, "identity.delete", id, nil, nil)
	api.NoContent(w)
}

func (h *Handler) record(r *http.Request, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	actor := middleware.Principal(r.Context()).IdentityID
	if err := h.Audit.Record(r.Context(), actor, action, "identity", entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}
