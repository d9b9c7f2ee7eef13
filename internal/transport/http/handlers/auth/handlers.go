package authhandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/domain/audit"
	"peopleops/internal/domain/auth"
	"peopleops/internal/transport/http/api"
	"peopleops/internal/transport/http/middleware"
	"peopleops/internal/transport/http/shared"
)

// Sessions is the slice of the identity service the session endpoints use.
type Sessions interface {
	Login(ctx context.Context, username, password, mfaCode string) (auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (auth.Session, error)
	Logout(ctx context.Context, refreshToken string) error
	GetAccount(ctx context.Context, id string) (auth.Identity, error)
	SetupMFA(ctx context.Context, identityID string) (auth.MFASetup, error)
	EnableMFA(ctx context.Context, identityID, code string) error
	DisableMFA(ctx context.Context, identityID, code string) error
}

type Handler struct {
	Service Sessions
	Audit   audit.Recorder
}

func NewHandler(service Sessions, auditSvc audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/refresh", h.handleRefresh)
	r.Post("/auth/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOperation(auth.OpManageOwnSession, nil))
		r.Get("/me", h.handleMe)
		r.Post("/auth/mfa/setup", h.handleMFASetup)
		r.Post("/auth/mfa/enable", h.handleMFAEnable)
		r.Post("/auth/mfa/disable", h.handleMFADisable)
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Required("username", payload.Username, "is required")
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, reqID) {
		return
	}

	session, err := h.Service.Login(r.Context(), strings.TrimSpace(payload.Username), payload.Password, strings.TrimSpace(payload.MFACode))
	if err != nil {
		shared.FailError(w, err, "login_failed", reqID)
		return
	}
	h.record(r, session.User.ID, "auth.login", "identity", session.User.ID)
	api.Success(w, session, reqID)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload refreshRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	if strings.TrimSpace(payload.Refresh) == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "refresh token required", reqID)
		return
	}
	session, err := h.Service.Refresh(r.Context(), strings.TrimSpace(payload.Refresh))
	if err != nil {
		shared.FailError(w, err, "refresh_failed", reqID)
		return
	}
	api.Success(w, session, reqID)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload refreshRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	if err := h.Service.Logout(r.Context(), strings.TrimSpace(payload.Refresh)); err != nil {
		shared.FailError(w, err, "logout_failed", reqID)
		return
	}
	if p, ok := middleware.GetPrincipal(r.Context()); ok {
		h.record(r, p.IdentityID, "auth.logout", "identity", p.IdentityID)
	}
	api.Success(w, map[string]string{"status": "logged_out"}, reqID)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	p := middleware.Principal(r.Context())
	ident, err := h.Service.GetAccount(r.Context(), p.IdentityID)
	if err != nil {
		shared.FailError(w, err, "me_failed", reqID)
		return
	}
	api.Success(w, map[string]any{
		"identity":     ident,
		"capabilities": p.Capabilities.List(),
	}, reqID)
}

func (h *Handler) handleMFASetup(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	p := middleware.Principal(r.Context())
	setup, err := h.Service.SetupMFA(r.Context(), p.IdentityID)
	if err != nil {
		shared.FailError(w, err, "mfa_setup_failed", reqID)
		return
	}
	h.record(r, p.IdentityID, "auth.mfa.setup", "identity", p.IdentityID)
	api.Success(w, setup, reqID)
}

func (h *Handler) handleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.confirmMFA(w, r, "auth.mfa.enable", h.Service.EnableMFA)
}

func (h *Handler) handleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.confirmMFA(w, r, "auth.mfa.disable", h.Service.DisableMFA)
}

func (h *Handler) confirmMFA(w http.ResponseWriter, r *http.Request, action string, apply func(context.Context, string, string) error) {
	reqID := middleware.GetRequestID(r.Context())
	p := middleware.Principal(r.Context())
	var payload mfaCodeRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	if err := apply(r.Context(), p.IdentityID, strings.TrimSpace(payload.Code)); err != nil {
		shared.FailError(w, err, "mfa_failed", reqID)
		return
	}
	h.record(r, p.IdentityID, action, "identity", p.IdentityID)
	api.Success(w, map[string]bool{"mfaEnabled": action == "auth.mfa.enable"}, reqID)
}

func (h *Handler) record(r *http.Request, actorID, action, entityType, entityID string) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), actorID, action, entityType, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}
