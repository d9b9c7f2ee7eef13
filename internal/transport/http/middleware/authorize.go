package middleware

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/domain/apperr"
	"peopleops/internal/domain/auth"
	"peopleops/internal/transport/http/api"
)

// OwnerFunc extracts the identity that owns the addressed resource.
type OwnerFunc func(r *http.Request) string

// RequireAuth rejects anonymous requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetPrincipal(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireOperation evaluates the policy table for op before the handler
// runs. owner may be nil for operations without a self rule.
func RequireOperation(op auth.Operation, owner OwnerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerID := ""
			if owner != nil {
				ownerID = owner(r)
			}
			if err := auth.Authorize(Principal(r.Context()), op, ownerID); err != nil {
				status, code := http.StatusForbidden, "forbidden"
				if errors.Is(err, apperr.ErrUnauthenticated) {
					status, code = http.StatusUnauthorized, "unauthorized"
				}
				api.Fail(w, status, code, apperr.Message(err), GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OwnerParam reads the owning identity id from a chi URL parameter.
func OwnerParam(name string) OwnerFunc {
	return func(r *http.Request) string {
		return chi.URLParam(r, name)
	}
}
