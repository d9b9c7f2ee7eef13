package middleware

import (
	"context"
	"net/http"
	"strings"

	"peopleops/internal/domain/auth"
	"peopleops/internal/platform/requestctx"
)

type ctxKey string

const ctxKeyPrincipal ctxKey = "principal"

// TokenVerifier turns a bearer access token into a principal.
type TokenVerifier interface {
	VerifyAccess(token string) (auth.Principal, error)
}

// Auth resolves the caller's principal once per request. Requests without a
// valid bearer token pass through anonymous; guards decide whether that is
// acceptable.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			principal, err := verifier.VerifyAccess(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			requestctx.SetActor(r.Context(), principal.IdentityID)
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

func GetPrincipal(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(auth.Principal)
	return p, ok && p.Authenticated()
}

// Principal returns the caller or the zero (anonymous) principal.
func Principal(ctx context.Context) auth.Principal {
	p, _ := GetPrincipal(ctx)
	return p
}
