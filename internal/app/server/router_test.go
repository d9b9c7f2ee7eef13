package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peopleops/internal/domain/auth"
	"peopleops/internal/platform/config"
	"peopleops/internal/platform/metrics"
)

type stubVerifier map[string]auth.Principal

func (s stubVerifier) VerifyAccess(token string) (auth.Principal, error) {
	p, ok := s[token]
	if !ok {
		return auth.Principal{}, auth.ErrInvalidToken
	}
	return p, nil
}

type pingRoutes struct{}

func (pingRoutes) RegisterRoutes(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
}

func testRouter(ping func(context.Context) error) http.Handler {
	return NewRouter(Deps{
		Config: config.Config{
			Environment:        "test",
			MaxBodyBytes:       1 << 20,
			RateLimitPerMinute: 1000,
			MetricsEnabled:     true,
		},
		Metrics: metrics.New(),
		Verifier: stubVerifier{
			"admin-token": auth.NewPrincipal("id-admin", "root", auth.RoleAdmin),
			"eve-token":   auth.NewPrincipal("id-eve", "eve", auth.RoleEmployee),
		},
		Ping:     ping,
		Handlers: []RouteRegistrar{pingRoutes{}},
	})
}

func serve(h http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProbes(t *testing.T) {
	healthy := testRouter(func(context.Context) error { return nil })
	rec := serve(healthy, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, http.StatusOK, serve(healthy, "/readyz", "").Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	down := testRouter(func(context.Context) error { return errors.New("connection refused") })
	assert.Equal(t, http.StatusServiceUnavailable, serve(down, "/readyz", "").Code)
}

func TestMetricsRequiresAdmin(t *testing.T) {
	router := testRouter(nil)
	tests := []struct {
		name   string
		token  string
		status int
	}{
		{name: "anonymous", status: http.StatusUnauthorized},
		{name: "employee", token: "eve-token", status: http.StatusForbidden},
		{name: "admin", token: "admin-token", status: http.StatusOK},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, serve(router, "/metrics", tc.token).Code)
		})
	}
}

func TestAPIRoutesMounted(t *testing.T) {
	router := testRouter(nil)
	rec := serve(router, "/api/v1/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())

	rec = serve(router, "/api/v1/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "not_found", body.Error.Code)
}
