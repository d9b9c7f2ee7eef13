package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"peopleops/internal/platform/requestctx"
)

const maxRequestIDLength = 128

// RequestID reuses a caller supplied X-Request-ID when it is sane, otherwise
// it mints a new one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if reqID == "" || len(reqID) > maxRequestIDLength {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx, _ := requestctx.Begin(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
