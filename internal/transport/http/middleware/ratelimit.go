package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"peopleops/internal/platform/metrics"
	"peopleops/internal/transport/http/api"
	"peopleops/internal/transport/http/shared"
)

// RateLimitKeyFunc names the bucket a request is counted against.
type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*windowLimiter)

func WithCollector(c *metrics.Collector) RateLimitOption {
	return func(l *windowLimiter) { l.metrics = c }
}

// sweepThreshold is the table size above which expired windows are dropped.
const sweepThreshold = 1024

type window struct {
	used  int
	until time.Time
}

type verdict struct {
	allowed   bool
	remaining int
	resetIn   time.Duration
}

// windowLimiter is a fixed-window counter per key.
type windowLimiter struct {
	limit   int
	period  time.Duration
	key     RateLimitKeyFunc
	metrics *metrics.Collector
	now     func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

func newWindowLimiter(limit int, period time.Duration, key RateLimitKeyFunc, opts []RateLimitOption) *windowLimiter {
	l := &windowLimiter{
		limit:   limit,
		period:  period,
		key:     key,
		now:     time.Now,
		windows: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *windowLimiter) take(key string) verdict {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	win := l.windows[key]
	if win == nil || !now.Before(win.until) {
		if len(l.windows) >= sweepThreshold {
			for k, w := range l.windows {
				if !now.Before(w.until) {
					delete(l.windows, k)
				}
			}
		}
		win = &window{until: now.Add(l.period)}
		l.windows[key] = win
	}
	win.used++
	return verdict{
		allowed:   win.used <= l.limit,
		remaining: max(l.limit-win.used, 0),
		resetIn:   win.until.Sub(now),
	}
}

// admit counts r and, when the budget is spent, writes a 429 envelope. It
// reports whether the request may continue.
func (l *windowLimiter) admit(w http.ResponseWriter, r *http.Request) bool {
	if l.limit <= 0 {
		return true
	}
	key := l.key(r)
	if key == "" {
		key = shared.ClientIP(r)
	}
	v := l.take(key)

	resetSec := ceilSeconds(v.resetIn)
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(resetSec))
	if v.allowed {
		return true
	}

	h.Set("Retry-After", strconv.Itoa(max(resetSec, 1)))
	slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", l.limit)
	l.metrics.Inc("rate_limit.rejected")
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// RateLimit allows limit requests per period for each caller: the identity
// when authenticated, otherwise the client IP.
func RateLimit(limit int, period time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	l := newWindowLimiter(limit, period, callerKey, opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.admit(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

type routeClass int

const (
	classOpen routeClass = iota
	classCredential
	classDecision
)

// credentialPaths are the endpoints that accept passwords, refresh tokens or
// one-time codes.
var credentialPaths = map[string]bool{
	"/auth/login":       true,
	"/auth/refresh":     true,
	"/auth/mfa/setup":   true,
	"/auth/mfa/enable":  true,
	"/auth/mfa/disable": true,
}

func classify(r *http.Request) routeClass {
	if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
		return classOpen
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	if credentialPaths[path] {
		return classCredential
	}
	if (strings.HasPrefix(path, "/requests/") || strings.HasPrefix(path, "/tasks/")) && strings.HasSuffix(path, "/review") {
		return classDecision
	}
	return classOpen
}

// SensitiveRateLimit adds tighter budgets on top of RateLimit. Credential
// endpoints get a quarter of baseLimit per IP and per submitted username;
// review decisions get half of it per caller. Everything else passes.
func SensitiveRateLimit(baseLimit int, period time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	credentialLimit := max(baseLimit/4, 1)
	perIP := newWindowLimiter(credentialLimit, period, shared.ClientIP, opts)
	perUsername := newWindowLimiter(credentialLimit, period, JSONFieldOrIPKey("username"), opts)
	perCaller := newWindowLimiter(max(baseLimit/2, 1), period, callerKey, opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch classify(r) {
			case classCredential:
				if !perIP.admit(w, r) || !perUsername.admit(w, r) {
					return
				}
			case classDecision:
				if !perCaller.admit(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if p, ok := GetPrincipal(r.Context()); ok {
		return "identity:" + p.IdentityID
	}
	return shared.ClientIP(r)
}

// maxPeekBytes bounds how much of a body JSONFieldOrIPKey will buffer.
const maxPeekBytes = 64 << 10

// JSONFieldOrIPKey keys on a top-level string field of a JSON body, case
// folded, and falls back to the client IP. The body is restored afterwards.
func JSONFieldOrIPKey(field string) RateLimitKeyFunc {
	return func(r *http.Request) string {
		if value := peekJSONString(r, field); value != "" {
			return field + ":" + strings.ToLower(value)
		}
		return shared.ClientIP(r)
	}
}

func peekJSONString(r *http.Request, field string) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	r.Body = peekedBody{Reader: io.MultiReader(bytes.NewReader(raw), r.Body), Closer: r.Body}
	if err != nil || len(raw) == 0 {
		return ""
	}
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return ""
	}
	var value string
	if json.Unmarshal(fields[field], &value) != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

type peekedBody struct {
	io.Reader
	io.Closer
}
