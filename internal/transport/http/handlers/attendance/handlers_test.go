package attendancehandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peopleops/internal/domain/attendance"
	"peopleops/internal/domain/auth"
	"peopleops/internal/platform/metrics"
	"peopleops/internal/transport/http/middleware"
)

type stubLedger struct {
	marked  []string
	window  attendance.Range
	records []attendance.Record
	err     error
}

func (s *stubLedger) Mark(_ context.Context, _ auth.Principal, employeeID string, action string) (attendance.Record, error) {
	if s.err != nil {
		return attendance.Record{}, s.err
	}
	if _, err := attendance.ParseAction(action); err != nil {
		return attendance.Record{}, err
	}
	s.marked = append(s.marked, employeeID+":"+action)
	return attendance.Record{ID: "rec-1", EmployeeID: employeeID}, nil
}

func (s *stubLedger) Monthly(_ context.Context, _ auth.Principal, employeeID string) (attendance.EmployeeRef, []attendance.DaySummary, error) {
	if s.err != nil {
		return attendance.EmployeeRef{}, nil, s.err
	}
	in := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	return attendance.EmployeeRef{ID: employeeID, Name: "Ada Lovelace"},
		[]attendance.DaySummary{{Date: "2024-05-20", ClockIn: &in, WasPresent: true}}, nil
}

func (s *stubLedger) MyRecent(_ context.Context, _ auth.Principal) ([]attendance.Record, error) {
	return s.records, s.err
}

func (s *stubLedger) Department(_ context.Context, _ auth.Principal, window attendance.Range) (attendance.EmployeeRef, []attendance.Record, error) {
	s.window = window
	return attendance.EmployeeRef{}, s.records, s.err
}

func newRouter(svc *stubLedger, collector *metrics.Collector, p *auth.Principal) http.Handler {
	r := chi.NewRouter()
	if p != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithPrincipal(req.Context(), *p)))
			})
		})
	}
	NewHandler(svc, collector, time.UTC).RegisterRoutes(r)
	return r
}

func do(h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

var eve = auth.NewPrincipal("id-eve", "eve", auth.RoleEmployee)

func TestAttendanceNeedsAuth(t *testing.T) {
	rec := do(newRouter(&stubLedger{}, nil, nil), http.MethodGet, "/attendance/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMark(t *testing.T) {
	svc := &stubLedger{}
	collector := metrics.New()
	router := newRouter(svc, collector, &eve)

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{name: "clock in", body: map[string]string{"employeeId": "emp-1", "action": "clock_in"}, status: http.StatusOK},
		{name: "missing employee", body: map[string]string{"action": "clock_in"}, status: http.StatusBadRequest},
		{name: "unknown action", body: map[string]string{"employeeId": "emp-1", "action": "lunch"}, status: http.StatusBadRequest},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := do(router, http.MethodPost, "/attendance/mark", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
	assert.Equal(t, []string{"emp-1:clock_in"}, svc.marked)
	events := collector.Snapshot()["events"].(map[string]uint64)
	assert.EqualValues(t, 1, events["attendance.clock_in"])
}

func TestMarkForbidden(t *testing.T) {
	svc := &stubLedger{err: auth.ErrForbidden}
	rec := do(newRouter(svc, nil, &eve), http.MethodPost, "/attendance/mark", map[string]string{"employeeId": "emp-2", "action": "clock_out"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMonthly(t *testing.T) {
	rec := do(newRouter(&stubLedger{}, nil, &eve), http.MethodGet, "/attendance/employees/emp-1/monthly", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data monthlyView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, employeeView{ID: "emp-1", Name: "Ada Lovelace"}, env.Data.Employee)
	require.Len(t, env.Data.Days, 1)
	assert.True(t, env.Data.Days[0].WasPresent)
}

func TestMonthlyPDF(t *testing.T) {
	rec := do(newRouter(&stubLedger{}, metrics.New(), &eve), http.MethodGet, "/attendance/employees/emp-1/monthly.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance-emp-1.pdf")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestMonthlyPDFNotFound(t *testing.T) {
	svc := &stubLedger{err: attendance.ErrEmployeeNotFound}
	rec := do(newRouter(svc, nil, &eve), http.MethodGet, "/attendance/employees/missing/monthly.pdf", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestDepartmentWindow(t *testing.T) {
	svc := &stubLedger{records: []attendance.Record{}}
	router := newRouter(svc, nil, &eve)

	rec := do(router, http.MethodGet, "/attendance/department?from=2024-05-01&to=2024-05-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), svc.window.From)
	assert.Equal(t, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), svc.window.To)

	rec = do(router, http.MethodGet, "/attendance/department?from=2024-06-01&to=2024-05-31", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/attendance/department?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDepartmentMissingProfile(t *testing.T) {
	svc := &stubLedger{err: attendance.ErrManagerProfileNotFound}
	rec := do(newRouter(svc, nil, &eve), http.MethodGet, "/attendance/department", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "manager_profile_not_found")
}

func TestDepartmentExport(t *testing.T) {
	in := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	svc := &stubLedger{records: []attendance.Record{{ID: "r1", EmployeeID: "emp-1", EmployeeName: "Ada", Date: in, ClockIn: &in}}}
	rec := do(newRouter(svc, metrics.New(), &eve), http.MethodGet, "/attendance/department/export.xlsx", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	// xlsx files are zip archives
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}
