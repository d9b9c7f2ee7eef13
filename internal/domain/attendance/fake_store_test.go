package attendance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type fakeStore struct {
	mu        sync.Mutex
	seq       int
	employees map[string]EmployeeRef
	records   map[string]*Record
}

func newFakeStore(employees ...EmployeeRef) *fakeStore {
	f := &fakeStore{employees: map[string]EmployeeRef{}, records: map[string]*Record{}}
	for _, emp := range employees {
		f.employees[emp.ID] = emp
	}
	return f
}

func (f *fakeStore) Employee(_ context.Context, employeeID string) (EmployeeRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	emp, ok := f.employees[employeeID]
	if !ok {
		return EmployeeRef{}, ErrEmployeeNotFound
	}
	return emp, nil
}

func (f *fakeStore) EmployeeByIdentity(_ context.Context, identityID string) (EmployeeRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, emp := range f.employees {
		if emp.IdentityID == identityID {
			return emp, nil
		}
	}
	return EmployeeRef{}, ErrProfileNotFound
}

func (f *fakeStore) Mark(_ context.Context, employeeID string, day time.Time, action Action, at time.Time) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	emp, ok := f.employees[employeeID]
	if !ok {
		return Record{}, ErrEmployeeNotFound
	}
	key := employeeID + "|" + dayKey(day)
	rec, ok := f.records[key]
	if !ok {
		f.seq++
		rec = &Record{ID: fmt.Sprintf("rec-%d", f.seq), EmployeeID: employeeID, EmployeeName: emp.Name, Date: day}
		f.records[key] = rec
	}
	stamp := at
	switch action {
	case ActionClockIn:
		rec.ClockIn = &stamp
	case ActionClockOut:
		rec.ClockOut = &stamp
	default:
		return Record{}, ErrInvalidAction
	}
	return *rec, nil
}

func (f *fakeStore) filter(keep func(Record) bool) []Record {
	out := []Record{}
	for _, rec := range f.records {
		if keep(*rec) {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (f *fakeStore) ListRange(_ context.Context, employeeID string, from, to time.Time) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter(func(rec Record) bool {
		return rec.EmployeeID == employeeID && !rec.Date.Before(from) && !rec.Date.After(to)
	}), nil
}

func (f *fakeStore) ListRecent(_ context.Context, employeeID string, limit int) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.filter(func(rec Record) bool { return rec.EmployeeID == employeeID })
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ListByDepartment(_ context.Context, departmentID string, window Range) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter(func(rec Record) bool {
		if f.employees[rec.EmployeeID].DepartmentID != departmentID {
			return false
		}
		if !window.From.IsZero() && rec.Date.Before(window.From) {
			return false
		}
		return window.To.IsZero() || !rec.Date.After(window.To)
	}), nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}
