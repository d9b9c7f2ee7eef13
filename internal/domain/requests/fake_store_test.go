package requests

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type fakeStore struct {
	mu         sync.Mutex
	seq        int
	employees  map[string]string
	requests   map[string]Request
	leaveTypes map[string]LeaveType
}

func newFakeStore(employees map[string]string) *fakeStore {
	return &fakeStore{employees: employees, requests: map[string]Request{}, leaveTypes: map[string]LeaveType{}}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%03d", prefix, f.seq)
}

func (f *fakeStore) EmployeeByIdentity(_ context.Context, identityID string) (string, error) {
	id, ok := f.employees[identityID]
	if !ok {
		return "", ErrProfileNotFound
	}
	return id, nil
}

func (f *fakeStore) List(_ context.Context, filter Filter) ([]Request, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Request{}
	for _, req := range f.requests {
		if filter.SubmittedBy != "" && req.SubmittedBy != filter.SubmittedBy {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.Kind != "" && req.Kind != filter.Kind {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (f *fakeStore) Get(_ context.Context, id string) (Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return Request{}, ErrRequestNotFound
	}
	return req, nil
}

func (f *fakeStore) Create(_ context.Context, req Request) (Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req.ID = f.nextID("req")
	req.SubmittedAt = time.Now()
	f.requests[req.ID] = req
	return req, nil
}

func (f *fakeStore) Mutate(_ context.Context, id string, fn func(*Request) error) (Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return Request{}, ErrRequestNotFound
	}
	if err := fn(&req); err != nil {
		return Request{}, err
	}
	f.requests[id] = req
	return req, nil
}

func (f *fakeStore) ListLeaveTypes(_ context.Context) ([]LeaveType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []LeaveType{}
	for _, lt := range f.leaveTypes {
		out = append(out, lt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetLeaveType(_ context.Context, id string) (LeaveType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lt, ok := f.leaveTypes[id]
	if !ok {
		return LeaveType{}, ErrLeaveTypeNotFound
	}
	return lt, nil
}

func (f *fakeStore) CreateLeaveType(_ context.Context, lt LeaveType) (LeaveType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.leaveTypes {
		if existing.Name == lt.Name {
			return LeaveType{}, ErrLeaveTypeExists
		}
	}
	lt.ID = f.nextID("lt")
	f.leaveTypes[lt.ID] = lt
	return lt, nil
}

func (f *fakeStore) DeleteLeaveType(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.leaveTypes[id]; !ok {
		return ErrLeaveTypeNotFound
	}
	delete(f.leaveTypes, id)
	return nil
}
