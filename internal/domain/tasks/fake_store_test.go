package tasks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type fakeStore struct {
	mu           sync.Mutex
	seq          int
	participants map[string]Participant
	tasks        map[string]Task
	writes       int
}

func newFakeStore(participants ...Participant) *fakeStore {
	f := &fakeStore{participants: map[string]Participant{}, tasks: map[string]Task{}}
	for _, p := range participants {
		f.participants[p.IdentityID] = p
	}
	return f
}

func (f *fakeStore) ParticipantByIdentity(_ context.Context, identityID string) (Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.participants[identityID]
	if !ok {
		return Participant{}, ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeStore) EmployeeExists(_ context.Context, employeeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.participants {
		if p.EmployeeID == employeeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) List(_ context.Context, filter Filter) ([]Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Task{}
	for _, task := range f.tasks {
		if filter.ParticipantID != "" && task.AssignedTo != filter.ParticipantID && task.AssignedBy != filter.ParticipantID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		out = append(out, task)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return task, nil
}

func (f *fakeStore) Create(_ context.Context, task Task) (Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	task.ID = fmt.Sprintf("task-%03d", f.seq)
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	f.tasks[task.ID] = task
	f.writes++
	return task, nil
}

func (f *fakeStore) Mutate(_ context.Context, id string, fn func(*Task) error) (Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	if err := fn(&task); err != nil {
		return Task{}, err
	}
	task.UpdatedAt = time.Now()
	f.tasks[id] = task
	f.writes++
	return task, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(f.tasks, id)
	f.writes++
	return nil
}
