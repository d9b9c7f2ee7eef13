package auth

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type fakeSession struct {
	identityID string
	expires    time.Time
	revoked    bool
}

type fakeStore struct {
	mu         sync.Mutex
	seq        int
	identities map[string]Identity
	sessions   map[string]*fakeSession
	lastLogin  map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		identities: map[string]Identity{},
		sessions:   map[string]*fakeSession{},
		lastLogin:  map[string]int{},
	}
}

func (f *fakeStore) FindByUsername(_ context.Context, username string) (Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ident := range f.identities {
		if ident.Username == username {
			return ident, nil
		}
	}
	return Identity{}, ErrIdentityNotFound
}

func (f *fakeStore) GetIdentity(_ context.Context, id string) (Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ident, ok := f.identities[id]
	if !ok {
		return Identity{}, ErrIdentityNotFound
	}
	return ident, nil
}

func (f *fakeStore) ListIdentities(_ context.Context, limit, offset int) ([]Identity, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Identity, 0, len(f.identities))
	for _, ident := range f.identities {
		out = append(out, ident)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	total := len(out)
	if offset > total {
		offset = total
	}
	end := min(offset+limit, total)
	return out[offset:end], total, nil
}

func (f *fakeStore) CreateIdentity(_ context.Context, ident Identity) (Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.identities {
		if existing.Username == ident.Username {
			return Identity{}, ErrUsernameTaken
		}
	}
	f.seq++
	ident.ID = fmt.Sprintf("id-%d", f.seq)
	ident.CreatedAt = time.Now()
	ident.UpdatedAt = ident.CreatedAt
	f.identities[ident.ID] = ident
	return ident, nil
}

func (f *fakeStore) MutateIdentity(_ context.Context, id string, fn func(*Identity) error) (Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ident, ok := f.identities[id]
	if !ok {
		return Identity{}, ErrIdentityNotFound
	}
	if err := fn(&ident); err != nil {
		return Identity{}, err
	}
	for other, existing := range f.identities {
		if other != id && existing.Username == ident.Username {
			return Identity{}, ErrUsernameTaken
		}
	}
	ident.UpdatedAt = time.Now()
	f.identities[id] = ident
	return ident, nil
}

func (f *fakeStore) DeleteIdentity(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.identities[id]; !ok {
		return ErrIdentityNotFound
	}
	delete(f.identities, id)
	return nil
}

func (f *fakeStore) UpdateLastLogin(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLogin[id]++
	return nil
}

func (f *fakeStore) CreateSession(_ context.Context, identityID, hash string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[hash] = &fakeSession{identityID: identityID, expires: expires}
	return nil
}

func (f *fakeStore) RotateSession(_ context.Context, identityID, oldHash, newHash string, expires time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[oldHash]
	if !ok || s.identityID != identityID || s.revoked || !s.expires.After(time.Now()) {
		return false, nil
	}
	delete(f.sessions, oldHash)
	f.sessions[newHash] = &fakeSession{identityID: identityID, expires: expires}
	return true, nil
}

func (f *fakeStore) RevokeSession(_ context.Context, identityID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[hash]; ok && s.identityID == identityID {
		s.revoked = true
	}
	return nil
}

func (f *fakeStore) UpdateMFASecret(_ context.Context, identityID string, secretEnc []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ident := f.identities[identityID]
	if ident.MFAEnabled {
		return ErrMFAAlreadyEnabled
	}
	ident.MFASecretEnc = secretEnc
	f.identities[identityID] = ident
	return nil
}

func (f *fakeStore) SetMFAEnabled(_ context.Context, identityID string, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ident := f.identities[identityID]
	ident.MFAEnabled = enabled
	f.identities[identityID] = ident
	return nil
}
