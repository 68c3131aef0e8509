package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store for tests and development. It enforces
// the same uniqueness invariants as the Postgres store: one profile per
// (user, provider) and one (provider, key) across all users.
type Memory struct {
	mu    sync.RWMutex
	users map[string]*User
	order []string
}

func NewMemory() *Memory {
	return &Memory{users: make(map[string]*User)}
}

func (m *Memory) FindUserByProfileKey(ctx context.Context, provider, key string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		u := m.users[id]
		for _, p := range u.Profiles {
			if p.Provider == provider && p.Key == key {
				return cloneUser(u), nil
			}
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindUserByID(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) CreateUser(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if _, exists := m.users[u.ID]; exists {
		return fmt.Errorf("store: user %s already exists", u.ID)
	}

	m.users[u.ID] = cloneUser(u)
	m.order = append(m.order, u.ID)
	return nil
}

func (m *Memory) AppendProfile(ctx context.Context, p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[p.UserID]
	if !ok {
		return ErrNotFound
	}

	for _, id := range m.order {
		for _, existing := range m.users[id].Profiles {
			if existing.Provider == p.Provider && existing.Key == p.Key {
				return fmt.Errorf("store: profile %s#%s already exists", p.Provider, p.Key)
			}
		}
	}
	for _, existing := range u.Profiles {
		if existing.Provider == p.Provider {
			return fmt.Errorf("store: user %s already has a %s profile", p.UserID, p.Provider)
		}
	}

	u.Profiles = append(u.Profiles, cloneProfile(p))
	return nil
}

func (m *Memory) UpdateProfile(ctx context.Context, p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[p.UserID]
	if !ok {
		return ErrNotFound
	}

	for i := range u.Profiles {
		if u.Profiles[i].Provider == p.Provider {
			u.Profiles[i] = cloneProfile(p)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) UpdateUser(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}

	existing.Name = u.Name
	existing.Image = u.Image
	return nil
}

func cloneUser(u *User) *User {
	cp := &User{
		ID:    u.ID,
		Name:  u.Name,
		Image: u.Image,
	}
	for _, p := range u.Profiles {
		cp.Profiles = append(cp.Profiles, cloneProfile(p))
	}
	return cp
}

func cloneProfile(p Profile) Profile {
	cp := p
	if p.Data != nil {
		cp.Data = make(map[string]any, len(p.Data))
		for k, v := range p.Data {
			cp.Data[k] = v
		}
	}
	return cp
}
