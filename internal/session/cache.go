package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when a session snapshot is missing from the
// cache, either because it was never serialized or because logout (or
// the cache's own expiry policy) removed it.
var ErrNotFound = errors.New("session: not found")

// Cache is the key/value collaborator holding serialized user
// snapshots. Expiry is the cache's own concern; this subsystem only
// sets, gets and deletes.
type Cache interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}

// MemoryCache is an in-process Cache for tests and for embedding
// applications that run without Redis.
type MemoryCache struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{values: make(map[string]string)}
}

func (m *MemoryCache) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *MemoryCache) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
