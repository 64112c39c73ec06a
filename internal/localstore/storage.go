// Package localstore models the visitor's client-local durable storage: a
// small string key/value namespace that survives page navigation.
package localstore

import (
	"context"
	"sync"
)

// Well-known keys.
const (
	KeyCart        = "cart"
	KeyAdminMirror = "adminLoggedIn"
	KeyAuthToken   = "authToken"
)

// Storage is the key/value surface used by the cart, the session mirror
// flag and the auth provider's token.
type Storage interface {
	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Memory is an in-process Storage, used by tests and as the fallback when no
// Redis is configured.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string

	// Err, when set, is returned by every operation.
	Err error
}

// NewMemory creates an empty in-memory storage
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return "", false, m.Err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.values[key] = value
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.values, key)
	return nil
}

// Namespace hands out one Storage per visitor.
type Namespace interface {
	ForVisitor(visitorID string) Storage
}

// MemoryNamespace is a Namespace backed by Memory storages.
type MemoryNamespace struct {
	mu       sync.Mutex
	visitors map[string]*Memory
}

func NewMemoryNamespace() *MemoryNamespace {
	return &MemoryNamespace{visitors: make(map[string]*Memory)}
}

func (n *MemoryNamespace) ForVisitor(visitorID string) Storage {
	n.mu.Lock()
	defer n.mu.Unlock()
	m, ok := n.visitors[visitorID]
	if !ok {
		m = NewMemory()
		n.visitors[visitorID] = m
	}
	return m
}
