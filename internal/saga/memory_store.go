package saga

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store with the same optimistic semantics
// as the MySQL store.  It backs the saga tests.
type MemoryStore struct {
	mu        sync.Mutex
	instances map[string]Instance
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{instances: make(map[string]Instance)}
}

// Find returns a copy of the stored process.
func (m *MemoryStore) Find(ctx context.Context, orderID string) (*Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	out := inst
	if inst.ExpiresAt != nil {
		t := *inst.ExpiresAt
		out.ExpiresAt = &t
	}
	return &out, nil
}

// Insert stores a new process at version 1.
func (m *MemoryStore) Insert(ctx context.Context, inst *Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.instances[inst.OrderID]; ok {
		return ErrAlreadyExists
	}
	inst.Version = 1
	m.instances[inst.OrderID] = *inst
	return nil
}

// Update stores the instance under the optimistic version check.
func (m *MemoryStore) Update(ctx context.Context, inst *Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.instances[inst.OrderID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != inst.Version {
		return ErrConcurrencyConflict
	}
	inst.Version++
	m.instances[inst.OrderID] = *inst
	return nil
}

// DueForExpiration scans for incomplete processes whose timer has fired.
func (m *MemoryStore) DueForExpiration(ctx context.Context, now time.Time, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, inst := range m.instances {
		if inst.Completed || inst.ExpiresAt == nil {
			continue
		}
		if !inst.ExpiresAt.After(now) {
			ids = append(ids, id)
			if len(ids) == limit {
				break
			}
		}
	}
	return ids, nil
}
