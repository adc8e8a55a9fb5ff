package role

import (
	"context"
	"sync"
)

// MemoryRepository keeps roles in process memory. Used by tests and by
// embedders that load role definitions from static configuration.
type MemoryRepository struct {
	mu    sync.RWMutex
	roles map[string]Role
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{roles: make(map[string]Role)}
}

// Get fetches a role by id.
func (m *MemoryRepository) Get(ctx context.Context, id string) (Role, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.roles[id]
	return r, ok, nil
}

// GetByLevel returns the first role holding the given level.
func (m *MemoryRepository) GetByLevel(ctx context.Context, level int) (Role, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.roles {
		if r.Level == level {
			return r, true, nil
		}
	}
	return Role{}, false, nil
}

// List returns all roles.
func (m *MemoryRepository) List(ctx context.Context) ([]Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	return out, nil
}

// Save upserts a role.
func (m *MemoryRepository) Save(ctx context.Context, r Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[r.ID] = r
	return nil
}

// Delete removes a role by id.
func (m *MemoryRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[id]; !ok {
		return ErrNotFound
	}
	delete(m.roles, id)
	return nil
}
