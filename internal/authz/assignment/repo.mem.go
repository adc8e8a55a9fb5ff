package assignment

import (
	"context"
	"sync"
)

// MemoryRepository keeps assignments in process memory for tests and
// embedded use.
type MemoryRepository struct {
	mu          sync.RWMutex
	assignments map[string]Assignment
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{assignments: make(map[string]Assignment)}
}

// Get fetches the assignment for an actor.
func (m *MemoryRepository) Get(ctx context.Context, actorID string) (Assignment, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assignments[actorID]
	return a, ok, nil
}

// Save replaces the actor's assignment record.
func (m *MemoryRepository) Save(ctx context.Context, a Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.ActorID] = a
	return nil
}

// Delete removes the actor's assignment.
func (m *MemoryRepository) Delete(ctx context.Context, actorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[actorID]; !ok {
		return ErrNotFound
	}
	delete(m.assignments, actorID)
	return nil
}

// ListByRole returns every assignment referencing the role.
func (m *MemoryRepository) ListByRole(ctx context.Context, roleID string) ([]Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Assignment
	for _, a := range m.assignments {
		if a.RoleID == roleID {
			out = append(out, a)
		}
	}
	return out, nil
}

// CountByRole returns how many assignments reference the role.
func (m *MemoryRepository) CountByRole(ctx context.Context, roleID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, a := range m.assignments {
		if a.RoleID == roleID {
			count++
		}
	}
	return count, nil
}

// ReassignRole moves every assignment from one role to another,
// clearing snapshots so the reconciler recomputes them.
func (m *MemoryRepository) ReassignRole(ctx context.Context, fromRoleID, toRoleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.assignments {
		if a.RoleID == fromRoleID {
			a.RoleID = toRoleID
			a.PermissionSnapshot = nil
			m.assignments[id] = a
		}
	}
	return nil
}
