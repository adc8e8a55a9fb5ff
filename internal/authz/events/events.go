// Package events carries role-change notifications from the role store
// to cache invalidation and snapshot reconciliation.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RoleChanged signals that a role's permissions or level changed.
type RoleChanged struct {
	ID     string    `json:"id"`
	RoleID string    `json:"role_id"`
	At     time.Time `json:"at"`
}

// NewRoleChanged stamps a fresh event for the given role.
func NewRoleChanged(roleID string) RoleChanged {
	return RoleChanged{ID: uuid.NewString(), RoleID: roleID, At: time.Now().UTC()}
}

// Publisher delivers role-change events to interested subscribers.
type Publisher interface {
	PublishRoleChanged(ctx context.Context, ev RoleChanged) error
}

// Fanout publishes to every wrapped publisher, returning the first
// error after attempting all of them.
type Fanout []Publisher

// PublishRoleChanged implements Publisher.
func (f Fanout) PublishRoleChanged(ctx context.Context, ev RoleChanged) error {
	var firstErr error
	for _, p := range f {
		if err := p.PublishRoleChanged(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Bus is an in-process publisher for tests and embedded library use.
// Handlers run synchronously on the publishing goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers []func(context.Context, RoleChanged)
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for future events.
func (b *Bus) Subscribe(fn func(context.Context, RoleChanged)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, fn)
}

// PublishRoleChanged implements Publisher.
func (b *Bus) PublishRoleChanged(ctx context.Context, ev RoleChanged) error {
	b.mu.RLock()
	handlers := make([]func(context.Context, RoleChanged), len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn(ctx, ev)
	}
	return nil
}
