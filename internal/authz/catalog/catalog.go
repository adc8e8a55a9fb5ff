// Package catalog holds the runtime vocabulary of permission identifiers.
// The catalog is loaded once at startup and treated as immutable by every
// decision path; only administrative tooling reloads it.
package catalog

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateID indicates a permission id registered twice.
var ErrDuplicateID = errors.New("catalog: duplicate permission id")

// Permission describes an atomic capability. Name, Description and
// Category are display metadata and never participate in decisions.
type Permission struct {
	ID          ID
	Name        string
	Description string
	Category    string
}

// Catalog is the validated permission vocabulary.
type Catalog struct {
	mu    sync.RWMutex
	perms map[ID]Permission
	order []ID
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{perms: make(map[ID]Permission)}
}

// Load builds a catalog from definitions, rejecting the whole batch on
// the first malformed or duplicate id.
func Load(defs []Permission) (*Catalog, error) {
	c := New()
	for _, def := range defs {
		if err := c.Register(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds a permission. The id must already be in canonical form;
// malformed or duplicate ids are rejected.
func (c *Catalog) Register(p Permission) error {
	id, err := ParseID(string(p.ID))
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.perms[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	p.ID = id
	c.perms[id] = p
	c.order = append(c.order, id)
	return nil
}

// Exists reports whether id is a registered permission.
func (c *Catalog) Exists(id ID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.perms[id]
	return ok
}

// List returns all permissions in registration order.
func (c *Catalog) List() []Permission {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Permission, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.perms[id])
	}
	return out
}

// AllIDs returns the full permission id set. The super role resolves to
// this set directly, bypassing any stored role data.
func (c *Catalog) AllIDs() Set {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := make(Set, len(c.perms))
	for id := range c.perms {
		s[id] = struct{}{}
	}
	return s
}
