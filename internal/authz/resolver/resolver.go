// Package resolver computes effective permission sets from canonical
// role data and keeps per-actor snapshots converged with it.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-erp/authz/internal/authz/assignment"
	"github.com/meridian-erp/authz/internal/authz/catalog"
	"github.com/meridian-erp/authz/internal/authz/role"
)

// ErrActorNotFound indicates the actor cannot be resolved even after
// falling back to the default role. This is a misconfiguration that
// must surface to the caller rather than degrade to allow-all or
// deny-all.
var ErrActorNotFound = errors.New("resolver: actor not resolvable")

// Resolver derives the effective permission set for an actor from the
// role store. The actor's stored snapshot is never consulted here; the
// role store is the single source of truth.
type Resolver struct {
	roles         role.RepositoryPort
	assignments   assignment.RepositoryPort
	catalog       *catalog.Catalog
	defaultRoleID string
	group         singleflight.Group
	now           func() time.Time
}

// New constructs a Resolver. defaultRoleID names the least-privileged
// role substituted for absent or expired assignments.
func New(roles role.RepositoryPort, assignments assignment.RepositoryPort, cat *catalog.Catalog, defaultRoleID string) *Resolver {
	return &Resolver{
		roles:         roles,
		assignments:   assignments,
		catalog:       cat,
		defaultRoleID: defaultRoleID,
		now:           time.Now,
	}
}

// ActiveRole returns the role gating the actor right now. Absent and
// expired assignments fall back to the default role; an assignment
// referencing a deleted role gets one self-healing fallback to the
// default role before the hard error.
func (r *Resolver) ActiveRole(ctx context.Context, actorID string) (role.Role, error) {
	if actorID == "" {
		return role.Role{}, fmt.Errorf("%w: empty actor id", ErrActorNotFound)
	}
	asg, found, err := r.assignments.Get(ctx, actorID)
	if err != nil {
		return role.Role{}, err
	}

	roleID := r.defaultRoleID
	if found && asg.Active(r.now().UTC()) {
		roleID = asg.RoleID
	}

	rl, found, err := r.roles.Get(ctx, roleID)
	if err != nil {
		return role.Role{}, err
	}
	if found {
		return rl, nil
	}
	if roleID != r.defaultRoleID {
		rl, found, err = r.roles.Get(ctx, r.defaultRoleID)
		if err != nil {
			return role.Role{}, err
		}
		if found {
			return rl, nil
		}
	}
	return role.Role{}, fmt.Errorf("%w: actor %s, role %s and default %q unavailable", ErrActorNotFound, actorID, roleID, r.defaultRoleID)
}

// Resolve computes the actor's effective permission set. The owner
// role always resolves to the full catalog, computed fresh so owner
// access survives corrupted stored data. Concurrent identical lookups
// are collapsed to a single pass over storage.
func (r *Resolver) Resolve(ctx context.Context, actorID string) (catalog.Set, error) {
	v, err, _ := r.group.Do(actorID, func() (any, error) {
		rl, err := r.ActiveRole(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if rl.IsOwner() {
			return r.catalog.AllIDs(), nil
		}
		return rl.PermissionSet(), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(catalog.Set), nil
}
