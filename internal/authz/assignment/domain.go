// Package assignment maps actors to their single active role.
package assignment

import (
	"errors"
	"time"

	"github.com/meridian-erp/authz/internal/authz/catalog"
)

// ErrNotFound indicates no assignment exists for the actor.
var ErrNotFound = errors.New("assignment: not found")

// Assignment ties an actor to a role. PermissionSnapshot is a cached
// copy of the resolved set for the current role; it is written only by
// the reconciler and may lag the role store until the next pass.
type Assignment struct {
	ActorID            string
	RoleID             string
	AssignedAt         time.Time
	ExpiresAt          *time.Time
	PermissionSnapshot []catalog.ID
}

// Expired reports whether the assignment has lapsed at now.
func (a Assignment) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && a.ExpiresAt.Before(now)
}

// Active reports whether the assignment should gate decisions at now.
// An expired assignment behaves exactly like an absent one.
func (a Assignment) Active(now time.Time) bool {
	return a.ActorID != "" && !a.Expired(now)
}

// SnapshotSet returns the snapshot as a set, or nil when absent.
func (a Assignment) SnapshotSet() catalog.Set {
	if a.PermissionSnapshot == nil {
		return nil
	}
	return catalog.NewSet(a.PermissionSnapshot...)
}
