// Package role defines ranked permission bundles and the store that
// keeps them canonical.
package role

import (
	"errors"
	"time"

	"github.com/meridian-erp/authz/internal/authz/catalog"
)

// Reserved ranks. Lower level means more privileged.
const (
	// LevelOwner marks the super role that bypasses every check.
	LevelOwner = 0
	// LevelDefault marks the least-privileged fallback role.
	LevelDefault = 99
)

var (
	// ErrNotFound indicates the requested role does not exist.
	ErrNotFound = errors.New("role: not found")
	// ErrInUse indicates a delete was blocked by live assignments.
	ErrInUse = errors.New("role: in use by active assignments")
	// ErrInvalidPermissionRef indicates a role referencing an
	// unregistered permission id.
	ErrInvalidPermissionRef = errors.New("role: unknown permission reference")
	// ErrDuplicateLevel indicates a second role claiming the owner rank.
	ErrDuplicateLevel = errors.New("role: owner level already taken")
	// ErrSystemRole indicates an attempt to delete a system role.
	ErrSystemRole = errors.New("role: system roles cannot be deleted")
)

// Role is a named, ranked bundle of permissions.
type Role struct {
	ID          string
	Name        string
	Description string
	Level       int
	Permissions []catalog.ID
	IsCustom    bool
	CreatedAt   time.Time
	CreatedBy   string
	UpdatedAt   time.Time
	UpdatedBy   string
}

// PermissionSet returns the stored permissions as a set. For the owner
// role the stored set is display data only; decisions use the full
// catalog instead.
func (r Role) PermissionSet() catalog.Set {
	return catalog.NewSet(r.Permissions...)
}

// IsOwner reports whether the role holds the super rank.
func (r Role) IsOwner() bool { return r.Level == LevelOwner }
