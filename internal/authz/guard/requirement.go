package guard

import "github.com/meridian-erp/authz/internal/authz/catalog"

// Scope limits which records an actor may touch, independent of
// permission checks.
type Scope string

const (
	// ScopeAll grants access to every record.
	ScopeAll Scope = "all"
	// ScopeDepartment grants access to records owned within the
	// actor's department.
	ScopeDepartment Scope = "department"
	// ScopeOwn grants access only to the actor's own records.
	ScopeOwn Scope = "own"
	// ScopeNone denies record access outright.
	ScopeNone Scope = "none"
)

// ScopeRule is evaluated against a supplied resource owner. The engine
// holds no org chart, so department membership is supplied by the
// caller that does.
type ScopeRule struct {
	Scope          Scope
	ResourceOwner  string
	SameDepartment bool
}

// Requirement describes what a caller demands before an action is
// allowed. All populated layers must pass; any failing layer denies.
type Requirement struct {
	// Permission is a single required permission id.
	Permission catalog.ID
	// AnyOf passes when at least one listed permission is granted.
	AnyOf []catalog.ID
	// AllOf passes only when every listed permission is granted.
	AllOf []catalog.ID
	// MinLevel demands a rank at least as privileged as this level.
	MinLevel *int
	// RequireOwner restricts the action to the super role.
	RequireOwner bool
	// Scope is a data-scope rule checked after everything else.
	Scope *ScopeRule
}

// MinimumLevel builds a pointer for Requirement.MinLevel.
func MinimumLevel(level int) *int { return &level }
