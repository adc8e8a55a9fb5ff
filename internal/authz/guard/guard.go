// Package guard is the decision point callers consult before acting.
// It composes the resolver, the decision cache and the override rules
// into a single allow/deny answer with an auditable reason.
package guard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridian-erp/authz/internal/authz/catalog"
	"github.com/meridian-erp/authz/internal/authz/resolver"
	"github.com/meridian-erp/authz/internal/authz/role"
)

// Decision is the outcome of a guard check. A denial is a clean false
// with a human-readable reason for audit logs, never an error.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// DecisionCache memoizes per-actor permission answers. Implementations
// must never reach into role storage themselves.
type DecisionCache interface {
	Get(ctx context.Context, actorID string, perm catalog.ID) (allowed, found bool, err error)
	Put(ctx context.Context, actorID, roleID string, perm catalog.ID, allowed bool) error
}

// Guard evaluates requirements against an actor's effective role and
// permissions.
type Guard struct {
	resolver *resolver.Resolver
	cache    DecisionCache
	logger   *slog.Logger
}

// New constructs a Guard. The cache may be nil; every check then goes
// through the resolver.
func New(res *resolver.Resolver, cache DecisionCache, logger *slog.Logger) *Guard {
	return &Guard{resolver: res, cache: cache, logger: logger}
}

// Allow evaluates the requirement for the actor. Layer order: the
// super role bypasses everything; RequireOwner then denies everyone
// else; permission and rank checks run next; the data-scope rule runs
// last. The returned error is reserved for resolution failures that
// indicate misconfiguration and must not be read as a denial.
func (g *Guard) Allow(ctx context.Context, actorID string, req Requirement) (Decision, error) {
	rl, err := g.resolver.ActiveRole(ctx, actorID)
	if err != nil {
		return Decision{Allowed: false, Reason: "actor could not be resolved"}, err
	}

	if rl.IsOwner() {
		return Decision{Allowed: true, Reason: "owner role bypass"}, nil
	}
	if req.RequireOwner {
		return Decision{Allowed: false, Reason: "restricted to the owner role"}, nil
	}

	lookup := g.newLookup(actorID, rl)
	if req.Permission != "" {
		ok, err := lookup.has(ctx, req.Permission)
		if err != nil {
			return Decision{Allowed: false, Reason: "permission lookup failed"}, err
		}
		if !ok {
			return Decision{Allowed: false, Reason: fmt.Sprintf("permission %s not granted", req.Permission)}, nil
		}
	}
	for _, perm := range req.AllOf {
		ok, err := lookup.has(ctx, perm)
		if err != nil {
			return Decision{Allowed: false, Reason: "permission lookup failed"}, err
		}
		if !ok {
			return Decision{Allowed: false, Reason: fmt.Sprintf("permission %s not granted", perm)}, nil
		}
	}
	if len(req.AnyOf) > 0 {
		matched := false
		for _, perm := range req.AnyOf {
			ok, err := lookup.has(ctx, perm)
			if err != nil {
				return Decision{Allowed: false, Reason: "permission lookup failed"}, err
			}
			if ok {
				matched = true
				break
			}
		}
		if !matched {
			return Decision{Allowed: false, Reason: "none of the alternative permissions granted"}, nil
		}
	}

	if req.MinLevel != nil && !role.AtLeast(rl.Level, *req.MinLevel) {
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("role level %d does not meet required level %d", rl.Level, *req.MinLevel),
		}, nil
	}

	if req.Scope != nil {
		if d := evaluateScope(actorID, *req.Scope); !d.Allowed {
			return d, nil
		}
	}

	return Decision{Allowed: true, Reason: "all checks passed"}, nil
}

// evaluateScope applies the data-scope rule. It is independent of
// permission checks: an actor can hold the permission and still be
// denied by scope.
func evaluateScope(actorID string, rule ScopeRule) Decision {
	switch rule.Scope {
	case ScopeAll:
		return Decision{Allowed: true, Reason: "scope allows all records"}
	case ScopeDepartment:
		if rule.SameDepartment {
			return Decision{Allowed: true, Reason: "record within actor department"}
		}
		return Decision{Allowed: false, Reason: "record outside actor department"}
	case ScopeOwn:
		if rule.ResourceOwner != "" && rule.ResourceOwner == actorID {
			return Decision{Allowed: true, Reason: "actor owns the record"}
		}
		return Decision{Allowed: false, Reason: "actor does not own the record"}
	case ScopeNone:
		return Decision{Allowed: false, Reason: "scope denies record access"}
	default:
		return Decision{Allowed: false, Reason: fmt.Sprintf("unknown scope %q", rule.Scope)}
	}
}

// permLookup answers per-permission questions for one Allow call,
// resolving the effective set at most once on cache miss.
type permLookup struct {
	guard    *Guard
	actorID  string
	roleID   string
	resolved catalog.Set
}

func (g *Guard) newLookup(actorID string, rl role.Role) *permLookup {
	return &permLookup{guard: g, actorID: actorID, roleID: rl.ID}
}

func (l *permLookup) has(ctx context.Context, perm catalog.ID) (bool, error) {
	if l.guard.cache != nil && l.resolved == nil {
		allowed, found, err := l.guard.cache.Get(ctx, l.actorID, perm)
		if err != nil {
			if l.guard.logger != nil {
				l.guard.logger.Warn("decision cache read failed", slog.Any("error", err))
			}
		} else if found {
			return allowed, nil
		}
	}
	if l.resolved == nil {
		set, err := l.guard.resolver.Resolve(ctx, l.actorID)
		if err != nil {
			return false, err
		}
		l.resolved = set
	}
	allowed := l.resolved.Contains(perm)
	if l.guard.cache != nil {
		if err := l.guard.cache.Put(ctx, l.actorID, l.roleID, perm, allowed); err != nil && l.guard.logger != nil {
			l.guard.logger.Warn("decision cache write failed", slog.Any("error", err))
		}
	}
	return allowed, nil
}
