package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meridian-erp/authz/internal/authz/assignment"
	"github.com/meridian-erp/authz/internal/authz/catalog"
	"github.com/meridian-erp/authz/internal/authz/role"
)

func seedRoles(t *testing.T, repo *role.MemoryRepository, roles ...role.Role) {
	t.Helper()
	for _, r := range roles {
		if err := repo.Save(context.Background(), r); err != nil {
			t.Fatalf("seed role %s: %v", r.ID, err)
		}
	}
}

func newTestResolver(t *testing.T) (*Resolver, *role.MemoryRepository, *assignment.MemoryRepository) {
	t.Helper()
	roles := role.NewMemoryRepository()
	seedRoles(t, roles,
		role.Role{ID: "owner", Name: "Owner", Level: role.LevelOwner, Permissions: []catalog.ID{"project:read"}},
		role.Role{ID: "manager", Name: "Manager", Level: 2, Permissions: []catalog.ID{"project:read", "project:write"}},
		role.Role{ID: "viewer", Name: "Viewer", Level: role.LevelDefault, Permissions: []catalog.ID{"project:read"}},
	)
	assignments := assignment.NewMemoryRepository()
	return New(roles, assignments, catalog.Default(), "viewer"), roles, assignments
}

func TestResolveAssignedRole(t *testing.T) {
	res, _, assignments := newTestResolver(t)
	ctx := context.Background()
	if err := assignments.Save(ctx, assignment.Assignment{ActorID: "alice", RoleID: "manager"}); err != nil {
		t.Fatalf("seed assignment: %v", err)
	}
	set, err := res.Resolve(ctx, "alice")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !set.Equal(catalog.NewSet("project:read", "project:write")) {
		t.Fatalf("unexpected set: %v", set.Slice())
	}
}

func TestResolveUnknownActorFallsBackToDefaultRole(t *testing.T) {
	res, _, _ := newTestResolver(t)
	set, err := res.Resolve(context.Background(), "stranger")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !set.Equal(catalog.NewSet("project:read")) {
		t.Fatalf("expected viewer permissions, got %v", set.Slice())
	}
}

func TestResolveExpiredAssignmentMatchesAbsent(t *testing.T) {
	res, _, assignments := newTestResolver(t)
	ctx := context.Background()
	past := time.Now().Add(-time.Minute)
	if err := assignments.Save(ctx, assignment.Assignment{ActorID: "alice", RoleID: "manager", ExpiresAt: &past}); err != nil {
		t.Fatalf("seed assignment: %v", err)
	}

	expired, err := res.Resolve(ctx, "alice")
	if err != nil {
		t.Fatalf("resolve expired: %v", err)
	}
	absent, err := res.Resolve(ctx, "nobody")
	if err != nil {
		t.Fatalf("resolve absent: %v", err)
	}
	if !expired.Equal(absent) {
		t.Fatalf("expired assignment must resolve like no assignment: %v vs %v", expired.Slice(), absent.Slice())
	}
}

func TestResolveOwnerReturnsFullCatalogFresh(t *testing.T) {
	res, _, assignments := newTestResolver(t)
	ctx := context.Background()
	// The stored owner permission list is deliberately truncated; the
	// resolved set must still be the whole catalog.
	if err := assignments.Save(ctx, assignment.Assignment{ActorID: "root", RoleID: "owner"}); err != nil {
		t.Fatalf("seed assignment: %v", err)
	}
	set, err := res.Resolve(ctx, "root")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !set.Equal(catalog.Default().AllIDs()) {
		t.Fatalf("owner must resolve to full catalog, got %d of %d ids", len(set), len(catalog.Default().AllIDs()))
	}
}

func TestResolveDeletedRoleSelfHealsToDefault(t *testing.T) {
	res, _, assignments := newTestResolver(t)
	ctx := context.Background()
	if err := assignments.Save(ctx, assignment.Assignment{ActorID: "alice", RoleID: "deleted-role"}); err != nil {
		t.Fatalf("seed assignment: %v", err)
	}
	set, err := res.Resolve(ctx, "alice")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !set.Equal(catalog.NewSet("project:read")) {
		t.Fatalf("expected default role fallback, got %v", set.Slice())
	}
}

func TestResolveSurfacesMisconfiguration(t *testing.T) {
	roles := role.NewMemoryRepository()
	assignments := assignment.NewMemoryRepository()
	res := New(roles, assignments, catalog.Default(), "viewer")

	_, err := res.Resolve(context.Background(), "alice")
	if !errors.Is(err, ErrActorNotFound) {
		t.Fatalf("expected ErrActorNotFound, got %v", err)
	}
}
