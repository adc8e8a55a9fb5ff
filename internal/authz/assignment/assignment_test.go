package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/meridian-erp/authz/internal/authz/catalog"
	"github.com/meridian-erp/authz/internal/authz/role"
)

func TestExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	open := Assignment{ActorID: "a", RoleID: "r"}
	if open.Expired(now) || !open.Active(now) {
		t.Fatalf("assignment without expiry must stay active")
	}

	lapsed := Assignment{ActorID: "a", RoleID: "r", ExpiresAt: &past}
	if !lapsed.Expired(now) || lapsed.Active(now) {
		t.Fatalf("assignment past expiry must be treated as absent")
	}

	running := Assignment{ActorID: "a", RoleID: "r", ExpiresAt: &future}
	if running.Expired(now) || !running.Active(now) {
		t.Fatalf("assignment before expiry must stay active")
	}
}

type actorInvalidations struct {
	actors []string
}

func (c *actorInvalidations) InvalidateActor(ctx context.Context, actorID string) error {
	c.actors = append(c.actors, actorID)
	return nil
}

func newTestService(t *testing.T) (*Service, *MemoryRepository, *actorInvalidations) {
	t.Helper()
	roles := role.NewMemoryRepository()
	for _, r := range []role.Role{
		{ID: "manager", Name: "Manager", Level: 2},
		{ID: "viewer", Name: "Viewer", Level: role.LevelDefault},
	} {
		if err := roles.Save(context.Background(), r); err != nil {
			t.Fatalf("seed role: %v", err)
		}
	}
	repo := NewMemoryRepository()
	inv := &actorInvalidations{}
	return NewService(repo, roles, inv, "viewer", nil), repo, inv
}

func TestAssignValidatesRole(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Assign(context.Background(), "alice", "ghost", nil); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestAssignClearsSnapshotAndInvalidates(t *testing.T) {
	svc, repo, inv := newTestService(t)
	ctx := context.Background()

	if err := repo.Save(ctx, Assignment{
		ActorID:            "alice",
		RoleID:             "viewer",
		PermissionSnapshot: []catalog.ID{"project:read"},
	}); err != nil {
		t.Fatalf("seed assignment: %v", err)
	}

	a, err := svc.Assign(ctx, "alice", "manager", nil)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if a.RoleID != "manager" {
		t.Fatalf("expected manager role, got %s", a.RoleID)
	}
	if a.PermissionSnapshot != nil {
		t.Fatalf("assign must not carry a snapshot forward")
	}
	if len(inv.actors) != 1 || inv.actors[0] != "alice" {
		t.Fatalf("expected actor cache invalidation, got %v", inv.actors)
	}
}

func TestEnsureActorSeedsDefaultRoleOnce(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.EnsureActor(ctx, "bob")
	if err != nil {
		t.Fatalf("ensure actor: %v", err)
	}
	if first.RoleID != "viewer" {
		t.Fatalf("expected default role viewer, got %s", first.RoleID)
	}

	expiry := time.Now().Add(time.Hour)
	if _, err := svc.Assign(ctx, "bob", "manager", &expiry); err != nil {
		t.Fatalf("assign: %v", err)
	}
	again, err := svc.EnsureActor(ctx, "bob")
	if err != nil {
		t.Fatalf("ensure actor: %v", err)
	}
	if again.RoleID != "manager" {
		t.Fatalf("ensure must not overwrite an existing assignment, got %s", again.RoleID)
	}
}

func TestRevokeRemovesAssignment(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Assign(ctx, "carol", "manager", nil); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := svc.Revoke(ctx, "carol"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, found, _ := repo.Get(ctx, "carol"); found {
		t.Fatalf("expected assignment removed")
	}
}
