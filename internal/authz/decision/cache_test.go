package decision

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-erp/authz/internal/authz/catalog"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestPutAndGet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if _, found, err := cache.Get(ctx, "alice", catalog.PermProjectWrite); err != nil || found {
		t.Fatalf("cold cache: found=%v err=%v", found, err)
	}

	if err := cache.Put(ctx, "alice", "manager", catalog.PermProjectWrite, true); err != nil {
		t.Fatalf("put allow: %v", err)
	}
	if err := cache.Put(ctx, "alice", "manager", catalog.PermProjectDelete, false); err != nil {
		t.Fatalf("put deny: %v", err)
	}

	allowed, found, err := cache.Get(ctx, "alice", catalog.PermProjectWrite)
	if err != nil || !found || !allowed {
		t.Fatalf("expected allow hit, got allowed=%v found=%v err=%v", allowed, found, err)
	}
	allowed, found, err = cache.Get(ctx, "alice", catalog.PermProjectDelete)
	if err != nil || !found || allowed {
		t.Fatalf("expected deny hit, got allowed=%v found=%v err=%v", allowed, found, err)
	}
}

func TestEntriesExpire(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	if err := cache.Put(ctx, "alice", "manager", catalog.PermProjectRead, true); err != nil {
		t.Fatalf("put: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, found, err := cache.Get(ctx, "alice", catalog.PermProjectRead); err != nil || found {
		t.Fatalf("expected expired entry, got found=%v err=%v", found, err)
	}
}

func TestInvalidateActor(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if err := cache.Put(ctx, "alice", "manager", catalog.PermProjectRead, true); err != nil {
		t.Fatalf("put alice: %v", err)
	}
	if err := cache.Put(ctx, "bob", "manager", catalog.PermProjectRead, true); err != nil {
		t.Fatalf("put bob: %v", err)
	}

	if err := cache.InvalidateActor(ctx, "alice"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if _, found, _ := cache.Get(ctx, "alice", catalog.PermProjectRead); found {
		t.Fatal("alice's decisions must be gone")
	}
	if _, found, _ := cache.Get(ctx, "bob", catalog.PermProjectRead); !found {
		t.Fatal("bob's decisions must survive")
	}
}

func TestInvalidateRoleUsesReverseIndex(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if err := cache.Put(ctx, "alice", "manager", catalog.PermProjectWrite, true); err != nil {
		t.Fatalf("put alice: %v", err)
	}
	if err := cache.Put(ctx, "bob", "manager", catalog.PermProjectWrite, true); err != nil {
		t.Fatalf("put bob: %v", err)
	}
	if err := cache.Put(ctx, "carol", "viewer", catalog.PermProjectRead, true); err != nil {
		t.Fatalf("put carol: %v", err)
	}

	if err := cache.InvalidateRole(ctx, "manager"); err != nil {
		t.Fatalf("invalidate role: %v", err)
	}

	for _, actor := range []string{"alice", "bob"} {
		if _, found, _ := cache.Get(ctx, actor, catalog.PermProjectWrite); found {
			t.Fatalf("%s cached under manager, must be dropped", actor)
		}
	}
	if _, found, _ := cache.Get(ctx, "carol", catalog.PermProjectRead); !found {
		t.Fatal("carol cached under viewer, must survive")
	}
}

func TestInvalidateRoleWithNoCachedActors(t *testing.T) {
	cache, _ := newTestCache(t)
	if err := cache.InvalidateRole(context.Background(), "ghost"); err != nil {
		t.Fatalf("invalidate empty role: %v", err)
	}
}
