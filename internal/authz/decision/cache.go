// Package decision memoizes per-actor allow/deny answers. Canonical
// truth stays in the role store; everything here is disposable and is
// dropped eagerly when roles or assignments change.
package decision

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridian-erp/authz/internal/authz/catalog"
)

const (
	actorKeyPrefix = "authz:decisions:"
	roleKeyPrefix  = "authz:roleactors:"
)

// Cache stores one Redis hash per actor, keyed by permission id, plus a
// role to actor reverse index so role-wide invalidation avoids a scan.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache. A zero ttl keeps entries until they are
// explicitly invalidated.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func actorKey(actorID string) string { return actorKeyPrefix + actorID }
func roleKey(roleID string) string   { return roleKeyPrefix + roleID }

// Get returns the memoized decision for the actor/permission pair.
func (c *Cache) Get(ctx context.Context, actorID string, perm catalog.ID) (allowed, found bool, err error) {
	val, err := c.client.HGet(ctx, actorKey(actorID), string(perm)).Result()
	if err != nil {
		if err == redis.Nil {
			return false, false, nil
		}
		return false, false, fmt.Errorf("decision: get: %w", err)
	}
	return val == "1", true, nil
}

// Put memoizes a decision and records the actor under its role's
// reverse index so InvalidateRole can find it.
func (c *Cache) Put(ctx context.Context, actorID, roleID string, perm catalog.ID, allowed bool) error {
	val := "0"
	if allowed {
		val = "1"
	}
	pipe := c.client.TxPipeline()
	key := actorKey(actorID)
	pipe.HSet(ctx, key, string(perm), val)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	pipe.SAdd(ctx, roleKey(roleID), actorID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("decision: put: %w", err)
	}
	return nil
}

// InvalidateActor drops every memoized decision for the actor.
func (c *Cache) InvalidateActor(ctx context.Context, actorID string) error {
	if err := c.client.Del(ctx, actorKey(actorID)).Err(); err != nil {
		return fmt.Errorf("decision: invalidate actor: %w", err)
	}
	return nil
}

// InvalidateRole drops memoized decisions for every actor recorded
// under the role's reverse index, then the index itself.
func (c *Cache) InvalidateRole(ctx context.Context, roleID string) error {
	rk := roleKey(roleID)
	actors, err := c.client.SMembers(ctx, rk).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("decision: invalidate role: %w", err)
	}
	pipe := c.client.TxPipeline()
	for _, actor := range actors {
		pipe.Del(ctx, actorKey(actor))
	}
	pipe.Del(ctx, rk)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("decision: invalidate role: %w", err)
	}
	return nil
}
