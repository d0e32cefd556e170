package authz

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotCache stores resolved permission sets in Redis as immutable snapshots.
// A snapshot is only ever replaced whole or deleted; any role or permission
// change must call Invalidate so the next check resolves against fresh data.
type SnapshotCache struct {
	R   *redis.Client
	TTL time.Duration
}

func (c *SnapshotCache) key(tenantID, userID string) string {
	return tenantID + ":authz:user:" + userID
}

// Get loads a cached permission snapshot. It reports whether the snapshot existed.
func (c *SnapshotCache) Get(ctx context.Context, tenantID, userID string) (Set, bool, error) {
	if c == nil || c.R == nil {
		return nil, false, nil
	}
	data, err := c.R.Get(ctx, c.key(tenantID, userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, err
	}
	set := make(Set, len(entries))
	for _, e := range entries {
		if p, ok := ParsePermission(e); ok {
			set[p] = struct{}{}
		}
	}
	return set, true, nil
}

// Put stores a resolved permission set as the user's current snapshot.
func (c *SnapshotCache) Put(ctx context.Context, tenantID, userID string, set Set) error {
	if c == nil || c.R == nil {
		return nil
	}
	data, err := json.Marshal(set.Strings())
	if err != nil {
		return err
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return c.R.Set(ctx, c.key(tenantID, userID), data, ttl).Err()
}

// Invalidate drops a user's snapshot so the next resolution hits the database.
func (c *SnapshotCache) Invalidate(ctx context.Context, tenantID, userID string) error {
	if c == nil || c.R == nil {
		return nil
	}
	return c.R.Del(ctx, c.key(tenantID, userID)).Err()
}

// InvalidateTenant drops every snapshot under a tenant, used when a role's
// permission set changes and per-user invalidation would miss assignees.
func (c *SnapshotCache) InvalidateTenant(ctx context.Context, tenantID string) error {
	if c == nil || c.R == nil {
		return nil
	}
	iter := c.R.Scan(ctx, 0, tenantID+":authz:user:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.R.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
