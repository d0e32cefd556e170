package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Christian-Akor/enterprise-pos-system/internal/common"
	"github.com/Christian-Akor/enterprise-pos-system/internal/tenant"
)

type stubRoles struct {
	calls int
	roles []Role
}

func (s *stubRoles) UserRoles(ctx context.Context, tenantID, userID string) ([]Role, error) {
	s.calls++
	return s.roles, nil
}

func newTestCache(t *testing.T) (*SnapshotCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &SnapshotCache{R: rdb, TTL: time.Minute}, mr
}

func TestSnapshotCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	set := Resolve([]Role{{Name: "cashier", Permissions: []Permission{
		{Resource: "SALES", Action: "CREATE"},
		{Resource: "SALES", Action: "READ"},
	}}})
	if err := cache.Put(ctx, "t1", "u1", set); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := cache.Get(ctx, "t1", "u1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || !got.HasString("SALES:CREATE") {
		t.Fatalf("unexpected snapshot: %v", got.Strings())
	}

	// Snapshots are tenant scoped.
	if _, ok, _ := cache.Get(ctx, "t2", "u1"); ok {
		t.Fatal("snapshot leaked across tenants")
	}
}

func TestSnapshotCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	set := Resolve([]Role{{Name: "a", Permissions: []Permission{{Resource: "SALES", Action: "READ"}}}})
	if err := cache.Put(ctx, "t1", "u1", set); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := cache.Invalidate(ctx, "t1", "u1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, "t1", "u1"); ok {
		t.Fatal("snapshot survived invalidation")
	}
}

func TestSnapshotCacheInvalidateTenant(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	set := Resolve([]Role{{Name: "a", Permissions: []Permission{{Resource: "SALES", Action: "READ"}}}})
	for _, user := range []string{"u1", "u2", "u3"} {
		if err := cache.Put(ctx, "t1", user, set); err != nil {
			t.Fatalf("put %s: %v", user, err)
		}
	}
	if err := cache.Put(ctx, "t2", "u1", set); err != nil {
		t.Fatalf("put other tenant: %v", err)
	}

	if err := cache.InvalidateTenant(ctx, "t1"); err != nil {
		t.Fatalf("invalidate tenant: %v", err)
	}
	for _, user := range []string{"u1", "u2", "u3"} {
		if _, ok, _ := cache.Get(ctx, "t1", user); ok {
			t.Fatalf("t1/%s snapshot survived tenant invalidation", user)
		}
	}
	if _, ok, _ := cache.Get(ctx, "t2", "u1"); !ok {
		t.Fatal("other tenant's snapshot must survive")
	}
}

func TestGuardResolvesOnceThenHitsCache(t *testing.T) {
	cache, _ := newTestCache(t)
	source := &stubRoles{roles: []Role{{Name: "cashier", Permissions: []Permission{{Resource: "SALES", Action: "CREATE"}}}}}
	guard := &Guard{Roles: source, Cache: cache}
	ctx := context.Background()

	if _, err := guard.Effective(ctx, "t1", "u1"); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if _, err := guard.Effective(ctx, "t1", "u1"); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected 1 role load, got %d", source.calls)
	}
}

func TestGuardRequire(t *testing.T) {
	source := &stubRoles{roles: []Role{{Name: "cashier", Permissions: []Permission{{Resource: "SALES", Action: "CREATE"}}}}}
	guard := &Guard{Roles: source}

	okHandler := guard.Require(Permission{Resource: "SALES", Action: "CREATE"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	denyHandler := guard.Require(Permission{Resource: "USERS", Action: "DELETE"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	ctx := tenant.WithTenant(common.WithUserID(context.Background(), "u1"), "t1")

	req := httptest.NewRequest(http.MethodPost, "/sales", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	okHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/users/u2", nil).WithContext(ctx)
	rec = httptest.NewRecorder()
	denyHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	// No authenticated user.
	req = httptest.NewRequest(http.MethodPost, "/sales", nil)
	rec = httptest.NewRecorder()
	okHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
