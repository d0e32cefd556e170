package authz

import (
	"context"
	"net/http"

	"github.com/Christian-Akor/enterprise-pos-system/internal/common"
	"github.com/Christian-Akor/enterprise-pos-system/internal/obs"
	"github.com/Christian-Akor/enterprise-pos-system/internal/tenant"
)

// RoleSource loads the current role snapshots assigned to a user within a tenant.
type RoleSource interface {
	UserRoles(ctx context.Context, tenantID, userID string) ([]Role, error)
}

// Guard gates HTTP handlers on effective permissions. Resolution prefers the
// Redis snapshot when present and otherwise resolves fresh from the role source.
type Guard struct {
	Roles RoleSource
	Cache *SnapshotCache
}

// Effective returns the caller's effective permission set.
func (g *Guard) Effective(ctx context.Context, tenantID, userID string) (Set, error) {
	if g.Cache != nil {
		set, ok, err := g.Cache.Get(ctx, tenantID, userID)
		if err == nil && ok {
			if obs.PermissionResolutionsTotal != nil {
				obs.PermissionResolutionsTotal.WithLabelValues("cache").Inc()
			}
			return set, nil
		}
	}
	roles, err := g.Roles.UserRoles(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	set := Resolve(roles)
	if obs.PermissionResolutionsTotal != nil {
		obs.PermissionResolutionsTotal.WithLabelValues("database").Inc()
	}
	if g.Cache != nil {
		_ = g.Cache.Put(ctx, tenantID, userID, set)
	}
	return set, nil
}

// Require returns middleware that rejects callers missing the given permission.
func (g *Guard) Require(permission Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := common.UserID(r.Context())
			if !ok || userID == "" {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
				return
			}
			tenantID, ok := tenant.FromContext(r.Context())
			if !ok {
				common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
				return
			}
			set, err := g.Effective(r.Context(), tenantID, userID)
			if err != nil {
				common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to resolve permissions", nil)
				return
			}
			if !set.Has(permission) {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "missing permission "+permission.String(), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
