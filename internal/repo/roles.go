package repo

import (
	"context"
	"fmt"

	"github.com/Christian-Akor/enterprise-pos-system/internal/authz"
)

// RolesRepo loads role and permission snapshots for the authority resolver.
type RolesRepo struct {
	DB DBTX
}

// UserRoles returns the active roles assigned to a user within a tenant, each
// with its full permission set. The result is a consistent snapshot: the whole
// graph is read in a single query.
func (r RolesRepo) UserRoles(ctx context.Context, tenantID, userID string) ([]authz.Role, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT ro.name, pe.resource, pe.action
		 FROM user_roles ur
		 JOIN roles ro ON ro.id = ur.role_id AND ro.active
		 LEFT JOIN role_permissions rp ON rp.role_id = ro.id
		 LEFT JOIN permissions pe ON pe.id = rp.permission_id
		 WHERE ur.user_id = $1 AND ro.tenant_id = $2
		 ORDER BY ro.name`,
		userID, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("load user roles: %w", err)
	}
	defer rows.Close()

	byName := map[string]*authz.Role{}
	var order []string
	for rows.Next() {
		var name string
		var resource, action *string
		if err := rows.Scan(&name, &resource, &action); err != nil {
			return nil, fmt.Errorf("scan role row: %w", err)
		}
		role, ok := byName[name]
		if !ok {
			role = &authz.Role{Name: name}
			byName[name] = role
			order = append(order, name)
		}
		if resource != nil && action != nil {
			role.Permissions = append(role.Permissions, authz.Permission{Resource: *resource, Action: *action})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]authz.Role, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}
