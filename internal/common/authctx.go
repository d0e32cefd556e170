package common

import "context"

type ctxKey string

const (
	userIDKey    ctxKey = "auth/user-id"
	roleNamesKey ctxKey = "auth/role-names"
)

// WithUserID stores the authenticated user identifier on the provided context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// WithRoleNames stores the caller's role names on the context. The names are a
// claim hint only; the effective permission set is always resolved from the
// current role snapshots, never from the token.
func WithRoleNames(ctx context.Context, names []string) context.Context {
	return context.WithValue(ctx, roleNamesKey, names)
}

// RoleNames extracts the caller's role names from the context if present.
func RoleNames(ctx context.Context) ([]string, bool) {
	v := ctx.Value(roleNamesKey)
	if v == nil {
		return nil, false
	}
	names, ok := v.([]string)
	return names, ok
}
