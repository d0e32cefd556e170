package authz

import (
	"sort"
	"strings"
)

// Permission is an access right identified by its (resource, action) pair.
type Permission struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// String renders the permission in its "resource:action" wire form.
func (p Permission) String() string {
	return p.Resource + ":" + p.Action
}

// ParsePermission splits a "resource:action" string back into a Permission.
// It reports false for anything without both parts.
func ParsePermission(s string) (Permission, bool) {
	resource, action, ok := strings.Cut(s, ":")
	if !ok || resource == "" || action == "" {
		return Permission{}, false
	}
	return Permission{Resource: resource, Action: action}, true
}

// Role is a snapshot of one role and the permissions it grants.
type Role struct {
	Name        string
	Permissions []Permission
}

// Set is a deduplicated collection of effective permissions.
type Set map[Permission]struct{}

// Resolve computes the effective permission set for a user: the union of all
// permissions across the given roles, deduplicated by (resource, action).
// An empty role list yields an empty set — a user with no granted access.
// Permissions with a missing resource or action are skipped.
func Resolve(roles []Role) Set {
	set := make(Set)
	for _, role := range roles {
		for _, p := range role.Permissions {
			if p.Resource == "" || p.Action == "" {
				continue
			}
			set[p] = struct{}{}
		}
	}
	return set
}

// Has reports whether the set grants the given permission.
func (s Set) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// HasString reports whether the set grants the permission in "resource:action" form.
func (s Set) HasString(full string) bool {
	p, ok := ParsePermission(full)
	if !ok {
		return false
	}
	return s.Has(p)
}

// Strings returns the sorted "resource:action" forms of every granted permission.
func (s Set) Strings() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p.String())
	}
	sort.Strings(out)
	return out
}
