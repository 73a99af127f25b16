package token

import (
	"context"
	"strings"
)

type userContextKey struct{}

type identity struct {
	email string
	roles []string
}

// ContextWithUser stores the authenticated member identity in the context.
func ContextWithUser(ctx context.Context, email string, roles []string) context.Context {
	email = strings.TrimSpace(email)
	if email == "" {
		return ctx
	}
	copied := make([]string, len(roles))
	copy(copied, roles)
	return context.WithValue(ctx, userContextKey{}, &identity{email: email, roles: copied})
}

// UserFromContext extracts the authenticated member email from the context.
func UserFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(userContextKey{}).(*identity)
	if !ok || v.email == "" {
		return "", false
	}
	return v.email, true
}

// RolesFromContext returns the roles stored alongside the identity.
func RolesFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	v, ok := ctx.Value(userContextKey{}).(*identity)
	if !ok || len(v.roles) == 0 {
		return nil
	}
	out := make([]string, len(v.roles))
	copy(out, v.roles)
	return out
}

// HasRole checks whether the context identity carries the given role.
func HasRole(ctx context.Context, role string) bool {
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		return false
	}
	for _, r := range RolesFromContext(ctx) {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
