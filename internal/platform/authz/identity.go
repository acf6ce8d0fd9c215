package authz

import "context"

// Identity is the resolved caller for one request: the session subject plus
// the role looked up from the staff store. It is borrowed for the duration
// of the request and never mutated by this layer.
type Identity struct {
	UserID string
	Role   Role
}

type contextKey struct{}

// ContextWithIdentity attaches the resolved identity to the request context.
func ContextWithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, ident)
}

// IdentityFromContext returns the identity set by the auth middleware, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(contextKey{}).(Identity)
	return ident, ok
}

// RoleFromContext returns the caller's role, or the empty role when the
// request is unauthenticated. The empty role holds no permissions, so
// downstream checks fail closed without needing the ok flag.
func RoleFromContext(ctx context.Context) Role {
	ident, _ := ctx.Value(contextKey{}).(Identity)
	return ident.Role
}
