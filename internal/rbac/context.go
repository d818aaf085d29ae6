package rbac

import "context"

type authContextKey struct{}

// WithContext stores the resolved AuthContext in ctx.
func WithContext(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// FromContext extracts the AuthContext from ctx, nil when unauthenticated.
func FromContext(ctx context.Context) *AuthContext {
	auth, _ := ctx.Value(authContextKey{}).(*AuthContext)
	return auth
}
