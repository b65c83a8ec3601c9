package auth

import (
	"context"

	"github.com/condo-admin/backend/internal/scope"
)

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p scope.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx.
func PrincipalFrom(ctx context.Context) (scope.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(scope.Principal)
	return p, ok
}
