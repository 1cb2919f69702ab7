package auth

import (
	"context"

	"github.com/utafrali/TranslateGo/internal/domain"
)

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying the authenticated account.
func WithPrincipal(ctx context.Context, account *domain.Account) context.Context {
	return context.WithValue(ctx, principalKey{}, account)
}

// PrincipalFromContext returns the authenticated account, or nil and false
// for an anonymous request.
func PrincipalFromContext(ctx context.Context) (*domain.Account, bool) {
	a, ok := ctx.Value(principalKey{}).(*domain.Account)
	return a, ok && a != nil
}
