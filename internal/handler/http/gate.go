package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/utafrali/TranslateGo/internal/auth"
	"github.com/utafrali/TranslateGo/internal/domain"
	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
	"github.com/utafrali/TranslateGo/pkg/httputil"
	"github.com/utafrali/TranslateGo/pkg/logger"
)

const bearerPrefix = "Bearer "

// TokenValidator returns the subject of a valid token.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// AccountLookup finds the account a token subject names.
type AccountLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

// AuthenticationGate attaches the caller's account to the request context
// when the request carries a valid bearer token for an enabled account.
// It never rejects a request: every failure leaves the request anonymous
// and authorization is left to the routes.
func AuthenticationGate(tokens TokenValidator, accounts AccountLookup, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			account, ok := authenticate(r.Context(), tokens, accounts, strings.TrimPrefix(header, bearerPrefix), l)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), account)
			ctx = logger.WithAccountID(ctx, account.ID)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("account_id", account.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(ctx context.Context, tokens TokenValidator, accounts AccountLookup, token string, l *slog.Logger) (*domain.Account, bool) {
	subject, err := tokens.Validate(token)
	if err != nil {
		level := slog.LevelDebug
		if errors.Is(err, auth.ErrTokenInvalidSignature) {
			level = slog.LevelWarn
		}
		l.Log(ctx, level, "bearer token rejected", slog.String("reason", err.Error()))
		return nil, false
	}

	account, err := accounts.GetByEmail(ctx, subject)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		l.InfoContext(ctx, "bearer token subject has no account")
		return nil, false
	case err != nil:
		l.ErrorContext(ctx, "failed to load account for bearer token", slog.String("error", err.Error()))
		return nil, false
	case !account.Enabled:
		l.InfoContext(ctx, "bearer token for disabled account", slog.String("account_id", account.ID))
		return nil, false
	}
	return account, true
}

// RequireAuthenticated answers 401 unless AuthenticationGate attached an
// account.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.PrincipalFromContext(r.Context()); !ok {
			httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// principal returns the authenticated account. Only call it behind
// RequireAuthenticated.
func principal(r *http.Request) *domain.Account {
	a, _ := auth.PrincipalFromContext(r.Context())
	return a
}
