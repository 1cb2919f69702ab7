package oauth

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/utafrali/TranslateGo/internal/domain"
	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
)

// ErrExchangeFailed hides provider-side failures from the caller; the cause
// is logged.
var ErrExchangeFailed = apperrors.New("OAUTH_EXCHANGE_FAILED", "sign-in with the provider failed",
	http.StatusUnauthorized, apperrors.ErrUnauthorized)

// Flow drives the two legs of an authorization-code login with PKCE.
type Flow struct {
	registry *Registry
	states   *StateStore
	logger   *slog.Logger
}

// NewFlow creates a Flow.
func NewFlow(registry *Registry, states *StateStore, logger *slog.Logger) *Flow {
	return &Flow{registry: registry, states: states, logger: logger}
}

// Providers lists the providers a user can sign in with.
func (f *Flow) Providers() []string {
	return f.registry.Names()
}

// Begin starts a login and returns the provider URL to redirect to.
func (f *Flow) Begin(ctx context.Context, providerName string) (string, error) {
	p, err := f.registry.Get(providerName)
	if err != nil {
		return "", err
	}

	verifier := oauth2.GenerateVerifier()
	state, err := f.states.Save(ctx, PendingLogin{Provider: p.Name(), Verifier: verifier})
	if err != nil {
		return "", err
	}
	return p.AuthCodeURL(state, verifier), nil
}

// Complete finishes a login started by Begin and returns the profile the
// provider reported.
func (f *Flow) Complete(ctx context.Context, providerName, state, code string) (domain.ExternalProfile, error) {
	p, err := f.registry.Get(providerName)
	if err != nil {
		return domain.ExternalProfile{}, err
	}

	pending, err := f.states.Consume(ctx, state)
	if err != nil {
		return domain.ExternalProfile{}, err
	}
	if pending.Provider != p.Name() {
		f.logger.WarnContext(ctx, "oauth state used with another provider",
			slog.String("issued_for", pending.Provider),
			slog.String("provider", p.Name()),
		)
		return domain.ExternalProfile{}, ErrInvalidState
	}

	profile, err := p.Exchange(ctx, code, pending.Verifier)
	if err != nil {
		f.logger.WarnContext(ctx, "oauth code exchange failed",
			slog.String("provider", p.Name()),
			slog.String("error", err.Error()),
		)
		return domain.ExternalProfile{}, ErrExchangeFailed
	}
	return profile, nil
}
