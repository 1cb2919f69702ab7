// Package oauth implements the authorization-code login flow against
// external identity providers. Providers only report identity facts; who
// the caller is inside this service is decided by the identity resolver.
package oauth

import (
	"context"
	"sort"

	"github.com/utafrali/TranslateGo/internal/domain"
	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
)

// Provider is one external identity provider.
type Provider interface {
	// Name is the identifier used in URLs and stored on identities.
	Name() string
	// AuthCodeURL returns the consent page URL for state, carrying the
	// S256 challenge of verifier.
	AuthCodeURL(state, verifier string) string
	// Exchange trades code for tokens and returns the caller's profile.
	// Email is only set when the provider vouches for it.
	Exchange(ctx context.Context, code, verifier string) (domain.ExternalProfile, error)
}

// Credentials are the client registration at a provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Configured reports whether both client id and secret are set.
func (c Credentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Registry holds the configured providers by name.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry registers providers. A later provider with the same name
// replaces an earlier one.
func NewRegistry(list ...Provider) *Registry {
	m := make(map[string]Provider, len(list))
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the named provider or a not-found error.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, apperrors.NotFound("oauth provider", name)
	}
	return p, nil
}

// Names lists the registered providers in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
