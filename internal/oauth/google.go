package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/utafrali/TranslateGo/internal/domain"
)

// GoogleIssuer is Google's OpenID Connect issuer.
const GoogleIssuer = "https://accounts.google.com"

// Google signs users in with OpenID Connect and verifies the returned ID
// token against the issuer's published keys.
type Google struct {
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewGoogle discovers issuer and builds the provider. issuer is normally
// GoogleIssuer.
func NewGoogle(ctx context.Context, issuer string, creds Credentials) (*Google, error) {
	if !creds.Configured() || creds.RedirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover google oidc provider: %w", err)
	}

	return &Google{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: creds.ClientID}),
	}, nil
}

func (g *Google) Name() string { return domain.ProviderGoogle }

func (g *Google) AuthCodeURL(state, verifier string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
}

type googleClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (g *Google) Exchange(ctx context.Context, code, verifier string) (domain.ExternalProfile, error) {
	token, err := g.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("google token exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return domain.ExternalProfile{}, errors.New("google did not return an id_token")
	}
	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("verify google id_token: %w", err)
	}

	var claims googleClaims
	if err := idToken.Claims(&claims); err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("parse google id_token claims: %w", err)
	}
	if claims.Subject == "" {
		return domain.ExternalProfile{}, errors.New("google id_token has no subject")
	}

	var raw json.RawMessage
	_ = idToken.Claims(&raw)

	profile := domain.ExternalProfile{
		Provider:    domain.ProviderGoogle,
		Subject:     claims.Subject,
		DisplayName: claims.Name,
		AvatarURL:   claims.Picture,
		Raw:         raw,
	}
	if claims.EmailVerified {
		profile.Email = claims.Email
	}
	return profile, nil
}
