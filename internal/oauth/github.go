package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/utafrali/TranslateGo/internal/domain"
	"github.com/utafrali/TranslateGo/pkg/httpclient"
)

// GitHubAPI is the default GitHub REST API base URL.
const GitHubAPI = "https://api.github.com"

// GitHub signs users in with GitHub's OAuth apps. The email reported is the
// account's primary address, and only when GitHub marks it verified.
type GitHub struct {
	config  *oauth2.Config
	apiBase string
}

// GitHubOption customizes a GitHub provider.
type GitHubOption func(*GitHub)

// WithGitHubEndpoints points the provider at another OAuth and API host.
func WithGitHubEndpoints(endpoint oauth2.Endpoint, apiBase string) GitHubOption {
	return func(g *GitHub) {
		g.config.Endpoint = endpoint
		g.apiBase = strings.TrimRight(apiBase, "/")
	}
}

// NewGitHub creates the provider.
func NewGitHub(creds Credentials, opts ...GitHubOption) (*GitHub, error) {
	if !creds.Configured() || creds.RedirectURL == "" {
		return nil, errors.New("github oauth config missing required fields")
	}
	g := &GitHub{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Endpoint:     endpoints.GitHub,
			Scopes:       []string{"read:user", "user:email"},
		},
		apiBase: GitHubAPI,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *GitHub) Name() string { return domain.ProviderGitHub }

func (g *GitHub) AuthCodeURL(state, verifier string) string {
	return g.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (g *GitHub) Exchange(ctx context.Context, code, verifier string) (domain.ExternalProfile, error) {
	token, err := g.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("github token exchange: %w", err)
	}
	client := g.config.Client(ctx, token)

	rawUser, err := g.get(ctx, client, "/user")
	if err != nil {
		return domain.ExternalProfile{}, err
	}
	var user githubUser
	if err := json.Unmarshal(rawUser, &user); err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("decode github user: %w", err)
	}
	if user.ID == 0 {
		return domain.ExternalProfile{}, errors.New("github user has no id")
	}

	rawEmails, err := g.get(ctx, client, "/user/emails")
	if err != nil {
		return domain.ExternalProfile{}, err
	}
	var emails []githubEmail
	if err := json.Unmarshal(rawEmails, &emails); err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("decode github emails: %w", err)
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}
	return domain.ExternalProfile{
		Provider:    domain.ProviderGitHub,
		Subject:     strconv.FormatInt(user.ID, 10),
		Email:       primaryVerified(emails),
		DisplayName: name,
		AvatarURL:   user.AvatarURL,
		Raw:         rawUser,
	}, nil
}

func (g *GitHub) get(ctx context.Context, client *http.Client, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiBase+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create github request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github GET %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "github")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read github %s: %w", path, err)
	}
	return body, nil
}

func primaryVerified(emails []githubEmail) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	return ""
}
