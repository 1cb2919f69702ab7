package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/TranslateGo/internal/oauth"
	"github.com/utafrali/TranslateGo/internal/service"
	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
	"github.com/utafrali/TranslateGo/pkg/httputil"
)

// OAuthHandler runs the browser side of provider sign-in. The callback ends
// with a redirect to the frontend carrying either ?token= or ?error=.
type OAuthHandler struct {
	flow        *oauth.Flow
	accounts    *service.AccountService
	frontendURL string
	logger      *slog.Logger
}

// NewOAuthHandler creates an OAuthHandler redirecting to frontendURL.
func NewOAuthHandler(flow *oauth.Flow, accounts *service.AccountService, frontendURL string, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{flow: flow, accounts: accounts, frontendURL: frontendURL, logger: logger}
}

// Providers handles GET /api/v1/auth/oauth/providers
func (h *OAuthHandler) Providers(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteData(w, http.StatusOK, map[string][]string{"providers": h.flow.Providers()})
}

// Login handles GET /api/v1/auth/oauth/{provider}/login
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	redirect, err := h.flow.Begin(r.Context(), chi.URLParam(r, "provider"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

// Callback handles GET /api/v1/auth/oauth/{provider}/callback
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	q := r.URL.Query()

	if denied := q.Get("error"); denied != "" {
		h.logger.InfoContext(r.Context(), "oauth consent not granted",
			slog.String("provider", provider),
			slog.String("reason", denied),
		)
		h.redirect(w, r, url.Values{"error": {"access_denied"}})
		return
	}

	profile, err := h.flow.Complete(r.Context(), provider, q.Get("state"), q.Get("code"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.accounts.LoginWithProvider(r.Context(), profile)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.redirect(w, r, url.Values{"token": {result.Token.AccessToken}})
}

func (h *OAuthHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := "INTERNAL_ERROR"
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError {
		code = appErr.Code
	} else {
		h.logger.ErrorContext(r.Context(), "oauth callback failed", slog.String("error", err.Error()))
	}
	h.redirect(w, r, url.Values{"error": {code}})
}

func (h *OAuthHandler) redirect(w http.ResponseWriter, r *http.Request, params url.Values) {
	target, err := url.Parse(h.frontendURL)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	q := target.Query()
	for k, vs := range params {
		q[k] = vs
	}
	target.RawQuery = q.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}
