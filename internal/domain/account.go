package domain

import (
	"strings"
	"time"

	"github.com/utafrali/TranslateGo/pkg/slug"
)

// Account is one internal identity. Email is unique across all accounts and
// PasswordHash is empty for accounts that only ever signed in through an
// external provider.
type Account struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Username     string     `json:"username"`
	DisplayName  string     `json:"display_name,omitempty"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	Enabled      bool       `json:"enabled"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// HasPassword reports whether the account can sign in with a local password.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// TouchLogin records a successful sign-in at now.
func (a *Account) TouchLogin(now time.Time) {
	a.LastLoginAt = &now
	a.UpdatedAt = now
}

// RefreshProfile copies non-empty profile fields from an external provider.
func (a *Account) RefreshProfile(displayName, avatarURL string) {
	if displayName != "" {
		a.DisplayName = displayName
	}
	if avatarURL != "" {
		a.AvatarURL = avatarURL
	}
}

// NormalizeEmail lower-cases and trims an address so lookups and the unique
// index agree on one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UsernameFromEmail derives a provisional username from the local part of
// email, e.g. "Jane.Doe+news@x.com" becomes "jane_doe_news".
func UsernameFromEmail(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i >= 0 {
		local = email[:i]
	}
	if u := slug.Generate(local, "_"); u != "" {
		return u
	}
	return "user"
}
