package domain

import (
	"encoding/json"
	"time"
)

// Provider names for the external identity providers this service speaks to.
const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// ExternalIdentity binds one provider-issued subject to an Account. The pair
// (Provider, Subject) is unique across all identities.
type ExternalIdentity struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Provider  string          `json:"provider"`
	Subject   string          `json:"subject"`
	Profile   json.RawMessage `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ExternalProfile is what a provider asserted about the user at sign-in.
// Raw is the provider's userinfo document, kept as the identity's profile
// snapshot.
type ExternalProfile struct {
	Provider    string
	Subject     string
	Email       string
	DisplayName string
	AvatarURL   string
	Raw         json.RawMessage
}

// Snapshot returns Raw, or a minimal document built from the typed fields
// when the provider returned nothing.
func (p ExternalProfile) Snapshot() json.RawMessage {
	if len(p.Raw) > 0 && json.Valid(p.Raw) {
		return p.Raw
	}
	b, _ := json.Marshal(map[string]string{
		"sub":     p.Subject,
		"email":   p.Email,
		"name":    p.DisplayName,
		"picture": p.AvatarURL,
	})
	return b
}
