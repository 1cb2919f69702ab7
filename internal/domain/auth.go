package domain

import "time"

// AuthMethod says how a caller proved who they are.
type AuthMethod string

const (
	AuthMethodPassword AuthMethod = "password"
	AuthMethodOAuth    AuthMethod = "oauth"
)

// Outcome is what identity resolution did to reach an account.
type Outcome string

const (
	// OutcomeExisting means the external identity was already linked.
	OutcomeExisting Outcome = "existing"
	// OutcomeLinked means a new identity was bound to an account found by email.
	OutcomeLinked Outcome = "linked"
	// OutcomeCreated means a new account and identity were created.
	OutcomeCreated Outcome = "created"
)

// Resolution is the result of resolving an external profile.
type Resolution struct {
	Account  *Account
	Identity *ExternalIdentity
	Outcome  Outcome
}

// Token is a signed bearer credential as handed to clients.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthResult is returned by every successful sign-in, whatever the method.
// Outcome is only set for AuthMethodOAuth.
type AuthResult struct {
	Account *Account   `json:"account"`
	Token   Token      `json:"token"`
	Method  AuthMethod `json:"method"`
	Outcome Outcome    `json:"outcome,omitempty"`
}
