package auth

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
)

// DefaultBcryptCost is used when no cost is configured.
const DefaultBcryptCost = 12

// ErrPasswordTooLong is returned by Hash for passwords over bcrypt's 72 byte
// limit. Multi-byte characters count by their encoded length.
var ErrPasswordTooLong = apperrors.New("PASSWORD_TOO_LONG", "password must be at most 72 bytes",
	http.StatusBadRequest, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, bcrypt.ErrPasswordTooLong))

// PasswordHasher hashes and verifies local passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher. A cost outside bcrypt's range falls
// back to DefaultBcryptCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns a salted bcrypt hash of raw. Inputs over 72 bytes are rejected.
func (h *PasswordHasher) Hash(raw string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether raw matches hash. An empty hash never matches.
func (h *PasswordHasher) Verify(raw, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
