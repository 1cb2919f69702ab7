package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/TranslateGo/internal/domain"
	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
)

// Token validation failures. Each wraps apperrors.ErrUnauthorized.
var (
	ErrTokenMalformed = apperrors.New("TOKEN_MALFORMED", "token is malformed",
		http.StatusUnauthorized, apperrors.ErrUnauthorized)
	ErrTokenInvalidSignature = apperrors.New("TOKEN_INVALID_SIGNATURE", "token signature is invalid",
		http.StatusUnauthorized, apperrors.ErrUnauthorized)
	ErrTokenExpired = apperrors.New("TOKEN_EXPIRED", "token has expired",
		http.StatusUnauthorized, apperrors.ErrUnauthorized)
)

const (
	// DefaultIssuer is the iss claim of every token this service signs.
	DefaultIssuer = "translate-service"
	tokenType     = "Bearer"
)

// TokenService issues and validates HS256 access tokens whose subject is the
// account email.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces time.Now for both issuing and validating.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// WithIssuer overrides DefaultIssuer.
func WithIssuer(iss string) TokenOption {
	return func(s *TokenService) { s.issuer = iss }
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) *TokenService {
	s := &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	return s
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate signs a token for account.
func (s *TokenService) Generate(account *domain.Account) (domain.Token, error) {
	now := s.now().UTC()
	exp := now.Add(s.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   account.Email,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return domain.Token{}, fmt.Errorf("sign token: %w", err)
	}

	return domain.Token{
		AccessToken: signed,
		TokenType:   tokenType,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Validate checks the signature, then expiry, and returns the subject. The
// error is always one of ErrTokenMalformed, ErrTokenInvalidSignature or
// ErrTokenExpired.
func (s *TokenService) Validate(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := s.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", s.classify(tokenString, err)
	}
	if claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}

func (s *TokenService) classify(tokenString string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		// Header and claims decode but the signature segment does not: the
		// token was tampered with rather than garbled.
		var claims jwt.RegisteredClaims
		if _, _, perr := s.parser.ParseUnverified(tokenString, &claims); perr == nil {
			return ErrTokenInvalidSignature
		}
		return ErrTokenMalformed
	default:
		return ErrTokenMalformed
	}
}
