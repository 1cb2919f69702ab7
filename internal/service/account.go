package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/TranslateGo/internal/auth"
	"github.com/utafrali/TranslateGo/internal/domain"
	"github.com/utafrali/TranslateGo/internal/repository"
	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
)

// AccountEvents publishes account lifecycle events.
type AccountEvents interface {
	PublishAccountRegistered(ctx context.Context, a *domain.Account) error
	PublishIdentityLinked(ctx context.Context, i *domain.ExternalIdentity, outcome domain.Outcome) error
}

// Resolver maps an external profile to an account.
type Resolver interface {
	Resolve(ctx context.Context, p domain.ExternalProfile) (*domain.Resolution, error)
}

// AccountService implements registration and sign-in.
type AccountService struct {
	accounts   repository.AccountRepository
	identities repository.IdentityRepository
	resolver   Resolver
	hasher     *auth.PasswordHasher
	tokens     *auth.TokenService
	events     AccountEvents
	now        func() time.Time
	logger     *slog.Logger

	// dummyHash is verified against when the email is unknown so that
	// unknown and known emails take the same time.
	dummyHash func() string
}

// NewAccountService creates an AccountService.
func NewAccountService(
	accounts repository.AccountRepository,
	identities repository.IdentityRepository,
	resolver Resolver,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenService,
	events AccountEvents,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		accounts:   accounts,
		identities: identities,
		resolver:   resolver,
		hasher:     hasher,
		tokens:     tokens,
		events:     events,
		now:        time.Now,
		logger:     logger,
		dummyHash:  newDummyHash(hasher.Hash, logger),
	}
}

// fallbackDummyHash is a valid cost 10 bcrypt hash used when a fresh dummy
// hash cannot be generated.
const fallbackDummyHash = "$2a$10$XajjQvNhvvRt5GSeFk1xFeyqRrsxkhBkUiQeg0dt.wU1qD4aFDcga"

// newDummyHash hashes a random password once, on first use.
func newDummyHash(hash func(string) (string, error), logger *slog.Logger) func() string {
	return sync.OnceValue(func() string {
		h, err := hash(uuid.NewString())
		if err != nil {
			logger.Error("failed to generate dummy password hash, using fallback",
				slog.String("error", err.Error()),
			)
			return fallbackDummyHash
		}
		return h
	})
}

// RegisterInput holds the parameters for a password registration.
type RegisterInput struct {
	Email       string
	Password    string
	Username    string
	DisplayName string
}

// LoginInput holds the parameters for a password sign-in.
type LoginInput struct {
	Email    string
	Password string
}

// AccountProfile is an account together with its linked identities.
type AccountProfile struct {
	Account    *domain.Account           `json:"account"`
	Identities []domain.ExternalIdentity `json:"identities"`
}

// Register creates a password account. A taken email, including one taken
// by a concurrent registration, fails with domain.ErrEmailAlreadyExists.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.Account, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}

	exists, err := s.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, domain.ErrEmailAlreadyExists
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	username := in.Username
	if username == "" {
		username = domain.UsernameFromEmail(email)
	}

	now := s.now().UTC()
	account := &domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Username:     username,
		DisplayName:  in.DisplayName,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, domain.ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	if err := s.events.PublishAccountRegistered(ctx, account); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.registered event",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account registered", slog.String("account_id", account.ID))
	return account, nil
}

// Login verifies a password and issues a token. Unknown email, an account
// without a password and a wrong password are indistinguishable to the
// caller. A disabled account is reported only after the password matched.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*domain.AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("load account: %w", err)
		}
		s.hasher.Verify(in.Password, s.dummyHash())
		loginAttempts.WithLabelValues(string(domain.AuthMethodPassword), "invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if !s.hasher.Verify(in.Password, account.PasswordHash) {
		loginAttempts.WithLabelValues(string(domain.AuthMethodPassword), "invalid_credentials").Inc()
		s.logger.InfoContext(ctx, "password sign-in rejected", slog.String("account_id", account.ID))
		return nil, domain.ErrInvalidCredentials
	}
	if !account.Enabled {
		loginAttempts.WithLabelValues(string(domain.AuthMethodPassword), "disabled").Inc()
		return nil, domain.ErrAccountUnavailable
	}

	account.TouchLogin(s.now().UTC())
	if err := s.accounts.Update(ctx, account); err != nil {
		s.logger.WarnContext(ctx, "failed to record last login",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	return s.issue(ctx, account, domain.AuthMethodPassword, "")
}

// LoginWithProvider resolves an external profile to an account and issues
// a token for it.
func (s *AccountService) LoginWithProvider(ctx context.Context, p domain.ExternalProfile) (*domain.AuthResult, error) {
	res, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		loginAttempts.WithLabelValues(string(domain.AuthMethodOAuth), "error").Inc()
		return nil, err
	}
	if !res.Account.Enabled {
		loginAttempts.WithLabelValues(string(domain.AuthMethodOAuth), "disabled").Inc()
		return nil, domain.ErrAccountUnavailable
	}

	if res.Outcome != domain.OutcomeExisting {
		if err := s.events.PublishIdentityLinked(ctx, res.Identity, res.Outcome); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish account.identity_linked event",
				slog.String("account_id", res.Account.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return s.issue(ctx, res.Account, domain.AuthMethodOAuth, res.Outcome)
}

func (s *AccountService) issue(ctx context.Context, a *domain.Account, method domain.AuthMethod, outcome domain.Outcome) (*domain.AuthResult, error) {
	tok, err := s.tokens.Generate(a)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	loginAttempts.WithLabelValues(string(method), "success").Inc()
	s.logger.InfoContext(ctx, "signed in",
		slog.String("account_id", a.ID),
		slog.String("method", string(method)),
	)
	return &domain.AuthResult{Account: a, Token: tok, Method: method, Outcome: outcome}, nil
}

// Profile returns an account and its linked identities.
func (s *AccountService) Profile(ctx context.Context, accountID string) (*AccountProfile, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	identities, err := s.identities.ListByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	return &AccountProfile{Account: account, Identities: identities}, nil
}
