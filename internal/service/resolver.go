package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/TranslateGo/internal/domain"
	"github.com/utafrali/TranslateGo/internal/repository"
	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
)

// DefaultResolveAttempts bounds how often Resolve re-runs after losing an
// insert race.
const DefaultResolveAttempts = 3

// IdentityResolver maps a provider-asserted identity to exactly one account.
//
// Each attempt runs in one transaction and walks the same decision tree:
// an existing (provider, subject) link wins, then an account with the same
// email is linked, and otherwise a new account is created. When a
// concurrent caller commits the same identity or email first, the store
// rejects the insert with apperrors.ErrAlreadyExists; the attempt is rolled
// back and the tree re-run, so the loser converges on the winner's rows.
//
// Linking by email trusts the provider's claim that the user owns that
// address. Providers that do not verify email would let their users take
// over local accounts; see the provider implementations for which email
// they report.
type IdentityResolver struct {
	tx          repository.Transactor
	maxAttempts int
	now         func() time.Time
	logger      *slog.Logger
}

// NewIdentityResolver creates a resolver with DefaultResolveAttempts.
func NewIdentityResolver(tx repository.Transactor, logger *slog.Logger) *IdentityResolver {
	return &IdentityResolver{
		tx:          tx,
		maxAttempts: DefaultResolveAttempts,
		now:         time.Now,
		logger:      logger,
	}
}

// Resolve returns the account for p, creating or linking rows as needed.
func (r *IdentityResolver) Resolve(ctx context.Context, p domain.ExternalProfile) (*domain.Resolution, error) {
	if p.Provider == "" || p.Subject == "" {
		return nil, apperrors.InvalidInput("provider and subject are required")
	}
	email := domain.NormalizeEmail(p.Email)

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		var res *domain.Resolution
		err := r.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			var err error
			res, err = r.resolve(ctx, repos, p, email)
			return err
		})
		if err == nil {
			identityResolutions.WithLabelValues(p.Provider, string(res.Outcome)).Inc()
			r.logger.InfoContext(ctx, "external identity resolved",
				slog.String("provider", p.Provider),
				slog.String("account_id", res.Account.ID),
				slog.String("outcome", string(res.Outcome)),
			)
			return res, nil
		}
		if !errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, fmt.Errorf("resolve %s identity: %w", p.Provider, err)
		}

		identityResolveConflicts.WithLabelValues(p.Provider).Inc()
		r.logger.WarnContext(ctx, "identity resolution lost an insert race, retrying",
			slog.String("provider", p.Provider),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
	}

	return nil, apperrors.Internal(fmt.Errorf("resolve %s identity after %d attempts: %w",
		p.Provider, r.maxAttempts, domain.ErrIdentityLinkRace))
}

func (r *IdentityResolver) resolve(ctx context.Context, repos repository.Repositories, p domain.ExternalProfile, email string) (*domain.Resolution, error) {
	now := r.now().UTC()
	snapshot := p.Snapshot()

	identity, err := repos.Identities.GetByProviderSubject(ctx, p.Provider, p.Subject)
	switch {
	case err == nil:
		account, err := repos.Accounts.GetByID(ctx, identity.AccountID)
		if err != nil {
			return nil, fmt.Errorf("load linked account: %w", err)
		}
		if err := r.touch(ctx, repos, account, p, now); err != nil {
			return nil, err
		}
		identity.Profile = snapshot
		identity.UpdatedAt = now
		if err := repos.Identities.UpdateProfile(ctx, identity); err != nil {
			return nil, fmt.Errorf("refresh identity profile: %w", err)
		}
		return &domain.Resolution{Account: account, Identity: identity, Outcome: domain.OutcomeExisting}, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("look up identity: %w", err)
	}

	if email == "" {
		return nil, apperrors.InvalidInput(p.Provider + " did not report an email address")
	}

	outcome := domain.OutcomeLinked
	account, err := repos.Accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := r.touch(ctx, repos, account, p, now); err != nil {
			return nil, err
		}
	case errors.Is(err, apperrors.ErrNotFound):
		outcome = domain.OutcomeCreated
		account = &domain.Account{
			ID:          uuid.NewString(),
			Email:       email,
			Username:    domain.UsernameFromEmail(email),
			DisplayName: p.DisplayName,
			AvatarURL:   p.AvatarURL,
			Enabled:     true,
			CreatedAt:   now,
			UpdatedAt:   now,
			LastLoginAt: &now,
		}
		if err := repos.Accounts.Create(ctx, account); err != nil {
			return nil, fmt.Errorf("create account: %w", err)
		}
	default:
		return nil, fmt.Errorf("look up account by email: %w", err)
	}

	identity = &domain.ExternalIdentity{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Provider:  p.Provider,
		Subject:   p.Subject,
		Profile:   snapshot,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repos.Identities.Create(ctx, identity); err != nil {
		return nil, fmt.Errorf("link identity: %w", err)
	}
	return &domain.Resolution{Account: account, Identity: identity, Outcome: outcome}, nil
}

// touch refreshes profile fields and last login. The password hash is
// written back unchanged.
func (r *IdentityResolver) touch(ctx context.Context, repos repository.Repositories, a *domain.Account, p domain.ExternalProfile, now time.Time) error {
	a.RefreshProfile(p.DisplayName, p.AvatarURL)
	a.TouchLogin(now)
	if err := repos.Accounts.Update(ctx, a); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}
