package repository

import (
	"context"

	"github.com/utafrali/TranslateGo/internal/domain"
)

// AccountRepository persists accounts. Lookups that find nothing return an
// error wrapping apperrors.ErrNotFound; a duplicate email on Create or Update
// returns one wrapping apperrors.ErrAlreadyExists.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, account *domain.Account) error
}

// IdentityRepository persists external identities. Create returns an error
// wrapping apperrors.ErrAlreadyExists when (provider, subject) is taken.
type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.ExternalIdentity) error
	GetByProviderSubject(ctx context.Context, provider, subject string) (*domain.ExternalIdentity, error)
	UpdateProfile(ctx context.Context, identity *domain.ExternalIdentity) error
	ListByAccountID(ctx context.Context, accountID string) ([]domain.ExternalIdentity, error)
}

// TranslationJobRepository persists translation jobs.
type TranslationJobRepository interface {
	Create(ctx context.Context, job *domain.TranslationJob) error
	GetByID(ctx context.Context, id string) (*domain.TranslationJob, error)
	// ListByAccount returns one page of the account's jobs, newest first,
	// and the total number of jobs the account owns.
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.TranslationJob, int, error)
	// Update writes status, result and error fields.
	Update(ctx context.Context, job *domain.TranslationJob) error
}

// Repositories groups the stores that take part in one unit of work.
type Repositories struct {
	Accounts   AccountRepository
	Identities IdentityRepository
}

// Transactor runs fn in a single transaction. The transaction commits when
// fn returns nil and rolls back otherwise; fn must use only the repositories
// it is handed.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
