package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/TranslateGo/internal/domain"
	"github.com/utafrali/TranslateGo/pkg/database"
	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
)

const identityColumns = `id, account_id, provider, subject, profile, created_at, updated_at`

// IdentityRepository implements repository.IdentityRepository using PostgreSQL.
type IdentityRepository struct {
	db database.DBTX
}

// NewIdentityRepository creates an identity repository on a pool or a tx.
func NewIdentityRepository(db database.DBTX) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Create inserts a new identity. The (provider, subject) unique index turns a
// concurrent duplicate into apperrors.ErrAlreadyExists.
func (r *IdentityRepository) Create(ctx context.Context, i *domain.ExternalIdentity) (err error) {
	query := `
		INSERT INTO external_identities (id, account_id, provider, subject, profile, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	ctx, end := database.TraceQuery(ctx, "CreateExternalIdentity", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		i.ID,
		i.AccountID,
		i.Provider,
		i.Subject,
		i.Profile,
		i.CreatedAt,
		i.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("external identity", "subject", i.Provider+":"+i.Subject)
		}
		return fmt.Errorf("insert external identity: %w", err)
	}
	return nil
}

// GetByProviderSubject retrieves the identity a provider issued for subject.
func (r *IdentityRepository) GetByProviderSubject(ctx context.Context, provider, subject string) (_ *domain.ExternalIdentity, err error) {
	query := `SELECT ` + identityColumns + ` FROM external_identities WHERE provider = $1 AND subject = $2`

	ctx, end := database.TraceQuery(ctx, "GetExternalIdentity", query)
	defer func() { end(err) }()

	var i domain.ExternalIdentity
	err = r.db.QueryRow(ctx, query, provider, subject).Scan(
		&i.ID,
		&i.AccountID,
		&i.Provider,
		&i.Subject,
		&i.Profile,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("external identity", provider+":"+subject)
		}
		return nil, fmt.Errorf("scan external identity: %w", err)
	}
	return &i, nil
}

// UpdateProfile replaces the cached profile snapshot.
func (r *IdentityRepository) UpdateProfile(ctx context.Context, i *domain.ExternalIdentity) (err error) {
	query := `UPDATE external_identities SET profile = $1, updated_at = $2 WHERE id = $3`

	ctx, end := database.TraceQuery(ctx, "UpdateExternalIdentityProfile", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, i.Profile, i.UpdatedAt, i.ID)
	if err != nil {
		return fmt.Errorf("update external identity: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("external identity", i.ID)
	}
	return nil
}

// ListByAccountID returns the identities linked to an account, oldest first.
func (r *IdentityRepository) ListByAccountID(ctx context.Context, accountID string) (_ []domain.ExternalIdentity, err error) {
	query := `SELECT ` + identityColumns + ` FROM external_identities WHERE account_id = $1 ORDER BY created_at`

	ctx, end := database.TraceQuery(ctx, "ListExternalIdentities", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list external identities: %w", err)
	}
	defer rows.Close()

	identities := make([]domain.ExternalIdentity, 0)
	for rows.Next() {
		var i domain.ExternalIdentity
		if err = rows.Scan(&i.ID, &i.AccountID, &i.Provider, &i.Subject, &i.Profile, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan external identity: %w", err)
		}
		identities = append(identities, i)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate external identities: %w", err)
	}
	return identities, nil
}
