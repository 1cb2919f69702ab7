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

const accountColumns = `id, email, COALESCE(password_hash, ''), username, display_name, avatar_url,
		enabled, created_at, updated_at, last_login_at`

// AccountRepository implements repository.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db database.DBTX
}

// NewAccountRepository creates an account repository on a pool or a tx.
func NewAccountRepository(db database.DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account. An empty password hash is stored as NULL.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (err error) {
	query := `
		INSERT INTO accounts (id, email, password_hash, username, display_name, avatar_url, enabled, created_at, updated_at, last_login_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10)`

	ctx, end := database.TraceQuery(ctx, "CreateAccount", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		a.ID,
		a.Email,
		a.PasswordHash,
		a.Username,
		a.DisplayName,
		a.AvatarURL,
		a.Enabled,
		a.CreatedAt,
		a.UpdatedAt,
		a.LastLoginAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("account", "email", a.Email)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by id.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(ctx, "GetAccountByID", query, id)
}

// GetByEmail retrieves an account by its normalized email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.scanAccount(ctx, "GetAccountByEmail", query, email)
}

// ExistsByEmail reports whether an account uses email.
func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (exists bool, err error) {
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`

	ctx, end := database.TraceQuery(ctx, "AccountExistsByEmail", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check account email: %w", err)
	}
	return exists, nil
}

// Update writes every mutable column of a.
func (r *AccountRepository) Update(ctx context.Context, a *domain.Account) (err error) {
	query := `
		UPDATE accounts
		SET email = $1, password_hash = NULLIF($2, ''), username = $3, display_name = $4,
		    avatar_url = $5, enabled = $6, updated_at = $7, last_login_at = $8
		WHERE id = $9`

	ctx, end := database.TraceQuery(ctx, "UpdateAccount", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query,
		a.Email,
		a.PasswordHash,
		a.Username,
		a.DisplayName,
		a.AvatarURL,
		a.Enabled,
		a.UpdatedAt,
		a.LastLoginAt,
		a.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("account", "email", a.Email)
		}
		return fmt.Errorf("update account: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account", a.ID)
	}
	return nil
}

func (r *AccountRepository) scanAccount(ctx context.Context, op, query string, arg string) (_ *domain.Account, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	var a domain.Account
	err = r.db.QueryRow(ctx, query, arg).Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&a.Username,
		&a.DisplayName,
		&a.AvatarURL,
		&a.Enabled,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("account", arg)
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}
