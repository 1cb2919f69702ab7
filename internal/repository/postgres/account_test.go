package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/TranslateGo/internal/domain"
	"github.com/utafrali/TranslateGo/pkg/database"
	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

// anyArgs matches n positional arguments of any value. pgxmock compares
// argument counts, so an expectation without arguments never matches.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func sampleAccount() *domain.Account {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Account{
		ID:           "acc-1",
		Email:        "alice@example.com",
		PasswordHash: "$2a$04$hash",
		Username:     "alice",
		DisplayName:  "Alice",
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func accountRow(a *domain.Account) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "email", "password_hash", "username", "display_name", "avatar_url",
		"enabled", "created_at", "updated_at", "last_login_at",
	}).AddRow(
		a.ID, a.Email, a.PasswordHash, a.Username, a.DisplayName, a.AvatarURL,
		a.Enabled, a.CreatedAt, a.UpdatedAt, a.LastLoginAt,
	)
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func TestAccountRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)
	a := sampleAccount()

	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(a.ID, a.Email, a.PasswordHash, a.Username, a.DisplayName, a.AvatarURL,
			a.Enabled, a.CreatedAt, a.UpdatedAt, a.LastLoginAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Create_DuplicateEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)

	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(anyArgs(10)...).
		WillReturnError(uniqueViolation("accounts_email_key"))

	err := repo.Create(context.Background(), sampleAccount())
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Create_OtherError(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)

	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(anyArgs(10)...).
		WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), sampleAccount())
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrAlreadyExists))
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetByEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)
	a := sampleAccount()
	login := a.CreatedAt.Add(time.Hour)
	a.LastLoginAt = &login

	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE email").
		WithArgs(a.Email).
		WillReturnRows(accountRow(a))

	got, err := repo.GetByEmail(context.Background(), a.Email)
	require.NoError(t, err)
	assert.Equal(t, a, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetByID_OAuthOnlyAccount(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)
	a := sampleAccount()
	a.PasswordHash = ""

	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id").
		WithArgs(a.ID).
		WillReturnRows(accountRow(a))

	got, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.False(t, got.HasPassword())
	assert.Nil(t, got.LastLoginAt)
}

func TestAccountRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestAccountRepository_ExistsByEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("alice@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Update(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)
	a := sampleAccount()

	mock.ExpectExec("UPDATE accounts").
		WithArgs(a.Email, a.PasswordHash, a.Username, a.DisplayName, a.AvatarURL,
			a.Enabled, a.UpdatedAt, a.LastLoginAt, a.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Update(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Update_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)

	mock.ExpectExec("UPDATE accounts").
		WithArgs(anyArgs(9)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), sampleAccount())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
