package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/TranslateGo/internal/domain"
	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
)

func sampleJob() *domain.TranslationJob {
	return &domain.TranslationJob{
		ID:           "job-1",
		AccountID:    "acc-1",
		SourceLang:   "en",
		TargetLang:   "tr",
		OriginalText: "hello",
		Status:       domain.JobPending,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func jobRows(jobs ...*domain.TranslationJob) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{
		"id", "account_id", "source_lang", "target_lang", "original_text", "translated_text",
		"status", "error_message", "char_count", "created_at", "completed_at",
	})
	for _, j := range jobs {
		rows.AddRow(j.ID, j.AccountID, j.SourceLang, j.TargetLang, j.OriginalText, j.TranslatedText,
			string(j.Status), j.ErrorMessage, j.CharCount, j.CreatedAt, j.CompletedAt)
	}
	return rows
}

func TestTranslationJobRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewTranslationJobRepository(mock)
	j := sampleJob()

	mock.ExpectExec("INSERT INTO translation_jobs").
		WithArgs(j.ID, j.AccountID, j.SourceLang, j.TargetLang, j.OriginalText, "pending", 0, j.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), j))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslationJobRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewTranslationJobRepository(mock)
	j := sampleJob()
	j.Complete("merhaba", j.CreatedAt.Add(time.Second))

	mock.ExpectQuery("SELECT (.+) FROM translation_jobs WHERE id").
		WithArgs(j.ID).
		WillReturnRows(jobRows(j))

	got, err := repo.GetByID(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, j, got)
}

func TestTranslationJobRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewTranslationJobRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM translation_jobs WHERE id").
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "nope")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestTranslationJobRepository_ListByAccount(t *testing.T) {
	mock := newMock(t)
	repo := NewTranslationJobRepository(mock)
	newer := sampleJob()
	newer.ID = "job-2"
	older := sampleJob()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery("SELECT (.+) FROM translation_jobs\\s+WHERE account_id").
		WithArgs("acc-1", 2, 0).
		WillReturnRows(jobRows(newer, older))

	jobs, total, err := repo.ListByAccount(context.Background(), "acc-1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, jobs, 2)
	assert.Equal(t, "job-2", jobs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslationJobRepository_Update(t *testing.T) {
	mock := newMock(t)
	repo := NewTranslationJobRepository(mock)
	j := sampleJob()
	j.Fail("provider unavailable", j.CreatedAt.Add(time.Second))

	mock.ExpectExec("UPDATE translation_jobs").
		WithArgs("failed", "", "provider unavailable", 0, j.CompletedAt, j.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Update(context.Background(), j))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslationJobRepository_Update_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewTranslationJobRepository(mock)

	mock.ExpectExec("UPDATE translation_jobs").
		WithArgs(anyArgs(6)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), sampleJob())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
