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

const jobColumns = `id, account_id, source_lang, target_lang, original_text, COALESCE(translated_text, ''),
		status, COALESCE(error_message, ''), char_count, created_at, completed_at`

// TranslationJobRepository implements repository.TranslationJobRepository
// using PostgreSQL.
type TranslationJobRepository struct {
	db database.DBTX
}

// NewTranslationJobRepository creates a job repository.
func NewTranslationJobRepository(db database.DBTX) *TranslationJobRepository {
	return &TranslationJobRepository{db: db}
}

// Create inserts a new job.
func (r *TranslationJobRepository) Create(ctx context.Context, j *domain.TranslationJob) (err error) {
	query := `
		INSERT INTO translation_jobs (id, account_id, source_lang, target_lang, original_text, status, char_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	ctx, end := database.TraceQuery(ctx, "CreateTranslationJob", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		j.ID,
		j.AccountID,
		j.SourceLang,
		j.TargetLang,
		j.OriginalText,
		string(j.Status),
		j.CharCount,
		j.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert translation job: %w", err)
	}
	return nil
}

// GetByID retrieves a job by id.
func (r *TranslationJobRepository) GetByID(ctx context.Context, id string) (_ *domain.TranslationJob, err error) {
	query := `SELECT ` + jobColumns + ` FROM translation_jobs WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetTranslationJob", query)
	defer func() { end(err) }()

	j, err := scanJob(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("translation job", id)
		}
		return nil, fmt.Errorf("scan translation job: %w", err)
	}
	return j, nil
}

// ListByAccount returns a page of the account's jobs, newest first.
func (r *TranslationJobRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) (_ []domain.TranslationJob, total int, err error) {
	countQuery := `SELECT COUNT(*) FROM translation_jobs WHERE account_id = $1`
	query := `SELECT ` + jobColumns + `
		FROM translation_jobs
		WHERE account_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`

	ctx, end := database.TraceQuery(ctx, "ListTranslationJobs", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, countQuery, accountID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count translation jobs: %w", err)
	}

	rows, err := r.db.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list translation jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]domain.TranslationJob, 0, limit)
	for rows.Next() {
		j, serr := scanJob(rows)
		if serr != nil {
			err = serr
			return nil, 0, fmt.Errorf("scan translation job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate translation jobs: %w", err)
	}
	return jobs, total, nil
}

// Update writes the job's status, result and error fields.
func (r *TranslationJobRepository) Update(ctx context.Context, j *domain.TranslationJob) (err error) {
	query := `
		UPDATE translation_jobs
		SET status = $1, translated_text = NULLIF($2, ''), error_message = NULLIF($3, ''),
		    char_count = $4, completed_at = $5
		WHERE id = $6`

	ctx, end := database.TraceQuery(ctx, "UpdateTranslationJob", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query,
		string(j.Status),
		j.TranslatedText,
		j.ErrorMessage,
		j.CharCount,
		j.CompletedAt,
		j.ID,
	)
	if err != nil {
		return fmt.Errorf("update translation job: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("translation job", j.ID)
	}
	return nil
}

func scanJob(row pgx.Row) (*domain.TranslationJob, error) {
	var (
		j      domain.TranslationJob
		status string
	)
	if err := row.Scan(
		&j.ID,
		&j.AccountID,
		&j.SourceLang,
		&j.TargetLang,
		&j.OriginalText,
		&j.TranslatedText,
		&status,
		&j.ErrorMessage,
		&j.CharCount,
		&j.CreatedAt,
		&j.CompletedAt,
	); err != nil {
		return nil, err
	}
	j.Status = domain.JobStatus(status)
	return &j, nil
}
