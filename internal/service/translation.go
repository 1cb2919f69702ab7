package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/TranslateGo/internal/domain"
	"github.com/utafrali/TranslateGo/internal/repository"
	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
	"github.com/utafrali/TranslateGo/pkg/pagination"
)

// genericFailure is stored on a job when the provider failed in a way that
// should not be shown to the owner.
const genericFailure = "translation failed, please try again later"

// Translator turns text from one language into another.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// JobEvents publishes translation job events.
type JobEvents interface {
	PublishTranslationRequested(ctx context.Context, job *domain.TranslationJob) error
}

// CreateTranslationInput holds the parameters for a new job.
type CreateTranslationInput struct {
	AccountID  string
	SourceLang string
	TargetLang string
	Text       string
}

// TranslationService creates translation jobs and runs them.
type TranslationService struct {
	jobs       repository.TranslationJobRepository
	translator Translator
	events     JobEvents
	now        func() time.Time
	logger     *slog.Logger
}

// NewTranslationService creates a TranslationService.
func NewTranslationService(
	jobs repository.TranslationJobRepository,
	translator Translator,
	events JobEvents,
	logger *slog.Logger,
) *TranslationService {
	return &TranslationService{
		jobs:       jobs,
		translator: translator,
		events:     events,
		now:        time.Now,
		logger:     logger,
	}
}

// Create stores a pending job and hands it to the worker. When the hand-off
// fails the job is stored as failed and still returned.
func (s *TranslationService) Create(ctx context.Context, in CreateTranslationInput) (*domain.TranslationJob, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, apperrors.InvalidInput("text must not be empty")
	}
	if strings.EqualFold(in.SourceLang, in.TargetLang) {
		return nil, apperrors.InvalidInput("source and target language must differ")
	}

	job := &domain.TranslationJob{
		ID:           uuid.NewString(),
		AccountID:    in.AccountID,
		SourceLang:   in.SourceLang,
		TargetLang:   in.TargetLang,
		OriginalText: in.Text,
		Status:       domain.JobPending,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create translation job: %w", err)
	}

	if err := s.events.PublishTranslationRequested(ctx, job); err != nil {
		s.logger.ErrorContext(ctx, "failed to enqueue translation job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		job.Fail("could not queue translation job", s.now().UTC())
		if err := s.jobs.Update(ctx, job); err != nil {
			return nil, fmt.Errorf("mark translation job failed: %w", err)
		}
		translationJobs.WithLabelValues(string(domain.JobFailed)).Inc()
	}

	return job, nil
}

// Get returns one of the account's jobs. Jobs owned by other accounts are
// reported as not found.
func (s *TranslationService) Get(ctx context.Context, accountID, jobID string) (*domain.TranslationJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.AccountID != accountID {
		return nil, apperrors.NotFound("translation job", jobID)
	}
	return job, nil
}

// List returns one page of the account's jobs, newest first.
func (s *TranslationService) List(ctx context.Context, accountID string, p pagination.Params) (pagination.Result[domain.TranslationJob], error) {
	jobs, total, err := s.jobs.ListByAccount(ctx, accountID, p.PerPage, p.Offset())
	if err != nil {
		return pagination.Result[domain.TranslationJob]{}, fmt.Errorf("list translation jobs: %w", err)
	}
	return pagination.NewResult(jobs, total, p), nil
}

// Process runs the translation for a job. Jobs already completed or failed
// are left alone, so redelivered messages are harmless.
func (s *TranslationService) Process(ctx context.Context, jobID string) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load translation job: %w", err)
	}
	if job.Status.Terminal() {
		s.logger.DebugContext(ctx, "translation job already finished",
			slog.String("job_id", job.ID),
			slog.String("status", string(job.Status)),
		)
		return nil
	}

	job.Status = domain.JobProcessing
	if err := s.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("mark translation job processing: %w", err)
	}

	start := time.Now()
	translated, err := s.translator.Translate(ctx, job.OriginalText, job.SourceLang, job.TargetLang)
	translationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		msg := genericFailure
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Status < 500 {
			msg = appErr.Message
		}
		s.logger.WarnContext(ctx, "translation failed",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		job.Fail(msg, s.now().UTC())
	} else {
		job.Complete(translated, s.now().UTC())
	}

	if err := s.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("store translation result: %w", err)
	}
	translationJobs.WithLabelValues(string(job.Status)).Inc()

	s.logger.InfoContext(ctx, "translation job finished",
		slog.String("job_id", job.ID),
		slog.String("status", string(job.Status)),
		slog.Int("char_count", job.CharCount),
	)
	return nil
}
