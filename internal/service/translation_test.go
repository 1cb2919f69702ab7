package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/TranslateGo/internal/domain"
	"github.com/utafrali/TranslateGo/internal/repository/memory"
	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
	"github.com/utafrali/TranslateGo/pkg/pagination"
)

func newTestTranslationService(store *memory.Store, tr *mockTranslator, events *mockJobEvents) *TranslationService {
	return NewTranslationService(store.Jobs(), tr, events, newTestLogger())
}

func validInput() CreateTranslationInput {
	return CreateTranslationInput{
		AccountID:  "acc-1",
		SourceLang: "en",
		TargetLang: "de",
		Text:       "good morning",
	}
}

// --- Create Tests ---

func TestCreateTranslation_Success(t *testing.T) {
	store := memory.NewStore()
	events := new(mockJobEvents)
	svc := newTestTranslationService(store, new(mockTranslator), events)
	ctx := context.Background()

	events.On("PublishTranslationRequested", mock.Anything, mock.AnythingOfType("*domain.TranslationJob")).Return(nil)

	job, err := svc.Create(ctx, validInput())

	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, domain.JobPending, job.Status)
	assert.Equal(t, "acc-1", job.AccountID)

	stored, err := store.Jobs().GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, stored.Status)
	events.AssertExpectations(t)
}

func TestCreateTranslation_PublishFailureMarksJobFailed(t *testing.T) {
	store := memory.NewStore()
	events := new(mockJobEvents)
	svc := newTestTranslationService(store, new(mockTranslator), events)
	ctx := context.Background()

	events.On("PublishTranslationRequested", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	job, err := svc.Create(ctx, validInput())

	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.NotEmpty(t, job.ErrorMessage)
	assert.NotNil(t, job.CompletedAt)

	stored, err := store.Jobs().GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, stored.Status)
}

func TestCreateTranslation_InvalidInput(t *testing.T) {
	svc := newTestTranslationService(memory.NewStore(), new(mockTranslator), new(mockJobEvents))

	blank := validInput()
	blank.Text = "   "
	same := validInput()
	same.TargetLang = "EN"

	for _, in := range []CreateTranslationInput{blank, same} {
		_, err := svc.Create(context.Background(), in)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
}

// --- Get / List Tests ---

func TestGetTranslation_OtherOwnerIsNotFound(t *testing.T) {
	store := memory.NewStore()
	events := new(mockJobEvents)
	svc := newTestTranslationService(store, new(mockTranslator), events)
	ctx := context.Background()

	events.On("PublishTranslationRequested", mock.Anything, mock.Anything).Return(nil)
	job, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	got, err := svc.Get(ctx, "acc-1", job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)

	_, err = svc.Get(ctx, "acc-2", job.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Get(ctx, "acc-1", "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListTranslations(t *testing.T) {
	store := memory.NewStore()
	events := new(mockJobEvents)
	svc := newTestTranslationService(store, new(mockTranslator), events)
	ctx := context.Background()

	events.On("PublishTranslationRequested", mock.Anything, mock.Anything).Return(nil)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		_, err := svc.Create(ctx, validInput())
		require.NoError(t, err)
	}
	other := validInput()
	other.AccountID = "acc-2"
	_, err := svc.Create(ctx, other)
	require.NoError(t, err)

	page, err := svc.List(ctx, "acc-1", pagination.Params{Page: 1, PerPage: 2})
	require.NoError(t, err)

	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt))

	last, err := svc.List(ctx, "acc-1", pagination.Params{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, last.Items, 1)
	assert.False(t, last.HasNext)
}

// --- Process Tests ---

func createPending(t *testing.T, store *memory.Store, text string) *domain.TranslationJob {
	t.Helper()
	job := &domain.TranslationJob{
		ID:           "job-1",
		AccountID:    "acc-1",
		SourceLang:   "en",
		TargetLang:   "de",
		OriginalText: text,
		Status:       domain.JobPending,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, store.Jobs().Create(context.Background(), job))
	return job
}

func TestProcess_Completes(t *testing.T) {
	store := memory.NewStore()
	tr := new(mockTranslator)
	svc := newTestTranslationService(store, tr, new(mockJobEvents))
	ctx := context.Background()
	createPending(t, store, "grüß dich")

	tr.On("Translate", mock.Anything, "grüß dich", "en", "de").Return("hallo", nil).Once()

	require.NoError(t, svc.Process(ctx, "job-1"))

	job, err := store.Jobs().GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, job.Status)
	assert.Equal(t, "hallo", job.TranslatedText)
	assert.Equal(t, 9, job.CharCount)
	assert.NotNil(t, job.CompletedAt)

	// Redelivery leaves the finished job alone.
	require.NoError(t, svc.Process(ctx, "job-1"))
	tr.AssertExpectations(t)
}

func TestProcess_ProviderErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "client error is shown",
			err:     apperrors.New("TRANSLATION_FAILED", "unsupported language pair", http.StatusUnprocessableEntity, apperrors.ErrInvalidInput),
			wantMsg: "unsupported language pair",
		},
		{
			name:    "server error is hidden",
			err:     apperrors.Unavailable("translate-api is unavailable"),
			wantMsg: genericFailure,
		},
		{
			name:    "unexpected error is hidden",
			err:     errors.New("dial tcp: connection refused"),
			wantMsg: genericFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			tr := new(mockTranslator)
			svc := newTestTranslationService(store, tr, new(mockJobEvents))
			ctx := context.Background()
			createPending(t, store, "hello")

			tr.On("Translate", mock.Anything, "hello", "en", "de").Return("", tt.err)

			require.NoError(t, svc.Process(ctx, "job-1"))

			job, err := store.Jobs().GetByID(ctx, "job-1")
			require.NoError(t, err)
			assert.Equal(t, domain.JobFailed, job.Status)
			assert.Equal(t, tt.wantMsg, job.ErrorMessage)
			assert.Empty(t, job.TranslatedText)
		})
	}
}

func TestProcess_MissingJob(t *testing.T) {
	svc := newTestTranslationService(memory.NewStore(), new(mockTranslator), new(mockJobEvents))

	err := svc.Process(context.Background(), "missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
