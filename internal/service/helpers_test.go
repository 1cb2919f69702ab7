package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/TranslateGo/internal/auth"
	"github.com/utafrali/TranslateGo/internal/domain"
	"github.com/utafrali/TranslateGo/internal/repository/memory"
)

// --- Mock Account Events ---

type mockAccountEvents struct {
	mock.Mock
}

func (m *mockAccountEvents) PublishAccountRegistered(ctx context.Context, a *domain.Account) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockAccountEvents) PublishIdentityLinked(ctx context.Context, i *domain.ExternalIdentity, outcome domain.Outcome) error {
	args := m.Called(ctx, i, outcome)
	return args.Error(0)
}

// --- Mock Job Events ---

type mockJobEvents struct {
	mock.Mock
}

func (m *mockJobEvents) PublishTranslationRequested(ctx context.Context, job *domain.TranslationJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// --- Mock Translator ---

type mockTranslator struct {
	mock.Mock
}

func (m *mockTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	args := m.Called(ctx, text, sourceLang, targetLang)
	return args.String(0), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTokens() *auth.TokenService {
	return auth.NewTokenService("test-secret-key-for-testing-0123456789", time.Hour)
}

// newTestAccountService wires an AccountService over an in-memory store
// with the cheapest bcrypt cost.
func newTestAccountService(store *memory.Store, events *mockAccountEvents) *AccountService {
	logger := newTestLogger()
	resolver := NewIdentityResolver(store, logger)
	return NewAccountService(
		store.Accounts(),
		store.Identities(),
		resolver,
		auth.NewPasswordHasher(4),
		newTestTokens(),
		events,
		logger,
	)
}

func githubProfile(subject, email string) domain.ExternalProfile {
	return domain.ExternalProfile{
		Provider:    domain.ProviderGitHub,
		Subject:     subject,
		Email:       email,
		DisplayName: "Octo Cat",
		AvatarURL:   "https://avatars.example.com/" + subject,
	}
}
