package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/TranslateGo/internal/domain"
	pkgkafka "github.com/utafrali/TranslateGo/pkg/kafka"
)

// Event types published by this service.
const (
	TypeAccountRegistered    = "account.registered"
	TypeIdentityLinked       = "account.identity_linked"
	TypeTranslationRequested = "translation.requested"
)

// Topics, one per event type.
var (
	TopicAccountRegistered    = pkgkafka.Topic("account", "registered")
	TopicIdentityLinked       = pkgkafka.Topic("account", "identity_linked")
	TopicTranslationRequested = pkgkafka.Topic("translation", "requested")
)

const (
	aggregateAccount        = "account"
	aggregateTranslationJob = "translation_job"

	// Source is the producer name stamped on every event.
	Source = "translate-service"
)

// AccountRegisteredData is the payload of account.registered.
type AccountRegisteredData struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
}

// IdentityLinkedData is the payload of account.identity_linked.
type IdentityLinkedData struct {
	AccountID string `json:"account_id"`
	Provider  string `json:"provider"`
	Subject   string `json:"subject"`
	Outcome   string `json:"outcome"`
}

// TranslationRequestedData is the payload of translation.requested. The job
// row is the source of truth; the worker reloads it by JobID.
type TranslationRequestedData struct {
	JobID      string `json:"job_id"`
	AccountID  string `json:"account_id"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Text       string `json:"text"`
}

// Publisher is satisfied by *pkgkafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes this service's domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a Producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// PublishAccountRegistered announces a password registration.
func (p *Producer) PublishAccountRegistered(ctx context.Context, a *domain.Account) error {
	return p.publish(ctx, TopicAccountRegistered, TypeAccountRegistered, a.ID, aggregateAccount, AccountRegisteredData{
		AccountID: a.ID,
		Email:     a.Email,
		Username:  a.Username,
	})
}

// PublishIdentityLinked announces that an external identity was bound to an
// account, either a new one or one found by email.
func (p *Producer) PublishIdentityLinked(ctx context.Context, i *domain.ExternalIdentity, outcome domain.Outcome) error {
	return p.publish(ctx, TopicIdentityLinked, TypeIdentityLinked, i.AccountID, aggregateAccount, IdentityLinkedData{
		AccountID: i.AccountID,
		Provider:  i.Provider,
		Subject:   i.Subject,
		Outcome:   string(outcome),
	})
}

// PublishTranslationRequested hands a pending job to the worker.
func (p *Producer) PublishTranslationRequested(ctx context.Context, j *domain.TranslationJob) error {
	return p.publish(ctx, TopicTranslationRequested, TypeTranslationRequested, j.ID, aggregateTranslationJob, TranslationRequestedData{
		JobID:      j.ID,
		AccountID:  j.AccountID,
		SourceLang: j.SourceLang,
		TargetLang: j.TargetLang,
		Text:       j.OriginalText,
	})
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data any) error {
	ev, err := pkgkafka.NewEvent(ctx, eventType, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if err := p.publisher.Publish(ctx, topic, ev); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	p.logger.DebugContext(ctx, "published event",
		slog.String("event_type", eventType),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}
