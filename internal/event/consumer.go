package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/TranslateGo/pkg/kafka"
)

// JobProcessor runs one translation job to completion.
type JobProcessor interface {
	Process(ctx context.Context, jobID string) error
}

// TranslationHandler decodes translation.requested events and runs the job.
// Other event types on the topic are ignored.
func TranslationHandler(processor JobProcessor, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, ev *pkgkafka.Event) error {
		if ev.EventType != TypeTranslationRequested {
			logger.DebugContext(ctx, "ignoring event", slog.String("event_type", ev.EventType))
			return nil
		}

		var data TranslationRequestedData
		if err := ev.UnmarshalData(&data); err != nil {
			// Retrying cannot fix a bad payload.
			logger.ErrorContext(ctx, "dropping undecodable translation request",
				slog.String("event_id", ev.EventID),
				slog.String("error", err.Error()),
			)
			return nil
		}
		if data.JobID == "" {
			logger.ErrorContext(ctx, "dropping translation request without job id",
				slog.String("event_id", ev.EventID),
			)
			return nil
		}

		if err := processor.Process(ctx, data.JobID); err != nil {
			return fmt.Errorf("process translation job %s: %w", data.JobID, err)
		}
		return nil
	}
}

// WorkerConfig configures the translation worker consumer.
type WorkerConfig struct {
	Brokers []string
	GroupID string
}

// NewTranslationWorker builds the consumer for translation.requested:
// duplicate deliveries are dropped through store, and messages that fail
// every attempt go to dlq.
func NewTranslationWorker(cfg WorkerConfig, processor JobProcessor, store pkgkafka.IdempotencyStore, dlq pkgkafka.DeadLetterPublisher, logger *slog.Logger) *pkgkafka.Consumer {
	handler := pkgkafka.IdempotentHandler(store, TranslationHandler(processor, logger), logger)
	return pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    TopicTranslationRequested,
		MinBytes: 1,
		MaxBytes: 10 << 20,
	}, handler, logger).WithDeadLetter(dlq)
}
