package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/TranslateGo/pkg/logger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeWriter records written messages.
type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

// fakeReader serves queued messages then blocks until ctx ends.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	drained   chan struct{}
	closed    bool
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	return &fakeReader{queue: msgs, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	if len(r.queue) == 0 {
		select {
		case <-r.drained:
		default:
			close(r.drained)
		}
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type fakeDLQ struct {
	mu    sync.Mutex
	msgs  []kafka.Message
	cause error
}

func (d *fakeDLQ) Publish(_ context.Context, msg kafka.Message, lastErr error, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
	d.cause = lastErr
	return nil
}

func encodedEvent(t *testing.T, eventType, aggregateID string) kafka.Message {
	t.Helper()
	ev, err := NewEvent(context.Background(), eventType, aggregateID, "translation_job", "test", map[string]string{"id": aggregateID})
	require.NoError(t, err)
	raw, err := ev.Marshal()
	require.NoError(t, err)
	return kafka.Message{Topic: "translate.translation.requested", Key: []byte(aggregateID), Value: raw}
}

func runConsumer(t *testing.T, c *Consumer, r *fakeReader) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	select {
	case <-r.drained:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not drain queue")
	}
	cancel()
	require.NoError(t, <-done)
}

func TestNewEvent_CopiesCorrelationID(t *testing.T) {
	ctx := logger.WithCorrelationID(context.Background(), "corr-9")
	ev, err := NewEvent(ctx, "translation.requested", "job-1", "translation_job", "translate-service", map[string]int{"n": 1})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "corr-9", ev.CorrelationID)
	assert.Equal(t, 1, ev.Version)

	var payload map[string]int
	require.NoError(t, ev.UnmarshalData(&payload))
	assert.Equal(t, 1, payload["n"])
}

func TestNewEvent_UnmarshalablePayload(t *testing.T) {
	_, err := NewEvent(context.Background(), "x", "1", "t", "s", make(chan int))
	assert.Error(t, err)
}

func TestHeaderCarrier(t *testing.T) {
	headers := []kafka.Header{{Key: "a", Value: []byte("1")}}
	c := NewHeaderCarrier(&headers)

	assert.Equal(t, "1", c.Get("a"))
	assert.Empty(t, c.Get("missing"))

	c.Set("a", "2")
	c.Set("b", "3")
	assert.Equal(t, "2", c.Get("a"))
	assert.ElementsMatch(t, []string{"a", "b"}, c.Keys())
	assert.Len(t, headers, 2)
}

func TestProducer_Publish(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, testLogger())

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))
	ctx = logger.WithCorrelationID(ctx, "corr-1")

	ev, err := NewEvent(ctx, "translation.requested", "job-1", "translation_job", "translate-service", struct{}{})
	require.NoError(t, err)
	require.NoError(t, p.Publish(ctx, "translate.translation.requested", ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "job-1", string(msg.Key))
	carrier := NewHeaderCarrier(&msg.Headers)
	assert.Equal(t, "translation.requested", carrier.Get("event_type"))
	assert.Equal(t, "corr-1", carrier.Get("correlation_id"))
	assert.Contains(t, carrier.Get("traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")
}

func TestProducer_PublishError(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{err: errors.New("broker down")}, nil, testLogger())
	ev, err := NewEvent(context.Background(), "x", "1", "t", "s", struct{}{})
	require.NoError(t, err)

	err = p.Publish(context.Background(), "topic", ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	assert.Error(t, PingBrokers(context.Background(), nil))
}

func TestConsumer_HandlesAndCommits(t *testing.T) {
	r := newFakeReader(encodedEvent(t, "translation.requested", "job-1"), encodedEvent(t, "translation.requested", "job-2"))

	var mu sync.Mutex
	var seen []string
	c := NewConsumerWithReader(r, ConsumerConfig{Topic: "t", GroupID: "g"}, func(_ context.Context, ev *Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, ev.AggregateID)
		return nil
	}, testLogger())

	runConsumer(t, c, r)

	assert.Equal(t, []string{"job-1", "job-2"}, seen)
	assert.Len(t, r.committed, 2)
	assert.True(t, r.closed)
}

func TestConsumer_RetriesThenDeadLetters(t *testing.T) {
	r := newFakeReader(encodedEvent(t, "translation.requested", "job-1"))
	dlq := &fakeDLQ{}

	attempts := 0
	c := NewConsumerWithReader(r, ConsumerConfig{Topic: "t", GroupID: "g", MaxAttempts: 3, RetryBackoff: time.Millisecond},
		func(context.Context, *Event) error {
			attempts++
			return errors.New("database unavailable")
		}, testLogger()).WithDeadLetter(dlq)

	runConsumer(t, c, r)

	assert.Equal(t, 3, attempts)
	require.Len(t, dlq.msgs, 1)
	assert.EqualError(t, dlq.cause, "database unavailable")
	assert.Len(t, r.committed, 1)
}

func TestConsumer_UndecodableMessageIsSkipped(t *testing.T) {
	r := newFakeReader(kafka.Message{Topic: "t", Value: []byte("not json")})
	dlq := &fakeDLQ{}

	called := false
	c := NewConsumerWithReader(r, ConsumerConfig{Topic: "t", GroupID: "g"}, func(context.Context, *Event) error {
		called = true
		return nil
	}, testLogger()).WithDeadLetter(dlq)

	runConsumer(t, c, r)

	assert.False(t, called)
	assert.Len(t, dlq.msgs, 1)
	assert.Len(t, r.committed, 1)
}

func TestDLQProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	d := NewDLQProducerWithWriter(w, testLogger())

	msg := kafka.Message{Topic: "translate.translation.requested", Partition: 2, Offset: 41, Key: []byte("job-1"), Value: []byte("{}")}
	require.NoError(t, d.Publish(context.Background(), msg, errors.New("boom"), "translate-worker"))

	require.Len(t, w.msgs, 1)
	out := w.msgs[0]
	assert.Equal(t, "translate.translation.requested.dlq", out.Topic)
	carrier := NewHeaderCarrier(&out.Headers)
	assert.Equal(t, "41", carrier.Get("dlq.original_offset"))
	assert.Equal(t, "2", carrier.Get("dlq.original_partition"))
	assert.Equal(t, "boom", carrier.Get("dlq.error"))
	assert.Equal(t, "translate-worker", carrier.Get("dlq.consumer_group"))
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisIdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisIdempotencyStore(client, "processed", ttl), mr
}

func TestRedisIdempotencyStore(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "evt-1"))
	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.True(t, mr.Exists("processed:evt-1"))

	mr.FastForward(2 * time.Minute)
	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestIdempotentHandler_SkipsDuplicates(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)

	calls := 0
	h := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		return nil
	}, testLogger())

	ev := &Event{EventID: "evt-1", EventType: "translation.requested"}
	require.NoError(t, h(context.Background(), ev))
	require.NoError(t, h(context.Background(), ev))
	assert.Equal(t, 1, calls)
}

func TestIdempotentHandler_FailureIsNotRecorded(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)

	calls := 0
	h := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	}, testLogger())

	ev := &Event{EventID: "evt-2", EventType: "translation.requested"}
	assert.Error(t, h(context.Background(), ev))
	assert.NoError(t, h(context.Background(), ev))
	assert.Equal(t, 2, calls)
}

func TestIdempotentHandler_StoreDownStillProcesses(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	mr.Close()

	calls := 0
	h := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		return nil
	}, testLogger())

	require.NoError(t, h(context.Background(), &Event{EventID: "evt-3"}))
	assert.Equal(t, 1, calls)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "translate.translation.requested", Topic("translation", "requested"))
	assert.Equal(t, "translate.translation.requested.dlq", DLQTopic(Topic("translation", "requested")))
}
