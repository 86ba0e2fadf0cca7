package events

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/model"
	testhelpers "github.com/polkiloo/storefront/internal/test"
)

type writerStub struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *writerStub) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *writerStub) sent() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.messages...)
}

func (w *writerStub) Close() error {
	w.closed = true
	return nil
}

func testEvent() model.OrderEvent {
	return model.OrderEvent{
		ID:        "0b6a4f0e-1c1a-4a8e-9a55-5f4b3f3c1d10",
		OrderID:   42,
		Type:      model.OrderEventCreated,
		Payload:   []byte(`{"orderId":42}`),
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func header(msg kafka.Message, key string) string {
	return headerCarrier{msg: &msg}.Get(key)
}

func TestKafkaPublisherPublish(t *testing.T) {
	writer := &writerStub{}
	publisher := newKafkaPublisher(writer)
	publisher.propagator = propagation.TraceContext{}

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	if err := publisher.Publish(ctx, testEvent()); err != nil {
		t.Fatalf("publish returned error: %v", err)
	}
	if len(writer.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(writer.messages))
	}
	msg := writer.messages[0]
	if string(msg.Key) != "42" || string(msg.Value) != `{"orderId":42}` {
		t.Fatalf("unexpected message %q=%q", msg.Key, msg.Value)
	}
	if header(msg, headerEventType) != "order.created" || header(msg, headerEventID) != testEvent().ID {
		t.Fatalf("unexpected headers %+v", msg.Headers)
	}
	if tp := header(msg, "traceparent"); !strings.Contains(tp, "4bf92f3577b34da6a3ce929d0e0e4736") {
		t.Fatalf("expected trace context header, got %q", tp)
	}

	if err := publisher.Close(); err != nil || !writer.closed {
		t.Fatalf("expected writer to be closed, err=%v", err)
	}
}

func TestKafkaPublisherPublishError(t *testing.T) {
	writer := &writerStub{err: errors.New("broker down")}
	if err := newKafkaPublisher(writer).Publish(context.Background(), testEvent()); err == nil {
		t.Fatal("expected write error")
	}
}

func TestHeaderCarrier(t *testing.T) {
	msg := kafka.Message{}
	carrier := headerCarrier{msg: &msg}
	carrier.Set("a", "1")
	carrier.Set("b", "2")
	carrier.Set("a", "3")

	if carrier.Get("a") != "3" || carrier.Get("b") != "2" || carrier.Get("missing") != "" {
		t.Fatalf("unexpected headers %+v", msg.Headers)
	}
	if keys := carrier.Keys(); len(keys) != 2 {
		t.Fatalf("expected two keys, got %v", keys)
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	publisher := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	if err := publisher.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("publish returned error: %v", err)
	}
	if !strings.Contains(buf.String(), `"event_type":"order.created"`) {
		t.Fatalf("expected event in log, got %s", buf.String())
	}
	if err := publisher.Close(); err != nil {
		t.Fatalf("close returned error: %v", err)
	}
}

func TestNewPublisherSelectsBackend(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	recorder := &testhelpers.LifecycleRecorder{}
	publisher := newPublisher(publisherParams{Lifecycle: recorder, Config: &config.Config{}, Logger: logger})
	if _, ok := publisher.(*LogPublisher); !ok {
		t.Fatalf("expected log publisher, got %T", publisher)
	}
	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected one lifecycle hook, got %d", len(recorder.Hooks))
	}
	if err := recorder.Hooks[0].OnStop(context.Background()); err != nil {
		t.Fatalf("stop hook returned error: %v", err)
	}

	cfg := &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaOrderTopic: "orders"}
	publisher = newPublisher(publisherParams{Lifecycle: &testhelpers.LifecycleRecorder{}, Config: cfg, Logger: logger})
	kp, ok := publisher.(*KafkaPublisher)
	if !ok {
		t.Fatalf("expected kafka publisher, got %T", publisher)
	}
	if w, ok := kp.writer.(*kafka.Writer); !ok || w.Topic != "orders" {
		t.Fatalf("unexpected writer %+v", kp.writer)
	}
}
