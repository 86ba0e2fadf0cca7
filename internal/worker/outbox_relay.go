package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/tracing"
)

const tracerName = "github.com/polkiloo/storefront/internal/worker"

// OutboxFacade exposes the subset of application functionality required by the relay.
type OutboxFacade interface {
	ClaimOrderEvents(ctx context.Context, limit int, lease time.Duration) ([]model.OrderEvent, error)
	MarkEventPublished(ctx context.Context, id string) error
}

// EventPublisher delivers a single outbox event downstream.
type EventPublisher interface {
	Publish(ctx context.Context, event model.OrderEvent) error
}

// RelayObserver is told about every publish attempt.
type RelayObserver interface {
	EventPublished(ok bool)
}

// RelayOptions tune the relay loop.
type RelayOptions struct {
	PollInterval time.Duration
	BatchSize    int
	Workers      int
	Lease        time.Duration
}

// OutboxRelay claims unpublished order events and publishes them concurrently.
// An event that fails to publish keeps its lease and is claimed again after it expires.
type OutboxRelay struct {
	facade    OutboxFacade
	publisher EventPublisher
	observer  RelayObserver
	opts      RelayOptions
	logger    *slog.Logger
	tracer    trace.Tracer

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewOutboxRelay constructs the relay worker pool.
func NewOutboxRelay(facade OutboxFacade, publisher EventPublisher, opts RelayOptions, observer RelayObserver, logger *slog.Logger) *OutboxRelay {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.Lease <= 0 {
		opts.Lease = 30 * time.Second
	}
	if observer == nil {
		observer = nopRelayObserver{}
	}
	return &OutboxRelay{
		facade:    facade,
		publisher: publisher,
		observer:  observer,
		opts:      opts,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// Start launches background publishing.
func (r *OutboxRelay) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	// dispatch closes jobs on exit, so every run gets its own channel.
	jobs := make(chan model.OrderEvent, r.opts.BatchSize*r.opts.Workers)
	for i := 0; i < r.opts.Workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx, jobs)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx, jobs)
}

// Stop cancels polling and waits for in-flight events.
func (r *OutboxRelay) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *OutboxRelay) dispatch(ctx context.Context, jobs chan<- model.OrderEvent) {
	defer r.wg.Done()
	defer close(jobs)
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.claimAndDispatch(ctx, jobs)
		}
	}
}

func (r *OutboxRelay) claimAndDispatch(ctx context.Context, jobs chan<- model.OrderEvent) {
	events, err := r.facade.ClaimOrderEvents(ctx, r.opts.BatchSize, r.opts.Lease)
	if err != nil {
		r.logger.Error("claim order events failed", slog.String("error", err.Error()))
		return
	}
	for _, event := range events {
		select {
		case <-ctx.Done():
			return
		case jobs <- event:
		}
	}
}

func (r *OutboxRelay) worker(ctx context.Context, jobs <-chan model.OrderEvent) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-jobs:
			if !ok {
				return
			}
			r.handleEvent(ctx, event)
		}
	}
}

// handleEvent publishes under a span continuing the trace stored with the event.
func (r *OutboxRelay) handleEvent(ctx context.Context, event model.OrderEvent) {
	ctx = tracing.Extract(ctx, event.TraceContext)
	ctx, span := r.tracer.Start(ctx, "outbox.PublishOrderEvent",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("event.id", event.ID),
			attribute.String("event.type", string(event.Type)),
			attribute.Int64("order.id", event.OrderID),
		),
	)
	defer span.End()

	if err := r.publisher.Publish(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		r.observer.EventPublished(false)
		r.logger.Error("publish order event failed",
			slog.String("event_id", event.ID),
			slog.Int64("order_id", event.OrderID),
			slog.String("error", err.Error()),
		)
		return
	}
	r.observer.EventPublished(true)

	if err := r.facade.MarkEventPublished(ctx, event.ID); err != nil {
		r.logger.Error("mark order event published failed", slog.String("event_id", event.ID), slog.String("error", err.Error()))
	}
}

type nopRelayObserver struct{}

func (nopRelayObserver) EventPublished(bool) {}
