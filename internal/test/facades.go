package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
)

// AuthFacadeStub provides controllable behaviour for auth endpoints.
type AuthFacadeStub struct {
	RegisterFn     func(context.Context, string, string) (string, error)
	AuthenticateFn func(context.Context, string, string) (string, error)
	ParseFn        func(string) (pkgAuth.Claims, error)
}

// Register delegates to RegisterFn or returns a fixed token.
func (s AuthFacadeStub) Register(ctx context.Context, login, password string) (string, error) {
	if s.RegisterFn != nil {
		return s.RegisterFn(ctx, login, password)
	}
	return "token", nil
}

// Authenticate delegates to AuthenticateFn or returns a fixed token.
func (s AuthFacadeStub) Authenticate(ctx context.Context, login, password string) (string, error) {
	if s.AuthenticateFn != nil {
		return s.AuthenticateFn(ctx, login, password)
	}
	return "token", nil
}

// ParseToken delegates to ParseFn or returns customer claims for user 1.
func (s AuthFacadeStub) ParseToken(token string) (pkgAuth.Claims, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	return pkgAuth.Claims{UserID: 1, Role: model.RoleCustomer}, nil
}

// HealthStub reports Err from HealthCheck.
type HealthStub struct {
	Err error
}

func (s HealthStub) HealthCheck(context.Context) error {
	return s.Err
}

// OutboxFacadeStub serves queued event batches and records published ids.
type OutboxFacadeStub struct {
	Batches [][]model.OrderEvent
	ClaimFn func(context.Context, int, time.Duration) ([]model.OrderEvent, error)
	MarkErr error

	mu         sync.Mutex
	published  []string
	claimCalls int32
}

// ClaimOrderEvents returns batches from configured queue.
func (s *OutboxFacadeStub) ClaimOrderEvents(ctx context.Context, limit int, lease time.Duration) ([]model.OrderEvent, error) {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, limit, lease)
	}
	call := atomic.AddInt32(&s.claimCalls, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	return nil, nil
}

// MarkEventPublished records the event id.
func (s *OutboxFacadeStub) MarkEventPublished(ctx context.Context, id string) error {
	if s.MarkErr != nil {
		return s.MarkErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, id)
	return nil
}

// Published returns ids marked as published.
func (s *OutboxFacadeStub) Published() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.published...)
}

// PublisherStub records delivered events; PublishFn overrides delivery.
type PublisherStub struct {
	PublishFn func(context.Context, model.OrderEvent) error

	mu     sync.Mutex
	events []model.OrderEvent
	closed bool
}

// Publish records the event unless PublishFn fails.
func (p *PublisherStub) Publish(ctx context.Context, event model.OrderEvent) error {
	if p.PublishFn != nil {
		if err := p.PublishFn(ctx, event); err != nil {
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Close marks the publisher closed.
func (p *PublisherStub) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Events returns delivered events.
func (p *PublisherStub) Events() []model.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.OrderEvent(nil), p.events...)
}

// RelayObserverStub counts publish outcomes.
type RelayObserverStub struct {
	ok     atomic.Int32
	failed atomic.Int32
}

func (o *RelayObserverStub) EventPublished(ok bool) {
	if ok {
		o.ok.Add(1)
		return
	}
	o.failed.Add(1)
}

// Counts returns successful and failed publish attempts.
func (o *RelayObserverStub) Counts() (int, int) {
	return int(o.ok.Load()), int(o.failed.Load())
}
