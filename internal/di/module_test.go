package di

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/adapter/events"
	"github.com/polkiloo/storefront/internal/adapter/rates"
	"github.com/polkiloo/storefront/internal/app"
	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/storage/postgres"
	"github.com/polkiloo/storefront/internal/test"
	"github.com/polkiloo/storefront/internal/usecase"
	"github.com/polkiloo/storefront/internal/worker"
)

func TestModuleComposesGraphWithReplacements(t *testing.T) {
	cfg := &config.Config{
		RunAddress:         ":0",
		DatabaseURI:        "postgres://stub",
		JWTSecret:          "secret",
		TokenTTL:           time.Hour,
		PromotionPolicy:    config.PromotionPolicyStrict,
		KafkaOrderTopic:    "orders",
		OutboxPollInterval: time.Millisecond,
		OutboxBatchSize:    1,
		OutboxLease:        time.Second,
		WorkerPoolSize:     1,
		ShutdownTimeout:    time.Millisecond,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store := test.NewStore()

	var (
		facade     *app.StorefrontFacade
		engine     *gin.Engine
		server     *http.Server
		relay      *worker.OutboxRelay
		publisher  events.Publisher
		calculator usecase.ChargesCalculator
		provider   *sdktrace.TracerProvider
	)
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(context.Background()),
		Module(
			fx.Replace(cfg),
			fx.Replace(logger),
			fx.Replace(&postgres.Storage{}),
			fx.Decorate(
				func(repository.UserRepository) repository.UserRepository { return test.NewUserRepositoryStub() },
				func(repository.CatalogRepository) repository.CatalogRepository { return store.Catalog() },
				func(repository.PromotionRepository) repository.PromotionRepository { return store.Promotions() },
				func(repository.OrderRepository) repository.OrderRepository { return store.Orders() },
				func(repository.CartRepository) repository.CartRepository { return store.Carts() },
				func(repository.OutboxRepository) repository.OutboxRepository { return store.Outbox() },
			),
		),
		fx.Populate(&facade, &engine, &server, &relay, &publisher, &calculator, &provider),
	)

	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })
	if facade == nil || engine == nil || relay == nil {
		t.Fatal("expected storefront facade, router and relay instances")
	}
	if server.Addr != ":0" {
		t.Fatalf("expected server address from config, got %q", server.Addr)
	}
	if _, ok := publisher.(*events.LogPublisher); !ok {
		t.Fatalf("expected log publisher without brokers, got %T", publisher)
	}
	if _, ok := calculator.(rates.ZeroCalculator); !ok {
		t.Fatalf("expected zero calculator without rates service, got %T", calculator)
	}
	if provider == nil || otel.GetTracerProvider() != provider {
		t.Fatalf("expected sdk tracer provider to be installed globally, got %T", otel.GetTracerProvider())
	}
}
