package tracing

import (
	"context"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
)

// Module installs the global tracer provider and flushes it on shutdown.
var Module = fx.Options(
	fx.Provide(newTracerProvider),
	fx.Invoke(registerTracing),
)

func newTracerProvider(cfg *config.Config) (*sdktrace.TracerProvider, error) {
	return NewTracerProvider(Options{
		Exporter:       cfg.TracingExporter,
		JaegerEndpoint: cfg.JaegerEndpoint,
	})
}

func registerTracing(lc fx.Lifecycle, tp *sdktrace.TracerProvider, logger *slog.Logger) {
	Install(tp)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error("tracer provider shutdown failed", slog.String("error", err.Error()))
				return err
			}
			return nil
		},
	})
}
