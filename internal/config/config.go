package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Promotion policies decide what happens when a requested promotion cannot be applied.
const (
	PromotionPolicyStrict  = "strict"
	PromotionPolicyLenient = "lenient"
)

// Tracing exporters select where finished spans are sent.
const (
	TracingExporterNone   = "none"
	TracingExporterJaeger = "jaeger"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress          string
	DatabaseURI         string
	JWTSecret           string
	TokenTTL            time.Duration
	ShutdownTimeout     time.Duration
	LogLevel            string
	PromotionPolicy     string
	KafkaBrokers        []string
	KafkaOrderTopic     string
	OutboxPollInterval  time.Duration
	OutboxBatchSize     int
	OutboxLease         time.Duration
	WorkerPoolSize      int
	RatesServiceAddress string
	AdminLogins         []string
	TracingExporter     string
	JaegerEndpoint      string
}

const (
	defaultRunAddress         = ":8080"
	defaultJWTSecret          = "change-me-in-production"
	defaultTokenTTL           = 24 * time.Hour
	defaultShutdownTimeout    = 10 * time.Second
	defaultLogLevel           = "info"
	defaultPromotionPolicy    = PromotionPolicyStrict
	defaultKafkaOrderTopic    = "storefront.orders"
	defaultOutboxPollInterval = 2 * time.Second
	defaultOutboxBatchSize    = 32
	defaultOutboxLease        = 30 * time.Second
	defaultWorkerPoolSize     = 4
	defaultTracingExporter    = TracingExporterNone
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:          getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:         getString(lookup, "DATABASE_URI", ""),
		JWTSecret:           getString(lookup, "JWT_SECRET", defaultJWTSecret),
		TokenTTL:            getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		ShutdownTimeout:     getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		LogLevel:            getString(lookup, "LOG_LEVEL", defaultLogLevel),
		PromotionPolicy:     getString(lookup, "PROMOTION_POLICY", defaultPromotionPolicy),
		KafkaOrderTopic:     getString(lookup, "KAFKA_ORDER_TOPIC", defaultKafkaOrderTopic),
		OutboxPollInterval:  getDuration(lookup, "OUTBOX_POLL_INTERVAL", defaultOutboxPollInterval),
		OutboxBatchSize:     getInt(lookup, "OUTBOX_BATCH_SIZE", defaultOutboxBatchSize),
		OutboxLease:         getDuration(lookup, "OUTBOX_LEASE", defaultOutboxLease),
		WorkerPoolSize:      getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		RatesServiceAddress: getString(lookup, "RATES_SERVICE_ADDRESS", ""),
		TracingExporter:     getString(lookup, "TRACING_EXPORTER", defaultTracingExporter),
		JaegerEndpoint:      getString(lookup, "JAEGER_ENDPOINT", ""),
	}

	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		pollIntervalStr    = cfg.OutboxPollInterval.String()
		brokers            = getString(lookup, "KAFKA_BROKERS", "")
		admins             = getString(lookup, "ADMIN_LOGINS", "")
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.PromotionPolicy, "promotion-policy", cfg.PromotionPolicy, "strict or lenient promotion handling")
	fs.StringVar(&brokers, "kafka-brokers", brokers, "Comma separated Kafka brokers")
	fs.StringVar(&cfg.KafkaOrderTopic, "kafka-topic", cfg.KafkaOrderTopic, "Kafka topic for order events")
	fs.StringVar(&pollIntervalStr, "outbox-interval", pollIntervalStr, "Interval between outbox polls")
	fs.IntVar(&cfg.OutboxBatchSize, "outbox-batch", cfg.OutboxBatchSize, "Maximum events per outbox poll")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent outbox publishers")
	fs.StringVar(&cfg.RatesServiceAddress, "rates", cfg.RatesServiceAddress, "Shipping and tax rates service base URL")
	fs.StringVar(&admins, "admins", admins, "Comma separated logins granted the admin role on registration")
	fs.StringVar(&cfg.TracingExporter, "tracing", cfg.TracingExporter, "Span exporter: none or jaeger")
	fs.StringVar(&cfg.JaegerEndpoint, "jaeger-endpoint", cfg.JaegerEndpoint, "Jaeger collector endpoint")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.OutboxPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid outbox interval: %w", err)
	}

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	cfg.KafkaBrokers = splitList(brokers)
	cfg.AdminLogins = splitList(admins)

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.OutboxPollInterval <= 0 {
		cfg.OutboxPollInterval = defaultOutboxPollInterval
	}

	if cfg.OutboxLease <= 0 {
		cfg.OutboxLease = defaultOutboxLease
	}

	if cfg.OutboxBatchSize <= 0 {
		cfg.OutboxBatchSize = defaultOutboxBatchSize
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	cfg.PromotionPolicy = strings.ToLower(cfg.PromotionPolicy)
	if cfg.PromotionPolicy != PromotionPolicyStrict && cfg.PromotionPolicy != PromotionPolicyLenient {
		return nil, fmt.Errorf("unknown promotion policy %q", cfg.PromotionPolicy)
	}

	cfg.TracingExporter = strings.ToLower(cfg.TracingExporter)
	switch cfg.TracingExporter {
	case TracingExporterNone:
	case TracingExporterJaeger:
		if cfg.JaegerEndpoint == "" {
			return nil, fmt.Errorf("jaeger exporter requires a collector endpoint")
		}
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q", cfg.TracingExporter)
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
