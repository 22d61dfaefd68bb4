// Package app wires the storefront's dependency graph and owns its lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BadarHossain1/harris-vale-storefront/internal/backend"
	"github.com/BadarHossain1/harris-vale-storefront/internal/cart"
	"github.com/BadarHossain1/harris-vale-storefront/internal/catalog"
	"github.com/BadarHossain1/harris-vale-storefront/internal/config"
	"github.com/BadarHossain1/harris-vale-storefront/internal/event"
	handler "github.com/BadarHossain1/harris-vale-storefront/internal/handler/http"
	"github.com/BadarHossain1/harris-vale-storefront/internal/invoice"
	"github.com/BadarHossain1/harris-vale-storefront/pkg/health"
	"github.com/BadarHossain1/harris-vale-storefront/pkg/httpclient"
	pkgkafka "github.com/BadarHossain1/harris-vale-storefront/pkg/kafka"
	"github.com/BadarHossain1/harris-vale-storefront/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	rdb             *redis.Client
	producer        *pkgkafka.Producer
	httpServer      *http.Server
	tracingShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Tracing.
	tracingCfg := tracing.DefaultConfig("storefront")
	tracingCfg.Environment = cfg.Environment
	tracingCfg.OTLPEndpoint = cfg.TracingEndpoint
	tracingCfg.Enabled = cfg.TracingEnabled
	tracingShutdown, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// Redis client for the catalog edge cache. The cache is an optimization;
	// a dead Redis downgrades to pass-through rather than failing startup.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	var catalogCache *catalog.Cache
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, catalog cache disabled",
			slog.String("addr", cfg.RedisAddr),
			slog.String("error", err.Error()),
		)
	} else {
		catalogCache = catalog.NewCache(rdb, cfg.CatalogCacheTTL)
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
	}

	// Kafka producer for analytics events, when brokers are configured.
	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled() {
		kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
		producer = pkgkafka.NewProducer(kafkaCfg, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Backend client behind a circuit breaker.
	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.BackendTimeout
	cbClient := httpclient.NewCircuitBreakerClient(
		httpclient.New(clientCfg),
		httpclient.DefaultCircuitBreakerConfig("harris-vale-backend"),
		logger,
	)
	backendClient := backend.New(cfg.BackendURL, cbClient, logger)

	// Build the dependency graph.
	cartStore := backend.NewCartStore(backendClient)
	cartManager := cart.NewManager(cartStore, logger)
	catalogService := catalog.NewService(backendClient, catalogCache, logger)
	invoiceService := invoice.NewService(backendClient)
	eventProducer := event.NewProducer(producer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	if catalogCache != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	if producer != nil {
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	router := handler.NewRouter(handler.RouterDeps{
		CartManager:    cartManager,
		CartStore:      cartStore,
		Catalog:        catalogService,
		Invoices:       invoiceService,
		Events:         eventProducer,
		Health:         healthHandler,
		Logger:         logger,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		RateRPS:        cfg.RateLimitRPS,
		RateBurst:      cfg.RateLimitBurst,
	})

	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the slideshow SSE stream stays open indefinitely.
		IdleTimeout: 60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		rdb:             rdb,
		producer:        producer,
		httpServer:      httpServer,
		tracingShutdown: tracingShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	if err := a.tracingShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
