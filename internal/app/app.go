// Package app wires the service's dependencies together and runs them.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/trendora/searchsync/internal/catalog"
	catalogpg "github.com/trendora/searchsync/internal/catalog/postgres"
	"github.com/trendora/searchsync/internal/config"
	"github.com/trendora/searchsync/internal/event"
	handler "github.com/trendora/searchsync/internal/handler/http"
	"github.com/trendora/searchsync/internal/indexer"
	"github.com/trendora/searchsync/internal/searchstore"
	esstore "github.com/trendora/searchsync/internal/searchstore/elasticsearch"
	"github.com/trendora/searchsync/internal/searchstore/memory"
	"github.com/trendora/searchsync/internal/service"
	"github.com/trendora/searchsync/pkg/health"
	pkgkafka "github.com/trendora/searchsync/pkg/kafka"
)

// idempotencyTTL bounds how long processed event IDs are remembered.
const idempotencyTTL = 24 * time.Hour

// App wires together all dependencies and runs the search sync service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
	consumers  []*pkgkafka.Consumer
	producer   *pkgkafka.Producer
	dlq        *pkgkafka.DLQProducer
	httpServer *http.Server
}

// NewApp creates the application, initializing every dependency.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Catalog accessor over PostgreSQL.
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	var accessor catalog.Accessor = catalogpg.NewAccessor(pool)

	// Search store, wrapped in a circuit breaker.
	var backing searchstore.Store
	switch cfg.SearchBackend {
	case "elasticsearch":
		backing, err = esstore.New(esstore.Config{
			URL:         cfg.SearchURL,
			APIKey:      cfg.SearchAPIKey,
			IndexPrefix: cfg.SearchIndexPrefix,
			Locales:     cfg.Locales,
		}, logger)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init elasticsearch store: %w", err)
		}
		logger.Info("elasticsearch store initialized",
			slog.String("url", cfg.SearchURL),
			slog.Any("locales", cfg.Locales),
		)
	default:
		backing = memory.New(cfg.Locales)
		logger.Info("in-memory store initialized", slog.Any("locales", cfg.Locales))
	}
	store := searchstore.NewBreakerStore(backing, searchstore.DefaultBreakerConfig("searchstore"), logger)

	// Redis backs the facet cache and consumer idempotency.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Service layer. The producer announces pipeline outcomes such as
	// completed reindex runs.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	builder := indexer.NewBuilder(accessor, cfg.DefaultLocale, logger)
	sync := service.NewSynchronizer(builder, store, accessor, producer, logger)
	facets := service.NewFacetService(sync, rdb, cfg.FacetCacheTTL, logger)

	// Kafka consumers, one per topic, sharing a DLQ and an idempotency
	// store so redelivered events are not applied twice.
	eventConsumer := event.NewConsumer(sync, logger)
	dlq := pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
	idem := pkgkafka.NewRedisIdempotencyStore(rdb, "searchsync:events", idempotencyTTL)
	handle := pkgkafka.IdempotentHandler(idem, eventConsumer.Handle, logger)

	var consumers []*pkgkafka.Consumer
	for _, topic := range event.Topics() {
		consumerCfg := pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.ConsumerGroup,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}
		consumers = append(consumers, pkgkafka.NewConsumer(consumerCfg, handle, dlq, logger))
	}
	logger.Info("kafka consumers initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.Int("topic_count", len(event.Topics())),
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("searchstore", store.Ping)
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})

	router := handler.NewRouter(handler.RouterConfig{
		Sync:         sync,
		Facets:       facets,
		Locales:      cfg.Locales,
		Health:       healthHandler,
		Logger:       logger,
		ReindexRPS:   cfg.ReindexRPS,
		ReindexBurst: cfg.ReindexBurst,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		redis:      rdb,
		consumers:  consumers,
		producer:   producer,
		dlq:        dlq,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and Kafka consumers, blocking until the
// context is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		errs = append(errs, err)
	}

	if err := a.dlq.Close(); err != nil {
		errs = append(errs, err)
	}

	if err := a.redis.Close(); err != nil {
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
