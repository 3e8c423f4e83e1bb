package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iho/cashledger/internal/adapter/csvexport"
	"github.com/iho/cashledger/internal/adapter/delivery"
	httpAdapter "github.com/iho/cashledger/internal/adapter/http"
	"github.com/iho/cashledger/internal/adapter/http/handler"
	"github.com/iho/cashledger/internal/adapter/http/middleware"
	"github.com/iho/cashledger/internal/adapter/parser"
	"github.com/iho/cashledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/cashledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/cashledger/internal/adapter/repository/redis"
	"github.com/iho/cashledger/internal/infrastructure/auth"
	"github.com/iho/cashledger/internal/infrastructure/config"
	"github.com/iho/cashledger/internal/infrastructure/idgen"
	"github.com/iho/cashledger/internal/infrastructure/logger"
	"github.com/iho/cashledger/internal/infrastructure/metrics"
	"github.com/iho/cashledger/internal/infrastructure/postgres"
	"github.com/iho/cashledger/internal/infrastructure/redis"
	"github.com/iho/cashledger/internal/infrastructure/scheduler"
	"github.com/iho/cashledger/internal/infrastructure/workerpool"
	"github.com/iho/cashledger/internal/usecase"
)

// entryStore is what the server needs from a ledger backend.
type entryStore interface {
	usecase.EntryRepository
	Ping(ctx context.Context) error
}

func main() {
	// Console output until configuration is loaded
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Logger = logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "cashledger",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if cfg.AuthDebugBypass {
		logger.Warn().Msg("AUTH_DEBUG_BYPASS is enabled: X-Telegram-Id is trusted without a signature, never use this in production")
	}
	if len(cfg.AllowedTelegramIDs) == 0 {
		logger.Warn().Msg("ALLOWED_TELEGRAM_IDS is empty: every caller will be denied")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	// Ledger store
	store, closeStore, err := newEntryStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	healthChecks := []handler.HealthCheck{{Name: cfg.StoreDriver, Ping: store.Ping}}

	// Redis (optional)
	var (
		idempotencyStore usecase.IdempotencyStore
		exportGate       usecase.ExportGate = memory.NewExportGate()
	)
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		logger.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		exportGate = redisRepo.NewExportGate(redisClient, usecase.ExportLockTTL, logger)
		healthChecks = append(healthChecks, handler.HealthCheck{Name: "redis", Ping: redisPing(redisClient)})
	}

	// Export delivery
	deliverer, closeDeliverer, err := newDeliverer(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDeliverer()

	// Shared collaborators
	pool := workerpool.New(cfg.WorkerPoolSize)
	retrier := postgresRepo.NewRetrier().WithMaxRetries(cfg.StoreMaxRetries).WithLogger(logger)
	policy := auth.NewPolicy(cfg.AllowedTelegramIDs)
	verifier := auth.NewVerifier(cfg.TelegramBotToken, cfg.AuthMaxAge)

	// Initialize use cases
	ingestUC := usecase.NewIngestUseCase(usecase.IngestConfig{
		Logger:       logger,
		Authorizer:   policy,
		EntryRepo:    store,
		Parser:       newParser(cfg, logger),
		Tasks:        pool,
		Retrier:      retrier,
		Metrics:      appMetrics,
		StoreTimeout: cfg.StoreTimeout,
		ParseTimeout: cfg.AITimeout + cfg.StoreTimeout,
	})
	reportUC := usecase.NewReportUseCase(usecase.ReportConfig{
		Authorizer:   policy,
		EntryRepo:    store,
		Tasks:        pool,
		Retrier:      retrier,
		Metrics:      appMetrics,
		StoreTimeout: cfg.StoreTimeout,
	})
	exportUC := usecase.NewExportUseCase(usecase.ExportConfig{
		Logger:       logger,
		EntryRepo:    store,
		Gate:         exportGate,
		Encoder:      csvexport.NewEncoder(),
		Deliverer:    deliverer,
		IDGen:        idgen.NewULIDGenerator(),
		Tasks:        pool,
		Retrier:      retrier,
		Metrics:      appMetrics,
		StoreTimeout: cfg.StoreTimeout,
		Timeout:      cfg.ExportTimeout,
	})

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, appMetrics)
	go rateLimiter.StartCleanup(ctx, 10*time.Minute)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		EntryHandler:  handler.NewEntryHandler(ingestUC, reportUC),
		ReportHandler: handler.NewReportHandler(reportUC),
		ExportHandler: handler.NewExportHandler(exportUC, policy),
		HealthHandler: handler.NewHealthHandler(healthChecks...),
		Auth: middleware.AuthConfig{
			Verifier:    verifier,
			DebugBypass: cfg.AuthDebugBypass,
			Metrics:     appMetrics,
			Logger:      logger,
		},
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		Metrics:          appMetrics,
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Logger:           logger,
	})

	// Daily export
	if cfg.ExportEnabled {
		sched := scheduler.New(scheduler.Config{
			Exporter: exportUC,
			Logger:   logger,
			At:       cfg.ExportAt(),
		})
		go func() {
			if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("export scheduler stopped")
			}
		}()
	}

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

// newEntryStore opens the configured ledger backend. Postgres migrations
// run before the pool is returned.
func newEntryStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (entryStore, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn().Msg("using in-memory ledger store: entries are lost on restart")
		return memory.NewEntryStore(), func() {}, nil
	}

	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info().Msg("connected to postgres")

	return postgresRepo.NewEntryRepository(pool), pool.Close, nil
}

// newParser builds the text parser chain. The remote extractor is only
// used when AI_BASE_URL is set.
func newParser(cfg *config.Config, logger zerolog.Logger) *parser.Chain {
	if cfg.AIBaseURL == "" {
		return parser.NewChain(nil, logger)
	}

	return parser.NewChain(parser.NewLLM(parser.LLMConfig{
		BaseURL: cfg.AIBaseURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.AIModel,
		Timeout: cfg.AITimeout,
	}), logger)
}

// newDeliverer writes snapshots to EXPORT_DIR and, when AMQP_URL is set,
// also publishes them to the delivery queue.
func newDeliverer(cfg *config.Config, logger zerolog.Logger) (delivery.Multi, func(), error) {
	deliverers := delivery.Multi{delivery.NewFileDeliverer(cfg.ExportDir)}
	if cfg.AMQPURL == "" {
		return deliverers, func() {}, nil
	}

	publisher, err := delivery.NewAMQPDeliverer(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPExportQueue, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to amqp: %w", err)
	}
	logger.Info().Str("queue", cfg.AMQPExportQueue).Msg("export snapshots will be published to amqp")

	return append(deliverers, publisher), func() { _ = publisher.Close() }, nil
}

func redisPing(client *goredis.Client) handler.PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
