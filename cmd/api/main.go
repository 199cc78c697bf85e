package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lens-advisor/api/internal/di"
	"github.com/lens-advisor/api/internal/handlers"
	pcache "github.com/lens-advisor/api/internal/platform/cache"
	"github.com/lens-advisor/api/internal/platform/config"
	"github.com/lens-advisor/api/internal/platform/events"
	pfirestore "github.com/lens-advisor/api/internal/platform/firestore"
	"github.com/lens-advisor/api/internal/platform/idempotency"
	"github.com/lens-advisor/api/internal/platform/observability"
	"github.com/lens-advisor/api/internal/repositories"
	cacherepo "github.com/lens-advisor/api/internal/repositories/cache"
	firestoreRepo "github.com/lens-advisor/api/internal/repositories/firestore"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")

	cfg, err := config.Load(ctx)
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			logger.Fatal("invalid configuration", zap.Strings("fields", invalid.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	engine, err := config.LoadEngineConfig(cfg.Engine.ConfigPath)
	if err != nil {
		var engineErr *config.EngineConfigError
		if errors.As(err, &engineErr) {
			logger.Fatal("invalid engine configuration", zap.Strings("problems", engineErr.Problems()))
		}
		logger.Fatal("failed to load engine configuration", zap.Error(err))
	}

	eventLogger := observability.EventLogger(logger.Named("services"))

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	if _, err := firestoreProvider.Client(ctx); err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}

	var (
		kvStore    pcache.Store
		probes     []repositories.Probe
		redisStore *pcache.RedisStore
	)
	if cfg.Redis.Enabled {
		redisStore, err = pcache.NewRedisStore(ctx, cfg.Redis, "lens-advisor:")
		if err != nil {
			logger.Fatal("failed to initialise redis store", zap.Error(err))
		}
		defer func() {
			if err := redisStore.Close(); err != nil {
				logger.Warn("redis close error", zap.Error(err))
			}
		}()
		kvStore = redisStore
		probes = append(probes, repositories.Probe{Name: "redis", Optional: true, Check: redisStore.Ping})
	} else {
		// Idempotency records stay process-local without Redis.
		kvStore = pcache.NewMemoryStore(time.Now)
	}

	firestoreRegistry, err := firestoreRepo.NewRegistry(firestoreProvider, probes...)
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}

	var registry repositories.Registry = firestoreRegistry
	opts := di.Options{Logger: eventLogger}
	if redisStore != nil {
		cached := cacherepo.NewRegistry(firestoreRegistry, redisStore, cacherepo.Options{
			TTL:    cfg.Redis.CacheTTL,
			Logger: eventLogger,
		})
		registry = cached
		opts.Cache = cached
	}

	if cfg.PubSub.Enabled {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		publisher, err := events.NewPubSubQuotePublisher(pubsubClient.Topic(cfg.PubSub.QuoteTopic))
		if err != nil {
			logger.Fatal("failed to initialise quote publisher", zap.Error(err))
		}
		defer publisher.Close()
		opts.Publisher = publisher
	}

	container, err := di.NewContainer(ctx, cfg, engine, registry, opts)
	if err != nil {
		logger.Fatal("failed to initialise services", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("repository close error", zap.Error(err))
		}
	}()

	idempotencyMiddleware := idempotency.Middleware(
		idempotency.NewKVStore(kvStore),
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(eventLogger),
	)

	maxBody := cfg.Server.MaxBodyBytes
	svc := container.Services
	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			observability.InjectLoggerMiddleware(logger),
			observability.TraceMiddleware(cfg.Firestore.ProjectID),
			observability.StoreMiddleware,
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
			middleware.Timeout(cfg.Server.RequestTimeout),
		),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(
			handlers.WithHealthBuildInfo(buildInfoFromEnv(startedAt)),
			handlers.WithHealthRepository(registry.Health()),
		)),
		handlers.WithRecommendationRoutes(handlers.NewRecommendationHandlers(svc.Recommendations, maxBody).Routes),
		handlers.WithPricingRoutes(handlers.NewPricingHandlers(svc.Pricing, maxBody, idempotencyMiddleware).Routes),
		handlers.WithAdminRoutes(handlers.NewAdminHandlers(svc.Validation, svc.Reference, 0).Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("lens advisor api listening",
			zap.Bool("redis", cfg.Redis.Enabled),
			zap.Bool("pubsub", cfg.PubSub.Enabled),
			zap.Bool("diversityRanking", container.Engine.Ranking.DiversityEnabled),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildInfoFromEnv(started time.Time) handlers.BuildInfo {
	version := strings.TrimSpace(os.Getenv("API_BUILD_VERSION"))
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(os.Getenv("API_BUILD_COMMIT_SHA"))
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(os.Getenv("API_ENVIRONMENT"))
	if environment == "" {
		environment = "local"
	}
	return handlers.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}
