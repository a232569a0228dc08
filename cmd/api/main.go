package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/freightline/freightline-backend/api/controllers"
	"github.com/freightline/freightline-backend/api/routes"
	"github.com/freightline/freightline-backend/internal/authz"
	"github.com/freightline/freightline-backend/internal/evidence"
	"github.com/freightline/freightline-backend/internal/lifecycle"
	"github.com/freightline/freightline-backend/internal/pod"
	"github.com/freightline/freightline-backend/internal/signature"
	"github.com/freightline/freightline-backend/pkg/config"
	"github.com/freightline/freightline-backend/pkg/db"
	"github.com/freightline/freightline-backend/pkg/logger"
	"github.com/freightline/freightline-backend/pkg/metrics"
	"github.com/freightline/freightline-backend/pkg/migrate"
	"github.com/freightline/freightline-backend/pkg/redis"
	"github.com/freightline/freightline-backend/pkg/storage"
	"github.com/freightline/freightline-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	objectStore, storePinger, err := buildObjectStore(cfg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object storage", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	lifecycleMetrics := metrics.NewLifecycleMetrics(registry)

	guard, err := authz.NewGuard(authz.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to build authorization guard", err)
		os.Exit(1)
	}

	lifecycleService, err := lifecycle.NewService(lifecycle.NewRepository(dbClient.DB()), dbClient, guard, lifecycleMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build lifecycle service", err)
		os.Exit(1)
	}

	evidenceService, err := evidence.NewService(evidence.NewRepository(dbClient.DB()), dbClient, guard, objectStore, cfg.Evidence.MaxUploadBytes)
	if err != nil {
		logg.Error(context.Background(), "failed to build evidence service", err)
		os.Exit(1)
	}

	signatureService, err := signature.NewService(evidenceService)
	if err != nil {
		logg.Error(context.Background(), "failed to build signature service", err)
		os.Exit(1)
	}

	podService, err := pod.NewService(pod.NewRepository(dbClient.DB()), dbClient, guard, objectStore, redisClient, lifecycleMetrics, pod.Config{
		GenerateLockTTL:   cfg.Pod.GenerateLockTTL,
		DownloadURLExpiry: cfg.Storage.DownloadURLExpiry,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build pod service", err)
		os.Exit(1)
	}

	readiness := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
		"storage":  storePinger,
	}

	handler := routes.NewRouter(
		cfg,
		logg,
		httpMetrics,
		readiness,
		redisClient,
		lifecycleService,
		evidenceService,
		signatureService,
		podService,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	closeErr = multierr.Append(closeErr, redisClient.Close())
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "error during shutdown", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

// buildObjectStore selects the evidence/artifact backend. Dev without
// storage credentials runs on the in-memory store so the API can boot
// without a bucket.
func buildObjectStore(cfg *config.Config) (storage.ObjectStore, controllers.Pinger, error) {
	if cfg.App.IsDev() && cfg.Storage.CredentialsJSON == "" {
		mem := storage.NewMemoryStore()
		return mem, mem, nil
	}
	client, err := gcs.New(cfg.Storage.BucketName, cfg.Storage.CredentialsJSON)
	if err != nil {
		return nil, nil, err
	}
	return client, client, nil
}
