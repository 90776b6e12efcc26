package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mileshq/miles-brain/internal/bandit"
	"github.com/mileshq/miles-brain/internal/config"
	"github.com/mileshq/miles-brain/internal/database"
	"github.com/mileshq/miles-brain/internal/embeddings"
	"github.com/mileshq/miles-brain/internal/engine"
	"github.com/mileshq/miles-brain/internal/monitoring"
	"github.com/mileshq/miles-brain/internal/ratelimit"
	"github.com/mileshq/miles-brain/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	appLogger := monitoring.NewLogger(monitoring.ParseLevel(cfg.LogLevel))
	slog.SetDefault(appLogger.Logger)
	appMetrics := monitoring.NewMetrics()

	db, err := database.NewDB(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	repo := database.NewRepository(db)

	// Redis is optional: a missing or unreachable instance downgrades the
	// rate limiter to per-process token buckets.
	redisClient := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()
	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		IPLimitPerMin:   cfg.IPLimitPerMinute,
		BurstMultiplier: 2,
	}, appMetrics)

	embedder := embeddings.NewCachedProvider(
		embeddings.NewMockProvider(cfg.EmbeddingDim),
		cfg.EmbeddingCacheTTL,
		appMetrics,
	)

	selector := bandit.NewSelector(
		bandit.WithEpsilon(cfg.Epsilon),
		bandit.WithFeatureCount(engine.ContextDim),
		bandit.WithLogger(appLogger.Logger),
	)

	svc := service.New(repo, embedder, selector, appMetrics, appLogger, service.Options{
		TopK:        cfg.TopK,
		BatchUpdate: cfg.BatchUpdate,
	})

	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.LoadModels(startCtx); err != nil {
		slog.Warn("Continuing with untrained models", "error", err)
	}
	cancelStart()

	srv := newServer(svc, db, limiter, redisClient, appMetrics, appLogger)

	httpSrv := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.router(),
	}

	// Periodic model persistence so learned arms survive a crash.
	snapshotDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.SnapshotInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if err := svc.SaveModels(ctx); err != nil {
					slog.Error("Periodic model snapshot failed", "error", err)
				}
				cancel()
			case <-snapshotDone:
				return
			}
		}
	}()

	go func() {
		slog.Info("Starting server", "addr", cfg.Addr, "epsilon", cfg.Epsilon, "top_k", cfg.TopK)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")
	close(snapshotDone)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.SaveModels(ctx); err != nil {
		slog.Error("Final model snapshot failed", "error", err)
	}

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}
