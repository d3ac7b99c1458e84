package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kkkkikiki/flowfund/internal/aggregator"
	"github.com/kkkkikiki/flowfund/internal/api"
	"github.com/kkkkikiki/flowfund/internal/config"
	"github.com/kkkkikiki/flowfund/internal/database"
	"github.com/kkkkikiki/flowfund/internal/inflight"
	"github.com/kkkkikiki/flowfund/internal/ledger"
	"github.com/kkkkikiki/flowfund/internal/server"
	"github.com/kkkkikiki/flowfund/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration from environment variables
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.App)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("flowfund service stopped", zap.Error(err))
	}
}

func newLogger(cfg config.AppConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Debug {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zcfg.Level = level
	return zcfg.Build()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting flowfund service",
		zap.String("environment", cfg.App.Environment),
		zap.String("ledger", cfg.Ledger.Driver))

	ready := map[string]server.ReadyFunc{}

	// Select the ledger backend
	var backend ledger.Ledger
	switch cfg.Ledger.Driver {
	case config.DriverPostgres:
		db, err := database.NewDB(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("error closing database connections", zap.Error(err))
			}
		}()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		pg, err := ledger.NewPostgres(ctx, db.Postgres, cfg.Ledger.Admin)
		if err != nil {
			return err
		}
		backend = pg
		ready["postgres"] = db.Postgres.PingContext
	default:
		backend = ledger.NewMemory(cfg.Ledger.Admin)
	}

	reader := ledger.NewResilientReader(backend, ledger.ResilienceConfig{
		RateLimit:       cfg.Ledger.RateLimit,
		Burst:           cfg.Ledger.Burst,
		MaxRetries:      cfg.Ledger.MaxRetries,
		BreakerFailures: cfg.Ledger.BreakerFailures,
		BreakerTimeout:  cfg.Ledger.GetBreakerTimeout(),
		InitialBackoff:  100 * time.Millisecond,
	}, logger)
	ready["ledger"] = func(ctx context.Context) error {
		_, err := reader.Admin(ctx)
		return err
	}

	// In-flight guard: Redis when configured so replicas share it
	var guard inflight.Guard = inflight.NewMemory()
	if cfg.Redis.URL != "" {
		client, err := inflight.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping Redis: %w", err)
		}
		guard = inflight.NewRedis(client, cfg.Redis.GetInflightTTL(), logger)
		ready["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	agg := aggregator.New(logger, cfg.Aggregator.FetchConcurrency)
	collection := aggregator.NewCollection(reader, agg, logger)
	if interval := cfg.Aggregator.GetRefreshInterval(); interval > 0 {
		go collection.Run(ctx, interval)
	}

	campaignService, err := service.NewCampaignServer(reader, backend, agg, collection, guard, logger)
	if err != nil {
		return err
	}

	path, handler := api.NewCampaignServiceHandler(campaignService)
	router := server.NewRouter(server.Options{
		RPCPath:    path,
		RPCHandler: handler,
		Ready:      ready,
		Logger:     logger,
	})

	// Create server with configuration optimized for high concurrency
	srv := &http.Server{
		Addr:           cfg.Server.GetServerAddr(),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
		// Use h2c so we can serve HTTP/2 without TLS
		Handler: h2c.NewHandler(router, &http2.Server{
			MaxConcurrentStreams: 1000,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited gracefully")
	return nil
}
