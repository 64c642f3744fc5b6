package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/saturnino-fabrica-de-software/facesim/internal/api"
	"github.com/saturnino-fabrica-de-software/facesim/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facesim/internal/config"
	"github.com/saturnino-fabrica-de-software/facesim/internal/database"
	"github.com/saturnino-fabrica-de-software/facesim/internal/metrics"
	"github.com/saturnino-fabrica-de-software/facesim/internal/repository"
	"github.com/saturnino-fabrica-de-software/facesim/internal/service"
	"github.com/saturnino-fabrica-de-software/facesim/internal/ws"
)

const (
	version = "0.1.0"

	// memoryEventCapacity bounds the in-memory recognition log
	memoryEventCapacity = 10000
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// identityStore is everything the process needs from the gallery backend.
type identityStore interface {
	service.IdentityStore
	database.Pinger
	metrics.GalleryLister
}

type stores struct {
	identities identityStore
	events     service.RecognitionLog
	close      func()
}

func run() error {
	// .env is optional
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Facesim API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("storage", cfg.Storage),
		slog.Int("embedding_dim", cfg.EmbeddingDim),
		slog.Float64("threshold", cfg.MatchThreshold),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	hub := ws.NewHub()
	recorder := metrics.NewRecorder()

	svc := service.NewRecognitionService(st.identities, st.events, cfg.Settings(), logger).
		WithPublisher(hub).
		WithRecorder(recorder)

	// Sample gallery size for the gauges
	aggregator := metrics.NewAggregator(st.identities, recorder, logger, time.Minute)
	go aggregator.Start(ctx)
	defer aggregator.Stop()

	// Setup router
	rateLimit := middleware.DefaultRateLimiterConfig()
	rateLimit.Max = cfg.RateLimitMax

	router := api.NewRouter(logger, &api.Dependencies{
		Service:   svc,
		Store:     st.identities,
		Hub:       hub,
		Recorder:  recorder,
		RateLimit: rateLimit,
		Version:   version,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")

	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	logger.Info("server stopped")

	return nil
}

// openStores builds the configured storage backend. Postgres storage is
// migrated to the latest schema before use.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	if !cfg.UsesPostgres() {
		logger.Info("using in-memory storage")
		return &stores{
			identities: repository.NewMemoryIdentityRepository(),
			events:     repository.NewMemoryRecognitionLogRepository(memoryEventCapacity),
			close:      func() {},
		}, nil
	}

	migrator, err := database.OpenMigrator(cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("failed to close migrator", slog.Any("error", err))
	}

	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("connected to database", slog.String("database", cfg.DatabaseName))

	return &stores{
		identities: repository.NewIdentityRepository(pool),
		events:     repository.NewRecognitionLogRepository(pool),
		close:      pool.Close,
	}, nil
}
