package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/actionplanner/launchkit/internal/config"
	"github.com/actionplanner/launchkit/internal/export"
	"github.com/actionplanner/launchkit/internal/pipeline"
	"github.com/actionplanner/launchkit/internal/provider"
	"github.com/actionplanner/launchkit/internal/provider/groq"
	"github.com/actionplanner/launchkit/internal/provider/openai"
	"github.com/actionplanner/launchkit/internal/server"
	"github.com/actionplanner/launchkit/internal/storage"
	"github.com/actionplanner/launchkit/internal/storage/memory"
	"github.com/actionplanner/launchkit/internal/storage/sqlite"
	"github.com/actionplanner/launchkit/internal/telemetry"
	"github.com/actionplanner/launchkit/internal/workflow"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry
	shutdown, err := telemetry.InitTracer("launchkit", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	// Register built-in providers
	openai.RegisterFactory()
	groq.RegisterFactory()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	providers, err := provider.NewRegistry(cfg.Providers)
	if err != nil {
		log.Fatalf("Failed to create provider registry: %v", err)
	}

	store, err := newStore(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open run store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close run store", slog.String("error", err.Error()))
		}
	}()

	runner := pipeline.NewRunner(providers, logger)
	workflows := workflow.NewRegistry(workflow.Deps{
		Runner: runner,
		Config: cfg,
	})

	srv := server.New(cfg.Server.Port, logger, server.Deps{
		Workflows:  workflows,
		Controller: pipeline.NewController(store, logger),
		Store:      store,
		Exporter:   export.New(cfg.Export.Dir, logger),
	})

	logger.Info("launchkit starting",
		slog.Int("port", cfg.Server.Port),
		slog.String("storage", cfg.Storage.Type),
		slog.Any("providers", providers.Names()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
		return
	case <-sigChan:
	}

	logger.Info("shutdown signal received, draining requests")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

func newStore(cfg *config.Config, logger *slog.Logger) (storage.RunStore, error) {
	switch cfg.Storage.Type {
	case "sqlite":
		path := cfg.Storage.SQLite.Path
		if path == "" {
			path = "./data/launchkit.db"
		}
		logger.Info("using sqlite run store", slog.String("path", path))
		return sqlite.New(path)
	default:
		logger.Info("using in-memory run store")
		return memory.New(), nil
	}
}
