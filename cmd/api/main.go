package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sage-backend/infrastructure/config"
	"sage-backend/infrastructure/di"
	"sage-backend/interfaces/http/rest"
	"sage-backend/pkg/observability"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize dependency container
	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	logger := container.Logger

	// Optional hot reload of domain tuning overrides, delivered to resident
	// communities through the registry under their own locks
	watcher := config.NewOverridesWatcher(cfg.OverridesFile, container.DomainConfig, logger)
	watcher.OnChange(container.Registry.ApplyConfig)
	if err := watcher.Start(); err != nil {
		logger.Fatal("Failed to start overrides watcher", zap.Error(err))
	}
	defer watcher.Stop()

	// Optional distributed tracing
	if cfg.EnableTracing {
		tracing, err := observability.InitTracing("sage-backend", cfg.Environment, cfg.TracingEndpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := tracing.Shutdown(shutdownCtx); err != nil {
				logger.Error("Tracing shutdown error", zap.Error(err))
			}
		}()
	}

	// Alert delivery relay runs only where an outbox exists
	if container.Relay != nil {
		container.Relay.Start(ctx)
		defer container.Relay.Stop()
	}

	// Create router
	router := rest.NewRouter(
		container.Orchestrator,
		cfg,
		container.Metrics,
		container.IPLimiter,
		container.CommunityLimiter,
		logger,
	)
	handler := router.Setup()

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown: stop accepting requests, then drain the write queue
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.Error("Container shutdown error", zap.Error(err))
	}

	if err := logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}
