// The relay serves a shared trip-planning session: it holds the
// authoritative document, fans batches out over WebSocket, and exposes
// a read-only HTTP API answered from a reconciled in-process itinerary.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appsync "tripgraph/application/sync"
	"tripgraph/domain/core/aggregates"
	"tripgraph/infrastructure/config"
	"tripgraph/infrastructure/memory"
	"tripgraph/infrastructure/observability"
	"tripgraph/interfaces/http/rest"
	"tripgraph/interfaces/websocket"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	var metrics *observability.Collector
	if cfg.EnableMetrics {
		metrics = observability.NewCollector("tripgraph")
	}

	// Authoritative session document plus a reconciled itinerary the
	// HTTP API reads from. The reconciler keeps the itinerary current
	// as clients push batches through the hub.
	doc := memory.NewDocument()
	store := aggregates.NewItinerary("relay")

	reconciler := appsync.NewReconciler(store, doc, logger, appsync.WithMetrics(metrics))
	if err := reconciler.Start(); err != nil {
		logger.Fatal("Failed to start reconciler", zap.Error(err))
	}

	hub := websocket.NewHub(doc, cfg.Relay, logger, metrics)
	go hub.Run()

	// Re-log config changes at runtime; connection limits apply to new
	// connections only.
	var watcher *config.Watcher
	if path := os.Getenv("TRIPGRAPH_CONFIG"); path != "" {
		watcher, err = config.NewWatcher(path, logger)
		if err != nil {
			logger.Warn("Config watcher disabled", zap.Error(err))
		} else {
			watcher.OnChange(func(next *config.Config) {
				logger.Info("Configuration reloaded",
					zap.String("logLevel", next.LogLevel),
					zap.Int("maxConnections", next.Relay.MaxConnections),
				)
			})
		}
	}

	router := rest.NewRouter(store, hub, logger, metrics)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting relay",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down relay...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	hub.Stop()
	reconciler.Stop()
	if watcher != nil {
		watcher.Stop()
	}

	logger.Info("Relay stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = level

	return zapCfg.Build()
}
