// Package main provides the main entry point for the lesewerk backend server.
// It wires up the content service, the exercise session, the local store and
// the HTTP routes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lesewerk/internal/config"
	"lesewerk/internal/exercise"
	"lesewerk/internal/handlers"
	"lesewerk/internal/observability"
	"lesewerk/internal/services"
	"lesewerk/internal/store"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(&cfg.OpenTelemetry)
	defer func() { _ = logger.Sync() }()

	tp, err := observability.SetupTracing(&cfg.OpenTelemetry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracing: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if tp == nil {
			return
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn(ctx, "Error shutting down tracer provider", map[string]interface{}{"error": err.Error()})
		}
	}()
	observability.InitGlobalTracer()

	logger.Info(ctx, "Starting lesewerk service", map[string]interface{}{
		"port":     cfg.Server.Port,
		"logLevel": cfg.Server.LogLevel,
		"provider": cfg.Provider.Name,
		"model":    cfg.Provider.Model,
	})

	st, err := store.Open(cfg.Store, logger)
	if err != nil {
		logger.Error(ctx, "Failed to open store", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn(ctx, "Error closing store", map[string]interface{}{"error": err.Error()})
		}
	}()

	content := services.NewAIService(cfg, logger)
	session := exercise.NewSession(content, cfg, logger)

	router := handlers.NewRouter(cfg, content, session, st, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := router.Run(":" + cfg.Server.Port); err != nil {
			serverErr <- err
		}
	}()

	select {
	case <-shutdownCh:
		logger.Info(ctx, "Received shutdown signal, shutting down gracefully")
	case err := <-serverErr:
		logger.Error(ctx, "Server failed", err)
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.AIShutdownTimeout)
	defer shutdownCancel()
	if err := content.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "Content service shutdown incomplete", map[string]interface{}{"error": err.Error()})
	}

	logger.Info(ctx, "Shutdown completed successfully")
}
