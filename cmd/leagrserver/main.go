package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vgebrev/leagr/internal/api"
	"github.com/vgebrev/leagr/internal/config"
	"github.com/vgebrev/leagr/internal/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("LEAGR_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)
	logger.Info("starting leagr API server", "config", cfg.Summary())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := api.StartServer(ctx, cfg)
	if err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("received shutdown signal", "signal", sig)

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := components.HTTPServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	components.APIServer.Close()

	logger.Info("server stopped gracefully")
}
