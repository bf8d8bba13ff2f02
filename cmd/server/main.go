package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/trendora/searchsync/internal/app"
	"github.com/trendora/searchsync/internal/config"
	"github.com/trendora/searchsync/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("searchsync", cfg.LogLevel)
	log.Info("starting search sync service",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.Any("locales", cfg.Locales),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("run application: %w", err)
	}

	log.Info("search sync service stopped")
	return nil
}
