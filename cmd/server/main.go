package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/utafrali/TranslateGo/internal/app"
	"github.com/utafrali/TranslateGo/internal/config"
	"github.com/utafrali/TranslateGo/internal/translator"
	"github.com/utafrali/TranslateGo/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("translate service exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred cleanup always happens.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(app.ServiceName, cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting translate service",
		slog.String("environment", cfg.Environment),
		slog.String("version", cfg.Version),
		slog.Int("http_port", cfg.HTTPPort),
		slog.Bool("mock_translator", translator.Config{APIKey: cfg.TranslateAPIKey}.UsesMock()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("run application: %w", err)
	}

	log.Info("translate service stopped")
	return nil
}
