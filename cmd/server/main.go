package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/AkshatJain-webdev/Natours/internal/app"
	"github.com/AkshatJain-webdev/Natours/internal/config"
	"github.com/AkshatJain-webdev/Natours/pkg/logger"
)

func main() {
	// Load configuration from config.env and the environment.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	format := logger.FormatJSON
	if cfg.IsDevelopment() {
		format = logger.FormatText
	}
	log := logger.New(app.ServiceName, cfg.LogLevel, format)
	log.Info("starting natours",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
	)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create a context that is cancelled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := application.Run(ctx); err != nil {
		log.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("natours stopped")
}
