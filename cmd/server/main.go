package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vancomm/raysweep/internal/app"
	"github.com/vancomm/raysweep/internal/config"
	"github.com/vancomm/raysweep/internal/database"
	"github.com/vancomm/raysweep/internal/mines"
)

func main() {
	logger := config.NewLogger(os.Stderr)

	if err := config.SetupLogrus(mines.Log); err != nil {
		logger.Error("failed to configure engine logging", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.New(logger, database.Migrations).Start(ctx); err != nil {
		logger.Error("failed to start", slog.Any("error", err))
		os.Exit(1)
	}
}
