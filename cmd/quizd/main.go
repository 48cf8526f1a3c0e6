// Command quizd runs the quiz backend: it connects to PostgreSQL, applies
// migrations, wires the generation pipeline and services, and serves health
// probes until interrupted.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aparasochka/greektutor/internal/app"
	"github.com/aparasochka/greektutor/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting quizd",
		slog.String("version", app.BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("init application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		logger.Error("run application", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
