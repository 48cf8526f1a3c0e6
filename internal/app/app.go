// Package app assembles the application: configuration, logging, database,
// generation pipeline and services, plus the operational HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aparasochka/greektutor/internal/adapter/anthropic"
	"github.com/aparasochka/greektutor/internal/adapter/postgres"
	"github.com/aparasochka/greektutor/internal/adapter/postgres/answerlog"
	"github.com/aparasochka/greektutor/internal/adapter/postgres/pausedsession"
	"github.com/aparasochka/greektutor/internal/adapter/postgres/sessionlog"
	"github.com/aparasochka/greektutor/internal/adapter/postgres/topicmemory"
	"github.com/aparasochka/greektutor/internal/adapter/postgres/topicstat"
	"github.com/aparasochka/greektutor/internal/config"
	"github.com/aparasochka/greektutor/internal/content"
	"github.com/aparasochka/greektutor/internal/scheduler"
	"github.com/aparasochka/greektutor/internal/service/quiz"
	"github.com/aparasochka/greektutor/internal/service/stats"
	"github.com/aparasochka/greektutor/internal/transport/rest"
)

// App holds the wired services. A frontend (the chat bot) embeds App and
// drives Quiz and Stats; the app itself serves only health probes over HTTP.
type App struct {
	Quiz  *quiz.Service
	Stats *stats.Service

	cfg  *config.Config
	log  *slog.Logger
	pool *pgxpool.Pool
}

// New connects to the database, runs migrations, and wires all services.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := postgres.Migrate(ctx, cfg.Database.DSN); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	client := sdk.NewClient(option.WithAPIKey(cfg.Generation.APIKey))
	generator := anthropic.NewGenerator(client, anthropic.Config{
		Model:       cfg.Generation.Model,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
		CallTimeout: cfg.Generation.CallTimeout,
	}, log)

	retry := content.RetryPolicy{
		MaxAttempts:    cfg.Generation.RetryAttempts,
		InitialBackoff: cfg.Generation.RetryBackoff,
		Multiplier:     cfg.Generation.RetryMultiplier,
		OverallTimeout: cfg.Generation.OverallTimeout,
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	pipeline := content.NewPipeline(generator, retry, rng, log)

	planner := scheduler.New(rand.New(rand.NewSource(time.Now().UnixNano())))

	sessionLog := sessionlog.New(pool)
	answerLog := answerlog.New(pool)

	quizSvc, err := quiz.NewService(
		log,
		pausedsession.New(pool),
		topicstat.New(pool),
		topicmemory.New(pool),
		sessionLog,
		answerLog,
		postgres.NewTxManager(pool),
		planner,
		pipeline,
		quiz.Config{
			QuestionCount:  cfg.Quiz.QuestionCount,
			SessionTTL:     cfg.Quiz.SessionTTL,
			LockCacheSize:  cfg.Quiz.LockCacheSize,
			ProfileWindow:  cfg.Quiz.ProfileWindow,
			RecentMistakes: cfg.Quiz.RecentMistakes,
		},
		nil,
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("quiz service: %w", err)
	}

	return &App{
		Quiz:  quizSvc,
		Stats: stats.NewService(log, sessionLog, answerLog, nil),
		cfg:   cfg,
		log:   log,
		pool:  pool,
	}, nil
}

// Run serves the health endpoints until ctx is cancelled, then shuts the
// server down gracefully.
func (a *App) Run(ctx context.Context) error {
	handler := rest.NewHealthHandler(a.pool, BuildVersion())

	srv := &http.Server{
		Addr:         net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port)),
		Handler:      handler.Routes(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// Close releases the database pool.
func (a *App) Close() {
	a.pool.Close()
}
