// Package main provides the entry point for the research report service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/helixir/research-report-service/internal/config"
	"github.com/helixir/research-report-service/internal/domain"
	"github.com/helixir/research-report-service/internal/fetch"
	"github.com/helixir/research-report-service/internal/llm"
	"github.com/helixir/research-report-service/internal/notify"
	"github.com/helixir/research-report-service/internal/observability"
	"github.com/helixir/research-report-service/internal/publish"
	"github.com/helixir/research-report-service/internal/registry"
	"github.com/helixir/research-report-service/internal/search"
	"github.com/helixir/research-report-service/internal/server"
	"github.com/helixir/research-report-service/internal/workflow"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// runnerFunc adapts a function to the registry.Runner interface. The engine
// and the registry reference each other (the engine commits progress into
// the registry, the registry runs jobs on the engine), so the registry is
// built first against this indirection.
type runnerFunc func(ctx context.Context, job domain.Job) domain.Job

func (f runnerFunc) Run(ctx context.Context, job domain.Job) domain.Job {
	return f(ctx, job)
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("research-report-service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("research_report")
	}

	// Workflow collaborators.
	searchClient := search.NewClient(cfg.Search, logger, metrics)
	fetcher := fetch.NewFetcher(cfg.Extraction, logger)
	synthesizer := llm.NewSynthesizer(cfg.LLM, logger, metrics)

	var publisher workflow.Publisher
	if cfg.Publish.Enabled {
		docsPublisher, err := publish.NewGoogleDocsPublisher(ctx, cfg.Publish, logger)
		if err != nil {
			return fmt.Errorf("create publisher: %w", err)
		}
		publisher = docsPublisher
		logger.Info().Msg("google docs publisher enabled")
	}

	notifier, err := notify.New(cfg.Notify, logger)
	if err != nil {
		return fmt.Errorf("create notifier: %w", err)
	}
	if closer, ok := notifier.(interface{ Close() error }); ok {
		defer func() {
			if closeErr := closer.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close notifier")
			}
		}()
	}

	// The registry owns job state and runs each submission through the
	// engine; the engine commits progress back into the registry.
	var engine *workflow.Engine
	reg := registry.New(
		runnerFunc(func(ctx context.Context, job domain.Job) domain.Job {
			return engine.Run(ctx, job)
		}),
		registry.Options{
			Publisher:         publisher,
			Notifier:          notifier,
			DefaultMaxResults: cfg.Intake.DefaultMaxResults,
		},
		logger,
		metrics,
	)
	engine = workflow.NewEngine(
		workflow.NewConfig(cfg),
		searchClient,
		fetcher,
		synthesizer,
		reg,
		logger,
		metrics,
	)

	httpServer := server.NewServer(server.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsPath:     cfg.Metrics.Path,
	}, reg, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}
	if err := reg.Close(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("jobs still running at shutdown deadline")
	}

	logger.Info().Msg("research-report-service stopped")
	return nil
}
