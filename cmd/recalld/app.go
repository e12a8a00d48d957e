package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recall/internal/artifact"
	"github.com/fyrsmithlabs/recall/internal/config"
	"github.com/fyrsmithlabs/recall/internal/ingest"
	"github.com/fyrsmithlabs/recall/internal/logging"
	"github.com/fyrsmithlabs/recall/internal/query"
	"github.com/fyrsmithlabs/recall/internal/reasoning"
	"github.com/fyrsmithlabs/recall/internal/recall"
	"github.com/fyrsmithlabs/recall/internal/telemetry"
)

const queryInstrumentationName = "github.com/fyrsmithlabs/recall/internal/query"

// app holds the process-wide components every command shares.
type app struct {
	cfg      *config.Config
	log      *logging.Logger
	tel      *telemetry.Telemetry
	store    *artifact.Store
	reasoner reasoning.Reasoner
	ingest   *ingest.Service
	recall   *recall.Service
}

// loadApp loads configuration and builds the app.
func loadApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.LoadWithFile(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return newApp(ctx, cfg)
}

// newApp initializes logging and telemetry, then the store, reasoning
// client and services.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logCfg, err := logging.FromSettings(cfg.Log.Level, cfg.Log.Format, logging.OutputStderr)
	if err != nil {
		return nil, fmt.Errorf("invalid logging configuration: %w", err)
	}
	log, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version), log.Underlying().Named("telemetry"))
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	reasoner := reasoning.New(reasoning.Config{
		APIKey:    cfg.Reasoning.APIKey.Value(),
		Model:     cfg.Reasoning.Model,
		BaseURL:   cfg.Reasoning.BaseURL,
		RateLimit: cfg.Reasoning.RateLimit,
		Burst:     cfg.Reasoning.Burst,
	}, log.Underlying().Named("reasoning"))
	if err := reasoning.Ready(reasoner); err != nil {
		log.Warn(ctx, "reasoning API key not set; queries and image descriptions will fail until it is",
			zap.String("env", reasoning.APIKeyEnvVar))
	}

	return assemble(cfg, log, tel, reasoner), nil
}

// assemble wires the store and services around reasoner.
func assemble(cfg *config.Config, log *logging.Logger, tel *telemetry.Telemetry, reasoner reasoning.Reasoner) *app {
	zl := log.Underlying()
	home, _ := os.UserHomeDir()

	store := artifact.NewStore(cfg.DataDir(home), artifact.WithLogger(zl.Named("artifact")))
	ingestSvc := ingest.NewService(store, reasoner, zl.Named("ingest"),
		ingest.WithDescribeModel(cfg.Reasoning.Model),
		ingest.WithDescribeMaxTokens(cfg.Reasoning.DescribeMaxTokens))
	recallSvc := recall.New(store, reasoner, zl.Named("query"),
		query.WithModel(cfg.Reasoning.Model),
		query.WithMaxTokens(cfg.Reasoning.MaxTokens),
		query.WithTracer(tel.Tracer(queryInstrumentationName)))

	return &app{
		cfg:      cfg,
		log:      log,
		tel:      tel,
		store:    store,
		reasoner: reasoner,
		ingest:   ingestSvc,
		recall:   recallSvc,
	}
}

// Close flushes telemetry and logs.
func (a *app) Close(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := a.tel.Shutdown(shutdownCtx); err != nil {
		a.log.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = a.log.Sync() // Best-effort sync on shutdown
}
