package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recall/internal/capture"
	httpserver "github.com/fyrsmithlabs/recall/internal/http"
	"github.com/fyrsmithlabs/recall/internal/mcp"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, the MCP endpoint and the capture bridge",
		Long: `Start the recall daemon.

Endpoints:
  GET  /health
  GET  /metrics
  GET  /api/v1/status
  POST /api/v1/transcripts
  POST /api/v1/images
  POST /api/v1/query
  *    /mcp               (streamable HTTP MCP, tool: context_query)

When capture.nats_url is set, transcripts and images published by capture
devices on <capture.subject_prefix>.transcript and .image are ingested too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close(ctx)
			return runServe(ctx, a)
		},
	}
}

// runServe starts every server-side component and blocks until ctx is
// cancelled, then shuts down within the configured timeout.
func runServe(ctx context.Context, a *app) error {
	logger := a.log.Underlying()
	cfg := a.cfg

	logger.Info("starting recall",
		zap.String("version", version),
		zap.String("data_dir", a.store.Root()),
		zap.String("addr", cfg.Server.Addr()),
		zap.Bool("capture_enabled", cfg.Capture.Enabled()),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	mcpServer, err := mcp.NewServer(&mcp.Config{
		Name:    "recall",
		Version: version,
		Logger:  logger.Named("mcp"),
	}, a.recall)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	srv, err := httpserver.NewServer(a.ingest, a.recall, logger.Named("http"), &httpserver.Config{
		Host:    cfg.Server.Host,
		Port:    cfg.Server.Port,
		Version: version,
	},
		httpserver.WithMCPHandler(mcpServer.Handler()),
		httpserver.WithArtifactCounts(a.store),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	if cfg.Capture.Enabled() {
		nc, err := capture.Connect(cfg.Capture.NATSURL, logger.Named("capture"))
		if err != nil {
			return err
		}
		defer nc.Close()

		bridge := capture.NewBridge(nc, cfg.Capture.SubjectPrefix, a.ingest, logger.Named("capture"))
		if err := bridge.Start(ctx); err != nil {
			return fmt.Errorf("failed to start capture bridge: %w", err)
		}
		defer func() {
			if err := bridge.Stop(); err != nil {
				logger.Warn("capture bridge stop failed", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	logger.Info("server shutdown complete")
	return nil
}
