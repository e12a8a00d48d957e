// Package http provides the HTTP API for recall: artifact ingestion, queries,
// health and metrics, and the streamable MCP endpoint.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recall/internal/ingest"
	"github.com/fyrsmithlabs/recall/internal/logging"
	"github.com/fyrsmithlabs/recall/internal/response"
)

// maxImageBytes bounds image uploads, raw or base64-encoded.
const maxImageBytes = 20 << 20

// Ingester stores captured artifacts.
type Ingester interface {
	IngestTranscript(ctx context.Context, transcript string) (*ingest.Receipt, error)
	IngestImage(ctx context.Context, imageBase64, mediaType string) (*ingest.Receipt, error)
	IngestImageBytes(ctx context.Context, data []byte, mediaType string) (*ingest.Receipt, error)
}

// Querier answers questions against the lifelog.
type Querier interface {
	ContextQuery(ctx context.Context, question string) (*response.Response, error)
}

// Server provides HTTP endpoints for recall.
type Server struct {
	echo     *echo.Echo
	ingester Ingester
	querier  Querier
	lister   Lister
	logger   *zap.Logger
	config   *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host    string
	Port    int
	Version string
}

// Option configures optional Server features.
type Option func(*Server)

// WithMCPHandler mounts h at /mcp.
func WithMCPHandler(h http.Handler) Option {
	return func(s *Server) {
		s.echo.Any("/mcp", echo.WrapHandler(h))
	}
}

// WithArtifactCounts reports artifact counts from l on /api/v1/status.
func WithArtifactCounts(l Lister) Option {
	return func(s *Server) { s.lister = l }
}

// NewServer creates a new HTTP server.
func NewServer(ingester Ingester, querier Querier, logger *zap.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if ingester == nil {
		return nil, fmt.Errorf("ingester cannot be nil")
	}
	if querier == nil {
		return nil, fmt.Errorf("querier cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9090,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
		},
	}))
	e.Use(newRequestMetrics(nil, logger).Middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request", logging.Fields(c.Request().Context(),
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
			)...)

			return err
		}
	})

	s := &Server{
		echo:     e,
		ingester: ingester,
		querier:  querier,
		logger:   logger,
		config:   cfg,
	}

	s.registerRoutes()
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/status", s.handleStatus)
	v1.POST("/transcripts", s.handleTranscript)
	v1.POST("/images", s.handleImage, middleware.BodyLimit("28M"))
	v1.POST("/query", s.handleQuery)
}

// Handler exposes the router, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleStatus reports the version and artifact counts.
func (s *Server) handleStatus(c echo.Context) error {
	resp := StatusResponse{Status: "ok", Version: s.config.Version}
	resp.Counts.Transcripts, resp.Counts.ImageDescriptions = CountArtifacts(c.Request().Context(), s.lister)
	return c.JSON(http.StatusOK, resp)
}

// handleTranscript stores a final transcript.
func (s *Server) handleTranscript(c echo.Context) error {
	var req TranscriptRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid transcript request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	receipt, err := s.ingester.IngestTranscript(c.Request().Context(), req.Transcript)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, receiptResponse(receipt))
}

// handleImage stores an image and its description. The body is either JSON
// carrying base64 data or the raw image with an image/* Content-Type.
func (s *Server) handleImage(c echo.Context) error {
	ctx := c.Request().Context()
	contentType := c.Request().Header.Get(echo.HeaderContentType)

	var (
		receipt *ingest.Receipt
		err     error
	)
	if strings.HasPrefix(strings.ToLower(contentType), "image/") {
		data, readErr := io.ReadAll(io.LimitReader(c.Request().Body, maxImageBytes+1))
		if readErr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "failed to read image body")
		}
		if len(data) > maxImageBytes {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image too large")
		}
		receipt, err = s.ingester.IngestImageBytes(ctx, data, contentType)
	} else {
		var req ImageRequest
		if bindErr := c.Bind(&req); bindErr != nil {
			s.logger.Warn("invalid image request", zap.Error(bindErr))
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		receipt, err = s.ingester.IngestImage(ctx, req.Image, req.MediaType)
	}
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, receiptResponse(receipt))
}

// handleQuery answers a question and returns the ordered response parts.
func (s *Server) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid query request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := s.querier.ContextQuery(c.Request().Context(), req.Question)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

func receiptResponse(r *ingest.Receipt) ReceiptResponse {
	return ReceiptResponse{
		Kind:        r.Kind,
		Timestamp:   r.Timestamp,
		MediaType:   r.MediaType,
		Description: r.Description,
	}
}
