package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/recall/internal/http"

// requestMetrics records per-route request counts, latency and payload sizes.
// Instruments that fail to register stay nil and are skipped.
type requestMetrics struct {
	requests     metric.Int64Counter
	duration     metric.Float64Histogram
	requestSize  metric.Int64Histogram
	responseSize metric.Int64Histogram
	inFlight     metric.Int64UpDownCounter
}

// newRequestMetrics registers the instruments on meter. A nil meter uses the
// global provider.
func newRequestMetrics(meter metric.Meter, logger *zap.Logger) *requestMetrics {
	if meter == nil {
		meter = otel.Meter(httpInstrumentationName)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	warn := func(name string, err error) {
		if err != nil {
			logger.Warn("failed to create http instrument", zap.String("instrument", name), zap.Error(err))
		}
	}

	m := &requestMetrics{}
	var err error

	m.requests, err = meter.Int64Counter("recall.http.requests_total",
		metric.WithDescription("HTTP requests by method, route and status"),
		metric.WithUnit("{request}"))
	warn("requests_total", err)

	m.duration, err = meter.Float64Histogram("recall.http.request_duration_seconds",
		metric.WithDescription("HTTP request latency; query routes include the model call"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60))
	warn("request_duration_seconds", err)

	m.requestSize, err = meter.Int64Histogram("recall.http.request_size_bytes",
		metric.WithDescription("Declared request body size; large on image uploads"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(256, 4096, 65536, 1<<20, 4<<20, 16<<20))
	warn("request_size_bytes", err)

	m.responseSize, err = meter.Int64Histogram("recall.http.response_size_bytes",
		metric.WithDescription("HTTP response body size; large when a cited image is attached"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(256, 4096, 65536, 1<<20, 4<<20, 16<<20))
	warn("response_size_bytes", err)

	m.inFlight, err = meter.Int64UpDownCounter("recall.http.active_requests",
		metric.WithDescription("HTTP requests currently being served"),
		metric.WithUnit("{request}"))
	warn("active_requests", err)

	return m
}

// Middleware records one observation per request.
func (m *requestMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			start := time.Now()
			if m.inFlight != nil {
				m.inFlight.Add(ctx, 1)
				defer m.inFlight.Add(ctx, -1)
			}

			err := next(c)
			m.observe(c, time.Since(start), err)
			return err
		}
	}
}

func (m *requestMetrics) observe(c echo.Context, elapsed time.Duration, err error) {
	ctx := c.Request().Context()
	status := c.Response().Status
	// A handler error has not been written yet; echo renders it after the
	// middleware chain returns.
	var he *echo.HTTPError
	if errors.As(err, &he) && !c.Response().Committed {
		status = he.Code
	}

	opt := metric.WithAttributes(
		attribute.String("method", c.Request().Method),
		attribute.String("route", routeLabel(c.Path())),
		attribute.String("status", strconv.Itoa(status)),
	)

	if m.requests != nil {
		m.requests.Add(ctx, 1, opt)
	}
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Seconds(), opt)
	}
	if m.requestSize != nil && c.Request().ContentLength > 0 {
		m.requestSize.Record(ctx, c.Request().ContentLength, opt)
	}
	if m.responseSize != nil {
		m.responseSize.Record(ctx, c.Response().Size, opt)
	}
}

// routeLabel keeps metric cardinality bounded: routes are registered
// patterns, and unmatched requests share one label.
func routeLabel(path string) string {
	if path == "" {
		return "unmatched"
	}
	return path
}
