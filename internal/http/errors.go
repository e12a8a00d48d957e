package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recall/internal/errs"
	"github.com/fyrsmithlabs/recall/internal/logging"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
	// Field names the offending input for 400 responses.
	Field string `json:"field,omitempty"`
	// UpstreamStatus is the reasoning service's HTTP status for 502 responses.
	UpstreamStatus int `json:"upstream_status,omitempty"`
}

// statusForError maps the error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errs.IsInvalidInput(err):
		return http.StatusBadRequest
	case errs.IsMissingConfiguration(err):
		return http.StatusServiceUnavailable
	case errs.IsReasoning(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c echo.Context, err error) error {
	status := statusForError(err)
	body := ErrorResponse{Error: err.Error()}

	var invalid *errs.InvalidInputError
	if errors.As(err, &invalid) {
		body.Field = invalid.Field
	}
	var reasoning *errs.ReasoningError
	if errors.As(err, &reasoning) {
		body.UpstreamStatus = reasoning.Status
	}

	fields := []zap.Field{
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Error(err),
	}
	ctx := c.Request().Context()
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", logging.Fields(ctx, fields...)...)
	} else {
		s.logger.Warn("request rejected", logging.Fields(ctx, fields...)...)
	}
	return c.JSON(status, body)
}
