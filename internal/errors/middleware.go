package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPErrorsTotal tracks HTTP errors by kind.
var HTTPErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "snakebot",
		Name:      "http_errors_total",
		Help:      "Total HTTP errors by error kind",
	},
	[]string{"kind"},
)

// ErrorResponse is the JSON body of a failed HTTP request.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Kind    Kind           `json:"kind"`
	Context map[string]any `json:"context,omitempty"`
}

// HTTPStatus maps the error kind to a status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindExternal:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ToResponse renders the error for a client. Causes stay in the log.
func (e *Error) ToResponse() ErrorResponse {
	resp := ErrorResponse{Error: e.Message, Kind: e.Kind}
	if len(e.Context) > 0 {
		resp.Context = e.Context
	}
	return resp
}

// Middleware converts handler errors into JSON responses. Echo's own
// HTTPErrors pass through so their status codes survive.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				HTTPErrorsTotal.WithLabelValues(string(kindOfStatus(httpErr.Code))).Inc()
				return err
			}

			structuredErr := AsStructuredError(err)
			HTTPErrorsTotal.WithLabelValues(string(structuredErr.Kind)).Inc()
			logError(c, structuredErr)

			if err := c.JSON(structuredErr.HTTPStatus(), structuredErr.ToResponse()); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

func kindOfStatus(code int) Kind {
	switch code {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return KindNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return KindExternal
	case http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindInternal
	}
}

func logError(c echo.Context, err *Error) {
	attrs := []any{
		"error_kind", err.Kind,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}
	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}
	if err.Cause != nil {
		attrs = append(attrs, "cause", err.Cause)
	}

	ctx := c.Request().Context()
	switch err.Kind {
	case KindValidation, KindNotFound:
		slog.InfoContext(ctx, "Request rejected", attrs...)
	case KindExternal, KindTimeout:
		slog.WarnContext(ctx, "Dependency failed", attrs...)
	default:
		slog.ErrorContext(ctx, "Internal error", attrs...)
	}
}
