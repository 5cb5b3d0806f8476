package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/stats/karma", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, Middleware()(h)(c))
	return rec
}

func TestMiddleware_StructuredError(t *testing.T) {
	HTTPErrorsTotal.Reset()

	rec := serve(t, func(echo.Context) error {
		return ValidationError("unknown namespace").WithField("namespace", "nope")
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unknown namespace", resp.Error)
	assert.Equal(t, KindValidation, resp.Kind)
	assert.Equal(t, "nope", resp.Context["namespace"])
	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPErrorsTotal.WithLabelValues("validation")))
}

func TestMiddleware_PlainErrorHidesCause(t *testing.T) {
	HTTPErrorsTotal.Reset()

	rec := serve(t, func(echo.Context) error {
		return fmt.Errorf("pebble: closed")
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pebble")
	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPErrorsTotal.WithLabelValues("internal")))
}

func TestMiddleware_NoError(t *testing.T) {
	HTTPErrorsTotal.Reset()

	rec := serve(t, func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, testutil.CollectAndCount(HTTPErrorsTotal))
}

func TestMiddleware_EchoErrorPassesThrough(t *testing.T) {
	HTTPErrorsTotal.Reset()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	err := Middleware()(func(echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "no route")
	})(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPErrorsTotal.WithLabelValues("not_found")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{ValidationError("x"), http.StatusBadRequest},
		{NotFoundError("x"), http.StatusNotFound},
		{ExternalError("x", nil), http.StatusBadGateway},
		{TimeoutError("x", nil), http.StatusGatewayTimeout},
		{MalformedError("x", nil), http.StatusInternalServerError},
		{InternalError("x", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}
