package loggingmw

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/canteen/internal/logging"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &m))
	return m
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logging.NewWithWriter(&buf, "debug")

	e := echo.New()
	e.Use(echomw.RequestID())
	e.Use(RequestLogger(base))
	e.GET("/api/orders/:id", func(c echo.Context) error {
		logging.FromContext(c.Request().Context()).Info("inside")
		if c.Param("id") == "missing" {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	line := lastLine(t, &buf)
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "request completed", line["msg"])
	assert.Equal(t, "/api/orders/:id", line["path"])
	assert.EqualValues(t, 200, line["status"])
	assert.NotEmpty(t, line["request_id"])
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), line["request_id"])
	assert.Contains(t, buf.String(), `"msg":"inside"`)

	buf.Reset()
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	line = lastLine(t, &buf)
	assert.Equal(t, "WARN", line["level"])
	assert.EqualValues(t, 404, line["status"])
}
