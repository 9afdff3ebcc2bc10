package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsByRouteAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg, "test")

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/orders/:id", func(c echo.Context) error {
		if c.Param("id") == "missing" {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return c.NoContent(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "missing"} {
		req := httptest.NewRequest(http.MethodGet, "/api/orders/"+id, nil)
		e.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("/api/orders/:id", http.MethodGet, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/api/orders/:id", http.MethodGet, "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.LatencyMS))
}

func TestHandler_ExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg, "test")
	m.Events.WithLabelValues("order_events", "order_created").Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "canteen_test_domain_events_total")
}

func TestNewServerMetrics_ServiceNameWithDashes(t *testing.T) {
	reg := prometheus.NewRegistry()
	var m *ServerMetrics
	require.NotPanics(t, func() { m = NewServerMetrics(reg, "canteen-api.v2") })
	m.Events.WithLabelValues("order_events", "order_created").Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "canteen_canteen_api_v2_domain_events_total")
}

type stubPublisher struct {
	calls int
	err   error
}

func (s *stubPublisher) PublishEvent(context.Context, string, string, any) error {
	s.calls++
	return s.err
}

func TestCountingPublisher(t *testing.T) {
	m := NewServerMetrics(prometheus.NewRegistry(), "test")
	next := &stubPublisher{err: errors.New("broker down")}
	p := &CountingPublisher{Metrics: m, Next: next}

	err := p.PublishEvent(context.Background(), "order_events", "k", map[string]any{"type": "order_created"})
	assert.Error(t, err)
	assert.Equal(t, 1, next.calls)

	require.NoError(t, (&CountingPublisher{Metrics: m}).PublishEvent(context.Background(), "payment_events", "k", "raw"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues("order_events", "order_created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues("payment_events", "unknown")))
}
