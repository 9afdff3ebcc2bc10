package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
	Events    *prometheus.CounterVec
}

// subsystem maps a service name onto the Prometheus name charset. The
// "canteen" namespace always comes first, so leading digits are fine.
func subsystem(service string) string {
	b := []byte(service)
	for i, ch := range b {
		ok := ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
		if !ok {
			b[i] = '_'
		}
	}
	return string(b)
}

func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	service = subsystem(service)
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "canteen",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "method", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "canteen",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "canteen",
		Subsystem: service,
		Name:      "domain_events_total",
		Help:      "Domain events emitted after committed writes.",
	}, []string{"topic", "type"})

	reg.MustRegister(requests, latency, events)
	return &ServerMetrics{Requests: requests, LatencyMS: latency, Events: events}
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *ServerMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			handler := c.Path()
			if handler == "" {
				handler = "unmatched"
			}
			status := c.Response().Status
			if err != nil {
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}

			m.Requests.WithLabelValues(handler, c.Request().Method, strconv.Itoa(status)).Inc()
			m.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
			return err
		}
	}
}

type publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// CountingPublisher counts every event by topic and type before handing it
// to Next. A nil Next only counts.
type CountingPublisher struct {
	Metrics *ServerMetrics
	Next    publisher
}

func (p *CountingPublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	typ := "unknown"
	if m, ok := event.(map[string]any); ok {
		if v, ok := m["type"]; ok {
			typ = fmt.Sprint(v)
		}
	}
	p.Metrics.Events.WithLabelValues(topic, typ).Inc()

	if p.Next == nil {
		return nil
	}
	return p.Next.PublishEvent(ctx, topic, key, event)
}
