package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "devserve"

type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	bytes    prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests answered, by method and status code.",
		}, []string{"method", "code"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time spent answering requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_bytes_total",
			Help:      "Response body bytes.",
		}),
	}

	registry.MustRegister(
		m.requests,
		m.duration,
		m.bytes,

		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records every request passing through a fiber app.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		method := c.Method()
		code := c.Response().StatusCode()

		m.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
		m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())

		if size := responseSize(c); size > 0 {
			m.bytes.Add(float64(size))
		}

		return err
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry: m.registry,
	})
}

// responseSize avoids Body() on streamed responses, which would drain them.
func responseSize(c *fiber.Ctx) int {
	resp := c.Response()

	if resp.IsBodyStream() {
		return resp.Header.ContentLength()
	}

	return len(resp.Body())
}
