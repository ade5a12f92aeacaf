package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by the API and reconciliation flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal       *prometheus.CounterVec
	httpRequestDuration     *prometheus.HistogramVec
	reconciliationsTotal    *prometheus.CounterVec
	carrierLookupsTotal     *prometheus.CounterVec
	carrierLookupDuration   prometheus.Histogram
	confirmationWritesTotal *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fedex_proxy",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fedex_proxy",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		reconciliationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fedex_proxy",
				Name:      "reconciliations_total",
				Help:      "Total number of reconciliation runs grouped by result.",
			},
			[]string{"result"},
		),
		carrierLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fedex_proxy",
				Name:      "carrier_lookups_total",
				Help:      "Total number of carrier tracking lookups grouped by outcome.",
			},
			[]string{"outcome"},
		),
		carrierLookupDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "fedex_proxy",
				Name:      "carrier_lookup_duration_seconds",
				Help:      "Carrier tracking lookup duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		confirmationWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fedex_proxy",
				Name:      "confirmation_writes_total",
				Help:      "Total number of fulfillment delivery confirmation writes grouped by outcome.",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.reconciliationsTotal,
		m.carrierLookupsTotal,
		m.carrierLookupDuration,
		m.confirmationWritesTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncReconciliation(result string) {
	if m == nil {
		return
	}
	m.reconciliationsTotal.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *Metrics) IncCarrierLookup(outcome string) {
	if m == nil {
		return
	}
	m.carrierLookupsTotal.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) ObserveCarrierLookupDuration(duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.carrierLookupDuration.Observe(seconds)
}

func (m *Metrics) IncConfirmationWrite(outcome string) {
	if m == nil {
		return
	}
	m.confirmationWritesTotal.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
