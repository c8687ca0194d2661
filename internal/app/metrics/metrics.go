// Package metrics exposes the application's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "affiliate_backend",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "affiliate_backend",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "affiliate_backend",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	catalogCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "affiliate_backend",
			Subsystem: "catalog",
			Name:      "calls_total",
			Help:      "Total number of outbound catalog API calls.",
		},
		[]string{"operation", "outcome"},
	)

	catalogDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "affiliate_backend",
			Subsystem: "catalog",
			Name:      "call_duration_seconds",
			Help:      "Duration of outbound catalog API calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"operation"},
	)

	clicksTracked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "affiliate_backend",
			Subsystem: "commission",
			Name:      "clicks_total",
			Help:      "Total number of tracked clicks by resolution source.",
		},
		[]string{"source", "attributed"},
	)

	transactionsOpened = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "affiliate_backend",
			Subsystem: "commission",
			Name:      "transactions_opened_total",
			Help:      "Total number of pending commission transactions opened.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		catalogCalls,
		catalogDuration,
		clicksTracked,
		transactionsOpened,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one handled request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(strings.ToUpper(method), path, status).Inc()
	httpDuration.WithLabelValues(strings.ToUpper(method), path).Observe(duration.Seconds())
}

// RecordHTTPStatus is RecordHTTPRequest with a numeric status.
func RecordHTTPStatus(method, path string, status int, duration time.Duration) {
	RecordHTTPRequest(method, path, strconv.Itoa(status), duration)
}

// IncInFlight increments the in-flight request gauge.
func IncInFlight() { httpInFlight.Inc() }

// DecInFlight decrements the in-flight request gauge.
func DecInFlight() { httpInFlight.Dec() }

// RecordCatalogCall records one outbound catalog API call. outcome is
// "success" or the error kind.
func RecordCatalogCall(operation, outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "success"
	}
	catalogCalls.WithLabelValues(operation, outcome).Inc()
	catalogDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordClickTracked records one tracked click, labeled by the category
// resolution source and whether an agent was attributed.
func RecordClickTracked(source string, attributed bool) {
	clicksTracked.WithLabelValues(source, strconv.FormatBool(attributed)).Inc()
}

// RecordTransactionOpened records one pending commission transaction.
func RecordTransactionOpened() { transactionsOpened.Inc() }
