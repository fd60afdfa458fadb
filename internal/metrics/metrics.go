// Package metrics exposes Prometheus metrics for the site: HTTP traffic,
// upstream gateway calls, notification fan-out and reference-data state.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mysite"

// Metrics holds every collector the service registers.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	upstreamRequests *prometheus.CounterVec
	upstreamDuration prometheus.Histogram

	notificationsSent   prometheus.Counter
	notificationsFailed prometheus.Counter

	rankingEntries   prometheus.Gauge
	dashboardClients prometheus.Gauge
}

// New creates and registers the service metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		upstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Orion API calls by outcome (ok, rejected, unreachable).",
		}, []string{"outcome"}),
		upstreamDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Orion API call latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		notificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Notification emails queued successfully.",
		}),
		notificationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Notification emails that failed to queue.",
		}),
		rankingEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ranking_positions_entries",
			Help:      "Entries in the loaded ranking positions table.",
		}),
		dashboardClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dashboard_clients",
			Help:      "Connected admin dashboard websocket clients.",
		}),
	}
}

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveUpstream records one Orion API call.
func (m *Metrics) ObserveUpstream(outcome string, duration time.Duration) {
	m.upstreamRequests.WithLabelValues(outcome).Inc()
	m.upstreamDuration.Observe(duration.Seconds())
}

// CountNotifications records a notification fan-out result.
func (m *Metrics) CountNotifications(sent, failed int) {
	m.notificationsSent.Add(float64(sent))
	m.notificationsFailed.Add(float64(failed))
}

// SetRankingEntries records the current ranking table size.
func (m *Metrics) SetRankingEntries(count int) {
	m.rankingEntries.Set(float64(count))
}

// SetDashboardClients records the connected dashboard client count.
func (m *Metrics) SetDashboardClients(count int) {
	m.dashboardClients.Set(float64(count))
}

// Middleware instruments every request with the counter and latency
// histogram, labeled by the chi route pattern rather than the raw path
// so parameterized routes do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
		m.httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
