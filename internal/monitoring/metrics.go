// Package monitoring exposes prometheus metrics for the grant protocol.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	prometheus_metrics "github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"
)

const (
	metricsNamespace = "gymgate"
	metricsSubsystem = "access"

	kindLabel    = "kind"    // member | admin
	outcomeLabel = "outcome" // open | idle | denied
)

type Metrics struct {
	registry   *prometheus.Registry
	middleware middleware.Middleware
	grantCount *prometheus.CounterVec
	pollCount  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	grantCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "grants_issued_total",
			Help:      "Total number of access grants issued",
		},
		[]string{kindLabel},
	)
	reg.MustRegister(grantCount)

	pollCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "polls_total",
			Help:      "Total number of controller polls served",
		},
		[]string{outcomeLabel},
	)
	reg.MustRegister(pollCount)

	return &Metrics{
		registry: reg,
		middleware: middleware.New(middleware.Config{
			Service: metricsNamespace,
			Recorder: prometheus_metrics.NewRecorder(prometheus_metrics.Config{
				Registry: reg,
			}),
		}),
		grantCount: grantCount,
		pollCount:  pollCount,
	}
}

// HTTPMiddleware records request durations and statuses per handler
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return std.Handler("", m.middleware, next)
}

// Handler serves the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveGrantIssued(isAdmin bool) {
	kind := "member"
	if isAdmin {
		kind = "admin"
	}
	m.grantCount.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObservePoll(outcome string) {
	m.pollCount.WithLabelValues(outcome).Inc()
}
