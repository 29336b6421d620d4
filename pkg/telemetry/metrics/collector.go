package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sentry-hq/conduit/pkg/comm"
)

const (
	namespace = "conduit"
	subsystem = "gateway"
)

// durationBuckets covers the gateway's dispatch latencies, from cached
// feed hits to slow downloads.
var durationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}

// Collector records the gateway's Prometheus metrics. All methods are
// safe for concurrent use.
type Collector struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	denials         *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
	ssrfBlocks      prometheus.Counter
	evidenceWrites  *prometheus.CounterVec
	connectorUp     *prometheus.GaugeVec
}

// NewCollector creates a collector backed by the given registry. A nil
// registry creates a private one.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "requests_total",
			Help: "Communication requests by connector kind and terminal status.",
		}, []string{"connector_kind", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name:    "request_duration_seconds",
			Help:    "End-to-end pipeline duration by connector kind.",
			Buckets: durationBuckets,
		}, []string{"connector_kind"}),
		denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "denials_total",
			Help: "Policy and mode denials by reason code.",
		}, []string{"reason_code"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "rate_limited_total",
			Help: "Rate-limit rejections by limiter key.",
		}, []string{"key"}),
		ssrfBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "ssrf_blocks_total",
			Help: "Requests denied by the SSRF guard.",
		}),
		evidenceWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "evidence_writes_total",
			Help: "Evidence store writes by result (ok, error).",
		}, []string{"result"}),
		connectorUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "connector_up",
			Help: "Connector health: 1 healthy, 0 failing or disabled.",
		}, []string{"connector_kind"}),
	}

	registry.MustRegister(
		c.requests, c.requestDuration, c.denials, c.rateLimited,
		c.ssrfBlocks, c.evidenceWrites, c.connectorUp,
	)
	return c
}

// Registry returns the backing registry for the HTTP handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRequest records one completed request.
func (c *Collector) RecordRequest(kind comm.ConnectorKind, status comm.RequestStatus, duration time.Duration) {
	c.requests.WithLabelValues(string(kind), string(status)).Inc()
	c.requestDuration.WithLabelValues(string(kind)).Observe(duration.Seconds())
}

// RecordDenial records a denial by its reason code, tracking SSRF blocks
// separately.
func (c *Collector) RecordDenial(reasonCode string) {
	c.denials.WithLabelValues(reasonCode).Inc()
	if reasonCode == comm.ReasonSSRFDetected {
		c.ssrfBlocks.Inc()
	}
}

// RecordRateLimited records a rate-limit rejection for a limiter key.
func (c *Collector) RecordRateLimited(key string) {
	c.rateLimited.WithLabelValues(key).Inc()
}

// RecordEvidenceWrite records an evidence store write outcome.
func (c *Collector) RecordEvidenceWrite(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.evidenceWrites.WithLabelValues(result).Inc()
}

// SetConnectorHealth publishes a connector's health gauge.
func (c *Collector) SetConnectorHealth(kind comm.ConnectorKind, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	c.connectorUp.WithLabelValues(string(kind)).Set(v)
}
