package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "parsimony"

// Prometheus implements every hook interface by recording Prometheus metrics.
// All metrics are registered on the registerer passed to [NewPrometheus], so
// tests can use an isolated registry.
type Prometheus struct {
	// SearchesTotal counts finished searches.
	// Labels: method (nni, spr), stop (converged, tree_limit, rearrangement_limit, error)
	SearchesTotal *prometheus.CounterVec

	// SearchDurationSeconds measures wall time per search.
	// Labels: method
	SearchDurationSeconds *prometheus.HistogramVec

	// RearrangementsTotal counts evaluated rearrangements.
	// Labels: method
	RearrangementsTotal *prometheus.CounterVec

	// ImprovementsTotal counts rearrangements that shortened the best tree.
	// Labels: method
	ImprovementsTotal *prometheus.CounterVec

	// BestLength is the length of the best tree of the last finished search.
	BestLength prometheus.Gauge

	// CacheRequestsTotal counts cache lookups and writes.
	// Labels: key_type (score, search), result (hit, miss, set)
	CacheRequestsTotal *prometheus.CounterVec

	// HTTPRequestsTotal counts served requests.
	// Labels: method, route, status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPDurationSeconds measures request latency.
	// Labels: method, route
	HTTPDurationSeconds *prometheus.HistogramVec

	// HTTPInFlight tracks requests being served.
	HTTPInFlight prometheus.Gauge
}

// NewPrometheus creates the metrics and registers them on reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "search",
				Name:      "runs_total",
				Help:      "Total number of finished tree searches by method and stop reason",
			},
			[]string{"method", "stop"},
		),
		SearchDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "search",
				Name:      "duration_seconds",
				Help:      "Wall time of tree searches in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"method"},
		),
		RearrangementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "search",
				Name:      "rearrangements_total",
				Help:      "Total number of evaluated rearrangements",
			},
			[]string{"method"},
		),
		ImprovementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "search",
				Name:      "improvements_total",
				Help:      "Total number of rearrangements that shortened the best tree",
			},
			[]string{"method"},
		),
		BestLength: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "search",
				Name:      "best_length",
				Help:      "Length of the best tree found by the last search",
			},
		),
		CacheRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "cache",
				Name:      "requests_total",
				Help:      "Total number of cache operations by key type and result",
			},
			[]string{"key_type", "result"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of HTTP requests being served",
			},
		),
	}
	reg.MustRegister(
		p.SearchesTotal,
		p.SearchDurationSeconds,
		p.RearrangementsTotal,
		p.ImprovementsTotal,
		p.BestLength,
		p.CacheRequestsTotal,
		p.HTTPRequestsTotal,
		p.HTTPDurationSeconds,
		p.HTTPInFlight,
	)
	return p
}

// =============================================================================
// SearchHooks
// =============================================================================

func (p *Prometheus) OnSearchStart(context.Context, string, int, int) {}

func (p *Prometheus) OnImprovement(_ context.Context, method string, _ int) {
	p.ImprovementsTotal.WithLabelValues(method).Inc()
}

func (p *Prometheus) OnReplicateComplete(_ context.Context, method string, _, _ int, rearrangements int64) {
	p.RearrangementsTotal.WithLabelValues(method).Add(float64(rearrangements))
}

func (p *Prometheus) OnSearchComplete(_ context.Context, method string, length, _ int, stop string, duration time.Duration, err error) {
	if err != nil {
		stop = "error"
	} else {
		p.BestLength.Set(float64(length))
	}
	p.SearchesTotal.WithLabelValues(method, stop).Inc()
	p.SearchDurationSeconds.WithLabelValues(method).Observe(duration.Seconds())
}

// =============================================================================
// CacheHooks
// =============================================================================

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.CacheRequestsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.CacheRequestsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, _ int) {
	p.CacheRequestsTotal.WithLabelValues(keyType, "set").Inc()
}

// =============================================================================
// HTTPHooks
// =============================================================================

func (p *Prometheus) OnRequest(context.Context, string, string) {
	p.HTTPInFlight.Inc()
}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, statusCode int, duration time.Duration) {
	p.HTTPInFlight.Dec()
	p.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	p.HTTPDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
