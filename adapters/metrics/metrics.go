// Package metrics provides Prometheus metrics collection for unitwizard.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "unitwizard"

// Collector holds all Prometheus metrics for unitwizard. It implements
// app.Recorder.
type Collector struct {
	// Wizard metrics
	Conversions      *prometheus.CounterVec
	IdentifyCache    *prometheus.CounterVec
	Standardizations *prometheus.CounterVec
	Errors           *prometheus.CounterVec
	ScopeDepth       prometheus.Gauge

	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a new metrics collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		Conversions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversions_total",
				Help:      "Total number of conversions by source form, target form and path",
			},
			[]string{"from", "to", "path"},
		),
		IdentifyCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "identify_cache_total",
				Help:      "Form identification cache lookups by result",
			},
			[]string{"result"},
		),
		Standardizations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "standardizations_total",
				Help:      "Standard units resolved, by solver tier",
			},
			[]string{"tier"},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of failed operations by error kind",
			},
			[]string{"kind"},
		),
		ScopeDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "scope_depth",
				Help:      "Number of configuration scopes currently open",
			},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// Conversion counts one conversion step.
func (c *Collector) Conversion(from, to, path string) {
	c.Conversions.WithLabelValues(from, to, path).Inc()
}

// Standardization counts one resolved standard unit.
func (c *Collector) Standardization(tier string) {
	c.Standardizations.WithLabelValues(tier).Inc()
}

// Error counts one failed operation.
func (c *Collector) Error(kind string) {
	c.Errors.WithLabelValues(kind).Inc()
}

// Identify counts one identification cache lookup. It matches the
// form registry observer signature.
func (c *Collector) Identify(cached bool) {
	result := "miss"
	if cached {
		result = "hit"
	}
	c.IdentifyCache.WithLabelValues(result).Inc()
}

// Depth records the number of open scopes. It matches the kernel depth
// observer signature.
func (c *Collector) Depth(n int) {
	c.ScopeDepth.Set(float64(n))
}

// Reload records the outcome of a config reload.
func (c *Collector) Reload(err error) {
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.Set(float64(time.Now().Unix()))
}

// Request records one served HTTP request.
func (c *Collector) Request(method, path string, status int, d time.Duration) {
	s := StatusClass(status)
	p := NormalizePath(path)
	c.RequestsTotal.WithLabelValues(method, p, s).Inc()
	c.RequestDuration.WithLabelValues(method, p, s).Observe(d.Seconds())
}

// StatusClass maps a status code to its class label, e.g. 404 -> "4xx".
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

// NormalizePath bounds label cardinality by truncating long paths.
func NormalizePath(path string) string {
	if len(path) > 50 {
		return path[:50] + "..."
	}
	return path
}
