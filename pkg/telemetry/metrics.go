package telemetry

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	rerrors "github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/reactive"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "reconcile").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "reconcile",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	effectsTotal   prometheus.Counter
	effectDuration prometheus.Histogram
	effectPanics   prometheus.Counter
	flushesTotal   prometheus.Counter
	flushPasses    prometheus.Histogram
	patchesTotal   *prometheus.CounterVec
	diffDuration   prometheus.Histogram
	applyDuration  prometheus.Histogram
	applyErrors    *prometheus.CounterVec
	liveNodes      prometheus.Gauge
}

// NewMetrics registers the engine collectors. Registering twice with the
// same registry panics, like every promauto constructor.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		effectsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effects_total",
			Help:        "Total number of effect runs",
			ConstLabels: config.ConstLabels,
		}),

		effectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_duration_seconds",
			Help:        "Effect run duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		effectPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_panics_total",
			Help:        "Total number of effect runs that panicked",
			ConstLabels: config.ConstLabels,
		}),

		flushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of scheduler flushes",
			ConstLabels: config.ConstLabels,
		}),

		flushPasses: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_passes",
			Help:        "Passes needed by a flush to drain the effect queue",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 3, 5, 10, 25, 50, 100},
		}),

		patchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_total",
			Help:        "Total number of patches applied, by operation",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		diffDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "diff_duration_seconds",
			Help:        "Tree diff duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		applyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "apply_duration_seconds",
			Help:        "Patch application duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		applyErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "apply_errors_total",
			Help:        "Total number of failed diff or apply steps, by error code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),

		liveNodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_nodes",
			Help:        "Number of live nodes in the identity cache",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// EffectRan implements reactive.Observer.
func (m *Metrics) EffectRan(_ *reactive.Effect, d time.Duration) {
	m.effectsTotal.Inc()
	m.effectDuration.Observe(d.Seconds())
}

// EffectFailed implements reactive.Observer.
func (m *Metrics) EffectFailed(*reactive.EffectError) {
	m.effectPanics.Inc()
}

// BatchFlushed implements reactive.Observer.
func (m *Metrics) BatchFlushed(_ int, passes int) {
	m.flushesTotal.Inc()
	m.flushPasses.Observe(float64(passes))
}

// RecordPatches counts patches by operation, nested child patches and
// reorder moves included.
func (m *Metrics) RecordPatches(patches []vdom.Patch) {
	for op, n := range vdom.CountOps(patches) {
		m.patchesTotal.WithLabelValues(op.String()).Add(float64(n))
	}
}

// ObserveDiff records the duration of one diff.
func (m *Metrics) ObserveDiff(d time.Duration) {
	m.diffDuration.Observe(d.Seconds())
}

// ObserveApply records the duration of one apply and the live node count
// after it.
func (m *Metrics) ObserveApply(d time.Duration, live int) {
	m.applyDuration.Observe(d.Seconds())
	m.liveNodes.Set(float64(live))
}

// RecordError counts a failed diff or apply by its error code.
func (m *Metrics) RecordError(err error) {
	if err == nil {
		return
	}
	code := "unknown"
	var re *rerrors.ReconcileError
	if errors.As(err, &re) {
		code = re.Code
	}
	m.applyErrors.WithLabelValues(code).Inc()
}

var _ reactive.Observer = (*Metrics)(nil)
