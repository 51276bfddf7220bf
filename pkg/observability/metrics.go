package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/microcosm/pkg/domain"
)

// Metrics holds the Prometheus instruments for one experiment and the
// lifecycle hooks that feed them. Wire Hooks() into the engine and mount
// Handler() (or register on your own registry) to expose them.
type Metrics struct {
	registry *prometheus.Registry

	cyclesTotal     prometheus.Counter
	cycleDuration   prometheus.Histogram
	processDuration *prometheus.HistogramVec
	processErrors   *prometheus.CounterVec
	divisionsTotal  prometheus.Counter
	removalsTotal   prometheus.Counter
	samplesTotal    prometheus.Counter
	simulatedTime   prometheus.Gauge
}

// New creates a metric set on its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := NewOn(registry)
	m.registry = registry
	return m
}

// NewOn creates a metric set registered on reg, for callers that already
// run a registry (e.g. a shared /metrics endpoint).
func NewOn(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "microcosm_cycles_total",
			Help: "Total number of committed scheduler cycles",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "microcosm_cycle_duration_seconds",
			Help:    "Wall-clock duration of scheduler cycles",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		processDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "microcosm_process_duration_seconds",
			Help:    "Wall-clock duration of process invocations",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"process"}),
		processErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "microcosm_process_errors_total",
			Help: "Total number of failed process invocations",
		}, []string{"process"}),
		divisionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "microcosm_divisions_total",
			Help: "Total number of committed agent divisions",
		}),
		removalsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "microcosm_removals_total",
			Help: "Total number of committed subtree removals",
		}),
		samplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "microcosm_samples_emitted_total",
			Help: "Total number of emitted samples",
		}),
		simulatedTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "microcosm_simulated_time",
			Help: "Current simulated time of the experiment",
		}),
	}
	reg.MustRegister(
		m.cyclesTotal,
		m.cycleDuration,
		m.processDuration,
		m.processErrors,
		m.divisionsTotal,
		m.removalsTotal,
		m.samplesTotal,
		m.simulatedTime,
	)
	return m
}

// Hooks returns the lifecycle hooks feeding this metric set. Combine with
// other hook sets via domain.CombineHooks.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCycle: func(_ context.Context, ev *domain.CycleEvent) {
			m.cyclesTotal.Inc()
			m.cycleDuration.Observe(ev.Duration.Seconds())
			m.simulatedTime.Set(ev.Time)
		},
		OnProcess: func(_ context.Context, ev *domain.ProcessEvent) {
			m.processDuration.WithLabelValues(ev.Process).Observe(ev.Duration.Seconds())
			if ev.Err != nil {
				m.processErrors.WithLabelValues(ev.Process).Inc()
			}
		},
		OnDivide: func(_ context.Context, _ *domain.StructureEvent) {
			m.divisionsTotal.Inc()
		},
		OnRemove: func(_ context.Context, _ *domain.StructureEvent) {
			m.removalsTotal.Inc()
		},
		OnEmit: func(_ context.Context, _ *domain.EmitEvent) {
			m.samplesTotal.Inc()
		},
	}
}

// Handler serves the owned registry. Nil when the metric set was created
// with NewOn against an external registry.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the owned registry for direct scraping in tests.
// Nil when the metric set was created with NewOn.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
