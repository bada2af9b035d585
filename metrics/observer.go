// Package metrics exports expression engine activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/applied-systems-biology/jipipe-expr/jexpr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "jexpr"

// Observer implements jexpr.Observer.
//
// Metrics:
//   - <ns>_parses_total{cache, result}: parse requests, split by cache hit and outcome
//   - <ns>_evaluations_total{result}: evaluations by error kind ("none" on success)
//   - <ns>_evaluation_duration_seconds: evaluation latency
//   - <ns>_evaluation_steps: nodes visited per evaluation
//   - <ns>_registry_swaps_total: function table replacements
//   - <ns>_registry_functions: functions in the current table
//   - <ns>_registry_info{version}: 1 for the current table version
type Observer struct {
	registry *prometheus.Registry

	parsesTotal        *prometheus.CounterVec
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	evaluationSteps    prometheus.Histogram
	registrySwaps      prometheus.Counter
	registryFunctions  prometheus.Gauge
	registryInfo       *prometheus.GaugeVec
}

var _ jexpr.Observer = (*Observer)(nil)

// NewObserver creates the metrics and registers them with registry. A nil
// registry gets a fresh one.
func NewObserver(namespace string, registry *prometheus.Registry) *Observer {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if namespace == "" {
		namespace = defaultNamespace
	}

	o := &Observer{
		registry: registry,
		parsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parses_total",
				Help:      "Total number of parse requests",
			},
			[]string{"cache", "result"},
		),
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Total number of evaluations by error kind",
			},
			[]string{"result"},
		),
		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of expression evaluation in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 12), // 1µs to ~4s
			},
		),
		evaluationSteps: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_steps",
				Help:      "Number of syntax tree nodes visited per evaluation",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
		registrySwaps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registry_swaps_total",
				Help:      "Total number of function table replacements",
			},
		),
		registryFunctions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registry_functions",
				Help:      "Number of functions in the current table",
			},
		),
		registryInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registry_info",
				Help:      "Version of the current function table",
			},
			[]string{"version"},
		),
	}

	registry.MustRegister(
		o.parsesTotal,
		o.evaluationsTotal,
		o.evaluationDuration,
		o.evaluationSteps,
		o.registrySwaps,
		o.registryFunctions,
		o.registryInfo,
	)
	return o
}

func (o *Observer) ObserveParse(cached bool, err error, _ time.Duration) {
	cache := "miss"
	if cached {
		cache = "hit"
	}
	o.parsesTotal.WithLabelValues(cache, jexpr.ErrorKind(err)).Inc()
}

func (o *Observer) ObserveEvaluation(err error, steps int, d time.Duration) {
	o.evaluationsTotal.WithLabelValues(jexpr.ErrorKind(err)).Inc()
	o.evaluationDuration.Observe(d.Seconds())
	o.evaluationSteps.Observe(float64(steps))
}

// ObserveRegistrySwap keeps a single registry_info series for the current
// version.
func (o *Observer) ObserveRegistrySwap(version string, functions int) {
	o.registrySwaps.Inc()
	o.registryFunctions.Set(float64(functions))
	o.registryInfo.Reset()
	o.registryInfo.WithLabelValues(version).Set(1)
}

// Registry returns the registry the metrics are registered with.
func (o *Observer) Registry() *prometheus.Registry { return o.registry }

// Handler serves the registry in the Prometheus exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
