// Package metrics records engine activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	impacts "github.com/pacificclimate/p2a-rule-engine"
)

// Recorder implements impacts.Metrics.
type Recorder struct {
	registry *prometheus.Registry

	rulesRejected      *prometheus.CounterVec
	variablesCollected *prometheus.CounterVec
	variableDuration   prometheus.Histogram
	rulesResolved      prometheus.Counter
	rulesAttempted     prometheus.Counter
	runs               prometheus.Counter
	runDuration        prometheus.Histogram
}

var _ impacts.Metrics = (*Recorder)(nil)

// NewRecorder registers the engine metrics with registry, or with a new
// registry if it is nil.
func NewRecorder(namespace string, registry *prometheus.Registry) *Recorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	r := &Recorder{
		registry: registry,
		rulesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_rejected_total",
			Help:      "Rules left out of a run, by stage (compile or evaluate).",
		}, []string{"stage"}),
		variablesCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variables_collected_total",
			Help:      "Variables requested from the resolver, by outcome.",
		}, []string{"status"}),
		variableDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "variable_resolve_duration_seconds",
			Help:      "Time taken to resolve one variable.",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 30},
		}),
		rulesResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_resolved_total",
			Help:      "Rules resolved to a value.",
		}),
		rulesAttempted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_attempted_total",
			Help:      "Rules submitted for resolution.",
		}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed resolution runs.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of resolution runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}

	registry.MustRegister(
		r.rulesRejected,
		r.variablesCollected,
		r.variableDuration,
		r.rulesResolved,
		r.rulesAttempted,
		r.runs,
		r.runDuration,
	)
	return r
}

func (r *Recorder) RuleRejected(stage string) {
	r.rulesRejected.WithLabelValues(stage).Inc()
}

func (r *Recorder) VariableCollected(ok bool, d time.Duration) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	r.variablesCollected.WithLabelValues(status).Inc()
	r.variableDuration.Observe(d.Seconds())
}

func (r *Recorder) RunCompleted(resolved, attempted int, d time.Duration) {
	r.rulesResolved.Add(float64(resolved))
	r.rulesAttempted.Add(float64(attempted))
	r.runs.Inc()
	r.runDuration.Observe(d.Seconds())
}

// Registry returns the registry the metrics are registered with.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
