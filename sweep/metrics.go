package sweep

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Anomaly kinds recorded by the controller.
const (
	AnomalyWorkflow   = "workflow"   // workflow could not be resolved
	AnomalyConfig     = "config"     // configuration error, branch aborted
	AnomalyInfeasible = "infeasible" // distribution attempt skipped
)

// Metrics collects sweep counters on a private registry. A nil *Metrics
// discards every observation.
type Metrics struct {
	registry  *prometheus.Registry
	trials    *prometheus.CounterVec
	anomalies *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics creates the sweep metrics, labelled with the sweep id.
func NewMetrics(sweepID string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	constLabels := prometheus.Labels{"sweep_id": sweepID}
	return &Metrics{
		registry: reg,
		trials: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "fedsweep_trials_total",
			Help:        "Trials executed, by mode, strategy and status",
			ConstLabels: constLabels,
		}, []string{"mode", "strategy", "status"}),
		anomalies: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "fedsweep_anomalies_total",
			Help:        "Sweep branches skipped, by kind",
			ConstLabels: constLabels,
		}, []string{"kind"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "fedsweep_trial_duration_seconds",
			Help:        "Wall-clock duration of one engine trial",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"strategy"}),
	}
}

// ObserveTrial counts one trial and its duration.
func (m *Metrics) ObserveTrial(mode Mode, strategy Strategy, status TrialStatus, d time.Duration) {
	if m == nil {
		return
	}
	m.trials.WithLabelValues(string(mode), string(strategy), string(status)).Inc()
	m.duration.WithLabelValues(string(strategy)).Observe(d.Seconds())
}

// ObserveAnomaly counts one skipped branch.
func (m *Metrics) ObserveAnomaly(kind string) {
	if m == nil {
		return
	}
	m.anomalies.WithLabelValues(kind).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes the metrics in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
