package audiosweep

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "audiosweep"

// Metrics holds the counters of a single run on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	deletions       *prometheus.CounterVec
	remoteErrors    *prometheus.CounterVec
	recordsSelected prometheus.Gauge
	recordsKept     prometheus.Gauge
	recordsListed   prometheus.Gauge
	lastRunSuccess  *prometheus.GaugeVec
}

// NewMetrics creates and registers the run metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "deletions_total",
			Help:      "Delete attempts by outcome (deleted, not_deleted, request_failed, simulated).",
		}, []string{"outcome"}),
		remoteErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "remote_errors_total",
			Help:      "Failed requests to the media service by operation.",
		}, []string{"op"}),
		recordsSelected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "records_selected",
			Help:      "Records selected for deletion by the last reconciliation.",
		}),
		recordsKept: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "records_kept",
			Help:      "Records written to the remaining record file by the last reconciliation.",
		}),
		recordsListed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "records_listed",
			Help:      "Records fetched by the last listing.",
		}),
		lastRunSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_run_success",
			Help:      "1 if the last run of the job completed without a fatal error.",
		}, []string{"job"}),
	}

	m.registry.MustRegister(
		m.deletions,
		m.remoteErrors,
		m.recordsSelected,
		m.recordsKept,
		m.recordsListed,
		m.lastRunSuccess,
	)

	// Pre-create outcome series so a clean run still exports zeros.
	for _, o := range []Outcome{OutcomeDeleted, OutcomeNotDeleted, OutcomeRequestFailed, OutcomeSimulated} {
		m.deletions.WithLabelValues(o.String())
	}
	return m
}

// Registry returns the registry holding the run metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeOutcome(o Outcome) {
	m.deletions.WithLabelValues(o.String()).Inc()
}

func (m *Metrics) observeRemoteError(op string) {
	m.remoteErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) observePartition(p Partition) {
	m.recordsSelected.Set(float64(len(p.Delete)))
	m.recordsKept.Set(float64(len(p.Keep)))
}

func (m *Metrics) observeListed(n int) {
	m.recordsListed.Set(float64(n))
}

func (m *Metrics) observeRun(job string, err error) {
	v := 1.0
	if err != nil {
		v = 0
	}
	m.lastRunSuccess.WithLabelValues(job).Set(v)
}

// WriteToTextfile writes the metrics in the Prometheus text format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
