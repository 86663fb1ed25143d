package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "signbench"

// RunSummary is the headline outcome of a successful run.
type RunSummary struct {
	Operation  string
	Threads    int
	TotalOps   int64
	Window     time.Duration
	Throughput float64
}

// NewRegistry builds a registry populated with the summary and, when snap is
// non-nil, the per-phase worker durations.
func NewRegistry(summary RunSummary, snap *Snapshot) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	labels := []string{"operation"}

	throughput := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "throughput_ops_per_second",
		Help:      "Operations per second over the timed window.",
	}, labels)
	operations := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Operations executed inside the timed window.",
	}, labels)
	window := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "timed_window_seconds",
		Help:      "Wall-clock length of the timed window.",
	}, labels)
	threads := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "threads",
		Help:      "Worker threads that took part in the run.",
	}, labels)
	phases := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "phase_duration_seconds",
		Help:      "Per-worker phase durations.",
	}, []string{"operation", "phase", "stat"})

	for _, c := range []prometheus.Collector{throughput, operations, window, threads, phases} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	op := summary.Operation
	throughput.WithLabelValues(op).Set(summary.Throughput)
	operations.WithLabelValues(op).Set(float64(summary.TotalOps))
	window.WithLabelValues(op).Set(summary.Window.Seconds())
	threads.WithLabelValues(op).Set(float64(summary.Threads))

	if snap != nil {
		for phase, stats := range snap.Phases {
			phases.WithLabelValues(op, string(phase), "min").Set(stats.Min.Seconds())
			phases.WithLabelValues(op, string(phase), "max").Set(stats.Max.Seconds())
			phases.WithLabelValues(op, string(phase), "mean").Set(stats.Mean.Seconds())
		}
	}

	return reg, nil
}

// WriteTextfile writes the run summary in the Prometheus text format, for
// pickup by a node_exporter textfile collector.
func WriteTextfile(path string, summary RunSummary, snap *Snapshot) error {
	reg, err := NewRegistry(summary, snap)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
