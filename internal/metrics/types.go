// Package metrics records per-worker phase timings for a benchmark run and
// exports run summaries.
package metrics

import "time"

// Phase represents a phase of a benchmark run.
type Phase string

const (
	// PhaseInit is the state before any work has been scheduled
	PhaseInit Phase = "init"

	// PhaseWarmup is the coordinator-side warm-up before workers are spawned
	PhaseWarmup Phase = "warmup"

	// PhaseSetup covers worker spawn and per-worker state construction
	PhaseSetup Phase = "setup"

	// PhaseTimed is the strictly concurrent measurement window
	PhaseTimed Phase = "timed"

	// PhaseTeardown covers per-worker state disposal after the window closed
	PhaseTeardown Phase = "teardown"

	// PhaseDone indicates every worker has been joined
	PhaseDone Phase = "done"
)

// PhaseChange records when a phase transition occurred.
type PhaseChange struct {
	Phase      Phase     `json:"phase" yaml:"phase"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	Operations int64     `json:"operations" yaml:"operations"`
}

// DurationStats summarizes the per-worker durations recorded for a phase.
type DurationStats struct {
	Min   time.Duration `json:"min" yaml:"min"`
	Max   time.Duration `json:"max" yaml:"max"`
	Mean  time.Duration `json:"mean" yaml:"mean"`
	Count int64         `json:"count" yaml:"count"`
}

// Spread is the gap between the slowest and the fastest worker.
func (s DurationStats) Spread() time.Duration {
	return s.Max - s.Min
}

// Snapshot contains a point-in-time view of the recorder.
type Snapshot struct {
	Operations   int64                   `json:"operations" yaml:"operations"`
	CurrentPhase Phase                   `json:"currentPhase" yaml:"currentPhase"`
	Phases       map[Phase]DurationStats `json:"phases" yaml:"phases"`
	History      []PhaseChange           `json:"history" yaml:"history"`
}
