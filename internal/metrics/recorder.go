package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Recorder collects per-worker phase durations using HDR histograms.
//
// Workers record once per phase, never from inside the timed loop, so the
// histogram mutex is never contended while operations are being measured.
//
// # Thread Safety
//
// Recorder is safe for concurrent use. The operation counter is atomic and
// histograms are mutex protected.
type Recorder struct {
	hists   map[Phase]*hdrhistogram.Histogram
	histsMu sync.Mutex

	operations atomic.Int64

	currentPhase Phase
	phaseMu      sync.RWMutex
	phaseHistory []PhaseChange

	config RecorderConfig
	now    func() time.Time
}

// RecorderConfig contains configuration for the recorder.
type RecorderConfig struct {
	// HistogramMin is the minimum recordable value in microseconds (default: 1)
	HistogramMin int64

	// HistogramMax is the maximum recordable value in microseconds (default: 24 hours)
	HistogramMax int64

	// HistogramSigFigs is the number of significant figures (default: 3)
	HistogramSigFigs int
}

// DefaultRecorderConfig returns the default configuration.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		HistogramMin:     1,
		HistogramMax:     86_400_000_000, // 24 hours in microseconds
		HistogramSigFigs: 3,
	}
}

// NewRecorder creates a recorder with the default configuration.
func NewRecorder() *Recorder {
	return NewRecorderWithConfig(DefaultRecorderConfig())
}

// NewRecorderWithConfig creates a recorder with a custom configuration.
func NewRecorderWithConfig(config RecorderConfig) *Recorder {
	return &Recorder{
		hists:        make(map[Phase]*hdrhistogram.Histogram),
		currentPhase: PhaseInit,
		phaseHistory: make([]PhaseChange, 0, 6),
		config:       config,
		now:          time.Now,
	}
}

// RecordWorkerPhase records how long one worker spent in a phase.
func (r *Recorder) RecordWorkerPhase(phase Phase, d time.Duration) {
	micros := d.Microseconds()
	if micros < r.config.HistogramMin {
		micros = r.config.HistogramMin
	}
	if micros > r.config.HistogramMax {
		micros = r.config.HistogramMax
	}

	// HDR histogram RecordValue is not thread-safe.
	r.histsMu.Lock()
	defer r.histsMu.Unlock()

	hist, ok := r.hists[phase]
	if !ok {
		hist = hdrhistogram.New(r.config.HistogramMin, r.config.HistogramMax, r.config.HistogramSigFigs)
		r.hists[phase] = hist
	}
	_ = hist.RecordValue(micros)
}

// AddOperations adds n completed operations to the counter.
func (r *Recorder) AddOperations(n int64) {
	r.operations.Add(n)
}

// Operations returns the number of completed operations.
func (r *Recorder) Operations() int64 {
	return r.operations.Load()
}

// SetPhase updates the current run phase.
func (r *Recorder) SetPhase(phase Phase) {
	r.phaseMu.Lock()
	defer r.phaseMu.Unlock()

	if r.currentPhase == phase {
		return
	}

	r.currentPhase = phase
	r.phaseHistory = append(r.phaseHistory, PhaseChange{
		Phase:      phase,
		Timestamp:  r.now(),
		Operations: r.operations.Load(),
	})
}

// GetPhase returns the current run phase.
func (r *Recorder) GetPhase() Phase {
	r.phaseMu.RLock()
	defer r.phaseMu.RUnlock()
	return r.currentPhase
}

// GetPhaseHistory returns the history of phase changes.
func (r *Recorder) GetPhaseHistory() []PhaseChange {
	r.phaseMu.RLock()
	defer r.phaseMu.RUnlock()

	result := make([]PhaseChange, len(r.phaseHistory))
	copy(result, r.phaseHistory)
	return result
}

// PhaseStats returns the duration statistics recorded for a phase.
// The zero value is returned when nothing was recorded.
func (r *Recorder) PhaseStats(phase Phase) DurationStats {
	r.histsMu.Lock()
	defer r.histsMu.Unlock()

	hist, ok := r.hists[phase]
	if !ok {
		return DurationStats{}
	}
	return statsFromHistogram(hist)
}

// Snapshot returns a point-in-time copy of everything recorded.
func (r *Recorder) Snapshot() *Snapshot {
	r.histsMu.Lock()
	phases := make(map[Phase]DurationStats, len(r.hists))
	for phase, hist := range r.hists {
		phases[phase] = statsFromHistogram(hist)
	}
	r.histsMu.Unlock()

	return &Snapshot{
		Operations:   r.operations.Load(),
		CurrentPhase: r.GetPhase(),
		Phases:       phases,
		History:      r.GetPhaseHistory(),
	}
}

// Reset resets the recorder to its initial state.
func (r *Recorder) Reset() {
	r.histsMu.Lock()
	r.hists = make(map[Phase]*hdrhistogram.Histogram)
	r.histsMu.Unlock()

	r.operations.Store(0)

	r.phaseMu.Lock()
	r.currentPhase = PhaseInit
	r.phaseHistory = make([]PhaseChange, 0, 6)
	r.phaseMu.Unlock()
}

func statsFromHistogram(hist *hdrhistogram.Histogram) DurationStats {
	return DurationStats{
		Min:   time.Duration(hist.Min()) * time.Microsecond,
		Max:   time.Duration(hist.Max()) * time.Microsecond,
		Mean:  time.Duration(hist.Mean()) * time.Microsecond,
		Count: hist.TotalCount(),
	}
}
