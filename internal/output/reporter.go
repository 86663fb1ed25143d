// Package output reports benchmark progress and results.
package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/wesleyorama2/signbench/internal/engine"
	"github.com/wesleyorama2/signbench/internal/metrics"
)

// Reporter writes human-readable progress lines. It implements
// engine.Observer and is safe for concurrent use.
type Reporter struct {
	writer    io.Writer
	colors    *ColorScheme
	useColors bool
	quiet     bool

	mu sync.Mutex
}

// ReporterConfig contains configuration for Reporter.
type ReporterConfig struct {
	// Writer defaults to os.Stdout
	Writer io.Writer

	// Quiet suppresses per-thread and warm-up lines
	Quiet bool

	// NoColor disables colors even on a terminal
	NoColor bool

	// ForceColors enables colors even when the writer is not a terminal
	ForceColors bool
}

var _ engine.Observer = (*Reporter)(nil)

// NewReporter creates a new reporter.
func NewReporter(config ReporterConfig) *Reporter {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}

	useColors := !config.NoColor && (config.ForceColors || (isTerminal(config.Writer) && supportsColors()))

	colors := NoColorScheme()
	if useColors {
		colors = forcedColorScheme()
	}

	return &Reporter{
		writer:    config.Writer,
		colors:    colors,
		useColors: useColors,
		quiet:     config.Quiet,
	}
}

// isTerminal checks if the writer is a terminal.
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return checkIsTerminal(f)
	}
	return false
}

// supportsColors checks if the environment allows colors.
func supportsColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	term := os.Getenv("TERM")
	return term != "dumb"
}

// Announce prints the run header, before any worker starts.
func (r *Reporter) Announce(operation string, total int64) {
	r.println(r.colors.Header.Sprintf("Performing %d %s operations", total, operation))
}

// WarmupStarted prints the warm-up header.
func (r *Reporter) WarmupStarted(operation string, cfg engine.WarmupConfig) {
	if r.quiet {
		return
	}
	r.println(r.colors.Warmup.Sprintf("Warming up: %d %s operations, then settling for %s",
		cfg.Ops, operation, formatDuration(cfg.Settle)))
}

// WarmupDone prints the warm-up footer.
func (r *Reporter) WarmupDone(elapsed time.Duration) {
	if r.quiet {
		return
	}
	r.println(fmt.Sprintf("%s %s", SuccessIcon(!r.useColors),
		r.colors.Warmup.Sprintf("Warm-up done in %s", formatDuration(elapsed))))
}

// WorkerStarted implements engine.Observer.
func (r *Reporter) WorkerStarted(worker int) {
	if r.quiet {
		return
	}
	r.println(r.colors.Thread.Sprintf("Thread %d: Started", worker))
}

// WorkerDone implements engine.Observer.
func (r *Reporter) WorkerDone(worker int) {
	if r.quiet {
		return
	}
	r.println(r.colors.Thread.Sprintf("Thread %d: Done", worker))
}

// Summary prints the throughput of a successful run.
func (r *Reporter) Summary(res *engine.Result) {
	if !r.quiet {
		r.println(r.colors.Dim.Sprintf("Completed %s operations in %s (run %s)",
			formatNumber(res.TotalOps), formatDurationShort(res.Window), res.RunID))
		if res.Phases != nil {
			r.printPhase("setup", res.Phases.Phases[metrics.PhaseSetup])
			r.printPhase("timed", res.Phases.Phases[metrics.PhaseTimed])
			r.printPhase("teardown", res.Phases.Phases[metrics.PhaseTeardown])
		}
	}
	r.println(r.colors.Speed.Sprintf("Speed: %.2f %s/s", res.Throughput, res.Operation))
}

func (r *Reporter) printPhase(name string, s metrics.DurationStats) {
	if s.Count == 0 {
		return
	}
	r.println(r.colors.Dim.Sprintf("  %-9s min %s  mean %s  max %s",
		name+":", formatDurationShort(s.Min), formatDurationShort(s.Mean), formatDurationShort(s.Max)))
}

// Failure prints a failed run. No throughput is reported.
func (r *Reporter) Failure(err error) {
	r.println(fmt.Sprintf("%s %s", ErrorIcon(!r.useColors), r.colors.Error.Sprintf("Benchmark failed: %v", err)))
}

func (r *Reporter) println(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.writer, line)
}
