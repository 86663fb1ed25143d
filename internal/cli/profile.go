package cli

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
)

// profiler writes the optional CPU and heap profiles of a run.
type profiler struct {
	cpuFile *os.File
	memPath string
	logger  *slog.Logger
}

// startProfiling starts CPU profiling when cpuPath is set. The returned
// profiler must be stopped even when both paths are empty.
func startProfiling(cpuPath, memPath string, logger *slog.Logger) (*profiler, error) {
	p := &profiler{memPath: memPath, logger: logger}
	if cpuPath == "" {
		return p, nil
	}

	f, err := os.Create(cpuPath)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}
	p.cpuFile = f
	logger.Info("cpu profiling enabled", "path", cpuPath)
	return p, nil
}

// stop finishes the CPU profile and writes the heap profile.
func (p *profiler) stop() error {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := p.cpuFile.Close(); err != nil {
			return fmt.Errorf("could not close CPU profile: %w", err)
		}
		p.cpuFile = nil
	}

	if p.memPath == "" {
		return nil
	}
	f, err := os.Create(p.memPath)
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer f.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	p.logger.Info("wrote memory profile", "path", p.memPath)
	return nil
}
