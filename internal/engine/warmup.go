package engine

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultWarmupOps is the number of operations run by Warmup by default.
	DefaultWarmupOps = 100

	// DefaultWarmupSettle is how long Warmup holds after its operations so
	// transient CPU boost states can settle.
	DefaultWarmupSettle = 3 * time.Second
)

// WarmupConfig controls the pre-run warm-up.
type WarmupConfig struct {
	// Ops is the number of throwaway executes
	Ops int `json:"ops" yaml:"ops"`

	// Settle is the pause after the executes
	Settle time.Duration `json:"settle" yaml:"settle"`
}

// DefaultWarmupConfig returns the default warm-up configuration.
func DefaultWarmupConfig() WarmupConfig {
	return WarmupConfig{
		Ops:    DefaultWarmupOps,
		Settle: DefaultWarmupSettle,
	}
}

// Warmup runs cfg.Ops executes of d on the calling goroutine, using a
// throwaway state, and then holds for cfg.Settle. It brings lazily
// initialized libraries, caches and CPU frequency into a steady state before
// a measured run. Any failure is fatal to the benchmark.
func Warmup(ctx context.Context, d Descriptor, cfg WarmupConfig) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("invalid operation %q: %w", d.OperationName(), err)
	}
	if cfg.Ops < 0 {
		return fmt.Errorf("warm-up ops must not be negative, got %d", cfg.Ops)
	}

	if err := runWarmupOps(d, cfg.Ops); err != nil {
		return fmt.Errorf("warm-up of %q failed: %w", d.OperationName(), err)
	}

	if cfg.Settle <= 0 {
		return nil
	}

	timer := time.NewTimer(cfg.Settle)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("warm-up interrupted: %w", context.Cause(ctx))
	}
}

// runWarmupOps sets up a throwaway state, executes n times and tears down.
func runWarmupOps(d Descriptor, n int) error {
	t := d.newTask()
	if err := t.setup(); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	for i := 1; i <= n; i++ {
		if err := t.execute(); err != nil {
			_ = t.teardown()
			return fmt.Errorf("execute %d: %w", i, err)
		}
	}
	if err := t.teardown(); err != nil {
		return fmt.Errorf("teardown: %w", err)
	}
	return nil
}
