// Package engine runs an operation concurrently on a fixed set of workers and
// measures throughput over the window in which all of them are executing.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wesleyorama2/signbench/internal/metrics"
)

// Config is the immutable shape of a single run.
type Config struct {
	// Threads is the number of concurrent workers
	Threads int `json:"threads" yaml:"threads"`

	// OpsPerThread is how many times each worker calls Execute
	OpsPerThread int `json:"opsPerThread" yaml:"opsPerThread"`

	// WorkerWarmupOps is the number of throwaway executes each worker runs
	// before its real Setup (0 disables local warm-up)
	WorkerWarmupOps int `json:"workerWarmupOps,omitempty" yaml:"workerWarmupOps,omitempty"`

	// LockOSThread pins every worker goroutine to its own OS thread
	LockOSThread bool `json:"lockOSThread,omitempty" yaml:"lockOSThread,omitempty"`
}

// TotalOps returns Threads × OpsPerThread.
func (c Config) TotalOps() int64 {
	return int64(c.Threads) * int64(c.OpsPerThread)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Threads < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidThreads, c.Threads)
	}
	if c.OpsPerThread < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidOps, c.OpsPerThread)
	}
	if c.WorkerWarmupOps < 0 {
		return fmt.Errorf("worker warm-up ops must not be negative, got %d", c.WorkerWarmupOps)
	}
	return nil
}

// Observer receives worker progress events. Calls arrive concurrently from
// worker goroutines.
type Observer interface {
	// WorkerStarted is called once the worker has been released into its loop.
	WorkerStarted(worker int)

	// WorkerDone is called once the worker has finished its loop.
	WorkerDone(worker int)
}

// Result is the outcome of a successful run.
type Result struct {
	RunID        string            `json:"runId" yaml:"runId"`
	Operation    string            `json:"operation" yaml:"operation"`
	Threads      int               `json:"threads" yaml:"threads"`
	OpsPerThread int               `json:"opsPerThread" yaml:"opsPerThread"`
	TotalOps     int64             `json:"totalOps" yaml:"totalOps"`
	Start        time.Time         `json:"start" yaml:"start"`
	Stop         time.Time         `json:"stop" yaml:"stop"`
	Window       time.Duration     `json:"window" yaml:"window"`
	Throughput   float64           `json:"throughput" yaml:"throughput"`
	Phases       *metrics.Snapshot `json:"phases,omitempty" yaml:"phases,omitempty"`
}

// Engine drives benchmark runs.
//
// Each run uses three barriers sized Threads+1, the extra party being the
// coordinating goroutine that calls Run:
//
//	start: released once every worker has finished Setup
//	timer: released right after the start timestamp is taken
//	end:   released once every worker has finished its loop
//
// All Setup calls therefore happen before the start timestamp, which happens
// before any Execute call. Symmetrically, every Execute call happens before
// the stop timestamp, which happens before any Teardown call.
//
// Example usage:
//
//	eng, _ := engine.NewEngine(engine.Config{Threads: 4, OpsPerThread: 1000})
//	result, _ := eng.Run(ctx, op)
//	fmt.Printf("%.2f %s/s\n", result.Throughput, result.Operation)
type Engine struct {
	config   Config
	observer Observer
	recorder *metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithRecorder sets the metrics recorder. A fresh recorder is used per run
// when none is given.
func WithRecorder(r *metrics.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine for the given run shape.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &Engine{
		config: cfg,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the run shape.
func (e *Engine) Config() Config {
	return e.config
}

type barriers struct {
	start *Barrier
	timer *Barrier
	end   *Barrier
}

func newBarriers(parties int) *barriers {
	return &barriers{
		start: NewBarrier(parties),
		timer: NewBarrier(parties),
		end:   NewBarrier(parties),
	}
}

func (b *barriers) breakAll(cause error) {
	b.start.Break(cause)
	b.timer.Break(cause)
	b.end.Break(cause)
}

// Run executes one benchmark run of d and blocks until every worker has been
// joined.
//
// Any worker failure aborts the run and is returned as a *WorkerError; no
// Result is produced for a failed run. Cancelling ctx breaks the barriers
// but never interrupts an Execute call already in progress.
func (e *Engine) Run(ctx context.Context, d Descriptor) (*Result, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid operation %q: %w", d.OperationName(), err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", context.Cause(ctx))
	}

	rec := e.recorder
	if rec == nil {
		rec = metrics.NewRecorder()
	}

	threads := e.config.Threads
	b := newBarriers(threads + 1)

	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, func() {
		b.breakAll(context.Cause(gctx))
	})
	defer stop()

	rec.SetPhase(metrics.PhaseSetup)
	e.logger.Debug("spawning workers", "operation", d.OperationName(), "threads", threads, "opsPerThread", e.config.OpsPerThread)

	for id := 1; id <= threads; id++ {
		g.Go(func() error {
			return e.runWorker(id, d, b, rec)
		})
	}

	if err := b.start.Wait(); err != nil {
		return nil, e.abort(ctx, g, rec, err)
	}

	start := e.now()
	rec.SetPhase(metrics.PhaseTimed)

	if err := b.timer.Wait(); err != nil {
		return nil, e.abort(ctx, g, rec, err)
	}
	if err := b.end.Wait(); err != nil {
		return nil, e.abort(ctx, g, rec, err)
	}

	end := e.now()
	rec.SetPhase(metrics.PhaseTeardown)

	err := g.Wait()
	rec.SetPhase(metrics.PhaseDone)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("run cancelled: %w", context.Cause(ctx))
	}

	window := end.Sub(start)
	if window <= 0 {
		return nil, ErrEmptyWindow
	}

	total := e.config.TotalOps()
	result := &Result{
		RunID:        uuid.NewString(),
		Operation:    d.OperationName(),
		Threads:      threads,
		OpsPerThread: e.config.OpsPerThread,
		TotalOps:     total,
		Start:        start,
		Stop:         end,
		Window:       window,
		Throughput:   float64(total) / window.Seconds(),
		Phases:       rec.Snapshot(),
	}

	e.logger.Debug("run complete", "runId", result.RunID, "window", window, "throughput", result.Throughput)
	return result, nil
}

// abort joins the workers after the coordinator saw a broken barrier and
// picks the error that explains the failure.
func (e *Engine) abort(ctx context.Context, g *errgroup.Group, rec *metrics.Recorder, barrierErr error) error {
	workerErr := g.Wait()
	rec.SetPhase(metrics.PhaseDone)

	if ctx.Err() != nil {
		return fmt.Errorf("run cancelled: %w", context.Cause(ctx))
	}
	if workerErr != nil {
		return workerErr
	}
	return barrierErr
}

// runWorker is the full lifetime of one worker.
func (e *Engine) runWorker(id int, d Descriptor, b *barriers, rec *metrics.Recorder) (err error) {
	phase := metrics.PhaseSetup
	iteration := 0

	defer func() {
		if r := recover(); r != nil {
			err = &WorkerError{
				Worker:    id,
				Phase:     phase,
				Iteration: iteration,
				Err:       &PanicError{Value: r, Stack: debug.Stack()},
			}
		}
	}()

	if e.config.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	if n := e.config.WorkerWarmupOps; n > 0 {
		phase = metrics.PhaseWarmup
		if err := runWarmupOps(d, n); err != nil {
			return &WorkerError{Worker: id, Phase: phase, Err: err}
		}
		phase = metrics.PhaseSetup
	}

	t := d.newTask()

	setupStart := e.now()
	if err := t.setup(); err != nil {
		return &WorkerError{Worker: id, Phase: phase, Err: err}
	}
	rec.RecordWorkerPhase(metrics.PhaseSetup, e.now().Sub(setupStart))

	// From here on the state exists and is torn down on every exit path.
	abandon := func(cause error) error {
		if terr := t.teardown(); terr != nil {
			e.logger.Debug("teardown after failure", "worker", id, "error", terr)
		}
		return &WorkerError{Worker: id, Phase: phase, Iteration: iteration, Err: cause}
	}

	if err := b.start.Wait(); err != nil {
		return abandon(err)
	}
	if err := b.timer.Wait(); err != nil {
		return abandon(err)
	}

	phase = metrics.PhaseTimed
	if e.observer != nil {
		e.observer.WorkerStarted(id)
	}

	loopStart := e.now()
	ops := e.config.OpsPerThread
	for iteration = 1; iteration <= ops; iteration++ {
		if err := t.execute(); err != nil {
			return abandon(err)
		}
	}
	iteration = 0
	rec.RecordWorkerPhase(metrics.PhaseTimed, e.now().Sub(loopStart))
	rec.AddOperations(int64(ops))

	if e.observer != nil {
		e.observer.WorkerDone(id)
	}

	if err := b.end.Wait(); err != nil {
		return abandon(err)
	}

	phase = metrics.PhaseTeardown
	teardownStart := e.now()
	if err := t.teardown(); err != nil {
		return &WorkerError{Worker: id, Phase: phase, Err: err}
	}
	rec.RecordWorkerPhase(metrics.PhaseTeardown, e.now().Sub(teardownStart))

	return nil
}
