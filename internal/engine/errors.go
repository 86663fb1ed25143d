package engine

import (
	"errors"
	"fmt"

	"github.com/wesleyorama2/signbench/internal/metrics"
)

var (
	// ErrInvalidThreads is returned when fewer than one worker is requested.
	ErrInvalidThreads = errors.New("thread count must be at least 1")

	// ErrInvalidOps is returned when fewer than one operation per worker is requested.
	ErrInvalidOps = errors.New("operations per thread must be at least 1")

	// ErrBarrierBroken is returned by Barrier.Wait once the barrier was broken.
	ErrBarrierBroken = errors.New("barrier broken")

	// ErrEmptyWindow is returned when the timed window has no measurable length.
	ErrEmptyWindow = errors.New("timed window has zero length")
)

// WorkerError reports the failure of a single worker.
type WorkerError struct {
	// Worker is the 1-based worker number
	Worker int

	// Phase is the phase the worker was in when it failed
	Phase metrics.Phase

	// Iteration is the 1-based execute call that failed (0 outside the loop)
	Iteration int

	Err error
}

func (e *WorkerError) Error() string {
	if e.Iteration > 0 {
		return fmt.Sprintf("worker %d failed in %s at iteration %d: %v", e.Worker, e.Phase, e.Iteration, e.Err)
	}
	return fmt.Sprintf("worker %d failed in %s: %v", e.Worker, e.Phase, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

// PanicError carries a recovered panic together with the goroutine stack.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
