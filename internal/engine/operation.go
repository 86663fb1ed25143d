package engine

import "errors"

// Operation is a named bundle of the three phases of one unit of
// benchmarked work. S is the worker-private state.
//
// A single Operation value is shared read-only by every worker. Setup,
// Execute and Teardown are called concurrently from independent workers and
// must not share mutable state with each other; each worker only ever sees
// the state its own Setup call produced.
type Operation[S any] struct {
	// Name identifies the kind of work (used only for reporting)
	Name string

	// Setup builds a fresh state. Called once per worker before timing
	// starts. A nil Setup yields the zero S.
	Setup func() (S, error)

	// Execute performs one operation. Called OpsPerThread times per worker,
	// entirely inside the timed window. Required.
	Execute func(state *S) error

	// Teardown disposes of the state. Called once per worker after the
	// timed window closes. May be nil.
	Teardown func(state *S) error
}

// Descriptor is the type-erased form of an Operation driven by the engine.
type Descriptor interface {
	// OperationName returns the name used in reports.
	OperationName() string

	// Validate reports whether the descriptor can be run.
	Validate() error

	newTask() task
}

// task binds one worker's private state to the operation that owns it.
type task interface {
	setup() error
	execute() error
	teardown() error
}

// ErrNoExecute is returned for an Operation without an Execute phase.
var ErrNoExecute = errors.New("operation has no execute phase")

// OperationName implements Descriptor.
func (o Operation[S]) OperationName() string {
	return o.Name
}

// Validate implements Descriptor.
func (o Operation[S]) Validate() error {
	if o.Execute == nil {
		return ErrNoExecute
	}
	return nil
}

func (o Operation[S]) newTask() task {
	return &boundTask[S]{op: o}
}

type boundTask[S any] struct {
	op    Operation[S]
	state S
}

func (t *boundTask[S]) setup() error {
	if t.op.Setup == nil {
		return nil
	}
	state, err := t.op.Setup()
	if err != nil {
		return err
	}
	t.state = state
	return nil
}

func (t *boundTask[S]) execute() error {
	return t.op.Execute(&t.state)
}

func (t *boundTask[S]) teardown() error {
	if t.op.Teardown == nil {
		return nil
	}
	return t.op.Teardown(&t.state)
}
