package engine

import (
	"fmt"
	"sync"
)

// Barrier is a reusable rendezvous point for a fixed number of parties.
// Every party calling Wait blocks until the last one arrives, then all are
// released together and the barrier resets for the next round.
//
// A barrier can be broken. Once broken, blocked and future waiters return
// an error wrapping ErrBarrierBroken, so that a failed party can never leave
// the others waiting forever.
type Barrier struct {
	mu      sync.Mutex
	parties int
	arrived int
	round   *round
	cause   error
}

type round struct {
	release chan struct{}
	broken  bool
}

// NewBarrier creates a barrier for the given number of parties.
// It panics if parties is less than 1.
func NewBarrier(parties int) *Barrier {
	if parties < 1 {
		panic("engine: barrier needs at least one party")
	}
	return &Barrier{
		parties: parties,
		round:   &round{release: make(chan struct{})},
	}
}

// Parties returns the number of parties required to trip the barrier.
func (b *Barrier) Parties() int {
	return b.parties
}

// Wait blocks until all parties have called Wait or the barrier is broken.
func (b *Barrier) Wait() error {
	b.mu.Lock()
	if b.cause != nil {
		err := b.brokenErr()
		b.mu.Unlock()
		return err
	}

	r := b.round
	b.arrived++
	if b.arrived == b.parties {
		b.arrived = 0
		b.round = &round{release: make(chan struct{})}
		close(r.release)
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	<-r.release
	if r.broken {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.brokenErr()
	}
	return nil
}

// Break breaks the barrier, releasing every waiter with an error.
// Only the first cause is kept; later calls are no-ops.
func (b *Barrier) Break(cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cause != nil {
		return
	}
	if cause == nil {
		cause = ErrBarrierBroken
	}
	b.cause = cause
	b.round.broken = true
	close(b.round.release)
}

// Broken reports whether the barrier has been broken.
func (b *Barrier) Broken() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cause != nil
}

func (b *Barrier) brokenErr() error {
	if b.cause == ErrBarrierBroken {
		return ErrBarrierBroken
	}
	return fmt.Errorf("%w: %w", ErrBarrierBroken, b.cause)
}
