package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBarrier_PanicsWithoutParties(t *testing.T) {
	assert.Panics(t, func() { NewBarrier(0) })
	assert.Panics(t, func() { NewBarrier(-3) })
}

func TestBarrier_SinglePartyNeverBlocks(t *testing.T) {
	b := NewBarrier(1)
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Wait())
	}
}

func TestBarrier_ReleasesAllParties(t *testing.T) {
	const parties = 8
	b := NewBarrier(parties)

	var arrived, released atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < parties-1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			arrived.Add(1)
			assert.NoError(t, b.Wait())
			released.Add(1)
		}()
	}

	// Nobody gets through before the last party shows up
	require.Eventually(t, func() bool { return arrived.Load() == parties-1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), released.Load())

	require.NoError(t, b.Wait())
	wg.Wait()
	assert.Equal(t, int32(parties-1), released.Load())
}

func TestBarrier_Reusable(t *testing.T) {
	const parties = 4
	const rounds = 50
	b := NewBarrier(parties)

	var counter atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < parties; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				counter.Add(1)
				if err := b.Wait(); err != nil {
					t.Errorf("round %d: %v", r, err)
					return
				}
				// Everyone finished incrementing for this round
				if got := counter.Load(); got < int64((r+1)*parties) {
					t.Errorf("round %d: counter = %d, want >= %d", r, got, (r+1)*parties)
				}
				if err := b.Wait(); err != nil {
					t.Errorf("round %d: %v", r, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(parties*rounds), counter.Load())
}

func TestBarrier_BreakReleasesWaiters(t *testing.T) {
	b := NewBarrier(3)
	cause := errors.New("worker exploded")

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { errs <- b.Wait() }()
	}

	time.Sleep(20 * time.Millisecond)
	b.Break(cause)

	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			assert.ErrorIs(t, err, ErrBarrierBroken)
			assert.ErrorIs(t, err, cause)
		case <-time.After(time.Second):
			t.Fatal("waiter was not released by Break")
		}
	}

	assert.True(t, b.Broken())

	// Later waiters fail immediately
	err := b.Wait()
	assert.ErrorIs(t, err, ErrBarrierBroken)
	assert.ErrorIs(t, err, cause)
}

func TestBarrier_BreakKeepsFirstCause(t *testing.T) {
	b := NewBarrier(2)
	first := errors.New("first")

	b.Break(first)
	b.Break(errors.New("second"))
	b.Break(nil)

	err := b.Wait()
	assert.ErrorIs(t, err, first)
	assert.NotContains(t, err.Error(), "second")
}

func TestBarrier_BreakWithoutCause(t *testing.T) {
	b := NewBarrier(2)
	b.Break(nil)

	err := b.Wait()
	assert.Equal(t, ErrBarrierBroken, err)
}
