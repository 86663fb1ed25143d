package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestNewRecorder(t *testing.T) {
	r := NewRecorder()
	if r == nil {
		t.Fatal("NewRecorder() returned nil")
	}

	snap := r.Snapshot()
	if snap.Operations != 0 {
		t.Errorf("Initial Operations = %d, want 0", snap.Operations)
	}
	if snap.CurrentPhase != PhaseInit {
		t.Errorf("Initial phase = %v, want %v", snap.CurrentPhase, PhaseInit)
	}
	if len(snap.Phases) != 0 {
		t.Errorf("Initial phases = %d, want 0", len(snap.Phases))
	}
}

func TestRecorder_RecordWorkerPhase(t *testing.T) {
	r := NewRecorder()

	r.RecordWorkerPhase(PhaseSetup, 10*time.Millisecond)
	r.RecordWorkerPhase(PhaseSetup, 20*time.Millisecond)
	r.RecordWorkerPhase(PhaseSetup, 30*time.Millisecond)

	stats := r.PhaseStats(PhaseSetup)
	if stats.Count != 3 {
		t.Errorf("Count = %d, want 3", stats.Count)
	}
	if stats.Min < 9*time.Millisecond || stats.Min > 11*time.Millisecond {
		t.Errorf("Min = %v, want ~10ms", stats.Min)
	}
	if stats.Max < 29*time.Millisecond || stats.Max > 31*time.Millisecond {
		t.Errorf("Max = %v, want ~30ms", stats.Max)
	}
	if stats.Mean < 19*time.Millisecond || stats.Mean > 21*time.Millisecond {
		t.Errorf("Mean = %v, want ~20ms", stats.Mean)
	}
	if spread := stats.Spread(); spread < 18*time.Millisecond || spread > 22*time.Millisecond {
		t.Errorf("Spread = %v, want ~20ms", spread)
	}

	if got := r.PhaseStats(PhaseTeardown); got.Count != 0 {
		t.Errorf("unrecorded phase Count = %d, want 0", got.Count)
	}
}

func TestRecorder_ClampsDurations(t *testing.T) {
	r := NewRecorder()

	r.RecordWorkerPhase(PhaseTimed, 0)
	r.RecordWorkerPhase(PhaseTimed, 48*time.Hour)

	stats := r.PhaseStats(PhaseTimed)
	if stats.Count != 2 {
		t.Fatalf("Count = %d, want 2", stats.Count)
	}
	if stats.Min != time.Microsecond {
		t.Errorf("Min = %v, want 1µs", stats.Min)
	}
	if stats.Max < 23*time.Hour {
		t.Errorf("Max = %v, want clamped near 24h", stats.Max)
	}
}

func TestRecorder_Phase(t *testing.T) {
	r := NewRecorder()

	phases := []Phase{PhaseWarmup, PhaseSetup, PhaseTimed, PhaseTeardown, PhaseDone}
	for _, phase := range phases {
		r.SetPhase(phase)
		if r.GetPhase() != phase {
			t.Errorf("After SetPhase(%v), GetPhase() = %v", phase, r.GetPhase())
		}
	}

	// Repeating the current phase is not a transition
	r.SetPhase(PhaseDone)

	history := r.GetPhaseHistory()
	if len(history) != len(phases) {
		t.Fatalf("PhaseHistory length = %d, want %d", len(history), len(phases))
	}
	for i := 1; i < len(history); i++ {
		if history[i].Timestamp.Before(history[i-1].Timestamp) {
			t.Errorf("history[%d] is earlier than history[%d]", i, i-1)
		}
	}
}

func TestRecorder_PhaseHistoryCarriesOperations(t *testing.T) {
	r := NewRecorder()

	r.SetPhase(PhaseTimed)
	r.AddOperations(400)
	r.SetPhase(PhaseTeardown)

	history := r.GetPhaseHistory()
	if history[0].Operations != 0 {
		t.Errorf("timed Operations = %d, want 0", history[0].Operations)
	}
	if history[1].Operations != 400 {
		t.Errorf("teardown Operations = %d, want 400", history[1].Operations)
	}
}

func TestRecorder_ConcurrentAccess(t *testing.T) {
	r := NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.RecordWorkerPhase(PhaseTimed, time.Millisecond)
				r.AddOperations(1)
			}
		}()
	}
	wg.Wait()

	if got := r.Operations(); got != 1600 {
		t.Errorf("Operations = %d, want 1600", got)
	}
	if got := r.PhaseStats(PhaseTimed).Count; got != 1600 {
		t.Errorf("Count = %d, want 1600", got)
	}
}

func TestRecorder_Reset(t *testing.T) {
	r := NewRecorder()
	r.SetPhase(PhaseTimed)
	r.AddOperations(10)
	r.RecordWorkerPhase(PhaseTimed, time.Second)

	r.Reset()

	snap := r.Snapshot()
	if snap.Operations != 0 || snap.CurrentPhase != PhaseInit || len(snap.Phases) != 0 || len(snap.History) != 0 {
		t.Errorf("Reset left state behind: %+v", snap)
	}
}
