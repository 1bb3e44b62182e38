package telemetry

import (
	"testing"
	"time"
)

func TestCountersAccumulate(t *testing.T) {
	Reset()
	defer Reset()

	RecordDrain(3, 1, false, 250*time.Millisecond)
	RecordDrain(0, 0, true, 10*time.Millisecond)
	RecordDirectDispatch()
	RecordDirectDispatch()
	RecordProbeFailure()

	s := Snapshot()
	if s.DrainPasses != 2 {
		t.Errorf("DrainPasses = %d, want 2", s.DrainPasses)
	}
	if s.DrainHalts != 1 {
		t.Errorf("DrainHalts = %d, want 1", s.DrainHalts)
	}
	if s.MutationsReplayed != 3 || s.MutationsRejected != 1 {
		t.Errorf("replayed/rejected = %d/%d, want 3/1", s.MutationsReplayed, s.MutationsRejected)
	}
	if s.DirectDispatches != 2 {
		t.Errorf("DirectDispatches = %d, want 2", s.DirectDispatches)
	}
	if s.ProbeFailures != 1 {
		t.Errorf("ProbeFailures = %d, want 1", s.ProbeFailures)
	}
	if s.LastDrainSeconds != 0.01 {
		t.Errorf("LastDrainSeconds = %v, want 0.01", s.LastDrainSeconds)
	}
	if s.LastDrainAt == 0 {
		t.Error("LastDrainAt not stamped")
	}
}

func TestResetZeroesEverything(t *testing.T) {
	RecordDrain(5, 2, true, time.Second)
	Reset()

	s := Snapshot()
	if s != (Stats{}) {
		t.Errorf("Reset left residue: %+v", s)
	}
}
