package connectivity

import (
	"context"
	"errors"
	"testing"
	"time"

	syncpkg "github.com/hotshotfinger/geprekpos/backend/internal/sync"
)

type fakeProber struct {
	err error
}

func (f *fakeProber) Ping(ctx context.Context) error { return f.err }

type fakeDrainer struct {
	calls  int
	result *syncpkg.DrainResult
	err    error
}

func (f *fakeDrainer) Drain(ctx context.Context) (*syncpkg.DrainResult, error) {
	f.calls++
	if f.result == nil {
		return &syncpkg.DrainResult{}, f.err
	}
	return f.result, f.err
}

func TestStartsOffline(t *testing.T) {
	m := New(&fakeProber{}, &fakeDrainer{}, time.Minute)
	if m.IsOnline() {
		t.Error("monitor online before any probe")
	}
}

func TestProbeTransitionTriggersExactlyOneDrain(t *testing.T) {
	prober := &fakeProber{}
	drainer := &fakeDrainer{}
	m := New(prober, drainer, time.Minute)

	m.probe(context.Background())
	if !m.IsOnline() {
		t.Fatal("successful probe did not flip online")
	}
	if drainer.calls != 1 {
		t.Fatalf("expected 1 drain on the offline-to-online edge, got %d", drainer.calls)
	}

	// Staying online must not re-trigger.
	m.probe(context.Background())
	m.probe(context.Background())
	if drainer.calls != 1 {
		t.Errorf("drain re-triggered without a transition: %d", drainer.calls)
	}
}

func TestProbeFailureFlipsOffline(t *testing.T) {
	prober := &fakeProber{}
	drainer := &fakeDrainer{}
	m := New(prober, drainer, time.Minute)

	m.probe(context.Background())
	prober.err = errors.New("connection refused")
	m.probe(context.Background())
	if m.IsOnline() {
		t.Error("failed probe did not flip offline")
	}

	// Recovery triggers another drain.
	prober.err = nil
	m.probe(context.Background())
	if drainer.calls != 2 {
		t.Errorf("expected a drain per recovery, got %d", drainer.calls)
	}
}

func TestMarkOfflineIsImmediate(t *testing.T) {
	prober := &fakeProber{}
	m := New(prober, &fakeDrainer{}, time.Minute)
	m.probe(context.Background())

	m.MarkOffline()
	if m.IsOnline() {
		t.Error("MarkOffline did not take effect")
	}
}

func TestHaltedDrainFlipsBackOffline(t *testing.T) {
	prober := &fakeProber{}
	drainer := &fakeDrainer{result: &syncpkg.DrainResult{Halted: true, Remaining: 3}}
	m := New(prober, drainer, time.Minute)

	m.probe(context.Background())
	if m.IsOnline() {
		t.Error("monitor stayed online after a halted drain")
	}
}

func TestOnChangeFiresPerTransition(t *testing.T) {
	prober := &fakeProber{}
	m := New(prober, &fakeDrainer{}, time.Minute)

	var transitions []bool
	m.SetOnChange(func(online bool) { transitions = append(transitions, online) })

	m.probe(context.Background()) // offline -> online
	prober.err = errors.New("down")
	m.probe(context.Background()) // online -> offline
	m.probe(context.Background()) // no change

	if len(transitions) != 2 || transitions[0] != true || transitions[1] != false {
		t.Errorf("unexpected transitions: %v", transitions)
	}
}
