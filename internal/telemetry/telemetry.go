// Package telemetry keeps in-process counters for the sync engine. Nothing
// here ever leaves the machine; the numbers feed the local status endpoint
// so the control panel can show what the background sync has been doing.
package telemetry

import (
	"sync/atomic"
	"time"
)

var (
	drainPasses       atomic.Int64
	drainHalts        atomic.Int64
	mutationsReplayed atomic.Int64
	mutationsRejected atomic.Int64
	directDispatches  atomic.Int64
	probeFailures     atomic.Int64
	lastDrainNanos    atomic.Int64
	lastDrainAt       atomic.Int64
)

// Stats is a point-in-time copy of the counters.
type Stats struct {
	DrainPasses       int64   `json:"drainPasses"`
	DrainHalts        int64   `json:"drainHalts"`
	MutationsReplayed int64   `json:"mutationsReplayed"`
	MutationsRejected int64   `json:"mutationsRejected"`
	DirectDispatches  int64   `json:"directDispatches"`
	ProbeFailures     int64   `json:"probeFailures"`
	LastDrainSeconds  float64 `json:"lastDrainSeconds"`
	LastDrainAt       int64   `json:"lastDrainAt,omitempty"`
}

// RecordDrain accumulates the outcome of one drain pass.
func RecordDrain(succeeded, rejected int, halted bool, took time.Duration) {
	drainPasses.Add(1)
	if halted {
		drainHalts.Add(1)
	}
	mutationsReplayed.Add(int64(succeeded))
	mutationsRejected.Add(int64(rejected))
	lastDrainNanos.Store(int64(took))
	lastDrainAt.Store(time.Now().Unix())
}

// RecordDirectDispatch counts a mutation sent straight to the gateway,
// bypassing the queue.
func RecordDirectDispatch() {
	directDispatches.Add(1)
}

// RecordProbeFailure counts a failed connectivity probe.
func RecordProbeFailure() {
	probeFailures.Add(1)
}

// Snapshot returns a copy of the counters.
func Snapshot() Stats {
	return Stats{
		DrainPasses:       drainPasses.Load(),
		DrainHalts:        drainHalts.Load(),
		MutationsReplayed: mutationsReplayed.Load(),
		MutationsRejected: mutationsRejected.Load(),
		DirectDispatches:  directDispatches.Load(),
		ProbeFailures:     probeFailures.Load(),
		LastDrainSeconds:  time.Duration(lastDrainNanos.Load()).Seconds(),
		LastDrainAt:       lastDrainAt.Load(),
	}
}

// Reset zeroes every counter. Intended for tests.
func Reset() {
	drainPasses.Store(0)
	drainHalts.Store(0)
	mutationsReplayed.Store(0)
	mutationsRejected.Store(0)
	directDispatches.Store(0)
	probeFailures.Store(0)
	lastDrainNanos.Store(0)
	lastDrainAt.Store(0)
}
