// Package connectivity tracks whether the remote gateway is reachable and
// triggers a queue drain on each offline-to-online transition.
package connectivity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hotshotfinger/geprekpos/backend/internal/logging"
	syncpkg "github.com/hotshotfinger/geprekpos/backend/internal/sync"
	"github.com/hotshotfinger/geprekpos/backend/internal/telemetry"
)

// Prober checks reachability. Any answer from the gateway counts as online;
// only a transport-level failure means offline.
type Prober interface {
	Ping(ctx context.Context) error
}

// Drainer replays the durable queue.
type Drainer interface {
	Drain(ctx context.Context) (*syncpkg.DrainResult, error)
}

// Monitor polls the gateway and holds the current connectivity verdict.
// Recorders flip it offline eagerly when a direct dispatch fails; the probe
// loop is what flips it back online.
type Monitor struct {
	mu     sync.Mutex
	online bool

	prober   Prober
	drainer  Drainer
	interval time.Duration
	onChange func(online bool)
	log      *logrus.Entry
}

// New creates a Monitor. The initial state is offline until the first probe
// succeeds, so a cold start with no network never attempts direct sends.
func New(prober Prober, drainer Drainer, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		prober:   prober,
		drainer:  drainer,
		interval: interval,
		log:      logging.WithComponent("connectivity"),
	}
}

// SetOnChange registers a callback invoked on every state transition.
func (m *Monitor) SetOnChange(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// IsOnline returns the current verdict.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// MarkOffline records an observed connectivity failure immediately, without
// waiting for the next probe.
func (m *Monitor) MarkOffline() {
	m.transition(false)
}

// Start runs the probe loop until ctx is cancelled. The first probe fires
// immediately so a restart with a queued backlog drains as soon as the
// gateway answers.
func (m *Monitor) Start(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

// probe asks the gateway and, on an offline-to-online transition, kicks off
// exactly one drain. A drain already running is left alone.
func (m *Monitor) probe(ctx context.Context) {
	err := m.prober.Ping(ctx)
	online := err == nil
	if !online {
		telemetry.RecordProbeFailure()
	}

	recovered := m.transition(online)
	if !recovered {
		return
	}

	m.log.Info("gateway reachable again, draining queue")
	result, err := m.drainer.Drain(ctx)
	if err != nil {
		if errors.Is(err, syncpkg.ErrDrainInProgress) || ctx.Err() != nil {
			return
		}
		m.log.WithError(err).Warn("drain after reconnect failed")
		return
	}
	if result.Halted {
		// The gateway dropped mid-drain; the next probe starts over.
		m.transition(false)
	}
}

// transition updates the verdict and returns true only for the
// offline-to-online edge.
func (m *Monitor) transition(online bool) bool {
	m.mu.Lock()
	changed := m.online != online
	m.online = online
	onChange := m.onChange
	m.mu.Unlock()

	if !changed {
		return false
	}
	if online {
		m.log.Info("connectivity restored")
	} else {
		m.log.Warn("connectivity lost")
	}
	if onChange != nil {
		onChange(online)
	}
	return online
}
