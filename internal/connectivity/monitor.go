// Package connectivity tracks whether the IronLog server is reachable by
// probing its health endpoint on an interval and notifying subscribers on
// transitions.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Prober checks whether the server is reachable. A nil return means online.
type Prober interface {
	Health(ctx context.Context) error
}

// Monitor polls a Prober and fans out online/offline transitions. It starts
// pessimistic: subscribers hear nothing until the first probe completes.
type Monitor struct {
	prober   Prober
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	online  bool
	probed  bool
	subs    []func(online bool)
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewMonitor creates a monitor. Interval values below one second are raised
// to one second to keep the probe load sane.
func NewMonitor(p Prober, interval time.Duration, log *slog.Logger) *Monitor {
	if interval < time.Second {
		interval = time.Second
	}
	return &Monitor{
		prober:   p,
		interval: interval,
		log:      log,
	}
}

// Subscribe registers a callback invoked on every online/offline transition.
// Callbacks run on the monitor's goroutine and must not block. Subscribe
// before Start to not miss the first transition.
func (m *Monitor) Subscribe(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Online reports the last observed state. Before the first probe it reports
// false.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Start launches the polling loop. It probes immediately, then on the
// configured interval, until Stop is called.
func (m *Monitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.cancel = cancel
	m.stopped = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.stopped)
		m.Probe(ctx)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Probe(ctx)
			}
		}
	}()
}

// Stop halts the polling loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	stopped := m.stopped
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

// Probe runs a single health check now and fires subscribers if the state
// changed. Useful for an explicit "retry now" action alongside the loop.
func (m *Monitor) Probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	online := m.prober.Health(probeCtx) == nil

	m.mu.Lock()
	changed := !m.probed || online != m.online
	m.probed = true
	m.online = online
	subs := append([]func(bool){}, m.subs...)
	m.mu.Unlock()

	if changed {
		if online {
			m.log.Info("server reachable")
		} else {
			m.log.Warn("server unreachable, entering offline mode")
		}
		for _, fn := range subs {
			fn(online)
		}
	}
	return online
}
