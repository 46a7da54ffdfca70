// Package sync keeps the offline shell cache fresh in the background and
// reports connectivity to the presentation layers.
package sync

import (
	"context"
	"errors"
	"log"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/cub-fuel-log/internal/offline"
)

// State is the connectivity seen by the last check.
type State int

const (
	StateUnknown State = iota
	StateOnline
	StateOffline
	StateUnregistered
)

func (s State) String() string {
	switch s {
	case StateOnline:
		return "online"
	case StateOffline:
		return "offline"
	case StateUnregistered:
		return "unregistered"
	default:
		return "unknown"
	}
}

// Status is a snapshot of the monitor. An online status may still carry the
// error of an upgrade that failed while an older generation kept serving.
type Status struct {
	State       State
	LastCheck   time.Time
	LastRefresh time.Time
	Error       error
}

// StatusMsg is a tea.Msg sent after every check.
type StatusMsg struct {
	Status Status
}

// Registrar is the part of offline.Registration the monitor drives.
type Registrar interface {
	Register(ctx context.Context) error
	Refresh(ctx context.Context) error
	Current() bool
}

// refreshTimeout is the maximum time allowed for a single check.
const refreshTimeout = 30 * time.Second

// defaultInterval is used when no positive interval is configured.
const defaultInterval = 300 * time.Second

// Monitor periodically refreshes the cached shell through the registration,
// registering a controller first when none is active.
type Monitor struct {
	reg       Registrar
	interval  time.Duration
	status    Status
	resultCh  chan StatusMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a monitor that checks every interval.
func New(reg Registrar, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Monitor{
		reg:       reg,
		interval:  interval,
		resultCh:  make(chan StatusMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Run checks immediately, then on every tick or trigger until ctx is done
// or Stop is called. A stopped monitor can be run again.
func (m *Monitor) Run(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	select {
	case <-m.stopCh:
		m.stopCh = make(chan struct{})
	default:
	}
	stopCh := m.stopCh
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		if m.stopCh == stopCh {
			m.running = false
		}
		m.mu.Unlock()
	}()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			m.check(ctx)
		case <-m.triggerCh:
			m.check(ctx)
		}
	}
}

// Start returns a tea.Cmd that starts the monitor in the background and
// waits for its first status.
func (m *Monitor) Start() tea.Cmd {
	go m.Run(context.Background())
	return m.waitForResult()
}

// Stop halts the monitor loop.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.stopCh:
	default:
		close(m.stopCh)
	}
	m.running = false
}

// Refresh requests an immediate check.
func (m *Monitor) Refresh() {
	select {
	case m.triggerCh <- struct{}{}:
	default:
		// A check is already pending.
	}
}

// Status returns the latest snapshot.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Results delivers every status update. It is the channel the tea.Cmd
// helpers read from, so use one or the other.
func (m *Monitor) Results() <-chan StatusMsg {
	return m.resultCh
}

func (m *Monitor) check(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, refreshTimeout)
	defer cancel()

	var registerErr error
	if !m.reg.Current() {
		registerErr = m.reg.Register(ctx)
	}
	err := m.reg.Refresh(ctx)

	now := time.Now()
	m.mu.Lock()
	prev := m.status.State
	m.status.LastCheck = now
	switch {
	case errors.Is(err, offline.ErrNotRegistered):
		m.status.State = StateUnregistered
		m.status.Error = registerErr
	case err != nil:
		m.status.State = StateOffline
		m.status.Error = err
	default:
		m.status.State = StateOnline
		m.status.Error = registerErr
		m.status.LastRefresh = now
	}
	status := m.status
	m.mu.Unlock()

	if status.State != prev {
		log.Printf("monitor: %s -> %s", prev, status.State)
	}
	m.sendResult(StatusMsg{Status: status})
}

// sendResult sends a StatusMsg on the result channel without blocking.
func (m *Monitor) sendResult(msg StatusMsg) {
	select {
	case m.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the monitor
	}
}

func (m *Monitor) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-m.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next status. Call
// it after handling a StatusMsg to keep listening.
func (m *Monitor) WaitForNextResult() tea.Cmd {
	return m.waitForResult()
}
