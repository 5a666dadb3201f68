package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Manager errors.
var (
	ErrClosed           = errors.New("connection manager closed")
	ErrAlreadyConnected = errors.New("already connected")
)

// DefaultConnectTimeout bounds a single reconnect attempt.
const DefaultConnectTimeout = 5 * time.Second

// State is the link state seen by a Manager.
type State uint8

const (
	// StateDisconnected means no link and no retry pending.
	StateDisconnected State = iota

	// StateConnecting means an explicit Connect is in progress.
	StateConnecting

	// StateConnected means the link is up.
	StateConnected

	// StateReconnecting means the link was lost and retries are running.
	StateReconnecting

	// StateClosed means the manager was closed.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// DialFunc establishes the link. It returns nil once the link is usable.
type DialFunc func(ctx context.Context) error

// Config configures a Manager.
type Config struct {
	// Backoff controls the retry delays.
	Backoff BackoffConfig

	// ConnectTimeout bounds each retry. Zero uses DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// OnStateChange is called outside the manager lock on every transition.
	OnStateChange func(oldState, newState State)

	// Logger receives retry diagnostics. Nil disables logging.
	Logger *slog.Logger
}

// Manager tracks a single link and reconnects it after a loss.
type Manager struct {
	dial    DialFunc
	cfg     Config
	backoff *Backoff

	mu    sync.Mutex
	state State

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	kick   chan struct{}
}

// NewManager creates a manager for dial and starts its retry loop.
func NewManager(dial DialFunc, cfg Config) *Manager {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		dial:    dial,
		cfg:     cfg,
		backoff: NewBackoffWithConfig(cfg.Backoff),
		ctx:     ctx,
		cancel:  cancel,
		kick:    make(chan struct{}, 1),
	}
	m.wg.Add(1)
	go m.loop()
	return m
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsConnected reports whether the link is up.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// Attempts returns the number of retries since the last successful connect.
func (m *Manager) Attempts() int {
	return m.backoff.Attempts()
}

// Connect dials once. On failure the manager falls back to retrying in the
// background and the dial error is returned.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateClosed:
		m.mu.Unlock()
		return ErrClosed
	case StateConnected:
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	old := m.state
	m.state = StateConnecting
	m.mu.Unlock()
	m.notify(old, StateConnecting)

	if err := m.dial(ctx); err != nil {
		if m.transition(StateConnecting, StateReconnecting) {
			m.trigger()
		}
		return err
	}
	m.backoff.Reset()
	m.transition(StateConnecting, StateConnected)
	return nil
}

// ConnectionLost reports that the link went down. It is a no-op unless the
// manager believes the link is up.
func (m *Manager) ConnectionLost() {
	if m.transition(StateConnected, StateReconnecting) {
		m.trigger()
	}
}

// Close stops retrying and waits for the retry loop to exit.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	old := m.state
	m.state = StateClosed
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
	m.notify(old, StateClosed)
}

func (m *Manager) transition(from, to State) bool {
	m.mu.Lock()
	if m.state != from {
		m.mu.Unlock()
		return false
	}
	m.state = to
	m.mu.Unlock()
	m.notify(from, to)
	return true
}

func (m *Manager) notify(oldState, newState State) {
	if m.cfg.OnStateChange != nil && oldState != newState {
		m.cfg.OnStateChange(oldState, newState)
	}
}

func (m *Manager) trigger() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

func (m *Manager) loop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.kick:
			m.retry()
		}
	}
}

func (m *Manager) retry() {
	for m.State() == StateReconnecting {
		delay := m.backoff.Next()
		m.debugLog("reconnect scheduled", "attempt", m.backoff.Attempts(), "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-m.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(m.ctx, m.cfg.ConnectTimeout)
		err := m.dial(ctx)
		cancel()
		if err != nil {
			m.debugLog("reconnect failed", "error", err)
			continue
		}
		m.backoff.Reset()
		if m.transition(StateReconnecting, StateConnected) {
			m.debugLog("reconnected")
		}
		return
	}
}

func (m *Manager) debugLog(msg string, args ...any) {
	if m.cfg.Logger != nil {
		m.cfg.Logger.Debug(msg, args...)
	}
}
