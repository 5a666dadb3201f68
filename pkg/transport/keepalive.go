package transport

import (
	"context"
	"sync"
	"time"
)

// Keep-alive defaults. Feeds send many frames per second while touched and
// none while idle, so the interval is short.
const (
	// DefaultPingInterval is the interval between pings.
	DefaultPingInterval = 2 * time.Second

	// DefaultPongTimeout is how long a ping may stay unanswered.
	DefaultPongTimeout = 1 * time.Second

	// DefaultMaxMissedPongs is the number of missed pongs before the peer
	// is considered gone.
	DefaultMaxMissedPongs = 3
)

// KeepAliveConfig configures keep-alive behavior.
type KeepAliveConfig struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	MaxMissedPongs int
}

// DefaultKeepAliveConfig returns the default keep-alive configuration.
func DefaultKeepAliveConfig() KeepAliveConfig {
	return KeepAliveConfig{
		PingInterval:   DefaultPingInterval,
		PongTimeout:    DefaultPongTimeout,
		MaxMissedPongs: DefaultMaxMissedPongs,
	}
}

// DetectionDelay is the longest time a dead peer can go unnoticed.
func (c KeepAliveConfig) DetectionDelay() time.Duration {
	return c.PingInterval*time.Duration(c.MaxMissedPongs) + c.PongTimeout
}

func (c KeepAliveConfig) withDefaults() KeepAliveConfig {
	d := DefaultKeepAliveConfig()
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = d.PongTimeout
	}
	if c.MaxMissedPongs <= 0 {
		c.MaxMissedPongs = d.MaxMissedPongs
	}
	return c
}

// KeepAliveStats is a snapshot of keep-alive state.
type KeepAliveStats struct {
	LastPingTime time.Time
	LastPongTime time.Time
	Latency      time.Duration
	MissedPongs  int
	Sequence     uint32
}

// KeepAlive pings a peer periodically and reports when it stops answering.
type KeepAlive struct {
	config    KeepAliveConfig
	sendPing  func(seq uint32) error
	onTimeout func()

	pongCh chan uint32

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	seq     uint32
	pending bool
	stats   KeepAliveStats
}

// NewKeepAlive creates a keep-alive. sendPing transmits a ping with the given
// sequence number; onTimeout is called once, from the keep-alive goroutine,
// when the peer missed too many pongs.
func NewKeepAlive(config KeepAliveConfig, sendPing func(seq uint32) error, onTimeout func()) *KeepAlive {
	return &KeepAlive{
		config:    config.withDefaults(),
		sendPing:  sendPing,
		onTimeout: onTimeout,
		pongCh:    make(chan uint32, 4),
	}
}

// Start begins monitoring. It is a no-op if already running.
func (ka *KeepAlive) Start(ctx context.Context) {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	if ka.running {
		return
	}
	ctx, ka.cancel = context.WithCancel(ctx)
	ka.done = make(chan struct{})
	ka.running = true
	go ka.loop(ctx, ka.done)
}

// Stop ends monitoring and waits for the goroutine to exit. Stop must not be
// called from onTimeout.
func (ka *KeepAlive) Stop() {
	ka.mu.Lock()
	if !ka.running {
		ka.mu.Unlock()
		return
	}
	ka.running = false
	ka.cancel()
	done := ka.done
	ka.mu.Unlock()
	<-done
}

// IsRunning reports whether monitoring is active.
func (ka *KeepAlive) IsRunning() bool {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return ka.running
}

// PongReceived records a pong from the peer.
func (ka *KeepAlive) PongReceived(seq uint32) {
	select {
	case ka.pongCh <- seq:
	default:
	}
}

// Stats returns a snapshot of the keep-alive state.
func (ka *KeepAlive) Stats() KeepAliveStats {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return ka.stats
}

func (ka *KeepAlive) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(ka.config.PingInterval)
	defer ticker.Stop()

	ka.ping()
	for {
		select {
		case <-ctx.Done():
			return
		case seq := <-ka.pongCh:
			ka.pong(seq)
		case <-ticker.C:
			if ka.expired() {
				ka.mu.Lock()
				ka.running = false
				ka.mu.Unlock()
				if ka.onTimeout != nil {
					ka.onTimeout()
				}
				return
			}
			ka.ping()
		}
	}
}

func (ka *KeepAlive) ping() {
	ka.mu.Lock()
	ka.seq++
	seq := ka.seq
	ka.pending = true
	ka.stats.Sequence = seq
	ka.stats.LastPingTime = time.Now()
	ka.mu.Unlock()

	// A failed send counts as a missed pong at the next tick.
	_ = ka.sendPing(seq)
}

func (ka *KeepAlive) pong(seq uint32) {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	now := time.Now()
	ka.stats.LastPongTime = now
	if ka.pending && seq == ka.seq {
		ka.pending = false
		ka.stats.MissedPongs = 0
		ka.stats.Latency = now.Sub(ka.stats.LastPingTime)
	}
}

// expired counts a missed pong if the pending ping timed out and reports
// whether the limit has been reached.
func (ka *KeepAlive) expired() bool {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	if ka.pending && time.Since(ka.stats.LastPingTime) >= ka.config.PongTimeout {
		ka.pending = false
		ka.stats.MissedPongs++
	}
	return ka.stats.MissedPongs >= ka.config.MaxMissedPongs
}
