package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mtsupport/mt-go/pkg/connection"
	"github.com/mtsupport/mt-go/pkg/device"
	"github.com/mtsupport/mt-go/pkg/touch"
)

// Sender errors.
var (
	ErrNotConnected = errors.New("not connected")
	ErrRejected     = errors.New("rejected by listener")
	ErrSenderClosed = errors.New("sender closed")
)

// SenderConfig configures a Sender.
type SenderConfig struct {
	// Addr is the listener address (host:port).
	Addr string

	// Descriptor is the device announced in Hello. ID must be non-zero.
	Descriptor device.Descriptor

	// Name identifies the sender in listener logs.
	Name string

	// DialTimeout bounds connect plus handshake.
	DialTimeout time.Duration

	// WriteTimeout bounds every write.
	WriteTimeout time.Duration

	// Backoff controls reconnect delays.
	Backoff connection.BackoffConfig

	// OnStateChange is called on every link state transition.
	OnStateChange func(oldState, newState connection.State)

	// Logger receives operational diagnostics. Nil disables logging.
	Logger *slog.Logger
}

// Validate checks the configuration.
func (c SenderConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: empty address", device.ErrInvalidConfig)
	}
	if c.Descriptor.ID == 0 {
		return fmt.Errorf("%w: device id must be non-zero", device.ErrInvalidConfig)
	}
	return nil
}

// SenderStats counts frames handed to SendFrame.
type SenderStats struct {
	Sent       uint64
	Dropped    uint64
	Reconnects uint64
	BytesSent  uint64
}

// Sender streams the frames of one device to a Listener and reconnects
// after the link drops.
type Sender struct {
	config SenderConfig
	mgr    *connection.Manager

	mu        sync.Mutex
	link      *link
	connID    string
	sessionID string
	closed    bool
	readers   sync.WaitGroup

	sent       atomic.Uint64
	dropped    atomic.Uint64
	connects   atomic.Uint64
	bytesTotal atomic.Uint64
}

// NewSender creates a sender. Call Connect to attach it.
func NewSender(config SenderConfig) (*Sender, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = DefaultHandshakeTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	s := &Sender{config: config}
	s.mgr = connection.NewManager(s.dial, connection.Config{
		Backoff:        config.Backoff,
		ConnectTimeout: config.DialTimeout,
		OnStateChange:  config.OnStateChange,
		Logger:         config.Logger,
	})
	return s, nil
}

// Connect dials the listener once. If that fails the sender keeps retrying
// in the background and the first error is returned.
func (s *Sender) Connect(ctx context.Context) error {
	return s.mgr.Connect(ctx)
}

// State returns the link state.
func (s *Sender) State() connection.State {
	return s.mgr.State()
}

// ConnectionID returns the id the listener assigned to the current link.
func (s *Sender) ConnectionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connID
}

// SessionID returns the session id reported by the listener.
func (s *Sender) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// SendFrame sends one frame. While disconnected the frame is dropped and
// ErrNotConnected returned.
func (s *Sender) SendFrame(number int64, timestamp float64, samples []touch.RawSample) error {
	s.mu.Lock()
	lk := s.link
	s.mu.Unlock()
	if lk == nil {
		s.dropped.Add(1)
		return ErrNotConnected
	}

	if err := lk.send(NewFrame(number, timestamp, samples)); err != nil {
		s.dropped.Add(1)
		s.lost(lk, err)
		return fmt.Errorf("send frame %d: %w", number, err)
	}
	s.sent.Add(1)
	return nil
}

// DeliverRawFrame forwards a frame of the configured device, so a Sender can
// be used as the sink of a local producer.
func (s *Sender) DeliverRawFrame(id touch.DeviceID, frameNumber int64, timestamp float64, samples []touch.RawSample) error {
	if id != s.config.Descriptor.ID {
		return fmt.Errorf("%w: %s", device.ErrUnknownDevice, id)
	}
	err := s.SendFrame(frameNumber, timestamp, samples)
	if errors.Is(err, ErrNotConnected) {
		return nil
	}
	return err
}

// Stats returns frame counters.
func (s *Sender) Stats() SenderStats {
	var reconnects uint64
	if n := s.connects.Load(); n > 0 {
		reconnects = n - 1
	}
	st := SenderStats{
		Sent:       s.sent.Load(),
		Dropped:    s.dropped.Load(),
		Reconnects: reconnects,
		BytesSent:  s.bytesTotal.Load(),
	}
	s.mu.Lock()
	if s.link != nil {
		st.BytesSent += s.link.bytesWritten()
	}
	s.mu.Unlock()
	return st
}

// Close says Bye, stops reconnecting and waits for the reader to exit.
func (s *Sender) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	lk := s.link
	s.mu.Unlock()

	s.mgr.Close()
	if lk != nil {
		_ = lk.send(&Envelope{Type: MsgBye, Bye: &Bye{Reason: "sender closed"}})
		s.detach(lk)
	}
	s.readers.Wait()
	return nil
}

// dial connects, performs the Hello exchange and starts the reader.
func (s *Sender) dial(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSenderClosed
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.DialTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.config.Addr, err)
	}
	lk := newLink(conn, s.config.WriteTimeout)

	if err := lk.send(NewHello(s.config.Descriptor, s.config.Name)); err != nil {
		lk.close()
		return fmt.Errorf("send hello: %w", err)
	}

	wait := s.config.DialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		wait = time.Until(deadline)
	}
	reply, err := lk.recvWithin(wait)
	if err != nil {
		lk.close()
		return fmt.Errorf("await accept: %w", err)
	}
	switch reply.Type {
	case MsgAccept:
	case MsgReject:
		lk.close()
		return fmt.Errorf("%w: %s", ErrRejected, reply.Reject.Reason)
	default:
		lk.close()
		return fmt.Errorf("%w: %s", ErrUnexpectedType, reply.Type)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		lk.close()
		return ErrSenderClosed
	}
	s.link = lk
	s.connID = reply.Accept.ConnectionID
	s.sessionID = reply.Accept.SessionID
	s.readers.Add(1)
	s.mu.Unlock()
	s.connects.Add(1)

	s.debugLog("connected", "addr", s.config.Addr, "device", s.config.Descriptor.ID, "conn", reply.Accept.ConnectionID)
	go s.read(lk)
	return nil
}

// read answers pings and watches for the link going away.
func (s *Sender) read(lk *link) {
	defer s.readers.Done()
	for {
		env, err := lk.recv()
		if err != nil {
			s.lost(lk, err)
			return
		}
		switch env.Type {
		case MsgPing:
			if err := lk.sendPong(env.Ping.Seq); err != nil {
				s.lost(lk, err)
				return
			}
		case MsgBye:
			reason := ""
			if env.Bye != nil {
				reason = env.Bye.Reason
			}
			s.lost(lk, fmt.Errorf("listener said bye: %s", reason))
			return
		}
	}
}

// lost tears down lk and, if it is still the current link, hands over to
// the reconnect loop.
func (s *Sender) lost(lk *link, cause error) {
	if !s.detach(lk) {
		return
	}
	s.debugLog("connection lost", "device", s.config.Descriptor.ID, "error", cause)
	s.mgr.ConnectionLost()
}

// detach closes lk and clears it if current. It reports whether lk was the
// current link.
func (s *Sender) detach(lk *link) bool {
	lk.close()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.link != lk {
		return false
	}
	s.bytesTotal.Add(lk.bytesWritten())
	s.link = nil
	s.connID = ""
	return true
}

func (s *Sender) debugLog(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, args...)
	}
}

var _ device.FrameSink = (*Sender)(nil)
