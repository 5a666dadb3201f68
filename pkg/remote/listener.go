package remote

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mtsupport/mt-go/pkg/device"
	"github.com/mtsupport/mt-go/pkg/discovery"
	"github.com/mtsupport/mt-go/pkg/touch"
	"github.com/mtsupport/mt-go/pkg/transport"
)

// Listener errors.
var (
	ErrListenerClosed   = errors.New("listener closed")
	ErrListenerStarted  = errors.New("listener already started")
	ErrDuplicateDevice  = errors.New("device already connected")
	ErrHandshakeTimeout = errors.New("handshake timeout")
)

// Listener defaults.
const (
	DefaultHandshakeTimeout = 5 * time.Second
	DefaultWriteTimeout     = 2 * time.Second
)

// ListenerConfig configures a Listener.
type ListenerConfig struct {
	// Addr is the TCP address to listen on, e.g. ":7438".
	Addr string

	// SessionID is reported to senders in Accept and in mDNS TXT records.
	SessionID string

	// HandshakeTimeout bounds the wait for Hello.
	HandshakeTimeout time.Duration

	// WriteTimeout bounds every write to a sender.
	WriteTimeout time.Duration

	// KeepAlive configures sender liveness checks.
	KeepAlive transport.KeepAliveConfig

	// Advertiser, when set, publishes the listener under InstanceName.
	Advertiser   discovery.Advertiser
	InstanceName string
	DisplayName  string

	// OnDevicesChanged is called after a device attaches or detaches.
	OnDevicesChanged func(desc device.Descriptor, attached bool)

	// Logger receives operational diagnostics. Nil disables logging.
	Logger *slog.Logger
}

// DefaultListenerConfig returns a configuration listening on the default
// discovery port.
func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		Addr:             fmt.Sprintf(":%d", discovery.DefaultPort),
		HandshakeTimeout: DefaultHandshakeTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		KeepAlive:        transport.DefaultKeepAliveConfig(),
		InstanceName:     "mt-monitor",
	}
}

// ListenerStats counts traffic across all connections.
type ListenerStats struct {
	Connections   uint64
	Rejected      uint64
	Frames        uint64
	FramesDropped uint64
}

// peer is one attached sender.
type peer struct {
	connID string
	desc   device.Descriptor
	link   *link
	ka     *transport.KeepAlive
}

// feed is the delivery gate of one device id. It outlives connections so a
// started device keeps receiving frames after its sender reconnects. A sink
// that is a device.SequenceResetter is reset on every new connection.
type feed struct {
	mu   sync.Mutex
	sink device.FrameSink
}

// Listener accepts remote senders and exposes their devices as a
// device.Producer.
type Listener struct {
	config ListenerConfig
	ln     net.Listener

	mu     sync.Mutex
	peers  map[touch.DeviceID]*peer
	feeds  map[touch.DeviceID]*feed
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	connections   atomic.Uint64
	rejected      atomic.Uint64
	frames        atomic.Uint64
	framesDropped atomic.Uint64
}

// NewListener creates a listener. Call Start to accept connections.
func NewListener(config ListenerConfig) *Listener {
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener{
		config: config,
		peers:  make(map[touch.DeviceID]*peer),
		feeds:  make(map[touch.DeviceID]*feed),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start binds the address, starts accepting and, if configured, begins
// advertising.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrListenerClosed
	}
	if l.ln != nil {
		l.mu.Unlock()
		return ErrListenerStarted
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", l.config.Addr)
	if err != nil {
		l.mu.Unlock()
		return fmt.Errorf("listen %s: %w", l.config.Addr, err)
	}
	l.ln = ln
	l.mu.Unlock()

	if l.config.Advertiser != nil {
		if err := l.config.Advertiser.Advertise(ctx, l.listenerInfo()); err != nil {
			_ = ln.Close()
			return fmt.Errorf("advertise: %w", err)
		}
	}

	l.debugLog("listener started", "addr", ln.Addr().String())
	l.wg.Add(1)
	go l.acceptLoop(ln)
	return nil
}

// Addr returns the bound address, or nil before Start.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Close stops advertising, closes every connection and waits for all
// connection goroutines to exit.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	ln := l.ln
	links := make([]*link, 0, len(l.peers))
	for _, p := range l.peers {
		links = append(links, p.link)
	}
	l.mu.Unlock()

	if l.config.Advertiser != nil && ln != nil {
		_ = l.config.Advertiser.Stop(l.config.InstanceName)
	}
	for _, lk := range links {
		_ = lk.send(&Envelope{Type: MsgBye, Bye: &Bye{Reason: "listener closed"}})
	}
	l.cancel()
	var err error
	if ln != nil {
		err = ln.Close()
	}
	l.wg.Wait()
	return err
}

// Stats returns traffic counters.
func (l *Listener) Stats() ListenerStats {
	return ListenerStats{
		Connections:   l.connections.Load(),
		Rejected:      l.rejected.Load(),
		Frames:        l.frames.Load(),
		FramesDropped: l.framesDropped.Load(),
	}
}

// Devices returns the attached devices ordered by id.
func (l *Listener) Devices() []device.Descriptor {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]device.Descriptor, 0, len(l.peers))
	for _, p := range l.peers {
		out = append(out, p.desc)
	}
	slices.SortFunc(out, func(a, b device.Descriptor) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Available reports whether a sender for id is connected.
func (l *Listener) Available(id touch.DeviceID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.peers[id]
	return ok
}

// StartDevice routes frames of id to sink.
func (l *Listener) StartDevice(id touch.DeviceID, sink device.FrameSink) error {
	l.mu.Lock()
	if _, ok := l.peers[id]; !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", device.ErrDeviceUnavailable, id)
	}
	f := l.feedLocked(id)
	l.mu.Unlock()

	f.mu.Lock()
	f.sink = sink
	f.mu.Unlock()
	return nil
}

// StopDevice stops routing frames of id. A delivery in progress completes
// before StopDevice returns.
func (l *Listener) StopDevice(id touch.DeviceID) error {
	l.mu.Lock()
	f, ok := l.feeds[id]
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", device.ErrUnknownDevice, id)
	}

	f.mu.Lock()
	f.sink = nil
	f.mu.Unlock()
	return nil
}

func (l *Listener) feedLocked(id touch.DeviceID) *feed {
	f, ok := l.feeds[id]
	if !ok {
		f = &feed{}
		l.feeds[id] = f
	}
	return f
}

func (l *Listener) acceptLoop(ln net.Listener) {
	defer l.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if l.ctx.Err() == nil {
				l.debugLog("accept failed", "error", err)
			}
			return
		}
		l.connections.Add(1)
		l.wg.Add(1)
		go l.serve(conn)
	}
}

func (l *Listener) serve(conn net.Conn) {
	defer l.wg.Done()

	lk := newLink(conn, l.config.WriteTimeout)
	defer lk.close()
	stop := context.AfterFunc(l.ctx, lk.close)
	defer stop()

	p, err := l.handshake(lk)
	if err != nil {
		l.rejected.Add(1)
		l.debugLog("handshake failed", "remote", conn.RemoteAddr().String(), "error", err)
		return
	}
	defer l.detach(p)

	p.ka = transport.NewKeepAlive(l.config.KeepAlive, lk.sendPing, func() {
		l.debugLog("sender missed pongs", "device", p.desc.ID, "conn", p.connID)
		lk.close()
	})
	p.ka.Start(l.ctx)
	defer p.ka.Stop()

	for {
		env, err := lk.recv()
		if err != nil {
			if l.ctx.Err() == nil {
				l.debugLog("sender disconnected", "device", p.desc.ID, "conn", p.connID, "error", err)
			}
			return
		}
		switch env.Type {
		case MsgFrame:
			l.frames.Add(1)
			l.deliver(p.desc.ID, env.Frame)
		case MsgPing:
			if err := lk.sendPong(env.Ping.Seq); err != nil {
				return
			}
		case MsgPong:
			p.ka.PongReceived(env.Pong.Seq)
		case MsgBye:
			l.debugLog("sender said bye", "device", p.desc.ID, "conn", p.connID)
			return
		default:
			l.debugLog("unexpected message", "device", p.desc.ID, "type", env.Type.String())
		}
	}
}

// handshake reads Hello and registers the peer, answering Accept or Reject.
func (l *Listener) handshake(lk *link) (*peer, error) {
	env, err := lk.recvWithin(l.config.HandshakeTimeout)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, ErrHandshakeTimeout
		}
		return nil, err
	}
	if env.Type != MsgHello {
		return nil, fmt.Errorf("%w: %s before hello", ErrUnexpectedType, env.Type)
	}
	if env.Hello.Protocol != ProtocolVersion {
		_ = lk.send(&Envelope{Type: MsgReject, Reject: &Reject{Reason: "unsupported protocol"}})
		return nil, fmt.Errorf("%w: %d", ErrProtocolVersion, env.Hello.Protocol)
	}

	p := &peer{
		connID: uuid.NewString(),
		desc:   env.Hello.DeviceDescriptor(),
		link:   lk,
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrListenerClosed
	}
	if _, dup := l.peers[p.desc.ID]; dup {
		l.mu.Unlock()
		_ = lk.send(&Envelope{Type: MsgReject, Reject: &Reject{Reason: "device already connected"}})
		return nil, fmt.Errorf("%w: %s", ErrDuplicateDevice, p.desc.ID)
	}
	l.peers[p.desc.ID] = p
	f := l.feedLocked(p.desc.ID)
	l.mu.Unlock()

	// Every connection numbers its frames afresh.
	f.mu.Lock()
	if r, ok := f.sink.(device.SequenceResetter); ok {
		if err := r.ResetSequence(p.desc.ID); err != nil {
			l.debugLog("sequence reset failed", "device", p.desc.ID, "error", err)
		}
	}
	f.mu.Unlock()

	if err := lk.send(&Envelope{Type: MsgAccept, Accept: &Accept{
		ConnectionID: p.connID,
		SessionID:    l.config.SessionID,
	}}); err != nil {
		l.mu.Lock()
		delete(l.peers, p.desc.ID)
		l.mu.Unlock()
		return nil, err
	}

	l.debugLog("sender attached", "device", p.desc.ID, "conn", p.connID, "sender", env.Hello.Sender)
	l.changed(p.desc, true)
	return p, nil
}

func (l *Listener) detach(p *peer) {
	l.mu.Lock()
	if cur, ok := l.peers[p.desc.ID]; ok && cur == p {
		delete(l.peers, p.desc.ID)
	}
	l.mu.Unlock()

	l.debugLog("sender detached", "device", p.desc.ID, "conn", p.connID)
	l.changed(p.desc, false)
}

func (l *Listener) deliver(id touch.DeviceID, fr *Frame) {
	l.mu.Lock()
	f := l.feeds[id]
	l.mu.Unlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sink == nil {
		l.framesDropped.Add(1)
		return
	}
	if err := f.sink.DeliverRawFrame(id, fr.Number, fr.Timestamp, fr.Samples); err != nil {
		l.framesDropped.Add(1)
		if errors.Is(err, device.ErrNotRunning) || errors.Is(err, device.ErrUnknownDevice) {
			return
		}
		l.debugLog("frame rejected", "device", id, "frame", fr.Number, "error", err)
	}
}

func (l *Listener) changed(desc device.Descriptor, attached bool) {
	if l.config.Advertiser != nil && l.ctx.Err() == nil {
		if err := l.config.Advertiser.Update(l.listenerInfo()); err != nil {
			l.debugLog("advertiser update failed", "error", err)
		}
	}
	if l.config.OnDevicesChanged != nil {
		l.config.OnDevicesChanged(desc, attached)
	}
}

func (l *Listener) listenerInfo() *discovery.ListenerInfo {
	info := &discovery.ListenerInfo{
		InstanceName: l.config.InstanceName,
		SessionID:    l.config.SessionID,
		Protocol:     ProtocolVersion,
		Name:         l.config.DisplayName,
	}
	l.mu.Lock()
	info.DeviceCount = len(l.peers)
	if l.ln != nil {
		if tcp, ok := l.ln.Addr().(*net.TCPAddr); ok {
			info.Port = uint16(tcp.Port)
		}
	}
	l.mu.Unlock()
	return info
}

func (l *Listener) debugLog(msg string, args ...any) {
	if l.config.Logger != nil {
		l.config.Logger.Debug(msg, args...)
	}
}

var _ device.Producer = (*Listener)(nil)
