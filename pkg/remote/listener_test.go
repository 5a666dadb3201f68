package remote

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtsupport/mt-go/pkg/connection"
	"github.com/mtsupport/mt-go/pkg/device"
	"github.com/mtsupport/mt-go/pkg/discovery"
	"github.com/mtsupport/mt-go/pkg/subscription"
	"github.com/mtsupport/mt-go/pkg/touch"
	"github.com/mtsupport/mt-go/pkg/transport"
)

var remotePad = device.Descriptor{
	ID:           0x7001,
	SerialNumber: "REMOTE-1",
	FamilyID:     128,
	SurfaceSize:  device.Dimensions{Width: 16000, Height: 10000},
}

func startListener(t *testing.T, mutate func(*ListenerConfig)) *Listener {
	t.Helper()
	cfg := DefaultListenerConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.SessionID = "session-under-test"
	if mutate != nil {
		mutate(&cfg)
	}
	l := NewListener(cfg)
	require.NoError(t, l.Start(context.Background()))
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func connectSender(t *testing.T, l *Listener, desc device.Descriptor) *Sender {
	t.Helper()
	s, err := NewSender(SenderConfig{
		Addr:       l.Addr().String(),
		Descriptor: desc,
		Name:       t.Name(),
		Backoff:    connection.BackoffConfig{Initial: 5 * time.Millisecond, Max: 20 * time.Millisecond},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Connect(context.Background()))
	require.Eventually(t, func() bool { return l.Available(desc.ID) }, time.Second, time.Millisecond)
	return s
}

type frameLog struct {
	mu     sync.Mutex
	frames []touch.Frame
}

func (f *frameLog) HandleFrame(frame touch.Frame, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame)
	return nil
}

func (f *frameLog) numbers() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.frames))
	for i, fr := range f.frames {
		out[i] = fr.Number
	}
	return out
}

func touchSample(stage touch.Stage) []touch.RawSample {
	return []touch.RawSample{{
		PathIndex:  1,
		FingerID:   2,
		HandID:     1,
		Stage:      int32(stage),
		Normalized: touch.Vector{Position: touch.Point{X: 0.5, Y: 0.5}},
		Quality:    0.8,
	}}
}

func TestListenerDeliversWhileStarted(t *testing.T) {
	l := startListener(t, nil)
	s := connectSender(t, l, remotePad)

	assert.Equal(t, "session-under-test", s.SessionID())
	assert.NotEmpty(t, s.ConnectionID())
	assert.Equal(t, connection.StateConnected, s.State())
	assert.Equal(t, []device.Descriptor{remotePad}, l.Devices())

	m := device.NewManager(l, device.DefaultConfig())
	t.Cleanup(func() { _ = m.Close() })
	h, err := m.Open(remotePad)
	require.NoError(t, err)

	got := &frameLog{}
	_, err = h.RegisterFrame(got, nil)
	require.NoError(t, err)

	// Not started yet: the listener drops it.
	require.NoError(t, s.SendFrame(1, 0.000, touchSample(touch.StageStartInRange)))
	require.Eventually(t, func() bool { return l.Stats().FramesDropped == 1 }, time.Second, time.Millisecond)

	require.NoError(t, h.Start())
	require.NoError(t, s.SendFrame(2, 0.008, touchSample(touch.StageStartInRange)))
	require.NoError(t, s.SendFrame(3, 0.016, touchSample(touch.StageMakeTouch)))
	require.NoError(t, s.SendFrame(4, 0.024, touchSample(touch.StageTouching)))
	require.Eventually(t, func() bool { return len(got.numbers()) == 3 }, time.Second, time.Millisecond)
	assert.Equal(t, []int64{2, 3, 4}, got.numbers())

	require.NoError(t, h.Stop())
	require.NoError(t, s.SendFrame(5, 0.032, touchSample(touch.StageTouching)))
	require.Eventually(t, func() bool { return l.Stats().FramesDropped == 2 }, time.Second, time.Millisecond)
	assert.Len(t, got.numbers(), 3)

	st := l.Stats()
	assert.Equal(t, uint64(5), st.Frames)
	assert.Equal(t, uint64(1), st.Connections)
	assert.Equal(t, uint64(5), s.Stats().Sent)
}

func TestListenerRejectsDuplicateDevice(t *testing.T) {
	l := startListener(t, nil)
	connectSender(t, l, remotePad)

	dup, err := NewSender(SenderConfig{Addr: l.Addr().String(), Descriptor: remotePad, Backoff: connection.BackoffConfig{Initial: time.Hour}})
	require.NoError(t, err)
	defer dup.Close()

	err = dup.Connect(context.Background())
	assert.ErrorIs(t, err, ErrRejected)
	require.Eventually(t, func() bool { return l.Stats().Rejected == 1 }, time.Second, time.Millisecond)
	assert.Len(t, l.Devices(), 1)
}

func TestListenerSenderDisconnect(t *testing.T) {
	var mu sync.Mutex
	var changes []bool
	l := startListener(t, func(c *ListenerConfig) {
		c.OnDevicesChanged = func(_ device.Descriptor, attached bool) {
			mu.Lock()
			changes = append(changes, attached)
			mu.Unlock()
		}
	})
	s := connectSender(t, l, remotePad)

	require.NoError(t, s.Close())
	require.Eventually(t, func() bool { return !l.Available(remotePad.ID) }, time.Second, time.Millisecond)
	assert.Empty(t, l.Devices())
	assert.ErrorIs(t, l.StartDevice(remotePad.ID, nil), device.ErrDeviceUnavailable)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, changes)
}

func TestListenerStartedDeviceSurvivesReconnect(t *testing.T) {
	l := startListener(t, nil)
	s := connectSender(t, l, remotePad)

	m := device.NewManager(l, device.DefaultConfig())
	t.Cleanup(func() { _ = m.Close() })
	h, err := m.Open(remotePad)
	require.NoError(t, err)
	got := &frameLog{}
	_, err = h.RegisterFrame(got, nil)
	require.NoError(t, err)
	require.NoError(t, h.Start())

	require.NoError(t, s.SendFrame(1, 0, touchSample(touch.StageStartInRange)))
	require.Eventually(t, func() bool { return len(got.numbers()) == 1 }, time.Second, time.Millisecond)

	// Drop the link under the sender; it reconnects on its own.
	s.mu.Lock()
	lk := s.link
	s.mu.Unlock()
	lk.close()

	require.Eventually(t, func() bool {
		return s.State() == connection.StateConnected && s.Stats().Reconnects == 1 && l.Available(remotePad.ID)
	}, 2*time.Second, time.Millisecond)

	require.NoError(t, s.SendFrame(2, 0.008, touchSample(touch.StageMakeTouch)))
	require.Eventually(t, func() bool { return len(got.numbers()) == 2 }, time.Second, time.Millisecond)
}

func TestListenerReattachRestartsSequence(t *testing.T) {
	l := startListener(t, nil)
	a := connectSender(t, l, remotePad)

	m := device.NewManager(l, device.DefaultConfig())
	t.Cleanup(func() { _ = m.Close() })
	h, err := m.Open(remotePad)
	require.NoError(t, err)
	got := &frameLog{}
	_, err = h.RegisterFrame(got, nil)
	require.NoError(t, err)
	require.NoError(t, h.Start())

	send := func(s *Sender) {
		require.NoError(t, s.SendFrame(1, 0.000, touchSample(touch.StageStartInRange)))
		require.NoError(t, s.SendFrame(2, 0.008, touchSample(touch.StageMakeTouch)))
		require.NoError(t, s.SendFrame(3, 0.016, touchSample(touch.StageTouching)))
	}

	send(a)
	require.Eventually(t, func() bool { return len(got.numbers()) == 3 }, time.Second, time.Millisecond)
	require.NoError(t, a.Close())
	require.Eventually(t, func() bool { return !l.Available(remotePad.ID) }, time.Second, time.Millisecond)

	// A new sender for the same device starts counting at 1 again.
	b := connectSender(t, l, remotePad)
	send(b)
	require.Eventually(t, func() bool { return len(got.numbers()) == 6 }, time.Second, time.Millisecond)

	assert.Equal(t, []int64{1, 2, 3, 1, 2, 3}, got.numbers())
	assert.Zero(t, h.Stats().FramesRejected)
	assert.Zero(t, h.Stats().Anomalies)
	assert.Equal(t, device.StateRunning, h.State())
}

func TestSenderDropsWhileDisconnected(t *testing.T) {
	s, err := NewSender(SenderConfig{
		Addr:       "127.0.0.1:1",
		Descriptor: remotePad,
		Backoff:    connection.BackoffConfig{Initial: time.Hour},
	})
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.SendFrame(1, 0, nil), ErrNotConnected)
	assert.NoError(t, s.DeliverRawFrame(remotePad.ID, 2, 0, nil))
	assert.ErrorIs(t, s.DeliverRawFrame(0x9999, 3, 0, nil), device.ErrUnknownDevice)
	assert.Equal(t, uint64(2), s.Stats().Dropped)
}

func TestSenderConfigValidate(t *testing.T) {
	_, err := NewSender(SenderConfig{Descriptor: remotePad})
	assert.ErrorIs(t, err, device.ErrInvalidConfig)

	_, err = NewSender(SenderConfig{Addr: "127.0.0.1:7438"})
	assert.ErrorIs(t, err, device.ErrInvalidConfig)
}

func TestListenerHandshakeTimeout(t *testing.T) {
	l := startListener(t, func(c *ListenerConfig) { c.HandshakeTimeout = 20 * time.Millisecond })

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return l.Stats().Rejected == 1 }, time.Second, time.Millisecond)
	assert.Empty(t, l.Devices())
}

func TestListenerRejectsFrameBeforeHello(t *testing.T) {
	l := startListener(t, nil)

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	lk := newLink(conn, time.Second)
	require.NoError(t, lk.send(NewFrame(1, 0, nil)))
	require.Eventually(t, func() bool { return l.Stats().Rejected == 1 }, time.Second, time.Millisecond)
}

func TestListenerKeepAliveExpiry(t *testing.T) {
	l := startListener(t, func(c *ListenerConfig) {
		c.KeepAlive = transport.KeepAliveConfig{
			PingInterval:   10 * time.Millisecond,
			PongTimeout:    5 * time.Millisecond,
			MaxMissedPongs: 2,
		}
	})

	// A raw client that says hello and then never answers pings.
	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	lk := newLink(conn, time.Second)
	require.NoError(t, lk.send(NewHello(remotePad, "silent")))
	reply, err := lk.recv()
	require.NoError(t, err)
	require.Equal(t, MsgAccept, reply.Type)

	go func() {
		for {
			if _, err := lk.recv(); err != nil {
				return
			}
		}
	}()

	require.Eventually(t, func() bool { return !l.Available(remotePad.ID) }, 2*time.Second, 5*time.Millisecond)
}

func TestStopDeviceUnknown(t *testing.T) {
	l := NewListener(DefaultListenerConfig())
	assert.ErrorIs(t, l.StopDevice(0x1), device.ErrUnknownDevice)
	assert.Nil(t, l.Addr())
	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Start(context.Background()), ErrListenerClosed)
}

type recordingAdvertiser struct {
	mu      sync.Mutex
	started *discovery.ListenerInfo
	updates []int
	stopped []string
}

func (a *recordingAdvertiser) Advertise(_ context.Context, info *discovery.ListenerInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started = info
	return nil
}

func (a *recordingAdvertiser) Update(info *discovery.ListenerInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.updates = append(a.updates, info.DeviceCount)
	return nil
}

func (a *recordingAdvertiser) Stop(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = append(a.stopped, name)
	return nil
}

func (a *recordingAdvertiser) StopAll() {}

func (a *recordingAdvertiser) snapshot() (*discovery.ListenerInfo, []int, []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.started, append([]int(nil), a.updates...), append([]string(nil), a.stopped...)
}

func TestListenerAdvertises(t *testing.T) {
	adv := &recordingAdvertiser{}
	cfg := DefaultListenerConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.SessionID = "sess"
	cfg.Advertiser = adv
	cfg.InstanceName = "desk-monitor"
	l := NewListener(cfg)
	require.NoError(t, l.Start(context.Background()))

	s := connectSender(t, l, remotePad)
	require.NoError(t, s.Close())
	require.Eventually(t, func() bool {
		_, updates, _ := adv.snapshot()
		return len(updates) == 2
	}, time.Second, time.Millisecond)
	require.NoError(t, l.Close())

	started, updates, stopped := adv.snapshot()
	require.NotNil(t, started)
	assert.Equal(t, "desk-monitor", started.InstanceName)
	assert.Equal(t, "sess", started.SessionID)
	assert.Equal(t, ProtocolVersion, started.Protocol)
	assert.Equal(t, uint16(l.Addr().(*net.TCPAddr).Port), started.Port)
	assert.Equal(t, []int{1, 0}, updates)
	assert.Equal(t, []string{"desk-monitor"}, stopped)
}

var _ subscription.FrameHandler = (*frameLog)(nil)
