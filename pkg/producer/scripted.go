package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mtsupport/mt-go/pkg/device"
	"github.com/mtsupport/mt-go/pkg/touch"
)

// ErrFeedRunning is returned when starting a device whose feed is active.
var ErrFeedRunning = errors.New("feed already running")

// Config configures a Scripted producer.
type Config struct {
	// Speed scales the pause between frames taken from their timestamps.
	// Zero delivers frames back to back.
	Speed float64

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Speed < 0 {
		return fmt.Errorf("speed must not be negative: %v", c.Speed)
	}
	return nil
}

type feed struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type scriptedDevice struct {
	script      DeviceScript
	cursor      int
	unavailable bool
	feed        *feed
	finished    chan struct{}
	finishOnce  sync.Once
}

// Scripted is a device.Producer that plays a Script. Each started device is
// fed by its own goroutine. Stopping and restarting a device resumes at the
// next unplayed frame.
type Scripted struct {
	config Config

	mu      sync.Mutex
	order   []touch.DeviceID
	devices map[touch.DeviceID]*scriptedDevice
}

// NewScripted creates a producer for script.
func NewScripted(script Script, cfg Config) *Scripted {
	p := &Scripted{
		config:  cfg,
		devices: make(map[touch.DeviceID]*scriptedDevice),
	}
	for _, ds := range script.Devices {
		id := ds.Descriptor.ID
		if _, dup := p.devices[id]; dup {
			continue
		}
		p.order = append(p.order, id)
		p.devices[id] = &scriptedDevice{script: ds, finished: make(chan struct{})}
	}
	return p
}

// Devices implements device.Producer.
func (p *Scripted) Devices() []device.Descriptor {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]device.Descriptor, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.devices[id].script.Descriptor)
	}
	return out
}

// Available implements device.Producer.
func (p *Scripted) Available(id touch.DeviceID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.devices[id]
	return ok && !d.unavailable
}

// StartDevice implements device.Producer.
func (p *Scripted) StartDevice(id touch.DeviceID, sink device.FrameSink) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	d, ok := p.devices[id]
	switch {
	case !ok:
		return fmt.Errorf("%w: %s", device.ErrUnknownDevice, id)
	case d.unavailable:
		return fmt.Errorf("%w: %s", device.ErrDeviceUnavailable, id)
	case d.feed != nil:
		return fmt.Errorf("%w: %s", ErrFeedRunning, id)
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &feed{cancel: cancel, done: make(chan struct{})}
	d.feed = f
	go p.run(ctx, id, d, f, sink)
	p.debugLog("feed started", "device", id, "from", d.cursor)
	return nil
}

// StopDevice implements device.Producer. It waits for the feed goroutine.
func (p *Scripted) StopDevice(id touch.DeviceID) error {
	p.mu.Lock()
	d, ok := p.devices[id]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", device.ErrUnknownDevice, id)
	}
	f := d.feed
	p.mu.Unlock()

	if f == nil {
		return nil
	}
	f.cancel()
	<-f.done
	return nil
}

// MarkUnavailable simulates unplugging the device. Its feed is cancelled
// without waiting, so it may be called from a subscriber.
func (p *Scripted) MarkUnavailable(id touch.DeviceID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	d, ok := p.devices[id]
	if !ok {
		return
	}
	d.unavailable = true
	if d.feed != nil {
		d.feed.cancel()
	}
	p.debugLog("device unplugged", "device", id)
}

// Done returns a channel that is closed once every frame of the device has
// been delivered. Unknown devices get a closed channel.
func (p *Scripted) Done(id touch.DeviceID) <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	if d, ok := p.devices[id]; ok {
		return d.finished
	}
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Wait blocks until every scripted device has finished or ctx is done.
func (p *Scripted) Wait(ctx context.Context) error {
	p.mu.Lock()
	var chans []<-chan struct{}
	for _, id := range p.order {
		chans = append(chans, p.devices[id].finished)
	}
	p.mu.Unlock()

	for _, ch := range chans {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *Scripted) run(ctx context.Context, id touch.DeviceID, d *scriptedDevice, f *feed, sink device.FrameSink) {
	defer func() {
		p.mu.Lock()
		if d.feed == f {
			d.feed = nil
		}
		p.mu.Unlock()
		close(f.done)
	}()

	var prevTS float64
	first := true
	for {
		p.mu.Lock()
		if d.cursor >= len(d.script.Frames) {
			p.mu.Unlock()
			d.finishOnce.Do(func() { close(d.finished) })
			p.debugLog("feed finished", "device", id)
			return
		}
		fr := d.script.Frames[d.cursor]
		p.mu.Unlock()

		if !first && p.config.Speed > 0 {
			if !sleep(ctx, pause(prevTS, fr.Timestamp, p.config.Speed)) {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
		first = false
		prevTS = fr.Timestamp

		err := sink.DeliverRawFrame(id, fr.Number, fr.Timestamp, fr.Samples)

		p.mu.Lock()
		d.cursor++
		p.mu.Unlock()

		if err != nil {
			p.debugLog("frame not delivered", "device", id, "frame", fr.Number, "error", err)
			if errors.Is(err, device.ErrNotRunning) || errors.Is(err, device.ErrUnknownDevice) {
				return
			}
		}
	}
}

func pause(prev, next, speed float64) time.Duration {
	dt := next - prev
	if dt <= 0 {
		return 0
	}
	return time.Duration(dt / speed * float64(time.Second))
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// debugLog logs a debug message if logging is enabled.
func (p *Scripted) debugLog(msg string, args ...any) {
	if p.config.Logger != nil {
		p.config.Logger.Debug(msg, args...)
	}
}

// Compile-time interface satisfaction check.
var _ device.Producer = (*Scripted)(nil)
