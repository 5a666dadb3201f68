package device

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/mtsupport/mt-go/pkg/log"
	"github.com/mtsupport/mt-go/pkg/subscription"
	"github.com/mtsupport/mt-go/pkg/touch"
	"github.com/mtsupport/mt-go/pkg/tracker"
)

// Handle is an open device. Create handles with Manager.Open.
type Handle struct {
	manager  *Manager
	desc     Descriptor
	tracker  *tracker.Tracker
	registry *subscription.Registry

	// lifecycleMu serializes Start, Stop and Release.
	lifecycleMu sync.Mutex
	state       atomic.Uint32

	// dispatchMu serializes ingest and dispatch of frames.
	dispatchMu sync.Mutex

	forceResponse atomic.Bool
	powered       atomic.Bool

	framesAccepted     atomic.Uint64
	framesRejected     atomic.Uint64
	samplesDiscarded   atomic.Uint64
	pathEvents         atomic.Uint64
	anomalies          atomic.Uint64
	subscriberFailures atomic.Uint64
}

func newHandle(m *Manager, desc Descriptor) *Handle {
	h := &Handle{
		manager:  m,
		desc:     desc,
		tracker:  tracker.New(desc.ID),
		registry: subscription.NewRegistry(),
	}
	h.registry.SetLogger(m.config.Logger)
	h.forceResponse.Store(desc.SupportsForce)
	h.powered.Store(true)
	return h
}

// ID returns the device ID.
func (h *Handle) ID() touch.DeviceID {
	return h.desc.ID
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	return State(h.state.Load())
}

// IsRunning reports whether frames are being delivered.
func (h *Handle) IsRunning() bool {
	return h.State() == StateRunning
}

// IsAlive reports whether the handle is usable and the producer still has
// the device.
func (h *Handle) IsAlive() bool {
	return h.State() != StateReleased && h.manager.producer.Available(h.desc.ID)
}

// Start begins frame delivery. A stopped handle can be started again; paths
// left over from the previous run are dropped, the frame counter is kept.
func (h *Handle) Start() error {
	h.lifecycleMu.Lock()
	defer h.lifecycleMu.Unlock()

	prev := h.State()
	switch prev {
	case StateReleased:
		return fmt.Errorf("%w: %s", ErrReleased, h.desc.ID)
	case StateRunning:
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, h.desc.ID)
	}

	if !h.manager.producer.Available(h.desc.ID) {
		return fmt.Errorf("%w: %s", ErrDeviceUnavailable, h.desc.ID)
	}

	if prev == StateStopped {
		h.dispatchMu.Lock()
		h.tracker.DropPaths()
		h.dispatchMu.Unlock()
	}

	// The producer may deliver before StartDevice returns.
	h.setState(StateRunning, "start")
	if err := h.manager.producer.StartDevice(h.desc.ID, h.manager); err != nil {
		h.setState(prev, "start failed")
		h.waitDispatch()
		return fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, h.desc.ID, err)
	}
	return nil
}

// Stop pauses frame delivery. It returns after any in-flight dispatch for
// this handle has finished. Stopping a handle that is not running is a no-op.
// Calling Stop from a subscriber of the same handle deadlocks.
func (h *Handle) Stop() error {
	h.lifecycleMu.Lock()
	defer h.lifecycleMu.Unlock()

	if h.State() != StateRunning {
		return nil
	}
	h.setState(StateStopped, "stop")
	h.stopFeed()
	h.waitDispatch()
	return nil
}

// Release stops the device, drops all tracked paths and removes every
// subscription. The handle is unusable afterwards. Release is idempotent.
// Like Stop, it must not be called from a subscriber of the same handle.
func (h *Handle) Release() error {
	h.lifecycleMu.Lock()
	defer h.lifecycleMu.Unlock()

	prev := h.State()
	if prev == StateReleased {
		return nil
	}
	h.setState(StateReleased, "release")
	if prev == StateRunning {
		h.stopFeed()
	}

	h.dispatchMu.Lock()
	h.tracker.Reset()
	removed := h.registry.Clear()
	h.dispatchMu.Unlock()

	h.manager.forget(h)
	h.manager.debugLog("handle released", "device", h.desc.ID, "subscriptions", removed)
	return nil
}

func (h *Handle) stopFeed() {
	if err := h.manager.producer.StopDevice(h.desc.ID); err != nil {
		h.manager.report(h.desc.ID, 0, fmt.Errorf("stop feed: %w", err))
	}
}

// waitDispatch returns once no dispatch holds dispatchMu. Callers change the
// state first, so later deliveries see it and bail out.
func (h *Handle) waitDispatch() {
	h.dispatchMu.Lock()
	h.dispatchMu.Unlock()
}

func (h *Handle) setState(s State, reason string) {
	old := State(h.state.Swap(uint32(s)))
	if old == s {
		return
	}
	h.manager.debugLog("handle state changed", "device", h.desc.ID, "from", old.String(), "to", s.String())
	h.manager.capture(log.Event{
		DeviceID: uint64(h.desc.ID),
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: old.String(),
			NewState: s.String(),
			Reason:   reason,
		},
	})
}

// deliver validates, ingests and dispatches one frame.
func (h *Handle) deliver(frameNumber int64, timestamp float64, raws []touch.RawSample) error {
	h.dispatchMu.Lock()
	defer h.dispatchMu.Unlock()

	if st := h.State(); st != StateRunning {
		h.framesRejected.Add(1)
		return fmt.Errorf("%w: %s is %s", ErrNotRunning, h.desc.ID, st)
	}
	if !h.PowerEnabled() {
		h.framesRejected.Add(1)
		return fmt.Errorf("%w: %s is powered off", ErrNotRunning, h.desc.ID)
	}

	m := h.manager
	id := h.desc.ID

	// Rejected frames leave no trace beyond the report.
	if last, ok := h.tracker.LastFrame(); ok && frameNumber <= last {
		h.framesRejected.Add(1)
		err := fmt.Errorf("%w: frame %d, last accepted %d", tracker.ErrOutOfOrderFrame, frameNumber, last)
		m.report(id, frameNumber, err)
		return err
	}

	m.capture(log.Event{
		DeviceID: uint64(id),
		Category: log.CategoryFrame,
		Frame:    &log.FrameEvent{Number: frameNumber, Timestamp: timestamp, Samples: raws},
	})

	limit := m.config.MaxSamplesPerFrame
	samples := make([]touch.Sample, 0, len(raws))
	for i, raw := range raws {
		if limit > 0 && i >= limit {
			h.samplesDiscarded.Add(uint64(len(raws) - i))
			m.report(id, frameNumber, fmt.Errorf("%w: %d samples exceed limit %d", touch.ErrMalformedSample, len(raws), limit))
			break
		}
		s, err := touch.NewSample(raw, frameNumber, timestamp)
		if err != nil {
			h.samplesDiscarded.Add(1)
			m.report(id, frameNumber, err)
			continue
		}
		samples = append(samples, s)
	}

	res, err := h.tracker.Ingest(touch.Frame{
		DeviceID:  id,
		Number:    frameNumber,
		Timestamp: timestamp,
		Samples:   samples,
	})
	if err != nil {
		h.framesRejected.Add(1)
		m.report(id, frameNumber, err)
		return err
	}
	h.framesAccepted.Add(1)

	for _, a := range res.Anomalies {
		h.anomalies.Add(1)
		m.report(id, frameNumber, a)
	}

	failures := h.registry.DispatchFrame(res.Frame)
	for _, ev := range res.Events {
		h.pathEvents.Add(1)
		m.capture(log.Event{
			DeviceID: uint64(id),
			Category: log.CategoryPath,
			Path: &log.PathEventData{
				FrameNumber: frameNumber,
				PathID:      ev.PathID,
				From:        ev.From,
				To:          ev.To,
				FingerID:    ev.Sample.FingerID,
				X:           ev.Sample.Normalized.Position.X,
				Y:           ev.Sample.Normalized.Position.Y,
			},
		})
		failures = append(failures, h.registry.DispatchPath(ev)...)
	}

	for _, f := range failures {
		h.subscriberFailures.Add(1)
		m.report(id, frameNumber, f)
	}
	return nil
}

// Descriptor returns the frozen device description.
func (h *Handle) Descriptor() Descriptor {
	return h.desc
}

// BuiltIn reports whether the device is the internal trackpad.
func (h *Handle) BuiltIn() bool { return h.desc.BuiltIn }

// SupportsForce reports whether the device measures pressure.
func (h *Handle) SupportsForce() bool { return h.desc.SupportsForce }

// SupportsActuation reports whether the device has a haptic actuator.
func (h *Handle) SupportsActuation() bool { return h.desc.SupportsActuation }

// OpaqueSurface reports whether the surface is a trackpad rather than a screen.
func (h *Handle) OpaqueSurface() bool { return h.desc.OpaqueSurface }

// SerialNumber returns the serial number, which may be empty.
func (h *Handle) SerialNumber() string { return h.desc.SerialNumber }

// SensorSize returns the sensor grid in rows and columns.
func (h *Handle) SensorSize() Dimensions { return h.desc.SensorSize }

// SurfaceSize returns the surface size in hundredths of a millimeter.
func (h *Handle) SurfaceSize() Dimensions { return h.desc.SurfaceSize }

// GUID returns the device GUID, or uuid.Nil if it has none.
func (h *Handle) GUID() uuid.UUID { return h.desc.GUID }

// SupportsSilentClick reports silent click support.
func (h *Handle) SupportsSilentClick() bool { return h.desc.SupportsSilentClick }

// PowerControlSupported reports whether the device can be powered off.
func (h *Handle) PowerControlSupported() bool { return h.desc.PowerControlSupported }

// IsMTHID reports whether the device speaks the multitouch HID protocol.
func (h *Handle) IsMTHID() bool { return h.desc.MTHID }

// MinDigitizerPressure returns the lowest raw pressure value.
func (h *Handle) MinDigitizerPressure() int32 { return h.desc.Pressure.Min }

// MaxDigitizerPressure returns the highest raw pressure value.
func (h *Handle) MaxDigitizerPressure() int32 { return h.desc.Pressure.Max }

// DigitizerPressureDynamicRange returns the pressure dynamic range.
func (h *Handle) DigitizerPressureDynamicRange() int32 { return h.desc.Pressure.DynamicRange }

// SystemForceResponseEnabled reports whether the system force click response
// is on. Devices without force support always report false.
func (h *Handle) SystemForceResponseEnabled() bool {
	return h.desc.SupportsForce && h.forceResponse.Load()
}

// SetSystemForceResponseEnabled toggles the system force click response.
func (h *Handle) SetSystemForceResponseEnabled(enabled bool) error {
	if h.State() == StateReleased {
		return fmt.Errorf("%w: %s", ErrReleased, h.desc.ID)
	}
	if !h.desc.SupportsForce {
		return fmt.Errorf("%w: %s: force response", ErrNotSupported, h.desc.ID)
	}
	h.forceResponse.Store(enabled)
	return nil
}

// PowerEnabled reports whether the device is powered. Devices without power
// control are always on.
func (h *Handle) PowerEnabled() bool {
	return !h.desc.PowerControlSupported || h.powered.Load()
}

// SetPowerEnabled powers the device on or off.
func (h *Handle) SetPowerEnabled(enabled bool) error {
	if h.State() == StateReleased {
		return fmt.Errorf("%w: %s", ErrReleased, h.desc.ID)
	}
	if !h.desc.PowerControlSupported {
		return fmt.Errorf("%w: %s: power control", ErrNotSupported, h.desc.ID)
	}
	h.powered.Store(enabled)
	h.manager.debugLog("device power changed", "device", h.desc.ID, "enabled", enabled)
	return nil
}

// DriverIsReady reports whether the producer currently serves the device,
// regardless of the handle state.
func (h *Handle) DriverIsReady() bool {
	return h.manager.producer.Available(h.desc.ID)
}

// resetSequence starts a new frame sequence: tracked paths and the last
// accepted frame number are forgotten.
func (h *Handle) resetSequence(reason string) {
	h.dispatchMu.Lock()
	h.tracker.Reset()
	h.dispatchMu.Unlock()

	h.manager.debugLog("frame sequence reset", "device", h.desc.ID, "reason", reason)
	st := h.State().String()
	h.manager.capture(log.Event{
		DeviceID:    uint64(h.desc.ID),
		Category:    log.CategoryState,
		StateChange: &log.StateChangeEvent{OldState: st, NewState: st, Reason: reason},
	})
}

// Stats returns a snapshot of the delivery counters.
func (h *Handle) Stats() Stats {
	return Stats{
		FramesAccepted:     h.framesAccepted.Load(),
		FramesRejected:     h.framesRejected.Load(),
		SamplesDiscarded:   h.samplesDiscarded.Load(),
		PathEvents:         h.pathEvents.Load(),
		Anomalies:          h.anomalies.Load(),
		SubscriberFailures: h.subscriberFailures.Load(),
	}
}

// Paths returns a snapshot of the tracked paths sorted by index.
func (h *Handle) Paths() []tracker.Path {
	return h.tracker.Paths()
}

// LastFrame returns the number of the last accepted frame.
func (h *Handle) LastFrame() (int64, bool) {
	return h.tracker.LastFrame()
}

// RegisterFrame subscribes h to every frame of the device. Keep the ID to
// remove a FrameHandlerFunc; UnregisterFrame cannot match func values.
func (h *Handle) RegisterFrame(fh subscription.FrameHandler, refcon any) (subscription.ID, error) {
	if h.State() == StateReleased {
		return 0, fmt.Errorf("%w: %s", ErrReleased, h.desc.ID)
	}
	return h.registry.RegisterFrame(fh, refcon)
}

// RegisterPath subscribes ph to every path stage transition of the device.
// PathHandlerFunc subscriptions are removed by ID only.
func (h *Handle) RegisterPath(ph subscription.PathHandler, refcon any) (subscription.ID, error) {
	if h.State() == StateReleased {
		return 0, fmt.Errorf("%w: %s", ErrReleased, h.desc.ID)
	}
	return h.registry.RegisterPath(ph, refcon)
}

// Unregister removes the subscription with the given ID. It blocks while
// that subscription is being invoked.
func (h *Handle) Unregister(id subscription.ID) bool {
	return h.registry.Unregister(id)
}

// UnregisterFrame removes the oldest frame subscription of fh with refcon.
func (h *Handle) UnregisterFrame(fh subscription.FrameHandler, refcon any) bool {
	return h.registry.UnregisterFrame(fh, refcon)
}

// UnregisterPath removes the oldest path subscription of ph with refcon.
func (h *Handle) UnregisterPath(ph subscription.PathHandler, refcon any) bool {
	return h.registry.UnregisterPath(ph, refcon)
}

// Subscriptions returns the handle's registry.
func (h *Handle) Subscriptions() *subscription.Registry {
	return h.registry
}
