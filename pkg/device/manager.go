package device

import (
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mtsupport/mt-go/pkg/log"
	"github.com/mtsupport/mt-go/pkg/subscription"
	"github.com/mtsupport/mt-go/pkg/touch"
	"github.com/mtsupport/mt-go/pkg/tracker"
)

// Manager discovers devices through a Producer and owns their handles.
// It is the FrameSink passed to the producer.
type Manager struct {
	producer Producer
	config   Config
	session  string

	mu      sync.RWMutex
	handles map[touch.DeviceID]*Handle
	closed  bool
}

// NewManager creates a Manager over producer.
func NewManager(producer Producer, cfg Config) *Manager {
	if producer == nil {
		panic("device: nil producer")
	}
	if cfg.MaxSamplesPerFrame < 0 {
		cfg.MaxSamplesPerFrame = DefaultMaxSamplesPerFrame
	}
	session := strings.TrimSpace(cfg.SessionID)
	if session == "" {
		session = uuid.NewString()
	}
	return &Manager{
		producer: producer,
		config:   cfg,
		session:  session,
		handles:  make(map[touch.DeviceID]*Handle),
	}
}

// SessionID returns the identifier stamped on capture events.
func (m *Manager) SessionID() string {
	return m.session
}

// Enumerate returns the devices known to the producer. The sequence is lazy
// and can be ranged over repeatedly; each iteration asks the producer again.
func (m *Manager) Enumerate() iter.Seq[Descriptor] {
	return func(yield func(Descriptor) bool) {
		for _, d := range m.producer.Devices() {
			if !yield(d) {
				return
			}
		}
	}
}

// Available reports whether any multitouch device is present.
func (m *Manager) Available() bool {
	for d := range m.Enumerate() {
		if m.producer.Available(d.ID) {
			return true
		}
	}
	return false
}

func (m *Manager) lookup(id touch.DeviceID) (Descriptor, bool) {
	for d := range m.Enumerate() {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Open returns a handle for the device. Opening a device that already has a
// live handle returns that handle. The descriptor is re-read from the
// producer; only desc.ID is used.
func (m *Manager) Open(desc Descriptor) (*Handle, error) {
	current, ok := m.lookup(desc.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, desc.ID)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: manager closed", ErrReleased)
	}
	if h, ok := m.handles[current.ID]; ok && h.State() != StateReleased {
		m.mu.Unlock()
		return h, nil
	}
	if !m.producer.Available(current.ID) {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDeviceUnavailable, current.ID)
	}
	h := newHandle(m, current)
	m.handles[current.ID] = h
	m.mu.Unlock()

	m.debugLog("device opened", "device", current.ID, "serial", current.SerialNumber, "builtin", current.BuiltIn)
	m.capture(log.Event{
		DeviceID: uint64(current.ID),
		Category: log.CategoryDevice,
		Device:   current.LogEvent(),
	})
	m.capture(log.Event{
		DeviceID:    uint64(current.ID),
		Category:    log.CategoryState,
		StateChange: &log.StateChangeEvent{NewState: StateCreated.String(), Reason: "open"},
	})
	return h, nil
}

// OpenDefault opens the first built-in device, or the first device if none
// is built in.
func (m *Manager) OpenDefault() (*Handle, error) {
	var first *Descriptor
	for d := range m.Enumerate() {
		if d.BuiltIn {
			return m.Open(d)
		}
		if first == nil {
			first = &d
		}
	}
	if first == nil {
		return nil, ErrNoDevice
	}
	return m.Open(*first)
}

// OpenByID opens the device with the given id.
func (m *Manager) OpenByID(id touch.DeviceID) (*Handle, error) {
	return m.Open(Descriptor{ID: id})
}

// OpenByGUID opens the device whose descriptor carries guid.
func (m *Manager) OpenByGUID(guid uuid.UUID) (*Handle, error) {
	if guid == uuid.Nil {
		return nil, fmt.Errorf("%w: nil guid", ErrUnknownDevice)
	}
	for d := range m.Enumerate() {
		if d.GUID == guid {
			return m.Open(d)
		}
	}
	return nil, fmt.Errorf("%w: guid %s", ErrUnknownDevice, guid)
}

// ResetSequence implements SequenceResetter. The open handle of id forgets
// its tracked paths and last frame number, so numbering may restart at any
// value. Subscriptions and the handle state are kept.
func (m *Manager) ResetSequence(id touch.DeviceID) error {
	m.mu.RLock()
	h, ok := m.handles[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, id)
	}
	h.resetSequence("sequence reset")
	return nil
}

// Handle returns the live handle of the device, if open.
func (m *Manager) Handle(id touch.DeviceID) (*Handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handles[id]
	return h, ok
}

// Handles returns the live handles sorted by device ID.
func (m *Manager) Handles() []*Handle {
	m.mu.RLock()
	out := make([]*Handle, 0, len(m.handles))
	for _, h := range m.handles {
		out = append(out, h)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].desc.ID < out[j].desc.ID })
	return out
}

// DeliverRawFrame implements FrameSink. Malformed samples are reported and
// dropped; the rest of the frame is tracked and dispatched to frame
// subscribers, then each transition to path subscribers.
func (m *Manager) DeliverRawFrame(id touch.DeviceID, frameNumber int64, timestamp float64, samples []touch.RawSample) error {
	m.mu.RLock()
	h, ok := m.handles[id]
	m.mu.RUnlock()
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownDevice, id)
		m.debugLog("frame for unknown device", "device", id, "frame", frameNumber)
		return err
	}
	return h.deliver(frameNumber, timestamp, samples)
}

// Close releases every handle. The manager cannot open devices afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	var errs []error
	for _, h := range m.Handles() {
		if err := h.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) forget(h *Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handles[h.desc.ID] == h {
		delete(m.handles, h.desc.ID)
	}
}

// report routes a non-fatal problem to OnReport, the logger and the capture.
func (m *Manager) report(id touch.DeviceID, frameNumber int64, err error) {
	if m.config.OnReport != nil {
		m.config.OnReport(id, err)
	}
	m.debugLog("device report", "device", id, "frame", frameNumber, "error", err)
	m.capture(log.Event{
		DeviceID: uint64(id),
		Category: log.CategoryError,
		Error: &log.ErrorEventData{
			Kind:        errorKind(err),
			Message:     err.Error(),
			FrameNumber: frameNumber,
		},
	})
}

func errorKind(err error) log.ErrorKind {
	switch {
	case errors.Is(err, touch.ErrMalformedSample):
		return log.ErrorKindMalformedSample
	case errors.Is(err, tracker.ErrProtocolViolation):
		return log.ErrorKindProtocolViolation
	case errors.Is(err, tracker.ErrDuplicatePath):
		return log.ErrorKindDuplicatePath
	case errors.Is(err, tracker.ErrOutOfOrderFrame):
		return log.ErrorKindOutOfOrderFrame
	case errors.Is(err, subscription.ErrSubscriberFailure):
		return log.ErrorKindSubscriberFailure
	default:
		return log.ErrorKindOther
	}
}

func (m *Manager) capture(ev log.Event) {
	if m.config.CaptureLogger == nil {
		return
	}
	ev.Timestamp = time.Now()
	ev.SessionID = m.session
	m.config.CaptureLogger.Log(ev)
}

// debugLog logs a debug message if logging is enabled.
func (m *Manager) debugLog(msg string, args ...any) {
	if m.config.Logger != nil {
		m.config.Logger.Debug(msg, args...)
	}
}

// Compile-time interface satisfaction checks.
var (
	_ FrameSink        = (*Manager)(nil)
	_ SequenceResetter = (*Manager)(nil)
)
