package tracker

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mtsupport/mt-go/pkg/touch"
)

// Tracker errors.
var (
	// ErrOutOfOrderFrame indicates a frame number not greater than the last accepted one.
	ErrOutOfOrderFrame = errors.New("out of order frame")

	// ErrProtocolViolation indicates a path that started in an unexpected stage.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrDuplicatePath indicates two samples with the same path index in one frame.
	ErrDuplicatePath = errors.New("duplicate path in frame")
)

// Path is the tracked lifetime of one contact.
type Path struct {
	// Index is the path slot index.
	Index int32

	// Stage is the stage in the most recent frame.
	Stage touch.Stage

	// PreviousStage is the stage in the frame before the most recent one.
	PreviousStage touch.Stage

	// Latest is the most recent sample.
	Latest touch.Sample

	// FirstFrame is the frame number the path was created in.
	FirstFrame int64

	// Violation is set when the path entered in a stage other than
	// StartInRange or HoverInRange.
	Violation bool
}

// Result is the outcome of ingesting one frame.
type Result struct {
	// Frame is the ingested frame with duplicate samples removed and
	// StageChanged set on every sample that caused an event.
	Frame touch.Frame

	// Events are the stage transitions, in sample order.
	Events []touch.PathEvent

	// Anomalies are non-fatal problems found in the frame.
	Anomalies []error

	// Removed lists the path indices dropped at the start of this frame.
	Removed []int32
}

// Tracker maintains the per-path state machine for one device.
// Ingest calls must be serialized by the caller; read accessors may be used
// concurrently.
type Tracker struct {
	mu sync.RWMutex

	device touch.DeviceID

	paths map[int32]*Path

	// terminal holds the paths that ended in the last accepted frame.
	terminal map[int32]struct{}

	lastFrame int64
	hasFrame  bool
}

// New creates a tracker for the given device.
func New(device touch.DeviceID) *Tracker {
	return &Tracker{
		device:   device,
		paths:    make(map[int32]*Path),
		terminal: make(map[int32]struct{}),
	}
}

// Ingest applies one frame and returns the resulting transitions.
// On ErrOutOfOrderFrame the tracker is unchanged and the Result is empty.
func (t *Tracker) Ingest(frame touch.Frame) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.hasFrame && frame.Number <= t.lastFrame {
		return Result{}, fmt.Errorf("%w: frame %d, last accepted %d", ErrOutOfOrderFrame, frame.Number, t.lastFrame)
	}

	res := Result{
		Frame: touch.Frame{
			DeviceID:  frame.DeviceID,
			Number:    frame.Number,
			Timestamp: frame.Timestamp,
		},
	}

	// Later samples win over earlier ones with the same path index.
	last := make(map[int32]int, len(frame.Samples))
	for i, s := range frame.Samples {
		last[s.PathIndex] = i
	}

	seen := make(map[int32]struct{}, len(last))
	samples := make([]touch.Sample, 0, len(last))

	for i, s := range frame.Samples {
		if last[s.PathIndex] != i {
			res.Anomalies = append(res.Anomalies, fmt.Errorf("%w: path %d in frame %d, earlier sample dropped",
				ErrDuplicatePath, s.PathIndex, frame.Number))
			continue
		}
		seen[s.PathIndex] = struct{}{}

		p, exists := t.paths[s.PathIndex]
		if !exists {
			p = &Path{
				Index:         s.PathIndex,
				Stage:         s.Stage,
				PreviousStage: touch.StageNotTracking,
				FirstFrame:    frame.Number,
			}
			if !s.Stage.IsEntry() {
				p.Violation = true
				res.Anomalies = append(res.Anomalies, fmt.Errorf("%w: path %d started in %s",
					ErrProtocolViolation, s.PathIndex, s.Stage))
			}
			t.paths[s.PathIndex] = p
		} else {
			prev := p.Stage
			p.PreviousStage = prev
			p.Stage = s.Stage
			if prev != s.Stage {
				s.StageChanged = true
				res.Events = append(res.Events, touch.PathEvent{
					DeviceID: frame.DeviceID,
					PathID:   s.PathIndex,
					From:     prev,
					To:       s.Stage,
					Sample:   s,
				})
			}
		}

		p.Latest = s
		samples = append(samples, s)
	}

	// Drop paths that ended last frame and were not renewed.
	for idx := range t.terminal {
		if _, renewed := seen[idx]; renewed {
			continue
		}
		delete(t.paths, idx)
		res.Removed = append(res.Removed, idx)
	}
	sort.Slice(res.Removed, func(i, j int) bool { return res.Removed[i] < res.Removed[j] })

	t.terminal = make(map[int32]struct{})
	for _, s := range samples {
		if s.Stage.IsTerminal() {
			t.terminal[s.PathIndex] = struct{}{}
		}
	}

	t.lastFrame = frame.Number
	t.hasFrame = true

	res.Frame.Samples = samples
	return res, nil
}

// Path returns a copy of the path with the given index.
func (t *Tracker) Path(index int32) (Path, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.paths[index]
	if !ok {
		return Path{}, false
	}
	return *p, true
}

// Paths returns a snapshot of all live paths ordered by index.
func (t *Tracker) Paths() []Path {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Path, 0, len(t.paths))
	for _, p := range t.paths {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Len returns the number of live paths.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.paths)
}

// LastFrame returns the last accepted frame number.
// The boolean is false if no frame has been accepted yet.
func (t *Tracker) LastFrame() (int64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastFrame, t.hasFrame
}

// Device returns the device this tracker belongs to.
func (t *Tracker) Device() touch.DeviceID {
	return t.device
}

// DropPaths forgets all live paths but keeps the frame ordering state.
// Used when a device resumes after being stopped.
func (t *Tracker) DropPaths() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paths = make(map[int32]*Path)
	t.terminal = make(map[int32]struct{})
}

// Reset forgets all state, including the last accepted frame number.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paths = make(map[int32]*Path)
	t.terminal = make(map[int32]struct{})
	t.lastFrame = 0
	t.hasFrame = false
}
