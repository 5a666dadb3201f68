package touch

import "fmt"

// DeviceID identifies a multitouch device.
type DeviceID uint64

// String returns the device ID in hex, as reported by the system.
func (id DeviceID) String() string {
	return fmt.Sprintf("0x%x", uint64(id))
}

// Frame is one timestamped batch of samples from a device.
type Frame struct {
	// DeviceID is the originating device.
	DeviceID DeviceID

	// Number is the device frame counter.
	Number int64

	// Timestamp is the device-relative frame time in seconds.
	Timestamp float64

	// Samples holds the contacts observed in this frame, in producer order.
	Samples []Sample
}

// Sample returns the sample for pathIndex, if present.
func (f Frame) Sample(pathIndex int32) (Sample, bool) {
	for _, s := range f.Samples {
		if s.PathIndex == pathIndex {
			return s, true
		}
	}
	return Sample{}, false
}

// TouchCount returns the number of samples in contact with the surface.
func (f Frame) TouchCount() int {
	n := 0
	for _, s := range f.Samples {
		if s.Stage.IsTouching() {
			n++
		}
	}
	return n
}

// PathEvent reports a stage transition of one path.
type PathEvent struct {
	// DeviceID is the originating device.
	DeviceID DeviceID

	// PathID is the path slot index.
	PathID int32

	// From is the stage in the previous frame.
	From Stage

	// To is the stage in the current frame.
	To Stage

	// Sample is the sample that carried the transition.
	Sample Sample
}

// String returns a compact description of the transition.
func (e PathEvent) String() string {
	return fmt.Sprintf("path %d: %s -> %s (frame %d)", e.PathID, e.From, e.To, e.Sample.FrameNumber)
}
