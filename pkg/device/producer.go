package device

import "github.com/mtsupport/mt-go/pkg/touch"

// FrameSink receives raw frames from a producer.
// DeliverRawFrame may be called from any goroutine.
type FrameSink interface {
	DeliverRawFrame(id touch.DeviceID, frameNumber int64, timestamp float64, samples []touch.RawSample) error
}

// SequenceResetter is implemented by sinks that can start a device's frame
// numbering over. Producers call ResetSequence when the frames of a device
// restart, for example after a remote sender attaches again.
type SequenceResetter interface {
	ResetSequence(id touch.DeviceID) error
}

// Producer is the external source of devices and frames.
type Producer interface {
	// Devices returns the devices currently known to the producer.
	Devices() []Descriptor

	// Available reports whether the device is still attached.
	Available(id touch.DeviceID) bool

	// StartDevice begins feeding frames of the device to sink.
	StartDevice(id touch.DeviceID, sink FrameSink) error

	// StopDevice stops the feed. Once it returns, no further frames of the
	// device are delivered.
	StopDevice(id touch.DeviceID) error
}
