package producer

import (
	"github.com/mtsupport/mt-go/pkg/device"
	"github.com/mtsupport/mt-go/pkg/touch"
)

// Frame is one scripted raw frame.
type Frame struct {
	Number    int64
	Timestamp float64
	Samples   []touch.RawSample
}

// DeviceScript is a device and the frames it produces, in delivery order.
type DeviceScript struct {
	Descriptor device.Descriptor
	Frames     []Frame
}

// Script is a set of scripted devices.
type Script struct {
	Name    string
	Devices []DeviceScript
}

// Descriptors returns the descriptors of all scripted devices.
func (s Script) Descriptors() []device.Descriptor {
	out := make([]device.Descriptor, len(s.Devices))
	for i, d := range s.Devices {
		out[i] = d.Descriptor
	}
	return out
}

// FrameCount returns the total number of frames in the script.
func (s Script) FrameCount() int {
	n := 0
	for _, d := range s.Devices {
		n += len(d.Frames)
	}
	return n
}
