package producer

import (
	"errors"
	"fmt"
	"io"

	"github.com/mtsupport/mt-go/pkg/device"
	"github.com/mtsupport/mt-go/pkg/log"
	"github.com/mtsupport/mt-go/pkg/touch"
)

// ErrEmptyCapture is returned when a capture holds no devices.
var ErrEmptyCapture = errors.New("capture contains no devices")

// LoadCapture rebuilds a Script from the capture log at path.
func LoadCapture(path string) (Script, error) {
	return LoadCaptureFiltered(path, log.Filter{})
}

// LoadCaptureFiltered rebuilds a Script from the capture events matching
// filter. Device events provide descriptors and Frame events provide the raw
// frames; everything else is ignored. A device seen only through frames gets
// a descriptor carrying just its ID.
func LoadCaptureFiltered(path string, filter log.Filter) (Script, error) {
	r, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return Script{}, err
	}
	defer r.Close()
	return ScriptFromCapture(path, r)
}

// ScriptFromCapture reads the remaining events of r into a Script named name.
// A truncated trailing event ends the script without error.
func ScriptFromCapture(name string, r *log.Reader) (Script, error) {
	index := make(map[touch.DeviceID]int)
	script := Script{Name: name}

	deviceScript := func(id touch.DeviceID) *DeviceScript {
		i, ok := index[id]
		if !ok {
			i = len(script.Devices)
			index[id] = i
			script.Devices = append(script.Devices, DeviceScript{Descriptor: device.Descriptor{ID: id}})
		}
		return &script.Devices[i]
	}

	for ev, err := range r.Events() {
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return Script{}, fmt.Errorf("read capture %s: %w", name, err)
		}
		id := touch.DeviceID(ev.DeviceID)
		switch {
		case ev.Device != nil:
			ds := deviceScript(id)
			ds.Descriptor = device.DescriptorFromEvent(id, ev.Device)
		case ev.Frame != nil:
			ds := deviceScript(id)
			ds.Frames = append(ds.Frames, Frame{
				Number:    ev.Frame.Number,
				Timestamp: ev.Frame.Timestamp,
				Samples:   ev.Frame.Samples,
			})
		}
	}

	if len(script.Devices) == 0 {
		return Script{}, fmt.Errorf("%w: %s", ErrEmptyCapture, name)
	}
	return script, nil
}
