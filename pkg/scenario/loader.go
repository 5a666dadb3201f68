package scenario

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mtsupport/mt-go/pkg/device"
	"github.com/mtsupport/mt-go/pkg/producer"
	"github.com/mtsupport/mt-go/pkg/touch"
)

// Parse parses a scenario from YAML bytes.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}
	if err := sc.validate(); err != nil {
		return nil, &LoadError{Message: "invalid scenario", Cause: err}
	}
	return &sc, nil
}

// Load reads and parses the scenario file at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}
	sc, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
		}
		return nil, err
	}
	if sc.Name == "" {
		sc.Name = path
	}
	return sc, nil
}

// LoadScript loads the scenario at path and builds its Script.
func LoadScript(path string) (producer.Script, error) {
	sc, err := Load(path)
	if err != nil {
		return producer.Script{}, err
	}
	return sc.Script(), nil
}

func (sc *Scenario) validate() error {
	if len(sc.Devices) == 0 {
		return errors.New("at least one device is required")
	}
	seen := make(map[uint64]bool)
	for i, d := range sc.Devices {
		if d.ID == 0 {
			return fmt.Errorf("device %d: id is required", i)
		}
		if seen[d.ID] {
			return fmt.Errorf("device %d: duplicate id 0x%x", i, d.ID)
		}
		seen[d.ID] = true
		if d.GUID != "" {
			if _, err := uuid.Parse(d.GUID); err != nil {
				return fmt.Errorf("device 0x%x: guid: %w", d.ID, err)
			}
		}
		if d.Interval < 0 {
			return fmt.Errorf("device 0x%x: interval must not be negative", d.ID)
		}
		var last int64
		for j, f := range d.Frames {
			if f.Repeat < 0 {
				return fmt.Errorf("device 0x%x frame %d: repeat must not be negative", d.ID, j)
			}
			if f.Frame != 0 && f.Frame <= last {
				return fmt.Errorf("device 0x%x frame %d: frame number %d does not increase", d.ID, j, f.Frame)
			}
			if f.Frame != 0 {
				last = f.Frame + int64(max(f.Repeat, 1)) - 1
			} else {
				last += int64(max(f.Repeat, 1))
			}
		}
	}
	return nil
}

// Script builds the producer script. Omitted frame numbers and timestamps
// continue from the previous frame; repeated frames advance both.
func (sc *Scenario) Script() producer.Script {
	script := producer.Script{Name: sc.Name}
	for _, d := range sc.Devices {
		script.Devices = append(script.Devices, producer.DeviceScript{
			Descriptor: d.descriptor(),
			Frames:     d.frames(),
		})
	}
	return script
}

func (d Device) descriptor() device.Descriptor {
	desc := device.Descriptor{
		ID:                    touch.DeviceID(d.ID),
		SerialNumber:          d.Serial,
		FamilyID:              d.Family,
		Version:               d.Version,
		DriverType:            d.DriverType,
		SensorSize:            device.Dimensions{Width: d.Sensor.Width, Height: d.Sensor.Height},
		SurfaceSize:           device.Dimensions{Width: d.Surface.Width, Height: d.Surface.Height},
		Pressure:              device.PressureRange{Min: d.Pressure.Min, Max: d.Pressure.Max, DynamicRange: d.Pressure.Range},
		BuiltIn:               d.BuiltIn,
		SupportsForce:         d.SupportsForce,
		SupportsActuation:     d.SupportsActuation,
		OpaqueSurface:         d.Opaque,
		SupportsSilentClick:   d.SupportsSilentClick,
		PowerControlSupported: d.PowerControlSupported,
		MTHID:                 d.MTHID,
	}
	if g, err := uuid.Parse(d.GUID); err == nil {
		desc.GUID = g
	}
	return desc
}

func (d Device) frames() []producer.Frame {
	interval := d.Interval
	if interval == 0 {
		interval = DefaultInterval
	}

	var out []producer.Frame
	var number int64
	var ts float64
	first := true
	for _, f := range d.Frames {
		if f.Frame != 0 {
			number = f.Frame
		} else {
			number++
		}
		switch {
		case f.Timestamp != nil:
			ts = *f.Timestamp
		case !first:
			ts += interval
		}
		first = false

		samples := make([]touch.RawSample, len(f.Samples))
		for i, s := range f.Samples {
			samples[i] = s.raw()
		}
		out = append(out, producer.Frame{Number: number, Timestamp: ts, Samples: samples})
		for r := 1; r < f.Repeat; r++ {
			number++
			ts += interval
			out = append(out, producer.Frame{Number: number, Timestamp: ts, Samples: samples})
		}
	}
	return out
}

func (s Sample) raw() touch.RawSample {
	hand := int32(1)
	if s.Hand != nil {
		hand = *s.Hand
	}
	return touch.RawSample{
		PathIndex: s.Path,
		FingerID:  s.Finger,
		HandID:    hand,
		Stage:     int32(s.Stage),
		Normalized: touch.Vector{
			Position: touch.Point{X: s.X, Y: s.Y},
			Velocity: touch.Point{X: s.VX, Y: s.VY},
		},
		Absolute: touch.Vector{
			Position: touch.Point{X: s.AbsX, Y: s.AbsY},
			Velocity: touch.Point{X: s.AbsVX, Y: s.AbsVY},
		},
		Quality:   s.Quality,
		Pressure:  s.Pressure,
		Angle:     s.Angle,
		MajorAxis: s.MajorAxis,
		MinorAxis: s.MinorAxis,
		Density:   s.Density,
	}
}
