package device

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mtsupport/mt-go/pkg/log"
	"github.com/mtsupport/mt-go/pkg/touch"
)

// Dimensions is a width/height pair. Sensor sizes are in rows and columns,
// surface sizes in hundredths of a millimeter.
type Dimensions struct {
	Width  int32 `yaml:"width" json:"width"`
	Height int32 `yaml:"height" json:"height"`
}

// PressureRange is the digitizer pressure scale of a device.
type PressureRange struct {
	Min          int32 `yaml:"min" json:"min"`
	Max          int32 `yaml:"max" json:"max"`
	DynamicRange int32 `yaml:"dynamic_range" json:"dynamic_range"`
}

// Descriptor is the static description of a device, frozen at discovery.
type Descriptor struct {
	ID           touch.DeviceID
	SerialNumber string
	GUID         uuid.UUID
	FamilyID     int32
	Version      int32
	DriverType   int32
	SensorSize   Dimensions
	SurfaceSize  Dimensions
	Pressure     PressureRange

	BuiltIn               bool
	SupportsForce         bool
	SupportsActuation     bool
	OpaqueSurface         bool
	SupportsSilentClick   bool
	PowerControlSupported bool
	MTHID                 bool
}

// String returns a short human-readable description.
func (d Descriptor) String() string {
	kind := "external"
	if d.BuiltIn {
		kind = "built-in"
	}
	serial := d.SerialNumber
	if serial == "" {
		serial = "-"
	}
	return fmt.Sprintf("%s family=%d serial=%s %s %dx%d", d.ID, d.FamilyID, serial, kind, d.SurfaceSize.Width, d.SurfaceSize.Height)
}

// LogEvent returns the capture representation of d.
func (d Descriptor) LogEvent() *log.DeviceEvent {
	ev := &log.DeviceEvent{
		SerialNumber:          d.SerialNumber,
		FamilyID:              d.FamilyID,
		Version:               d.Version,
		DriverType:            d.DriverType,
		SensorRows:            d.SensorSize.Height,
		SensorCols:            d.SensorSize.Width,
		SurfaceWidth:          d.SurfaceSize.Width,
		SurfaceHeight:         d.SurfaceSize.Height,
		PressureMin:           d.Pressure.Min,
		PressureMax:           d.Pressure.Max,
		PressureRange:         d.Pressure.DynamicRange,
		BuiltIn:               d.BuiltIn,
		SupportsForce:         d.SupportsForce,
		SupportsActuation:     d.SupportsActuation,
		OpaqueSurface:         d.OpaqueSurface,
		SupportsSilentClick:   d.SupportsSilentClick,
		PowerControlSupported: d.PowerControlSupported,
		MTHID:                 d.MTHID,
	}
	if d.GUID != uuid.Nil {
		ev.GUID = d.GUID.String()
	}
	return ev
}

// DescriptorFromEvent rebuilds a Descriptor from its capture representation.
// An unparsable GUID is left zero.
func DescriptorFromEvent(id touch.DeviceID, ev *log.DeviceEvent) Descriptor {
	d := Descriptor{ID: id}
	if ev == nil {
		return d
	}
	d.SerialNumber = ev.SerialNumber
	if g, err := uuid.Parse(ev.GUID); err == nil {
		d.GUID = g
	}
	d.FamilyID = ev.FamilyID
	d.Version = ev.Version
	d.DriverType = ev.DriverType
	d.SensorSize = Dimensions{Width: ev.SensorCols, Height: ev.SensorRows}
	d.SurfaceSize = Dimensions{Width: ev.SurfaceWidth, Height: ev.SurfaceHeight}
	d.Pressure = PressureRange{Min: ev.PressureMin, Max: ev.PressureMax, DynamicRange: ev.PressureRange}
	d.BuiltIn = ev.BuiltIn
	d.SupportsForce = ev.SupportsForce
	d.SupportsActuation = ev.SupportsActuation
	d.OpaqueSurface = ev.OpaqueSurface
	d.SupportsSilentClick = ev.SupportsSilentClick
	d.PowerControlSupported = ev.PowerControlSupported
	d.MTHID = ev.MTHID
	return d
}
