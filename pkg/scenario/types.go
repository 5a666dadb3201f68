package scenario

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mtsupport/mt-go/pkg/touch"
)

// DefaultInterval is the frame spacing in seconds when a device sets none.
const DefaultInterval = 0.008

// Scenario is the YAML document.
type Scenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Devices     []Device `yaml:"devices"`
}

// Range is a digitizer pressure scale.
type Range struct {
	Min   int32 `yaml:"min"`
	Max   int32 `yaml:"max"`
	Range int32 `yaml:"range"`
}

// Size is a width/height pair.
type Size struct {
	Width  int32 `yaml:"width"`
	Height int32 `yaml:"height"`
}

// Device describes one scripted device.
type Device struct {
	ID                    uint64  `yaml:"id"`
	Serial                string  `yaml:"serial,omitempty"`
	GUID                  string  `yaml:"guid,omitempty"`
	Family                int32   `yaml:"family,omitempty"`
	Version               int32   `yaml:"version,omitempty"`
	DriverType            int32   `yaml:"driver_type,omitempty"`
	Sensor                Size    `yaml:"sensor,omitempty"`
	Surface               Size    `yaml:"surface,omitempty"`
	Pressure              Range   `yaml:"pressure,omitempty"`
	BuiltIn               bool    `yaml:"built_in,omitempty"`
	SupportsForce         bool    `yaml:"supports_force,omitempty"`
	SupportsActuation     bool    `yaml:"supports_actuation,omitempty"`
	Opaque                bool    `yaml:"opaque,omitempty"`
	SupportsSilentClick   bool    `yaml:"silent_click,omitempty"`
	PowerControlSupported bool    `yaml:"power_control,omitempty"`
	MTHID                 bool    `yaml:"mthid,omitempty"`
	Interval              float64 `yaml:"interval,omitempty"`
	Frames                []Frame `yaml:"frames"`
}

// Frame is one scripted frame. Zero Frame and nil Timestamp continue from
// the previous frame.
type Frame struct {
	Frame     int64    `yaml:"frame,omitempty"`
	Timestamp *float64 `yaml:"timestamp,omitempty"`
	Repeat    int      `yaml:"repeat,omitempty"`
	Samples   []Sample `yaml:"samples"`
}

// Sample is one scripted contact.
type Sample struct {
	Path      int32      `yaml:"path"`
	Finger    int32      `yaml:"finger,omitempty"`
	Hand      *int32     `yaml:"hand,omitempty"`
	Stage     StageValue `yaml:"stage"`
	X         float32    `yaml:"x"`
	Y         float32    `yaml:"y"`
	VX        float32    `yaml:"vx,omitempty"`
	VY        float32    `yaml:"vy,omitempty"`
	AbsX      float32    `yaml:"abs_x,omitempty"`
	AbsY      float32    `yaml:"abs_y,omitempty"`
	AbsVX     float32    `yaml:"abs_vx,omitempty"`
	AbsVY     float32    `yaml:"abs_vy,omitempty"`
	Quality   float32    `yaml:"quality"`
	Pressure  float32    `yaml:"pressure,omitempty"`
	Angle     float32    `yaml:"angle,omitempty"`
	MajorAxis float32    `yaml:"major_axis,omitempty"`
	MinorAxis float32    `yaml:"minor_axis,omitempty"`
	Density   float32    `yaml:"density,omitempty"`
}

// StageValue is a stage given by name ("Touching") or raw number.
// Numbers outside the defined stages are kept so scenarios can produce
// malformed samples.
type StageValue int32

// UnmarshalYAML accepts a stage name or an integer.
func (s *StageValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: stage must be a name or number", node.Line)
	}
	if n, err := strconv.ParseInt(node.Value, 0, 32); err == nil {
		*s = StageValue(n)
		return nil
	}
	st, ok := touch.ParseStage(node.Value)
	if !ok {
		return fmt.Errorf("line %d: unknown stage %q", node.Line, node.Value)
	}
	*s = StageValue(st)
	return nil
}

// MarshalYAML writes defined stages by name.
func (s StageValue) MarshalYAML() (any, error) {
	if st := touch.Stage(s); s >= 0 && st.Valid() {
		return st.String(), nil
	}
	return int32(s), nil
}

// LoadError describes a scenario that could not be loaded.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.File == "" {
		return msg
	}
	return e.File + ": " + msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
