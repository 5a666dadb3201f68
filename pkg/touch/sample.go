package touch

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedSample indicates a raw sample with out-of-range or invalid fields.
var ErrMalformedSample = errors.New("malformed sample")

// Quality quantization.
const (
	// QualityStep is the quantization step of the quality proxy.
	QualityStep = 1.0 / 8

	// QualityTolerance is the accepted distance from a multiple of QualityStep.
	QualityTolerance = 1e-4
)

// Point is a 2D coordinate.
type Point struct {
	X float32 `cbor:"1,keyasint" json:"x"`
	Y float32 `cbor:"2,keyasint" json:"y"`
}

// Vector pairs a position with its velocity in the same unit space.
type Vector struct {
	Position Point `cbor:"1,keyasint" json:"position"`
	Velocity Point `cbor:"2,keyasint" json:"velocity"`
}

// RawSample is one contact record as handed over by a producer.
// It is not validated; use NewSample to turn it into a Sample.
type RawSample struct {
	PathIndex  int32   `cbor:"1,keyasint" json:"path_index"`
	FingerID   int32   `cbor:"2,keyasint" json:"finger_id"`
	HandID     int32   `cbor:"3,keyasint" json:"hand_id"`
	Stage      int32   `cbor:"4,keyasint" json:"stage"`
	Normalized Vector  `cbor:"5,keyasint" json:"normalized"`
	Quality    float32 `cbor:"6,keyasint" json:"quality"`
	Pressure   float32 `cbor:"7,keyasint" json:"pressure"`
	Angle      float32 `cbor:"8,keyasint" json:"angle"`
	MajorAxis  float32 `cbor:"9,keyasint" json:"major_axis"`
	MinorAxis  float32 `cbor:"10,keyasint" json:"minor_axis"`
	Absolute   Vector  `cbor:"11,keyasint" json:"absolute"`
	Density    float32 `cbor:"12,keyasint" json:"density"`
}

// Sample is the validated state of one contact in one frame.
// Samples are values; a new one is produced every frame a path is observed.
type Sample struct {
	// PathIndex is the stable slot index of the path. It is not an identity.
	PathIndex int32

	// FingerID is the logical finger identity; it may be reused after a path ends.
	FingerID int32

	// HandID identifies the hand; observed hardware always reports 1.
	HandID int32

	// Stage is the path stage in this frame.
	Stage Stage

	// StageChanged is set by the tracker when Stage differs from the previous frame.
	StageChanged bool

	// Normalized is the position and velocity in the unit square.
	Normalized Vector

	// Absolute is the position and velocity in millimeters.
	Absolute Vector

	// Angle is the ellipse orientation in radians.
	Angle float32

	// MajorAxis and MinorAxis are the contact ellipse axes.
	MajorAxis float32
	MinorAxis float32

	// Pressure is the zPressure proxy. Non-force surfaces report 0.
	Pressure float32

	// Quality is the zTotal proxy, always a multiple of 1/8 in [0,1].
	Quality float32

	// Density is the zDensity proxy.
	Density float32

	// FrameNumber is the frame this sample belongs to.
	FrameNumber int64

	// Timestamp is the device-relative frame time in seconds.
	Timestamp float64
}

// NewSample validates raw and returns the corresponding Sample.
// The error wraps ErrMalformedSample.
func NewSample(raw RawSample, frameNumber int64, timestamp float64) (Sample, error) {
	if raw.Stage < 0 || int(raw.Stage) >= StageCount {
		return Sample{}, fmt.Errorf("%w: path %d: stage %d out of range", ErrMalformedSample, raw.PathIndex, raw.Stage)
	}
	stage := Stage(raw.Stage)

	quality, ok := QuantizeQuality(raw.Quality)
	if !ok {
		return Sample{}, fmt.Errorf("%w: path %d: quality %v is not a multiple of 1/8 in [0,1]", ErrMalformedSample, raw.PathIndex, raw.Quality)
	}

	if name, bad := firstNonFinite(raw); bad {
		return Sample{}, fmt.Errorf("%w: path %d: %s is not finite", ErrMalformedSample, raw.PathIndex, name)
	}

	return Sample{
		PathIndex:   raw.PathIndex,
		FingerID:    raw.FingerID,
		HandID:      raw.HandID,
		Stage:       stage,
		Normalized:  raw.Normalized,
		Absolute:    raw.Absolute,
		Angle:       raw.Angle,
		MajorAxis:   raw.MajorAxis,
		MinorAxis:   raw.MinorAxis,
		Pressure:    raw.Pressure,
		Quality:     quality,
		Density:     raw.Density,
		FrameNumber: frameNumber,
		Timestamp:   timestamp,
	}, nil
}

// QuantizeQuality snaps q to the nearest multiple of QualityStep.
// It returns false if q is outside [0,1] or further than QualityTolerance
// from a multiple.
func QuantizeQuality(q float32) (float32, bool) {
	v := float64(q)
	if math.IsNaN(v) || v < 0 || v > 1 {
		return 0, false
	}
	steps := math.Round(v / QualityStep)
	snapped := steps * QualityStep
	if math.Abs(v-snapped) > QualityTolerance {
		return 0, false
	}
	return float32(snapped), true
}

// Raw converts s back into the producer record shape.
func (s Sample) Raw() RawSample {
	return RawSample{
		PathIndex:  s.PathIndex,
		FingerID:   s.FingerID,
		HandID:     s.HandID,
		Stage:      int32(s.Stage),
		Normalized: s.Normalized,
		Quality:    s.Quality,
		Pressure:   s.Pressure,
		Angle:      s.Angle,
		MajorAxis:  s.MajorAxis,
		MinorAxis:  s.MinorAxis,
		Absolute:   s.Absolute,
		Density:    s.Density,
	}
}

func firstNonFinite(raw RawSample) (string, bool) {
	fields := []struct {
		name string
		v    float32
	}{
		{"normalized.x", raw.Normalized.Position.X},
		{"normalized.y", raw.Normalized.Position.Y},
		{"normalized.vx", raw.Normalized.Velocity.X},
		{"normalized.vy", raw.Normalized.Velocity.Y},
		{"absolute.x", raw.Absolute.Position.X},
		{"absolute.y", raw.Absolute.Position.Y},
		{"absolute.vx", raw.Absolute.Velocity.X},
		{"absolute.vy", raw.Absolute.Velocity.Y},
		{"pressure", raw.Pressure},
		{"angle", raw.Angle},
		{"major_axis", raw.MajorAxis},
		{"minor_axis", raw.MinorAxis},
		{"density", raw.Density},
	}
	for _, f := range fields {
		v := float64(f.v)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return f.name, true
		}
	}
	return "", false
}
