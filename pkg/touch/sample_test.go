package touch

import (
	"errors"
	"math"
	"testing"
)

func validRaw() RawSample {
	return RawSample{
		PathIndex: 2,
		FingerID:  1,
		HandID:    1,
		Stage:     int32(StageTouching),
		Normalized: Vector{
			Position: Point{X: 0.25, Y: 0.75},
			Velocity: Point{X: 0.1, Y: -0.2},
		},
		Quality:  0.625,
		Pressure: 12,
		Density:  0.4,
	}
}

func TestNewSampleValid(t *testing.T) {
	s, err := NewSample(validRaw(), 42, 1.5)
	if err != nil {
		t.Fatalf("NewSample() error = %v", err)
	}

	if s.Stage != StageTouching {
		t.Errorf("Stage = %s, want Touching", s.Stage)
	}
	if s.FrameNumber != 42 {
		t.Errorf("FrameNumber = %d, want 42", s.FrameNumber)
	}
	if s.Timestamp != 1.5 {
		t.Errorf("Timestamp = %v, want 1.5", s.Timestamp)
	}
	if s.Quality != 0.625 {
		t.Errorf("Quality = %v, want 0.625", s.Quality)
	}
	if s.Normalized.Position.X != 0.25 {
		t.Errorf("Normalized.Position.X = %v, want 0.25", s.Normalized.Position.X)
	}
	if s.StageChanged {
		t.Error("StageChanged should be false on construction")
	}
}

func TestNewSampleQuality(t *testing.T) {
	tests := []struct {
		name    string
		quality float32
		want    float32
		wantErr bool
	}{
		{"zero", 0, 0, false},
		{"one", 1, 1, false},
		{"one eighth", 0.125, 0.125, false},
		{"seven eighths", 0.875, 0.875, false},
		{"within tolerance", 0.50005, 0.5, false},
		{"not a multiple", 0.3, 0, true},
		{"negative", -0.125, 0, true},
		{"above one", 1.125, 0, true},
		{"nan", float32(math.NaN()), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			raw.Quality = tt.quality

			s, err := NewSample(raw, 1, 0)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedSample) {
					t.Fatalf("NewSample() error = %v, want ErrMalformedSample", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSample() error = %v", err)
			}
			if s.Quality != tt.want {
				t.Errorf("Quality = %v, want %v", s.Quality, tt.want)
			}
		})
	}
}

func TestNewSampleInvalidStage(t *testing.T) {
	for _, stage := range []int32{-1, 8, 100, 256, 259} {
		raw := validRaw()
		raw.Stage = stage
		if _, err := NewSample(raw, 1, 0); !errors.Is(err, ErrMalformedSample) {
			t.Errorf("stage %d: error = %v, want ErrMalformedSample", stage, err)
		}
	}
}

func TestNewSampleNonFinite(t *testing.T) {
	raw := validRaw()
	raw.Absolute.Velocity.Y = float32(math.Inf(1))

	_, err := NewSample(raw, 1, 0)
	if !errors.Is(err, ErrMalformedSample) {
		t.Fatalf("error = %v, want ErrMalformedSample", err)
	}
}

func TestSampleRawRoundTrip(t *testing.T) {
	raw := validRaw()
	s, err := NewSample(raw, 7, 0.25)
	if err != nil {
		t.Fatalf("NewSample() error = %v", err)
	}
	if got := s.Raw(); got != raw {
		t.Errorf("Raw() = %+v, want %+v", got, raw)
	}
}

func TestFrameHelpers(t *testing.T) {
	f := Frame{
		DeviceID: 0x1234,
		Number:   3,
		Samples: []Sample{
			{PathIndex: 0, Stage: StageTouching},
			{PathIndex: 1, Stage: StageHoverInRange},
			{PathIndex: 4, Stage: StageMakeTouch},
		},
	}

	if got := f.TouchCount(); got != 2 {
		t.Errorf("TouchCount() = %d, want 2", got)
	}
	if s, ok := f.Sample(4); !ok || s.Stage != StageMakeTouch {
		t.Errorf("Sample(4) = %+v, %v", s, ok)
	}
	if _, ok := f.Sample(9); ok {
		t.Error("Sample(9) should not be found")
	}
	if got := f.DeviceID.String(); got != "0x1234" {
		t.Errorf("DeviceID.String() = %q", got)
	}
}
