package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mtsupport/mt-go/pkg/device"
	"github.com/mtsupport/mt-go/pkg/touch"
)

func TestLoadTap(t *testing.T) {
	sc, err := Load("testdata/tap.yaml")
	require.NoError(t, err)
	assert.Equal(t, "single finger tap", sc.Name)

	script := sc.Script()
	require.Len(t, script.Devices, 1)
	d := script.Devices[0]

	assert.Equal(t, touch.DeviceID(0x100), d.Descriptor.ID)
	assert.Equal(t, "3c1b5b43-8c2f-4f6a-9d55-8f0c7d0a1e11", d.Descriptor.GUID.String())
	assert.True(t, d.Descriptor.BuiltIn)
	assert.Equal(t, int32(16000), d.Descriptor.SurfaceSize.Width)
	assert.Equal(t, int32(22), d.Descriptor.SensorSize.Height)
	assert.Equal(t, device.PressureRange{Max: 3000, DynamicRange: 3000}, d.Descriptor.Pressure)

	require.Len(t, d.Frames, 7)
	for i, f := range d.Frames {
		assert.Equal(t, int64(i+1), f.Number)
		assert.InDelta(t, float64(i)*DefaultInterval, f.Timestamp, 1e-9)
		require.Len(t, f.Samples, 1)
		assert.Equal(t, int32(1), f.Samples[0].HandID, "hand defaults to 1")
	}
	assert.Equal(t, int32(touch.StageTouching), d.Frames[4].Samples[0].Stage)
	assert.Equal(t, int32(touch.StageOutOfRange), d.Frames[6].Samples[0].Stage)
	assert.Equal(t, float32(30), d.Frames[2].Samples[0].Pressure)
}

func TestExplicitNumbersAndTimestamps(t *testing.T) {
	sc, err := Parse([]byte(`
devices:
  - id: 1
    interval: 0.5
    frames:
      - frame: 10
        timestamp: 2.0
        samples: []
      - samples: []
      - frame: 20
        samples: []
`))
	require.NoError(t, err)
	frames := sc.Script().Devices[0].Frames
	require.Len(t, frames, 3)
	assert.Equal(t, []int64{10, 11, 20}, []int64{frames[0].Number, frames[1].Number, frames[2].Number})
	assert.Equal(t, []float64{2.0, 2.5, 3.0}, []float64{frames[0].Timestamp, frames[1].Timestamp, frames[2].Timestamp})
}

func TestMalformedStageNumberIsKept(t *testing.T) {
	sc, err := Parse([]byte(`
devices:
  - id: 1
    frames:
      - samples:
          - {path: 1, stage: 42, quality: 0.3}
`))
	require.NoError(t, err)
	s := sc.Script().Devices[0].Frames[0].Samples[0]
	assert.Equal(t, int32(42), s.Stage)
	assert.Equal(t, float32(0.3), s.Quality)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "devices: ["},
		{"no devices", "name: empty"},
		{"missing id", "devices:\n  - serial: x"},
		{"duplicate id", "devices:\n  - id: 1\n  - id: 1"},
		{"bad guid", "devices:\n  - id: 1\n    guid: nope"},
		{"unknown stage", "devices:\n  - id: 1\n    frames:\n      - samples:\n          - {path: 1, stage: Dancing}"},
		{"decreasing frames", "devices:\n  - id: 1\n    frames:\n      - frame: 5\n      - frame: 5"},
		{"repeat overlaps", "devices:\n  - id: 1\n    frames:\n      - frame: 5\n        repeat: 3\n      - frame: 6"},
		{"negative interval", "devices:\n  - id: 1\n    interval: -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			var le *LoadError
			require.True(t, errors.As(err, &le), "got %v", err)
			assert.Empty(t, le.File)
		})
	}
}

func TestLoadErrorsCarryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: x"), 0644))

	_, err := Load(path)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, path, le.File)
	assert.Contains(t, err.Error(), path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.True(t, errors.As(err, &le))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadScriptNamesFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unnamed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("devices:\n  - id: 3\n"), 0644))

	script, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, path, script.Name)
	assert.Empty(t, script.Devices[0].Frames)
}

func TestStageValueMarshal(t *testing.T) {
	out, err := yaml.Marshal(struct {
		A StageValue `yaml:"a"`
		B StageValue `yaml:"b"`
	}{A: StageValue(touch.StageHoverInRange), B: 99})
	require.NoError(t, err)
	assert.Equal(t, "a: HoverInRange\nb: 99\n", string(out))
}
