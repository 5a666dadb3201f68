package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":7438"
advertise: true
instance: lab-mac
capture: /tmp/lab.mtlog
speed: 2.5
max_samples: 16
log_level: debug
`), 0644))

	fc, err := loadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":7438", fc.Listen)
	assert.True(t, fc.Advertise)
	assert.Equal(t, "lab-mac", fc.Instance)
	assert.Equal(t, "/tmp/lab.mtlog", fc.Capture)
	assert.Equal(t, 2.5, fc.Speed)
	assert.Equal(t, 16, fc.MaxSamples)
	assert.Equal(t, "debug", fc.LogLevel)
}

func TestLoadConfigFileErrors(t *testing.T) {
	_, err := loadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("speed: [fast\n"), 0644))
	_, err = loadConfigFile(path)
	assert.Error(t, err)
}

func TestMergeFlagsWin(t *testing.T) {
	c := Config{Scenario: "cli.yaml", Speed: 1, LogLevel: "info", MaxSamples: 64}
	file := Config{
		Scenario:    "file.yaml",
		Capture:     "file.mtlog",
		Speed:       4,
		MaxSamples:  8,
		Verbose:     true,
		Interactive: true,
		LogLevel:    "warn",
	}

	c.merge(file, map[string]bool{"scenario": true, "speed": true})

	assert.Equal(t, "cli.yaml", c.Scenario)
	assert.Equal(t, 1.0, c.Speed)
	assert.Equal(t, "file.mtlog", c.Capture)
	assert.Equal(t, 8, c.MaxSamples)
	assert.True(t, c.Verbose)
	assert.True(t, c.Interactive)
	assert.Equal(t, "warn", c.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"scenario", Config{Scenario: "tap.yaml"}, false},
		{"replay", Config{Replay: "s.mtlog", LogLevel: "debug"}, false},
		{"listen advertised", Config{Listen: ":0", Advertise: true}, false},
		{"no source", Config{}, true},
		{"two sources", Config{Scenario: "a.yaml", Listen: ":0"}, true},
		{"advertise without listen", Config{Scenario: "a.yaml", Advertise: true}, true},
		{"negative speed", Config{Scenario: "a.yaml", Speed: -1}, true},
		{"negative samples", Config{Scenario: "a.yaml", MaxSamples: -1}, true},
		{"bad level", Config{Scenario: "a.yaml", LogLevel: "loud"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := parseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
