package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the monitor configuration. Every field except ConfigFile can
// also be set from the YAML file given with -config; flags set on the command
// line win over the file.
type Config struct {
	ConfigFile string `yaml:"-"`

	// Frame sources. Exactly one must be set.
	Scenario string `yaml:"scenario"`
	Replay   string `yaml:"replay"`
	Listen   string `yaml:"listen"`

	Advertise bool   `yaml:"advertise"`
	Instance  string `yaml:"instance"`

	Capture     string  `yaml:"capture"`
	Preferences string  `yaml:"preferences"`
	Speed       float64 `yaml:"speed"`
	MaxSamples  int     `yaml:"max_samples"`
	Verbose     bool    `yaml:"verbose"`
	Interactive bool    `yaml:"interactive"`
	LogLevel    string  `yaml:"log_level"`
}

// loadConfigFile reads the YAML file at path.
func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var fc Config
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

// merge copies values from the file into c for every flag that was not set
// on the command line.
func (c *Config) merge(file Config, set map[string]bool) {
	mergeString := func(name string, dst *string, src string) {
		if !set[name] && src != "" {
			*dst = src
		}
	}
	mergeBool := func(name string, dst *bool, src bool) {
		if !set[name] && src {
			*dst = src
		}
	}

	mergeString("scenario", &c.Scenario, file.Scenario)
	mergeString("replay", &c.Replay, file.Replay)
	mergeString("listen", &c.Listen, file.Listen)
	mergeBool("advertise", &c.Advertise, file.Advertise)
	mergeString("instance", &c.Instance, file.Instance)
	mergeString("capture", &c.Capture, file.Capture)
	mergeString("preferences", &c.Preferences, file.Preferences)
	mergeBool("v", &c.Verbose, file.Verbose)
	mergeBool("interactive", &c.Interactive, file.Interactive)
	mergeString("log-level", &c.LogLevel, file.LogLevel)

	if !set["speed"] && file.Speed != 0 {
		c.Speed = file.Speed
	}
	if !set["max-samples"] && file.MaxSamples != 0 {
		c.MaxSamples = file.MaxSamples
	}
}

func (c *Config) validate() error {
	sources := 0
	for _, s := range []string{c.Scenario, c.Replay, c.Listen} {
		if s != "" {
			sources++
		}
	}
	if sources != 1 {
		return errors.New("exactly one of -scenario, -replay or -listen is required")
	}
	if c.Advertise && c.Listen == "" {
		return errors.New("-advertise requires -listen")
	}
	if c.Speed < 0 {
		return fmt.Errorf("speed must not be negative, got %v", c.Speed)
	}
	if c.MaxSamples < 0 {
		return fmt.Errorf("max-samples must not be negative, got %d", c.MaxSamples)
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s (use: debug, info, warn, error)", s)
	}
}
