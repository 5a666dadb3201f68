// Command mt-monitor opens multitouch devices and prints their input.
//
// Frames come from one of three sources: a YAML scenario, a capture file
// written by an earlier run, or remote senders (see mt-feed) connecting over
// TCP. Every device is opened, subscribed with print callbacks and started.
//
// Usage:
//
//	mt-monitor [flags]
//
// Flags:
//
//	-scenario string     Scenario file to play
//	-replay string       Capture file to replay
//	-listen string       Accept remote senders on this address
//	-advertise           Advertise the listener via mDNS
//	-capture string      Write a capture of the session to this file
//	-interactive         Enable interactive command mode
//	-config string       Configuration file path (YAML)
//	-log-level string    Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Play a scenario in real time
//	mt-monitor -scenario testdata/tap.yaml -speed 1
//
//	# Wait for remote senders and record everything they send
//	mt-monitor -listen :7438 -advertise -capture session.mtlog
//
//	# Replay a capture and explore it interactively
//	mt-monitor -replay session.mtlog -interactive
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"github.com/mtsupport/mt-go/cmd/mt-monitor/interactive"
	"github.com/mtsupport/mt-go/pkg/device"
	mtlog "github.com/mtsupport/mt-go/pkg/log"
	"github.com/mtsupport/mt-go/pkg/preferences"
	"github.com/mtsupport/mt-go/pkg/touch"
)

var config Config

func init() {
	flag.StringVar(&config.ConfigFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&config.Scenario, "scenario", "", "Scenario file to play")
	flag.StringVar(&config.Replay, "replay", "", "Capture file to replay")
	flag.StringVar(&config.Listen, "listen", "", "Accept remote senders on this address (e.g. :7438)")
	flag.BoolVar(&config.Advertise, "advertise", false, "Advertise the listener via mDNS")
	flag.StringVar(&config.Instance, "instance", "", "mDNS instance name (default mt-monitor)")
	flag.StringVar(&config.Capture, "capture", "", "Write a capture of the session to this file")
	flag.StringVar(&config.Preferences, "preferences", "", "Preferences file (default in the user config dir)")
	flag.Float64Var(&config.Speed, "speed", 1, "Playback speed for scenarios and replays, 0 for back to back")
	flag.IntVar(&config.MaxSamples, "max-samples", device.DefaultMaxSamplesPerFrame, "Maximum samples per frame, 0 for unlimited")
	flag.BoolVar(&config.Verbose, "v", false, "Print every sample of every frame")
	flag.BoolVar(&config.Interactive, "interactive", false, "Enable interactive command mode")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if config.ConfigFile != "" {
		fc, err := loadConfigFile(config.ConfigFile)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		config.merge(fc, set)
	}
	if err := config.validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	level, _ := parseLogLevel(config.LogLevel)
	setupLogging(level)

	log.Println("Multitouch Monitor")
	log.Println("==================")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := openPreferences(config.Preferences)

	// The console owns the terminal; everything else writes through it.
	var console *interactive.Console
	out := io.Writer(os.Stdout)
	errOut := io.Writer(os.Stderr)
	if config.Interactive {
		var err error
		console, err = interactive.New(interactive.Options{
			Dock:         preferences.NewDock(store),
			ControlStrip: preferences.NewControlStrip(store),
			Verbose:      config.Verbose,
		})
		if err != nil {
			log.Fatalf("Failed to create interactive console: %v", err)
		}
		out = console.Stdout()
		errOut = console.Stderr()
		log.SetOutput(errOut)
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	sessionID := uuid.NewString()
	mon := newMonitor(out, config.Verbose, !config.Interactive)

	src, err := openSource(config, sessionID, mon.devicesChanged, logger)
	if err != nil {
		log.Fatalf("Failed to open source: %v", err)
	}

	capture, closeCapture := openCapture(config.Capture, level, logger)
	defer closeCapture()

	devCfg := device.DefaultConfig()
	devCfg.Logger = logger
	devCfg.SessionID = sessionID
	devCfg.CaptureLogger = capture
	devCfg.MaxSamplesPerFrame = config.MaxSamples
	devCfg.OnReport = func(id touch.DeviceID, err error) {
		logger.Warn("input problem", "device", id, "error", err)
	}
	if err := devCfg.Validate(); err != nil {
		log.Fatalf("Invalid device configuration: %v", err)
	}

	mgr := device.NewManager(src.producer, devCfg)
	mon.mgr = mgr

	if err := src.start(ctx); err != nil {
		log.Fatalf("Failed to start source: %v", err)
	}
	log.Printf("Session: %s", sessionID)
	log.Printf("Source:  %s", src.describe())
	if config.Capture != "" {
		log.Printf("Capture: %s", config.Capture)
	}

	if console != nil {
		console.Bind(mgr)
		go console.Run(ctx, cancel)
	} else {
		if n := mon.openAll(); n == 0 && src.listener == nil {
			log.Println("No devices to watch")
			cancel()
		}
		if src.scripted != nil {
			go func() {
				if err := src.scripted.Wait(ctx); err == nil {
					log.Println("Script finished")
					cancel()
				}
			}()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	cancel()

	mon.printStats(out)
	if err := mgr.Close(); err != nil {
		log.Printf("Error closing devices: %v", err)
	}
	if err := src.close(); err != nil {
		log.Printf("Error closing source: %v", err)
	}
	if src.listener != nil {
		st := src.listener.Stats()
		log.Printf("Remote: %d connection(s), %d rejected, %d frame(s), %d dropped",
			st.Connections, st.Rejected, st.Frames, st.FramesDropped)
	}

	log.Println("Goodbye!")
}

func setupLogging(level slog.Level) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch {
	case level <= slog.LevelDebug:
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case level >= slog.LevelWarn:
		log.SetFlags(log.Ltime)
	}
}

// openPreferences returns the file store at path, or at the default
// location if path is empty. Without a config dir the store is in memory.
func openPreferences(path string) preferences.Store {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			log.Printf("Warning: no config directory, preferences are not saved: %v", err)
			return preferences.NewMemoryStore()
		}
		path = filepath.Join(dir, "mt-monitor", "preferences.json")
	}
	return preferences.NewFileStore(path)
}

// openCapture returns the capture logger for the session. At debug level
// events are also written to logger.
func openCapture(path string, level slog.Level, logger *slog.Logger) (mtlog.Logger, func()) {
	var loggers []mtlog.Logger
	closeFn := func() {}

	if path != "" {
		fl, err := mtlog.NewFileLogger(path)
		if err != nil {
			log.Fatalf("Failed to open capture file: %v", err)
		}
		loggers = append(loggers, fl)
		closeFn = func() {
			if err := fl.Close(); err != nil {
				log.Printf("Error closing capture: %v", err)
				return
			}
			log.Printf("Captured %d event(s) to %s", fl.Written(), path)
		}
	}
	if level <= slog.LevelDebug {
		loggers = append(loggers, mtlog.NewSlogAdapter(logger))
	}

	switch len(loggers) {
	case 0:
		return nil, closeFn
	case 1:
		return loggers[0], closeFn
	default:
		return mtlog.NewMultiLogger(loggers...), closeFn
	}
}
