// Command mt-feed streams a multitouch scenario to a remote mt-monitor.
//
// Each scripted device gets its own connection. Frames are sent at the
// pace given by their timestamps; frames produced while a link is down are
// dropped and the link is re-established in the background.
//
// Usage:
//
//	mt-feed [flags]
//
// Flags:
//
//	-scenario string    Scenario file to play (or -replay)
//	-replay string      Capture file to play
//	-addr string        Listener address (host:port)
//	-browse             Find the listener via mDNS
//	-speed float        Playback speed, 0 for back to back (default 1)
//	-log-level string   Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Send a tap to a known listener
//	mt-feed -scenario tap.yaml -addr 192.168.1.20:7438
//
//	# Find a listener on the local network and replay a capture
//	mt-feed -replay session.mtlog -browse
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mtsupport/mt-go/pkg/connection"
	"github.com/mtsupport/mt-go/pkg/discovery"
	"github.com/mtsupport/mt-go/pkg/producer"
	"github.com/mtsupport/mt-go/pkg/scenario"
	"github.com/mtsupport/mt-go/pkg/touch"
)

// Config holds the feed configuration.
type Config struct {
	Scenario      string
	Replay        string
	Addr          string
	Browse        bool
	BrowseTimeout time.Duration
	ConnectWait   time.Duration
	Speed         float64
	Name          string
	LogLevel      string
}

var config Config

func init() {
	flag.StringVar(&config.Scenario, "scenario", "", "Scenario file to play")
	flag.StringVar(&config.Replay, "replay", "", "Capture file to play")
	flag.StringVar(&config.Addr, "addr", "", "Listener address (host:port)")
	flag.BoolVar(&config.Browse, "browse", false, "Find the listener via mDNS")
	flag.DurationVar(&config.BrowseTimeout, "browse-timeout", discovery.BrowseTimeout, "How long to browse for a listener")
	flag.DurationVar(&config.ConnectWait, "connect-wait", 30*time.Second, "How long to wait for all devices to connect")
	flag.Float64Var(&config.Speed, "speed", 1, "Playback speed, 0 for back to back")
	flag.StringVar(&config.Name, "name", defaultName(), "Sender name shown by the listener")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func defaultName() string {
	host, err := os.Hostname()
	if err != nil {
		return "mt-feed"
	}
	return "mt-feed@" + host
}

func main() {
	flag.Parse()

	if err := validateConfig(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	level := setupLogging(config.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	log.Println("Multitouch Feed")
	log.Println("===============")

	script, err := loadScript()
	if err != nil {
		log.Fatalf("Failed to load script: %v", err)
	}
	log.Printf("Script: %s, %d device(s), %d frame(s)", script.Name, len(script.Devices), script.FrameCount())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal: %v", sig)
		cancel()
	}()

	addr := config.Addr
	if config.Browse {
		addr, err = browse(ctx, logger)
		if err != nil {
			log.Fatalf("Failed to find a listener: %v", err)
		}
	}

	f, err := newFeeder(script, feederConfig{
		Addr:   addr,
		Name:   config.Name,
		Speed:  config.Speed,
		Logger: logger,
		OnStateChange: func(id touch.DeviceID, oldState, newState connection.State) {
			log.Printf("[%s] %s -> %s", id, oldState, newState)
		},
	})
	if err != nil {
		log.Fatalf("Failed to create senders: %v", err)
	}
	defer func() {
		f.close()
		f.printStats(os.Stdout)
		log.Println("Goodbye!")
	}()

	connectCtx, connectCancel := context.WithTimeout(ctx, config.ConnectWait)
	err = f.connect(connectCtx)
	connectCancel()
	if err != nil {
		log.Printf("Error: %v", err)
		return
	}
	log.Printf("Connected to %s", addr)

	if err := f.play(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Error: %v", err)
		return
	}
	log.Println("Script finished")
}

func validateConfig() error {
	if (config.Scenario == "") == (config.Replay == "") {
		return errors.New("exactly one of -scenario or -replay is required")
	}
	if (config.Addr == "") == !config.Browse {
		return errors.New("exactly one of -addr or -browse is required")
	}
	if config.Speed < 0 {
		return fmt.Errorf("speed must not be negative, got %v", config.Speed)
	}
	return nil
}

func loadScript() (producer.Script, error) {
	if config.Scenario != "" {
		return scenario.LoadScript(config.Scenario)
	}
	return producer.LoadCapture(config.Replay)
}

// browse returns the address of the first listener found via mDNS.
func browse(ctx context.Context, logger *slog.Logger) (string, error) {
	log.Printf("Browsing for %s listeners...", discovery.ServiceType)

	b := discovery.NewMDNSBrowser(discovery.BrowserConfig{BrowseTimeout: config.BrowseTimeout})
	defer b.Stop()

	svc, err := b.FindFirst(ctx)
	if err != nil {
		return "", err
	}
	logger.Debug("listener found", "instance", svc.InstanceName, "host", svc.Host, "session", svc.SessionID)
	log.Printf("Found %s (%s, %d device(s))", svc.InstanceName, svc.Address(), svc.DeviceCount)
	return svc.Address(), nil
}

func setupLogging(level string) slog.Level {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch strings.ToLower(level) {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
		return slog.LevelDebug
	case "warn":
		log.SetFlags(log.Ltime)
		return slog.LevelWarn
	case "error":
		log.SetFlags(log.Ltime)
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
