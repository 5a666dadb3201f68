package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mtsupport/mt-go/pkg/device"
	"github.com/mtsupport/mt-go/pkg/discovery"
	"github.com/mtsupport/mt-go/pkg/producer"
	"github.com/mtsupport/mt-go/pkg/remote"
	"github.com/mtsupport/mt-go/pkg/scenario"
)

// source is the producer selected by the configuration.
type source struct {
	producer   device.Producer
	scripted   *producer.Scripted
	listener   *remote.Listener
	advertiser *discovery.MDNSAdvertiser
}

// openSource builds the producer for cfg. Listeners are not started yet;
// onChange is installed as their device callback.
func openSource(cfg Config, sessionID string, onChange func(device.Descriptor, bool), logger *slog.Logger) (*source, error) {
	switch {
	case cfg.Scenario != "":
		script, err := scenario.LoadScript(cfg.Scenario)
		if err != nil {
			return nil, err
		}
		return newScriptedSource(script, cfg, logger)

	case cfg.Replay != "":
		script, err := producer.LoadCapture(cfg.Replay)
		if err != nil {
			return nil, fmt.Errorf("load capture %s: %w", cfg.Replay, err)
		}
		return newScriptedSource(script, cfg, logger)

	default:
		lc := remote.DefaultListenerConfig()
		lc.Addr = cfg.Listen
		lc.SessionID = sessionID
		lc.OnDevicesChanged = onChange
		lc.Logger = logger
		if cfg.Instance != "" {
			lc.InstanceName = cfg.Instance
			lc.DisplayName = cfg.Instance
		}

		src := &source{}
		if cfg.Advertise {
			src.advertiser = discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
			lc.Advertiser = src.advertiser
		}
		src.listener = remote.NewListener(lc)
		src.producer = src.listener
		return src, nil
	}
}

func newScriptedSource(script producer.Script, cfg Config, logger *slog.Logger) (*source, error) {
	pc := producer.Config{Speed: cfg.Speed, Logger: logger}
	if err := pc.Validate(); err != nil {
		return nil, err
	}
	p := producer.NewScripted(script, pc)
	return &source{producer: p, scripted: p}, nil
}

// start begins accepting senders when the source is a listener.
func (s *source) start(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Start(ctx)
}

// describe returns a one-line summary for the startup banner.
func (s *source) describe() string {
	switch {
	case s.listener != nil && s.listener.Addr() != nil:
		if s.advertiser != nil {
			return fmt.Sprintf("listening on %s (advertised as %s)", s.listener.Addr(), discovery.ServiceType)
		}
		return fmt.Sprintf("listening on %s", s.listener.Addr())
	case s.scripted != nil:
		return fmt.Sprintf("scripted, %d device(s)", len(s.scripted.Devices()))
	default:
		return "idle"
	}
}

func (s *source) close() error {
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
