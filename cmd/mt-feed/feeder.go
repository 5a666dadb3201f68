package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mtsupport/mt-go/pkg/connection"
	"github.com/mtsupport/mt-go/pkg/producer"
	"github.com/mtsupport/mt-go/pkg/remote"
	"github.com/mtsupport/mt-go/pkg/touch"
)

// feeder plays a script and streams each device through its own sender.
type feeder struct {
	player  *producer.Scripted
	order   []touch.DeviceID
	senders map[touch.DeviceID]*remote.Sender
	logger  *slog.Logger
}

type feederConfig struct {
	Addr        string
	Name        string
	Speed       float64
	DialTimeout time.Duration
	Logger      *slog.Logger

	// OnStateChange is called with the device whose link changed.
	OnStateChange func(id touch.DeviceID, oldState, newState connection.State)
}

func newFeeder(script producer.Script, cfg feederConfig) (*feeder, error) {
	pc := producer.Config{Speed: cfg.Speed, Logger: cfg.Logger}
	if err := pc.Validate(); err != nil {
		return nil, err
	}
	if len(script.Devices) == 0 {
		return nil, errors.New("script has no devices")
	}

	f := &feeder{
		player:  producer.NewScripted(script, pc),
		senders: make(map[touch.DeviceID]*remote.Sender),
		logger:  cfg.Logger,
	}
	for _, desc := range f.player.Devices() {
		sc := remote.SenderConfig{
			Addr:        cfg.Addr,
			Descriptor:  desc,
			Name:        cfg.Name,
			DialTimeout: cfg.DialTimeout,
			Logger:      cfg.Logger,
		}
		if cfg.OnStateChange != nil {
			id := desc.ID
			sc.OnStateChange = func(oldState, newState connection.State) {
				cfg.OnStateChange(id, oldState, newState)
			}
		}
		s, err := remote.NewSender(sc)
		if err != nil {
			f.close()
			return nil, fmt.Errorf("device %s: %w", desc.ID, err)
		}
		f.order = append(f.order, desc.ID)
		f.senders[desc.ID] = s
	}
	return f, nil
}

// connect dials every sender and waits until all are attached. Senders that
// fail keep retrying in the background until ctx is done.
func (f *feeder) connect(ctx context.Context) error {
	for _, id := range f.order {
		if err := f.senders[id].Connect(ctx); err != nil {
			f.debugLog("initial connect failed, retrying", "device", id, "error", err)
		}
	}

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		if f.connected() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for listener: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (f *feeder) connected() bool {
	for _, s := range f.senders {
		if s.State() != connection.StateConnected {
			return false
		}
	}
	return true
}

// play starts every device feed and waits until all frames were handed to
// the senders.
func (f *feeder) play(ctx context.Context) error {
	for _, id := range f.order {
		if err := f.player.StartDevice(id, f.senders[id]); err != nil {
			return fmt.Errorf("start %s: %w", id, err)
		}
	}
	return f.player.Wait(ctx)
}

func (f *feeder) close() {
	for _, id := range f.order {
		_ = f.player.StopDevice(id)
	}
	for _, s := range f.senders {
		_ = s.Close()
	}
}

func (f *feeder) printStats(w io.Writer) {
	for _, id := range f.order {
		st := f.senders[id].Stats()
		fmt.Fprintf(w, "%s: sent=%d dropped=%d reconnects=%d bytes=%d\n",
			id, st.Sent, st.Dropped, st.Reconnects, st.BytesSent)
	}
}

func (f *feeder) debugLog(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
