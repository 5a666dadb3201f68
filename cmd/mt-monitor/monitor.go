package main

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/mtsupport/mt-go/pkg/device"
	"github.com/mtsupport/mt-go/pkg/subscription"
)

// monitor opens every device it learns about and prints its input.
// It drives the non-interactive mode.
type monitor struct {
	mgr    *device.Manager
	frames *subscription.FramePrinter
	paths  *subscription.PathPrinter

	// autoStart opens and starts devices as they attach.
	autoStart bool
}

func newMonitor(out io.Writer, verbose, autoStart bool) *monitor {
	return &monitor{
		frames:    subscription.NewFramePrinter(out, verbose),
		paths:     subscription.NewPathPrinter(out),
		autoStart: autoStart,
	}
}

// openAll opens and starts every available device.
func (m *monitor) openAll() int {
	n := 0
	for desc := range m.mgr.Enumerate() {
		if err := m.watch(desc); err != nil {
			log.Printf("Device %s: %v", desc.ID, err)
			continue
		}
		n++
	}
	return n
}

// watch opens desc, installs the printers and starts delivery.
func (m *monitor) watch(desc device.Descriptor) error {
	h, err := m.mgr.Open(desc)
	if err != nil {
		return err
	}
	if h.IsRunning() {
		return nil
	}
	if h.Subscriptions().Len() == 0 {
		if _, err := h.RegisterFrame(m.frames, nil); err != nil {
			return err
		}
		if _, err := h.RegisterPath(m.paths, nil); err != nil {
			return err
		}
	}
	if err := h.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	log.Printf("Watching %s", h.Descriptor())
	return nil
}

// devicesChanged is the listener callback for remote devices.
func (m *monitor) devicesChanged(desc device.Descriptor, attached bool) {
	if !attached {
		log.Printf("Device %s detached", desc.ID)
		return
	}
	log.Printf("Device %s attached", desc.ID)
	if !m.autoStart || m.mgr == nil {
		return
	}
	if err := m.watch(desc); err != nil && !errors.Is(err, device.ErrDeviceUnavailable) {
		log.Printf("Device %s: %v", desc.ID, err)
	}
}

// printStats writes the delivery counters of every open handle.
func (m *monitor) printStats(w io.Writer) {
	for _, h := range m.mgr.Handles() {
		st := h.Stats()
		last, ok := h.LastFrame()
		lastStr := "-"
		if ok {
			lastStr = fmt.Sprint(last)
		}
		fmt.Fprintf(w, "%s: state=%s accepted=%d rejected=%d discarded=%d paths=%d anomalies=%d failures=%d last=%s\n",
			h.ID(), h.State(), st.FramesAccepted, st.FramesRejected, st.SamplesDiscarded,
			st.PathEvents, st.Anomalies, st.SubscriberFailures, lastStr)
	}
}
