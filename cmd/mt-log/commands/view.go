// Package commands implements the mt-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/mtsupport/mt-go/pkg/log"
	"github.com/mtsupport/mt-go/pkg/touch"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	DeviceID *uint64
	Category *log.Category
	Verbose  bool
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event, verbose bool) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [sess:%s] %s %-6s", ts, shortenID(event.SessionID), touch.DeviceID(event.DeviceID), event.Category)

	switch {
	case event.Frame != nil:
		fmt.Fprintf(w, " #%d t=%.6f samples=%d\n", event.Frame.Number, event.Frame.Timestamp, len(event.Frame.Samples))
		if verbose {
			formatSamples(w, event.Frame.Samples)
		}
	case event.Path != nil:
		p := event.Path
		fmt.Fprintf(w, " #%d path %d %s -> %s finger %d at (%.3f,%.3f)\n", p.FrameNumber, p.PathID, p.From, p.To, p.FingerID, p.X, p.Y)
	case event.StateChange != nil:
		formatStateChange(w, event.StateChange)
	case event.Device != nil:
		formatDevice(w, event.Device)
	case event.Error != nil:
		formatError(w, event.Error)
	default:
		fmt.Fprintln(w)
	}
}

// shortenID returns the first 8 characters of a session id.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}

func formatSamples(w io.Writer, samples []touch.RawSample) {
	for _, s := range samples {
		stage := strconv.Itoa(int(s.Stage))
		if s.Stage >= 0 && s.Stage <= math.MaxUint8 && touch.Stage(s.Stage).Valid() {
			stage = touch.Stage(s.Stage).String()
		}
		fmt.Fprintf(w, "  path %d finger %d hand %d %-13s pos (%.3f,%.3f) vel (%.3f,%.3f) q=%.2f p=%.2f\n",
			s.PathIndex, s.FingerID, s.HandID, stage,
			s.Normalized.Position.X, s.Normalized.Position.Y,
			s.Normalized.Velocity.X, s.Normalized.Velocity.Y,
			s.Quality, s.Pressure)
	}
}

func formatStateChange(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, " %s -> %s", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, " -> %s", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, " (%s)", sc.Reason)
	}
	fmt.Fprintln(w)
}

func formatDevice(w io.Writer, d *log.DeviceEvent) {
	var caps []string
	for _, c := range []struct {
		set  bool
		name string
	}{
		{d.BuiltIn, "built-in"},
		{d.SupportsForce, "force"},
		{d.SupportsActuation, "actuation"},
		{d.OpaqueSurface, "opaque"},
		{d.SupportsSilentClick, "silent-click"},
		{d.PowerControlSupported, "power-control"},
		{d.MTHID, "mthid"},
	} {
		if c.set {
			caps = append(caps, c.name)
		}
	}
	serial := d.SerialNumber
	if serial == "" {
		serial = "-"
	}
	fmt.Fprintf(w, " family=%d serial=%s surface=%dx%d sensor=%dx%d [%s]\n",
		d.FamilyID, serial, d.SurfaceWidth, d.SurfaceHeight, d.SensorCols, d.SensorRows, strings.Join(caps, ","))
}

func formatError(w io.Writer, e *log.ErrorEventData) {
	if e.FrameNumber != 0 {
		fmt.Fprintf(w, " %s #%d: %s\n", e.Kind, e.FrameNumber, e.Message)
		return
	}
	fmt.Fprintf(w, " %s: %s\n", e.Kind, e.Message)
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseCategory(s)
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "frame":
		return log.CategoryFrame, nil
	case "path":
		return log.CategoryPath, nil
	case "state":
		return log.CategoryState, nil
	case "device":
		return log.CategoryDevice, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be frame, path, state, device, or error)", s)
	}
}

// ParseDeviceFlag parses a device id in decimal or 0x-prefixed hex.
func ParseDeviceFlag(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid device id: %s", s)
	}
	return id, nil
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, log.Filter{
		DeviceID: filter.DeviceID,
		Category: filter.Category,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for event, err := range reader.Events() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event, filter.Verbose)
	}
	return nil
}
