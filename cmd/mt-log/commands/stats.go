package commands

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/mtsupport/mt-go/pkg/log"
	"github.com/mtsupport/mt-go/pkg/touch"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	ErrorsByKind     map[log.ErrorKind]int
	Devices          map[uint64]*DeviceStats
	Sessions         map[string]int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// DeviceStats holds statistics for a single device.
type DeviceStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	Frames     int
	Samples    int
	PathEvents int
	Errors     int
	FirstFrame int64
	LastFrame  int64
	Serial     string
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats, err := collectStats(reader)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func collectStats(reader *log.Reader) (*Stats, error) {
	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		ErrorsByKind:     make(map[log.ErrorKind]int),
		Devices:          make(map[uint64]*DeviceStats),
		Sessions:         make(map[string]int),
	}

	for event, err := range reader.Events() {
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++
		if event.SessionID != "" {
			stats.Sessions[event.SessionID]++
		}

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		dev, ok := stats.Devices[event.DeviceID]
		if !ok {
			dev = &DeviceStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			stats.Devices[event.DeviceID] = dev
		}
		dev.Events++
		if event.Timestamp.After(dev.LastSeen) {
			dev.LastSeen = event.Timestamp
		}

		switch {
		case event.Frame != nil:
			if dev.Frames == 0 {
				dev.FirstFrame = event.Frame.Number
			}
			dev.Frames++
			dev.Samples += len(event.Frame.Samples)
			dev.LastFrame = event.Frame.Number
		case event.Path != nil:
			dev.PathEvents++
		case event.Device != nil:
			if event.Device.SerialNumber != "" {
				dev.Serial = event.Device.SerialNumber
			}
		case event.Error != nil:
			dev.Errors++
			stats.ErrorsByKind[event.Error.Kind]++
		}
	}
	return stats, nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Multitouch Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Sessions:     %d\n", len(stats.Sessions))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryFrame, log.CategoryPath, log.CategoryState, log.CategoryDevice, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Devices: %d\n", len(stats.Devices))
	for _, id := range slices.Sorted(maps.Keys(stats.Devices)) {
		d := stats.Devices[id]
		fmt.Fprintf(w, "  [%s] %d events, duration %s\n", touch.DeviceID(id), d.Events, d.LastSeen.Sub(d.FirstSeen).Round(time.Millisecond))
		if d.Serial != "" {
			fmt.Fprintf(w, "           Serial: %s\n", d.Serial)
		}
		if d.Frames > 0 {
			fmt.Fprintf(w, "           Frames: %d (#%d to #%d), %d samples\n", d.Frames, d.FirstFrame, d.LastFrame, d.Samples)
		}
		if d.PathEvents > 0 {
			fmt.Fprintf(w, "           Path events: %d\n", d.PathEvents)
		}
		if d.Errors > 0 {
			fmt.Fprintf(w, "           Errors: %d\n", d.Errors)
		}
	}

	if len(stats.ErrorsByKind) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Errors by Kind:")
		for _, k := range slices.Sorted(maps.Keys(stats.ErrorsByKind)) {
			fmt.Fprintf(w, "  %-20s %d\n", k.String()+":", stats.ErrorsByKind[k])
		}
	}
}
