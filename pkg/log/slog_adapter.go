package log

import (
	"context"
	"log/slog"

	"github.com/mtsupport/mt-go/pkg/touch"
)

// SlogAdapter writes capture events to an slog.Logger at Debug level.
// Useful during development to watch input on the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("device", touch.DeviceID(event.DeviceID).String()),
		slog.String("category", event.Category.String()),
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session", event.SessionID))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int64("frame", event.Frame.Number),
			slog.Float64("ts", event.Frame.Timestamp),
			slog.Int("samples", len(event.Frame.Samples)),
		)
	case event.Path != nil:
		attrs = append(attrs,
			slog.Int64("frame", event.Path.FrameNumber),
			slog.Int("path", int(event.Path.PathID)),
			slog.String("from", event.Path.From.String()),
			slog.String("to", event.Path.To.String()),
		)
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Device != nil:
		attrs = append(attrs,
			slog.String("serial", event.Device.SerialNumber),
			slog.Int("family", int(event.Device.FamilyID)),
			slog.Bool("builtin", event.Device.BuiltIn),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("kind", event.Error.Kind.String()),
			slog.String("error", event.Error.Message),
		)
		if event.Error.FrameNumber != 0 {
			attrs = append(attrs, slog.Int64("frame", event.Error.FrameNumber))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "capture", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
