package subscription

import (
	"fmt"
	"io"
	"sync"

	"github.com/mtsupport/mt-go/pkg/touch"
)

// PathPrinter writes one line per path transition.
// It is a caller-installed stand-in for the framework's predefined print
// callback. The zero value is not usable; use NewPathPrinter.
type PathPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPathPrinter creates a PathPrinter writing to w.
func NewPathPrinter(w io.Writer) *PathPrinter {
	return &PathPrinter{w: w}
}

// HandlePath prints the transition.
func (p *PathPrinter) HandlePath(ev touch.PathEvent, refcon any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := ev.Sample
	_, err := fmt.Fprintf(p.w, "dev %s frame %d t=%.3f path %d finger %d: %s -> %s at (%.3f, %.3f)\n",
		ev.DeviceID, s.FrameNumber, s.Timestamp, ev.PathID, s.FingerID,
		ev.From, ev.To, s.Normalized.Position.X, s.Normalized.Position.Y)
	return err
}

// FramePrinter writes a summary line per frame and, if Verbose is set, one
// line per sample.
type FramePrinter struct {
	mu sync.Mutex
	w  io.Writer

	// Verbose prints every sample of the frame.
	Verbose bool
}

// NewFramePrinter creates a FramePrinter writing to w.
func NewFramePrinter(w io.Writer, verbose bool) *FramePrinter {
	return &FramePrinter{w: w, Verbose: verbose}
}

// HandleFrame prints the frame.
func (p *FramePrinter) HandleFrame(f touch.Frame, refcon any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := fmt.Fprintf(p.w, "dev %s frame %d t=%.3f contacts=%d touching=%d\n",
		f.DeviceID, f.Number, f.Timestamp, len(f.Samples), f.TouchCount()); err != nil {
		return err
	}
	if !p.Verbose {
		return nil
	}
	for _, s := range f.Samples {
		if _, err := fmt.Fprintf(p.w, "  P%d F%d H%d %-13s pos=(%.3f,%.3f) vel=(%.3f,%.3f) ztot=%.3f zpr=%.2f zden=%.2f axes=%.2f/%.2f angle=%.2f\n",
			s.PathIndex, s.FingerID, s.HandID, s.Stage,
			s.Normalized.Position.X, s.Normalized.Position.Y,
			s.Normalized.Velocity.X, s.Normalized.Velocity.Y,
			s.Quality, s.Pressure, s.Density, s.MajorAxis, s.MinorAxis, s.Angle); err != nil {
			return err
		}
	}
	return nil
}

// Compile-time interface satisfaction checks.
var (
	_ PathHandler  = (*PathPrinter)(nil)
	_ FrameHandler = (*FramePrinter)(nil)
)
