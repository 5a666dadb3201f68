// Package touch defines the data shapes of multitouch input.
//
// A Sample is the state of one contact at one frame instant. Samples are
// grouped into a Frame, which is the unit of delivery from a device. A contact
// is followed across frames by its path index; each path moves through the
// Stage lifecycle:
//
//	NotTracking -> StartInRange -> HoverInRange -> MakeTouch -> Touching
//	    -> BreakTouch -> LingerInRange -> OutOfRange -> NotTracking
//
// Producers hand over RawSample records. NewSample validates a raw record and
// returns an immutable Sample, or ErrMalformedSample.
//
// # Coordinates
//
// Normalized positions and velocities are in the unit square, origin at the
// bottom-left corner of the surface. Absolute positions are in millimeters
// relative to the surface center.
//
// # Quality
//
// The quality proxy (zTotal) is quantized by the hardware to multiples of 1/8
// between 0 and 1. Values that are not are rejected.
package touch
