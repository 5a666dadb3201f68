// Package tracker follows multitouch paths across frames.
//
// A Tracker owns the per-path state for one device. Each call to Ingest takes
// one frame of validated samples and returns the stage transitions it caused.
//
// # Path lifecycle
//
// A path is created the first time its slot index is observed. Paths should
// start in StartInRange or HoverInRange; any other entry stage is reported as
// ErrProtocolViolation, but the sample is still tracked. A transition event is
// emitted whenever a path's stage differs from its stage in the previous
// frame. A path that reaches NotTracking or OutOfRange and does not appear in
// the next frame is removed; removal emits no event.
//
// # Ordering
//
// Frame numbers must increase. A frame whose number is not greater than the
// last accepted one is rejected with ErrOutOfOrderFrame and leaves the tracker
// untouched.
//
// # Anomalies
//
// Problems scoped to one sample (protocol violations, duplicate path indices
// within a frame) do not fail the frame. They are returned in
// Result.Anomalies for the caller to report.
package tracker
