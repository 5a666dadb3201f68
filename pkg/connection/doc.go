// Package connection keeps a remote frame feed attached to its monitor.
//
// A feed sender dials the monitor, announces its device and streams frames.
// When the link drops the Manager moves to RECONNECTING and retries with
// exponential backoff:
//
//	delay = min(initial * 2^attempt, max) + random(0, delay * jitter)
//
// The defaults start at 250ms and cap at 10s, which keeps a replugged feed
// attached within a few frames of the monitor coming back. A successful
// connect resets the backoff.
package connection
