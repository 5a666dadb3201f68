// Package producer provides device.Producer implementations that feed
// prepared frames: a Script built in code, loaded from a scenario file, or
// rebuilt from a capture log.
package producer
