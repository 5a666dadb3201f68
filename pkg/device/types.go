package device

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/mtsupport/mt-go/pkg/log"
	"github.com/mtsupport/mt-go/pkg/touch"
)

// Device errors.
var (
	ErrAlreadyRunning    = errors.New("device already running")
	ErrDeviceUnavailable = errors.New("device unavailable")
	ErrReleased          = errors.New("device handle released")
	ErrNotRunning        = errors.New("device not running")
	ErrUnknownDevice     = errors.New("unknown device")
	ErrNoDevice          = errors.New("no multitouch device available")
	ErrNotSupported      = errors.New("not supported by device")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// State is the lifecycle state of a Handle.
type State uint8

const (
	// StateCreated - handle opened, not yet started.
	StateCreated State = iota

	// StateRunning - frames are delivered to subscribers.
	StateRunning

	// StateStopped - delivery paused; the handle can be started again.
	StateStopped

	// StateReleased - handle is dead; every operation except queries fails.
	StateReleased
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	case StateReleased:
		return "RELEASED"
	default:
		return "UNKNOWN"
	}
}

// DefaultMaxSamplesPerFrame bounds the samples accepted per frame.
// Hardware reports at most a few dozen path slots.
const DefaultMaxSamplesPerFrame = 64

// Config configures a Manager.
type Config struct {
	// Logger is the optional operational logger.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// CaptureLogger receives a structured trace of frames, transitions,
	// state changes and reported problems. If nil, capture is disabled.
	CaptureLogger log.Logger

	// OnReport is called for every non-fatal problem: discarded samples,
	// tracker anomalies, rejected frames and subscriber failures.
	// It runs on the delivering goroutine and must not block.
	OnReport func(id touch.DeviceID, err error)

	// SessionID tags capture events. A random UUID is used if empty.
	SessionID string

	// MaxSamplesPerFrame discards samples beyond this count in one frame.
	// Zero means unlimited.
	MaxSamplesPerFrame int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxSamplesPerFrame: DefaultMaxSamplesPerFrame,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxSamplesPerFrame < 0 {
		return errors.Join(ErrInvalidConfig, errors.New("max samples per frame must not be negative"))
	}
	if strings.TrimSpace(c.SessionID) != c.SessionID {
		return errors.Join(ErrInvalidConfig, errors.New("session id must not have surrounding whitespace"))
	}
	return nil
}

// Stats are cumulative delivery counters of a Handle.
type Stats struct {
	FramesAccepted     uint64
	FramesRejected     uint64
	SamplesDiscarded   uint64
	PathEvents         uint64
	Anomalies          uint64
	SubscriberFailures uint64
}
