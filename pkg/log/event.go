package log

import (
	"time"

	"github.com/mtsupport/mt-go/pkg/touch"
)

// Event is one capture record.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp is the wall-clock time the event was recorded.
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the device manager that produced the event.
	SessionID string `cbor:"2,keyasint"`

	// DeviceID is the device the event belongs to.
	DeviceID uint64 `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Path        *PathEventData    `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Device      *DeviceEvent      `cbor:"13,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryFrame indicates a raw frame as delivered by the producer.
	CategoryFrame Category = 0
	// CategoryPath indicates a path stage transition.
	CategoryPath Category = 1
	// CategoryState indicates a handle state change.
	CategoryState Category = 2
	// CategoryDevice indicates a device descriptor snapshot.
	CategoryDevice Category = 3
	// CategoryError indicates a reported problem.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategoryPath:
		return "PATH"
	case CategoryState:
		return "STATE"
	case CategoryDevice:
		return "DEVICE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures one raw frame.
type FrameEvent struct {
	// Number is the device frame counter.
	Number int64 `cbor:"1,keyasint"`

	// Timestamp is the device-relative frame time in seconds.
	Timestamp float64 `cbor:"2,keyasint"`

	// Samples are the raw records, before validation.
	Samples []touch.RawSample `cbor:"3,keyasint,omitempty"`
}

// PathEventData captures a path stage transition.
type PathEventData struct {
	// FrameNumber is the frame that carried the transition.
	FrameNumber int64 `cbor:"1,keyasint"`

	// PathID is the path slot index.
	PathID int32 `cbor:"2,keyasint"`

	// From and To are the stage values.
	From touch.Stage `cbor:"3,keyasint"`
	To   touch.Stage `cbor:"4,keyasint"`

	// FingerID is the finger identity at the time of the transition.
	FingerID int32 `cbor:"5,keyasint,omitempty"`

	// X and Y are the normalized position at the transition.
	X float32 `cbor:"6,keyasint"`
	Y float32 `cbor:"7,keyasint"`
}

// StateChangeEvent captures a device handle lifecycle change.
type StateChangeEvent struct {
	// OldState is the previous state.
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// DeviceEvent captures the static description of a device.
type DeviceEvent struct {
	SerialNumber          string `cbor:"1,keyasint,omitempty"`
	GUID                  string `cbor:"2,keyasint,omitempty"`
	FamilyID              int32  `cbor:"3,keyasint,omitempty"`
	Version               int32  `cbor:"4,keyasint,omitempty"`
	DriverType            int32  `cbor:"5,keyasint,omitempty"`
	SensorRows            int32  `cbor:"6,keyasint,omitempty"`
	SensorCols            int32  `cbor:"7,keyasint,omitempty"`
	SurfaceWidth          int32  `cbor:"8,keyasint,omitempty"`
	SurfaceHeight         int32  `cbor:"9,keyasint,omitempty"`
	BuiltIn               bool   `cbor:"10,keyasint,omitempty"`
	SupportsForce         bool   `cbor:"11,keyasint,omitempty"`
	SupportsActuation     bool   `cbor:"12,keyasint,omitempty"`
	OpaqueSurface         bool   `cbor:"13,keyasint,omitempty"`
	SupportsSilentClick   bool   `cbor:"14,keyasint,omitempty"`
	PowerControlSupported bool   `cbor:"15,keyasint,omitempty"`
	MTHID                 bool   `cbor:"16,keyasint,omitempty"`
	PressureMin           int32  `cbor:"17,keyasint,omitempty"`
	PressureMax           int32  `cbor:"18,keyasint,omitempty"`
	PressureRange         int32  `cbor:"19,keyasint,omitempty"`
}

// ErrorKind classifies reported problems.
type ErrorKind uint8

const (
	// ErrorKindOther is any problem without a dedicated kind.
	ErrorKindOther ErrorKind = 0
	// ErrorKindMalformedSample indicates a discarded sample.
	ErrorKindMalformedSample ErrorKind = 1
	// ErrorKindProtocolViolation indicates an unexpected path entry stage.
	ErrorKindProtocolViolation ErrorKind = 2
	// ErrorKindDuplicatePath indicates a dropped duplicate sample.
	ErrorKindDuplicatePath ErrorKind = 3
	// ErrorKindOutOfOrderFrame indicates a rejected frame.
	ErrorKindOutOfOrderFrame ErrorKind = 4
	// ErrorKindSubscriberFailure indicates a failed subscriber.
	ErrorKindSubscriberFailure ErrorKind = 5
)

// String returns the error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindOther:
		return "OTHER"
	case ErrorKindMalformedSample:
		return "MALFORMED_SAMPLE"
	case ErrorKindProtocolViolation:
		return "PROTOCOL_VIOLATION"
	case ErrorKindDuplicatePath:
		return "DUPLICATE_PATH"
	case ErrorKindOutOfOrderFrame:
		return "OUT_OF_ORDER_FRAME"
	case ErrorKindSubscriberFailure:
		return "SUBSCRIBER_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures a reported problem.
type ErrorEventData struct {
	// Kind classifies the problem.
	Kind ErrorKind `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// FrameNumber is the frame being processed, if any.
	FrameNumber int64 `cbor:"3,keyasint,omitempty"`
}
