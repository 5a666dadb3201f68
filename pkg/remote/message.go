package remote

import (
	"errors"
	"fmt"

	"github.com/mtsupport/mt-go/pkg/device"
	"github.com/mtsupport/mt-go/pkg/log"
	"github.com/mtsupport/mt-go/pkg/touch"
)

// ProtocolVersion is the wire protocol version spoken by this package.
const ProtocolVersion uint8 = 1

// Message errors.
var (
	ErrInvalidMessage  = errors.New("invalid message")
	ErrUnexpectedType  = errors.New("unexpected message type")
	ErrProtocolVersion = errors.New("unsupported protocol version")
)

// MessageType identifies the payload of an Envelope.
type MessageType uint8

const (
	MsgHello MessageType = iota + 1
	MsgAccept
	MsgReject
	MsgFrame
	MsgPing
	MsgPong
	MsgBye
)

// String returns the message type name.
func (t MessageType) String() string {
	switch t {
	case MsgHello:
		return "HELLO"
	case MsgAccept:
		return "ACCEPT"
	case MsgReject:
		return "REJECT"
	case MsgFrame:
		return "FRAME"
	case MsgPing:
		return "PING"
	case MsgPong:
		return "PONG"
	case MsgBye:
		return "BYE"
	default:
		return "UNKNOWN"
	}
}

// Envelope is the unit sent over the wire. Exactly the payload matching
// Type is set.
type Envelope struct {
	Type   MessageType `cbor:"1,keyasint"`
	Hello  *Hello      `cbor:"2,keyasint,omitempty"`
	Accept *Accept     `cbor:"3,keyasint,omitempty"`
	Reject *Reject     `cbor:"4,keyasint,omitempty"`
	Frame  *Frame      `cbor:"5,keyasint,omitempty"`
	Ping   *Ping       `cbor:"6,keyasint,omitempty"`
	Pong   *Pong       `cbor:"7,keyasint,omitempty"`
	Bye    *Bye        `cbor:"8,keyasint,omitempty"`
}

// Hello announces the device carried by a connection.
type Hello struct {
	Protocol   uint8            `cbor:"1,keyasint"`
	DeviceID   uint64           `cbor:"2,keyasint"`
	Descriptor *log.DeviceEvent `cbor:"3,keyasint"`
	Sender     string           `cbor:"4,keyasint,omitempty"`
}

// Accept acknowledges a Hello.
type Accept struct {
	ConnectionID string `cbor:"1,keyasint"`
	SessionID    string `cbor:"2,keyasint,omitempty"`
}

// Reject refuses a Hello. The listener closes the connection afterwards.
type Reject struct {
	Reason string `cbor:"1,keyasint"`
}

// Frame is one raw frame of the connection's device.
type Frame struct {
	Number    int64             `cbor:"1,keyasint"`
	Timestamp float64           `cbor:"2,keyasint"`
	Samples   []touch.RawSample `cbor:"3,keyasint"`
}

// Ping asks the peer for a Pong with the same sequence number.
type Ping struct {
	Seq uint32 `cbor:"1,keyasint"`
}

// Pong answers a Ping.
type Pong struct {
	Seq uint32 `cbor:"1,keyasint"`
}

// Bye announces an orderly close.
type Bye struct {
	Reason string `cbor:"1,keyasint,omitempty"`
}

// NewHello builds a Hello for desc.
func NewHello(desc device.Descriptor, sender string) *Envelope {
	return &Envelope{Type: MsgHello, Hello: &Hello{
		Protocol:   ProtocolVersion,
		DeviceID:   uint64(desc.ID),
		Descriptor: desc.LogEvent(),
		Sender:     sender,
	}}
}

// DeviceDescriptor returns the device descriptor announced by h.
func (h *Hello) DeviceDescriptor() device.Descriptor {
	return device.DescriptorFromEvent(touch.DeviceID(h.DeviceID), h.Descriptor)
}

// NewFrame builds a Frame envelope.
func NewFrame(number int64, timestamp float64, samples []touch.RawSample) *Envelope {
	return &Envelope{Type: MsgFrame, Frame: &Frame{Number: number, Timestamp: timestamp, Samples: samples}}
}

// Validate checks that the payload matches Type.
func (e *Envelope) Validate() error {
	var ok bool
	switch e.Type {
	case MsgHello:
		ok = e.Hello != nil
		if ok && e.Hello.DeviceID == 0 {
			return fmt.Errorf("%w: hello without device id", ErrInvalidMessage)
		}
	case MsgAccept:
		ok = e.Accept != nil
	case MsgReject:
		ok = e.Reject != nil
	case MsgFrame:
		ok = e.Frame != nil
	case MsgPing:
		ok = e.Ping != nil
	case MsgPong:
		ok = e.Pong != nil
	case MsgBye:
		ok = true
	default:
		return fmt.Errorf("%w: type %d", ErrInvalidMessage, e.Type)
	}
	if !ok {
		return fmt.Errorf("%w: %s without payload", ErrInvalidMessage, e.Type)
	}
	return nil
}
