package remote

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode encodes envelopes with canonical key order.
var encMode cbor.EncMode

// decMode tolerates unknown keys so newer senders can add fields.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create remote CBOR encoder mode: %v", err))
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create remote CBOR decoder mode: %v", err))
	}
}

// Encode validates and encodes an envelope.
func Encode(env *Envelope) ([]byte, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return encMode.Marshal(env)
}

// Decode decodes and validates an envelope.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &env, nil
}
