package subscription

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/mtsupport/mt-go/pkg/touch"
)

// Subscription errors.
var (
	// ErrSubscriberFailure indicates a handler returned an error or panicked.
	ErrSubscriberFailure = errors.New("subscriber failure")

	// ErrUnsubscribe may be returned by a handler to remove its own subscription.
	ErrUnsubscribe = errors.New("unsubscribe")
)

// ID identifies a subscription. IDs are unique within the process.
type ID uint32

// Kind selects the event shape a subscription receives.
type Kind uint8

const (
	// KindFrame receives whole frames.
	KindFrame Kind = iota

	// KindPathTransition receives individual path stage transitions.
	KindPathTransition
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindFrame:
		return "FRAME"
	case KindPathTransition:
		return "PATH"
	default:
		return "UNKNOWN"
	}
}

// FrameHandler receives frames.
type FrameHandler interface {
	HandleFrame(frame touch.Frame, refcon any) error
}

// PathHandler receives path stage transitions.
type PathHandler interface {
	HandlePath(event touch.PathEvent, refcon any) error
}

// FrameHandlerFunc adapts a function to FrameHandler.
type FrameHandlerFunc func(frame touch.Frame, refcon any) error

// HandleFrame calls f.
func (f FrameHandlerFunc) HandleFrame(frame touch.Frame, refcon any) error {
	return f(frame, refcon)
}

// PathHandlerFunc adapts a function to PathHandler.
type PathHandlerFunc func(event touch.PathEvent, refcon any) error

// HandlePath calls f.
func (f PathHandlerFunc) HandlePath(event touch.PathEvent, refcon any) error {
	return f(event, refcon)
}

// SubscriberError reports a failed handler invocation.
type SubscriberError struct {
	ID    ID
	Kind  Kind
	Cause error

	// Panic is the recovered value if the handler panicked.
	Panic any
}

func (e *SubscriberError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("subscriber %d (%s) panicked: %v", e.ID, e.Kind, e.Panic)
	}
	return fmt.Sprintf("subscriber %d (%s): %v", e.ID, e.Kind, e.Cause)
}

// Is makes errors.Is(err, ErrSubscriberFailure) match.
func (e *SubscriberError) Is(target error) bool {
	return target == ErrSubscriberFailure
}

func (e *SubscriberError) Unwrap() error {
	return e.Cause
}

// Subscription is one registered handler.
type Subscription struct {
	// invokeMu is held for the duration of each handler call.
	invokeMu sync.Mutex

	// ID is the unique subscription identifier.
	ID ID

	// Kind is the event shape this subscription receives.
	Kind Kind

	// Refcon is the caller-supplied context value.
	Refcon any

	frame FrameHandler
	path  PathHandler

	active atomic.Bool
}

func newSubscription(kind Kind, frame FrameHandler, path PathHandler, refcon any) *Subscription {
	s := &Subscription{
		ID:     nextID(),
		Kind:   kind,
		Refcon: refcon,
		frame:  frame,
		path:   path,
	}
	s.active.Store(true)
	return s
}

// IsActive reports whether the subscription still receives events.
func (s *Subscription) IsActive() bool {
	return s.active.Load()
}

// deactivate waits for an in-progress invocation and prevents further ones.
func (s *Subscription) deactivate() {
	s.invokeMu.Lock()
	s.active.Store(false)
	s.invokeMu.Unlock()
}

// matches reports whether the subscription was registered with exactly this
// handler and refcon.
func (s *Subscription) matches(handler any, refcon any) bool {
	var registered any
	switch s.Kind {
	case KindFrame:
		registered = s.frame
	case KindPathTransition:
		registered = s.path
	}
	return sameValue(registered, handler) && sameValue(s.Refcon, refcon)
}

// invoke runs fn under the invocation lock if the subscription is active.
// It returns whether the handler ran and any failure it produced.
func (s *Subscription) invoke(fn func() error) (ran bool, err error) {
	s.invokeMu.Lock()
	defer s.invokeMu.Unlock()

	if !s.active.Load() {
		return false, nil
	}

	defer func() {
		if r := recover(); r != nil {
			ran = true
			err = &SubscriberError{ID: s.ID, Kind: s.Kind, Panic: r}
		}
	}()

	return true, fn()
}

// sameValue compares two values for identity without panicking on
// non-comparable dynamic types.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// idGenerator generates unique subscription IDs.
var idGenerator atomic.Uint32

// nextID returns the next unique subscription ID.
func nextID() ID {
	return ID(idGenerator.Add(1))
}
