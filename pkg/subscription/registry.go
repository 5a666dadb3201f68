package subscription

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/mtsupport/mt-go/pkg/touch"
)

// ErrNilHandler is returned when registering a nil handler.
var ErrNilHandler = errors.New("nil handler")

// Registry holds the subscriptions of one device.
type Registry struct {
	mu sync.RWMutex

	// subs holds subscriptions of both kinds in registration order.
	subs []*Subscription

	byID map[ID]*Subscription

	// Logger for debug output (optional)
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[ID]*Subscription),
	}
}

// SetLogger sets the logger for debug output. Pass nil to disable.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterFrame subscribes h to whole frames.
// Handlers that are not comparable, such as FrameHandlerFunc values, can only
// be removed with Unregister and the returned ID.
func (r *Registry) RegisterFrame(h FrameHandler, refcon any) (ID, error) {
	if h == nil {
		return 0, ErrNilHandler
	}
	return r.add(newSubscription(KindFrame, h, nil, refcon)), nil
}

// RegisterPath subscribes h to path stage transitions.
// As with RegisterFrame, PathHandlerFunc values can only be removed by ID.
func (r *Registry) RegisterPath(h PathHandler, refcon any) (ID, error) {
	if h == nil {
		return 0, ErrNilHandler
	}
	return r.add(newSubscription(KindPathTransition, nil, h, refcon)), nil
}

func (r *Registry) add(s *Subscription) ID {
	r.mu.Lock()
	r.subs = append(r.subs, s)
	r.byID[s.ID] = s
	logger := r.logger
	r.mu.Unlock()

	if logger != nil {
		logger.Debug("subscription registered", "id", s.ID, "kind", s.Kind.String())
	}
	return s.ID
}

// Unregister removes the subscription with the given ID.
// It returns false if no such subscription exists. When it returns true, no
// further invocation of the handler will start and none is in progress.
func (r *Registry) Unregister(id ID) bool {
	r.mu.Lock()
	s, ok := r.byID[id]
	if ok {
		r.removeLocked(s)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.deactivate()
	return true
}

// UnregisterFrame removes the oldest frame subscription registered with
// exactly this handler and refcon. It never matches a non-comparable handler.
func (r *Registry) UnregisterFrame(h FrameHandler, refcon any) bool {
	return r.unregisterMatching(KindFrame, h, refcon)
}

// UnregisterPath removes the oldest path subscription registered with
// exactly this handler and refcon.
func (r *Registry) UnregisterPath(h PathHandler, refcon any) bool {
	return r.unregisterMatching(KindPathTransition, h, refcon)
}

func (r *Registry) unregisterMatching(kind Kind, handler any, refcon any) bool {
	r.mu.Lock()
	var found *Subscription
	for _, s := range r.subs {
		if s.Kind == kind && s.matches(handler, refcon) {
			found = s
			break
		}
	}
	if found != nil {
		r.removeLocked(found)
	}
	r.mu.Unlock()

	if found == nil {
		return false
	}
	found.deactivate()
	return true
}

// removeLocked drops s from the indexes. Caller holds r.mu.
func (r *Registry) removeLocked(s *Subscription) {
	delete(r.byID, s.ID)
	for i, cur := range r.subs {
		if cur == s {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			break
		}
	}
}

// DispatchFrame delivers frame to every frame subscription.
// Failures are returned, one per failed subscriber; they do not stop dispatch.
func (r *Registry) DispatchFrame(frame touch.Frame) []error {
	return r.dispatch(KindFrame, func(s *Subscription) error {
		return s.frame.HandleFrame(frame, s.Refcon)
	})
}

// DispatchPath delivers event to every path transition subscription.
func (r *Registry) DispatchPath(event touch.PathEvent) []error {
	return r.dispatch(KindPathTransition, func(s *Subscription) error {
		return s.path.HandlePath(event, s.Refcon)
	})
}

func (r *Registry) dispatch(kind Kind, call func(*Subscription) error) []error {
	snapshot := r.snapshot(kind)

	var failures []error
	for _, s := range snapshot {
		_, err := s.invoke(func() error { return call(s) })
		if err == nil {
			continue
		}
		if errors.Is(err, ErrUnsubscribe) {
			r.Unregister(s.ID)
			continue
		}

		var se *SubscriberError
		if !errors.As(err, &se) || se.ID != s.ID {
			err = &SubscriberError{ID: s.ID, Kind: kind, Cause: err}
		}
		r.debugLog("subscriber failed", "id", s.ID, "kind", kind.String(), "error", err)
		failures = append(failures, err)
	}
	return failures
}

// snapshot returns the active subscriptions of kind in registration order.
func (r *Registry) snapshot(kind Kind) []*Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Subscription, 0, len(r.subs))
	for _, s := range r.subs {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// Clear removes all subscriptions and returns how many were removed.
// It waits for in-progress invocations to finish.
func (r *Registry) Clear() int {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.byID = make(map[ID]*Subscription)
	r.mu.Unlock()

	for _, s := range subs {
		s.deactivate()
	}
	return len(subs)
}

// Count returns the number of subscriptions of the given kind.
func (r *Registry) Count(kind Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, s := range r.subs {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// Len returns the total number of subscriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Get returns a subscription by ID.
func (r *Registry) Get(id ID) (*Subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// List returns the subscriptions in registration order.
func (r *Registry) List() []*Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Subscription, len(r.subs))
	copy(out, r.subs)
	return out
}

func (r *Registry) debugLog(msg string, args ...any) {
	r.mu.RLock()
	logger := r.logger
	r.mu.RUnlock()
	if logger != nil {
		logger.Debug(msg, args...)
	}
}
