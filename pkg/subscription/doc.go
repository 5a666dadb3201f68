// Package subscription implements the callback registry for multitouch devices.
//
// Two kinds of subscription exist:
//   - Frame: receives every frame delivered by the device
//   - PathTransition: receives one PathEvent per path stage change
//
// Each subscription carries an optional refcon value. The refcon is passed
// back to the handler on every invocation and takes part in handler-based
// unregistration, so the same handler registered with two refcons yields two
// distinguishable subscriptions.
//
// # Identity
//
// Register returns a subscription ID; Unregister(id) is the primary way to
// remove a subscription. UnregisterFrame and UnregisterPath remove by
// (handler, refcon) identity and require a comparable handler value, such as
// a pointer to a struct. Bare function adapters are not comparable and can
// only be removed by ID.
//
// Registering the same (handler, refcon) pair twice creates two independent
// subscriptions.
//
// # Dispatch
//
// Dispatch invokes matching subscriptions in registration order, from a
// snapshot taken when fan-out starts. Each subscription is invoked under its
// own lock, so Unregister blocks until an in-progress invocation of that
// subscription has returned, and no invocation starts after Unregister
// returns.
//
// A handler that returns an error or panics does not stop dispatch to the
// remaining subscribers; the failure is returned as a *SubscriberError.
// A handler may remove itself by returning ErrUnsubscribe. Calling Unregister
// for a subscription from inside its own handler deadlocks.
//
// Handlers have no timeout. A handler that blocks forever blocks every later
// delivery for its device.
package subscription
