// Package device manages multitouch devices: discovery through a Producer,
// per-device Handles with a Created/Running/Stopped/Released lifecycle, and
// delivery of producer frames through the path tracker to subscribers.
//
// A Manager is the FrameSink handed to the producer. Producers may call
// DeliverRawFrame from any goroutine. Frames of one device are ingested and
// dispatched one at a time; different devices are independent.
//
// Subscribers run on the delivering goroutine. A subscriber that blocks
// blocks its device. Calling Stop or Release on a handle from inside one of
// its own callbacks deadlocks; return subscription.ErrUnsubscribe instead or
// stop the handle from another goroutine.
package device
