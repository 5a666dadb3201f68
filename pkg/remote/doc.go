// Package remote carries multitouch frames between machines.
//
// A Sender runs next to a physical (or scripted) device and streams its
// frames to a Listener inside a monitor process. The Listener implements
// device.Producer, so remote devices are enumerated, opened and started
// through the same device.Manager as local ones.
//
// # Wire Format
//
// Every message is a CBOR Envelope with integer keys, sent inside a
// length-prefixed frame (see package transport):
//
//	Sender                          Listener
//	  |------ Hello{device} ----------->|
//	  |<----- Accept{conn} / Reject ----|
//	  |------ Frame ------------------->|  (repeated)
//	  |<----- Ping ---------------------|
//	  |------ Pong -------------------->|
//	  |------ Bye --------------------->|
//
// A connection carries exactly one device. Frames are dropped by the
// Listener while the device is not started.
package remote
