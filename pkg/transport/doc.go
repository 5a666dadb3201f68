// Package transport provides the byte-level plumbing of remote frame feeds.
//
// The transport layer handles:
//   - Length-prefixed message framing
//   - Keep-alive ping/pong for connection liveness
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      CBOR Messages             │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// # Keep-Alive
//
// The receiving side pings feeds it has not heard from; a feed that misses
// MaxMissedPongs pongs in a row is considered unplugged.
package transport
