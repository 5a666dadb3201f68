// Package discovery advertises and finds remote frame listeners over mDNS.
//
// A monitor that accepts remote feeds registers itself as
//
//	<instance>._mtframes._tcp.local
//
// with TXT records describing the listener:
//
//	sid  capture session id of the monitor
//	pv   wire protocol version
//	dc   number of remote devices currently attached
//	nm   human readable monitor name (optional)
//
// Feed senders browse for the service type and connect to the first
// listener that speaks their protocol version.
package discovery
