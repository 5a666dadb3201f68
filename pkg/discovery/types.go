package discovery

import (
	"errors"
	"net"
	"strconv"
	"time"
)

// Service constants for mDNS.
const (
	// ServiceType is the mDNS service type of a frame listener.
	ServiceType = "_mtframes._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default listener port.
	DefaultPort = 7438

	// ProtocolVersion is the wire protocol version advertised in TXT.
	ProtocolVersion = 1
)

// TXT record keys.
const (
	TXTKeySession     = "sid"
	TXTKeyProtocol    = "pv"
	TXTKeyDeviceCount = "dc"
	TXTKeyName        = "nm"
)

// Timing constants.
const (
	// BrowseTimeout is the default timeout for FindFirst.
	BrowseTimeout = 10 * time.Second

	// DefaultTTL is the record TTL used when none is configured.
	DefaultTTL = 120 * time.Second
)

// MaxInstanceNameLen is the DNS label limit.
const MaxInstanceNameLen = 63

// Errors.
var (
	ErrNotFound            = errors.New("listener not found")
	ErrInvalidTXTRecord    = errors.New("invalid TXT record")
	ErrMissingRequired     = errors.New("missing required TXT field")
	ErrInstanceNameTooLong = errors.New("instance name too long")
	ErrAlreadyAdvertising  = errors.New("instance already advertised")
)

// ListenerInfo is what a listener publishes about itself.
type ListenerInfo struct {
	// InstanceName is the DNS-SD instance label.
	InstanceName string

	// SessionID is the monitor's capture session id.
	SessionID string

	// Protocol is the wire protocol version.
	Protocol uint8

	// DeviceCount is the number of attached remote devices.
	DeviceCount int

	// Name is an optional display name.
	Name string

	// Port is the TCP port of the listener. Zero means DefaultPort.
	Port uint16
}

// ListenerService is a listener found while browsing.
type ListenerService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string

	SessionID   string
	Protocol    uint8
	DeviceCount int
	Name        string
}

// Address returns a dialable host:port, preferring the first resolved
// address over the host name.
func (s *ListenerService) Address() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return net.JoinHostPort(host, strconv.Itoa(int(s.Port)))
}
