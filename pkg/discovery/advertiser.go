package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// Advertiser publishes listeners on the local network.
type Advertiser interface {
	// Advertise registers info. The instance name must not be advertised
	// already.
	Advertise(ctx context.Context, info *ListenerInfo) error

	// Update replaces the TXT records of an advertised instance.
	Update(info *ListenerInfo) error

	// Stop withdraws one instance.
	Stop(instanceName string) error

	// StopAll withdraws every instance.
	StopAll()
}

// AdvertiserConfig configures an MDNSAdvertiser.
type AdvertiserConfig struct {
	// Interface restricts advertising to one interface. Empty means all.
	Interface string

	// TTL is the record TTL. Zero uses the zeroconf default.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{TTL: DefaultTTL}
}

// MDNSAdvertiser implements Advertiser using zeroconf.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu      sync.Mutex
	servers map[string]*zeroconf.Server
}

// NewMDNSAdvertiser creates an advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) *MDNSAdvertiser {
	return &MDNSAdvertiser{
		config:  config,
		servers: make(map[string]*zeroconf.Server),
	}
}

// Advertise registers the listener described by info.
func (a *MDNSAdvertiser) Advertise(_ context.Context, info *ListenerInfo) error {
	if err := ValidateInstanceName(info.InstanceName); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.servers[info.InstanceName]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyAdvertising, info.InstanceName)
	}

	port := int(info.Port)
	if port == 0 {
		port = DefaultPort
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		info.InstanceName,
		ServiceType,
		Domain,
		port,
		TXTRecordsToStrings(EncodeListenerTXT(info)),
		a.interfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register listener service: %w", err)
	}

	a.servers[info.InstanceName] = server
	return nil
}

// Update replaces the TXT records of an advertised listener.
func (a *MDNSAdvertiser) Update(info *ListenerInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	server, exists := a.servers[info.InstanceName]
	if !exists {
		return ErrNotFound
	}
	server.SetText(TXTRecordsToStrings(EncodeListenerTXT(info)))
	return nil
}

// Stop withdraws one listener.
func (a *MDNSAdvertiser) Stop(instanceName string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	server, exists := a.servers[instanceName]
	if !exists {
		return ErrNotFound
	}
	server.Shutdown()
	delete(a.servers, instanceName)
	return nil
}

// StopAll withdraws every listener.
func (a *MDNSAdvertiser) StopAll() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for name, server := range a.servers {
		server.Shutdown()
		delete(a.servers, name)
	}
}

// Advertised returns the number of registered instances.
func (a *MDNSAdvertiser) Advertised() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.servers)
}

// interfaces returns nil to use every interface.
func (a *MDNSAdvertiser) interfaces() []net.Interface {
	return selectInterface(a.config.Interface)
}

func selectInterface(name string) []net.Interface {
	if name == "" {
		return nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

var _ Advertiser = (*MDNSAdvertiser)(nil)
