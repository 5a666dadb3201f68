package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listenerEntry(instance string, ips ...string) *zeroconf.ServiceEntry {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: instance, Service: ServiceType, Domain: Domain},
	}
	entry.HostName = instance + ".local."
	entry.Port = DefaultPort
	entry.Text = []string{"sid=session-" + instance, "pv=1", "dc=1"}
	for _, ip := range ips {
		parsed := net.ParseIP(ip)
		if parsed.To4() != nil {
			entry.AddrIPv4 = append(entry.AddrIPv4, parsed)
		} else {
			entry.AddrIPv6 = append(entry.AddrIPv6, parsed)
		}
	}
	return entry
}

func TestEntryToListener(t *testing.T) {
	svc := entryToListener(listenerEntry("desk", "10.0.0.5", "fe80::5"))
	require.NotNil(t, svc)
	assert.Equal(t, "desk", svc.InstanceName)
	assert.Equal(t, "desk.local.", svc.Host)
	assert.Equal(t, uint16(DefaultPort), svc.Port)
	assert.Equal(t, []string{"10.0.0.5", "fe80::5"}, svc.Addresses)
	assert.Equal(t, "session-desk", svc.SessionID)
	assert.Equal(t, uint8(1), svc.Protocol)
	assert.Equal(t, 1, svc.DeviceCount)

	bad := listenerEntry("broken")
	bad.Text = []string{"pv=1"}
	assert.Nil(t, entryToListener(bad))
}

func TestAggregateMergesInstances(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	out := make(chan *ListenerService, 4)
	done := make(chan struct{})
	go func() {
		aggregate(ctx, entries, removed, out)
		close(done)
	}()

	entries <- listenerEntry("desk", "10.0.0.5")
	first := <-out
	assert.Equal(t, []string{"10.0.0.5"}, first.Addresses)

	// Same instance on a second interface is merged, not re-emitted.
	entries <- listenerEntry("desk", "10.0.0.5", "192.168.1.5")
	entries <- listenerEntry("bench", "10.0.0.9")
	second := <-out
	assert.Equal(t, "bench", second.InstanceName)

	removed <- listenerEntry("desk", "10.0.0.5", "192.168.1.5")
	// After the removal the instance is forgotten and is emitted again.
	entries <- listenerEntry("desk", "10.0.0.7")
	third := <-out
	assert.Equal(t, "desk", third.InstanceName)
	assert.Equal(t, []string{"10.0.0.7"}, third.Addresses)

	// Invalid TXT is ignored.
	bad := listenerEntry("noise")
	bad.Text = nil
	entries <- bad

	close(entries)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("aggregate did not stop")
	}
	_, open := <-out
	assert.False(t, open)
}

func TestAggregateStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan *ListenerService)
	done := make(chan struct{})
	go func() {
		aggregate(ctx, make(chan *zeroconf.ServiceEntry), make(chan *zeroconf.ServiceEntry), out)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("aggregate ignored cancellation")
	}
}

func TestMergeAndRemoveAddresses(t *testing.T) {
	merged := mergeAddresses([]string{"a", "b"}, []string{"b", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, merged)
	assert.Equal(t, []string{"a"}, removeAddresses(merged, []string{"b", "c", "z"}))
	assert.Empty(t, removeAddresses(merged, merged))
}

func TestMDNSAdvertiserUnknownInstance(t *testing.T) {
	a := NewMDNSAdvertiser(DefaultAdvertiserConfig())
	assert.ErrorIs(t, a.Update(&ListenerInfo{InstanceName: "missing"}), ErrNotFound)
	assert.ErrorIs(t, a.Stop("missing"), ErrNotFound)
	assert.ErrorIs(t, a.Advertise(context.Background(), &ListenerInfo{}), ErrInstanceNameTooLong)
	a.StopAll()
	assert.Zero(t, a.Advertised())
}

func TestDefaultConfigs(t *testing.T) {
	assert.Equal(t, BrowseTimeout, DefaultBrowserConfig().BrowseTimeout)
	assert.Equal(t, DefaultTTL, DefaultAdvertiserConfig().TTL)
}
