package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// Browser finds listeners on the local network.
type Browser interface {
	// Browse streams listeners as they appear. The channel closes when ctx
	// is done.
	Browse(ctx context.Context) (<-chan *ListenerService, error)

	// FindFirst returns the first listener speaking ProtocolVersion.
	FindFirst(ctx context.Context) (*ListenerService, error)

	// Stop cancels every active browse.
	Stop()
}

// BrowserConfig configures an MDNSBrowser.
type BrowserConfig struct {
	// BrowseTimeout bounds FindFirst when ctx has no deadline.
	BrowseTimeout time.Duration

	// Interface restricts browsing to one interface. Empty means all.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{BrowseTimeout: BrowseTimeout}
}

// MDNSBrowser implements Browser using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig

	mu      sync.Mutex
	cancels []context.CancelFunc
}

// NewMDNSBrowser creates a browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	return &MDNSBrowser{config: config}
}

// Browse streams listeners. Entries for the same instance seen on several
// interfaces are merged and only the first sighting is emitted.
func (b *MDNSBrowser) Browse(ctx context.Context) (<-chan *ListenerService, error) {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancels = append(b.cancels, cancel)
	b.mu.Unlock()

	out := make(chan *ListenerService)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go aggregate(ctx, entries, removed, out)

	var opts []zeroconf.ClientOption
	if ifaces := selectInterface(b.config.Interface); ifaces != nil {
		opts = append(opts, zeroconf.SelectIfaces(ifaces))
	}
	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...)
	}()

	return out, nil
}

// FindFirst returns the first listener with a matching protocol version.
func (b *MDNSBrowser) FindFirst(ctx context.Context) (*ListenerService, error) {
	if _, ok := ctx.Deadline(); !ok && b.config.BrowseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.config.BrowseTimeout)
		defer cancel()
	}

	results, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}
	for {
		select {
		case svc, ok := <-results:
			if !ok {
				return nil, ErrNotFound
			}
			if svc.Protocol == ProtocolVersion {
				return svc, nil
			}
		case <-ctx.Done():
			return nil, ErrNotFound
		}
	}
}

// Stop cancels every browse started by this browser.
func (b *MDNSBrowser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, cancel := range b.cancels {
		cancel()
	}
	b.cancels = nil
}

// aggregate folds zeroconf entries into ListenerServices keyed by instance.
func aggregate(ctx context.Context, entries, removed <-chan *zeroconf.ServiceEntry, out chan<- *ListenerService) {
	defer close(out)

	services := make(map[string]*ListenerService)
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return
			}
			svc := entryToListener(entry)
			if svc == nil {
				continue
			}
			if existing, found := services[svc.InstanceName]; found {
				existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
				continue
			}
			services[svc.InstanceName] = svc
			select {
			case out <- svc:
			case <-ctx.Done():
				return
			}

		case entry, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			if existing, found := services[entry.Instance]; found {
				existing.Addresses = removeAddresses(existing.Addresses, entryAddresses(entry))
				if len(existing.Addresses) == 0 {
					delete(services, entry.Instance)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

// entryToListener converts a zeroconf entry. Entries with unusable TXT
// records yield nil.
func entryToListener(entry *zeroconf.ServiceEntry) *ListenerService {
	info, err := DecodeListenerTXT(StringsToTXTRecords(entry.Text))
	if err != nil {
		return nil
	}
	return &ListenerService{
		InstanceName: entry.Instance,
		Host:         entry.HostName,
		Port:         uint16(entry.Port),
		Addresses:    entryAddresses(entry),
		SessionID:    info.SessionID,
		Protocol:     info.Protocol,
		DeviceCount:  info.DeviceCount,
		Name:         info.Name,
	}
}

func entryAddresses(entry *zeroconf.ServiceEntry) []string {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return addrs
}

// mergeAddresses appends addresses not already present.
func mergeAddresses(existing, add []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range add {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses drops every address listed in drop.
func removeAddresses(addresses, drop []string) []string {
	gone := make(map[string]bool, len(drop))
	for _, addr := range drop {
		gone[addr] = true
	}
	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !gone[addr] {
			result = append(result, addr)
		}
	}
	return result
}

var _ Browser = (*MDNSBrowser)(nil)
