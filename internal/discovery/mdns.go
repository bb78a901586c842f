package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/netmgr/internal/logging"
)

const (
	// ServiceType is the mDNS service type the portal advertises
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for portal discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the default portal HTTP port
	DefaultPort = 80

	// MarkerKey is the TXT key that identifies a netmgr portal
	MarkerKey = "netmgr"
)

// Advertiser announces the provisioning portal over mDNS while it is serving.
type Advertiser struct {
	instance string
	port     int
	text     []string

	mu       sync.Mutex
	server   *zeroconf.Server
	register func(instance, service, domain string, port int, text []string, ifaces []net.Interface) (*zeroconf.Server, error)
}

// NewAdvertiser creates an advertiser for the portal at port. version is
// published as the marker TXT value.
func NewAdvertiser(instance string, port int, version string) *Advertiser {
	return &Advertiser{
		instance: instance,
		port:     port,
		text:     []string{MarkerKey + "=" + version, "path=/"},
		register: zeroconf.Register,
	}
}

// Start registers the service. Calling Start while registered is a no-op.
func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		return nil
	}

	server, err := a.register(a.instance, ServiceType, ServiceDomain, a.port, a.text, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	a.server = server

	logging.Info("Portal advertised over mDNS",
		zap.String("instance", a.instance),
		zap.Int("port", a.port),
	)
	return nil
}

// Stop withdraws the registration
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
	logging.Info("Portal mDNS advertisement withdrawn", zap.String("instance", a.instance))
}

// Scanner handles mDNS portal discovery
type Scanner struct {
	// Timeout is the maximum time to wait for discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan discovers every netmgr portal that answers before the timeout.
func (s *Scanner) Scan(ctx context.Context) ([]*Portal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu      sync.Mutex
		portals = make([]*Portal, 0)
		done    = make(chan struct{})
	)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		defer close(done)
		for entry := range entries {
			if p := s.parseServiceEntry(entry); p != nil {
				mu.Lock()
				portals = append(portals, p)
				mu.Unlock()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// The resolver closes entries once browsing stops
	select {
	case <-done:
	case <-time.After(time.Second):
	}

	mu.Lock()
	defer mu.Unlock()
	return portals, nil
}

// WaitFor waits for the portal with the given instance name.
func (s *Scanner) WaitFor(ctx context.Context, instance string) (*Portal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Portal, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			p := s.parseServiceEntry(entry)
			if p != nil && p.Instance == instance {
				select {
				case found <- p:
				default:
				}
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case p := <-found:
		return p, nil
	case <-ctx.Done():
		select {
		case p := <-found:
			return p, nil
		default:
		}
		return nil, fmt.Errorf("portal %q not found within timeout", instance)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Portal.
// Returns nil if the entry does not carry the netmgr marker.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Portal {
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}
	if _, ok := metadata[MarkerKey]; !ok {
		return nil
	}

	// Prefer IPv4
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Portal{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
