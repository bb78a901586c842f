package discovery

import (
	"fmt"
	"time"
)

// Portal represents a provisioning portal discovered on the local network
type Portal struct {
	// Instance is the mDNS instance name (the access point name, e.g. "CO2Monitor-Setup")
	Instance string

	// Hostname is the mDNS hostname of the advertising device
	Hostname string

	// IP is the portal address, IPv4 preferred (e.g., "192.168.4.1")
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata contains the TXT record data
	// Common fields: "netmgr=<version>", "path=/"
	Metadata map[string]string

	// DiscoveredAt is when the portal was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable representation of the portal
func (p *Portal) String() string {
	return fmt.Sprintf("Provisioning portal %q (%s) at %s:%d", p.Instance, p.Hostname, p.IP, p.Port)
}

// BaseURL returns the HTTP base URL for the portal
func (p *Portal) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", p.IP, p.Port)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (p *Portal) GetMetadata(key string) string {
	if p.Metadata == nil {
		return ""
	}
	return p.Metadata[key]
}
