// Package discovery announces and finds netmgr provisioning portals over
// multicast DNS.
//
// While the device is in access-point mode its portal registers an
// "_http._tcp" service named after the access point, with a "netmgr" TXT
// key carrying the build version. A phone or laptop joined to the access
// point can then find the portal without knowing its address:
//
//	portals, err := discovery.NewScanner().Scan(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, p := range portals {
//	    fmt.Println(p.Instance, p.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Firewall must allow mDNS (UDP port 5353)
package discovery
