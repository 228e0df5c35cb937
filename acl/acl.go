// Package acl decides whether an outbound connection to a resolved IP
// address is permitted. The check runs after DNS resolution and before any
// TCP connect, so a hostname that resolves to an internal address can never
// be dialed.
package acl

import (
	"errors"
	"fmt"
	"net"
)

// ErrNonGlobalIP is returned for addresses that are not globally routable.
var ErrNonGlobalIP = errors.New("address is not globally routable")

// Policy is the egress ACL. IPs, ports and hosts are allowed by default;
// the only rule is the optional rejection of non-global address ranges.
type Policy struct {
	BlockNonGlobalIPs bool
}

// Check returns ErrNonGlobalIP when the policy blocks ip.
func (p Policy) Check(ip net.IP) error {
	if p.BlockNonGlobalIPs && !isGlobal(ip) {
		return fmt.Errorf("%w: %s", ErrNonGlobalIP, ip)
	}
	return nil
}

var nonGlobalNets = mustParseCIDRs(
	"0.0.0.0/8",          // "this network"
	"100.64.0.0/10",      // carrier-grade NAT
	"192.0.0.0/24",       // IETF protocol assignments
	"192.0.2.0/24",       // TEST-NET-1
	"198.18.0.0/15",      // benchmarking
	"198.51.100.0/24",    // TEST-NET-2
	"203.0.113.0/24",     // TEST-NET-3
	"240.0.0.0/4",        // reserved
	"255.255.255.255/32", // broadcast
	"2001:db8::/32",      // documentation
	"fc00::/7",           // unique-local
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}

// isGlobal reports whether ip is a public, globally routable address.
// Loopback, private (RFC 1918), link-local, unique-local, carrier-grade
// NAT, unspecified, multicast and reserved ranges are all non-global, in
// both their IPv4 and IPv6 (including IPv4-mapped) shapes.
func isGlobal(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip4 := ip.To4(); ip4 != nil {
		ip = ip4
	}
	switch {
	case ip.IsUnspecified(),
		ip.IsLoopback(),
		ip.IsPrivate(),
		ip.IsLinkLocalUnicast(),
		ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(),
		ip.IsMulticast():
		return false
	}
	for _, n := range nonGlobalNets {
		if n.Contains(ip) {
			return false
		}
	}
	return true
}
