package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/hideki0403/nokogiri/acl"
)

// ErrBlockedHost is returned when every address a hostname resolves to is
// rejected by the egress policy. It is deliberately distinct from transport
// errors: a blocked host is an expected operational state, not a failure.
var ErrBlockedHost = errors.New("host resolution blocked")

const dialKeepAlive = 30 * time.Second

// Dialer resolves hostnames itself (A and AAAA) so the egress policy can
// veto every candidate address before a connection is attempted.
type Dialer struct {
	policy   acl.Policy
	resolver *net.Resolver
	dialer   *net.Dialer
}

func NewDialer(policy acl.Policy, connectTimeout time.Duration) *Dialer {
	return &Dialer{
		policy:   policy,
		resolver: net.DefaultResolver,
		dialer: &net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: dialKeepAlive,
		},
	}
}

// DialContext implements the http.Transport DialContext contract.
func (d *Dialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	switch network {
	case "tcp", "tcp4", "tcp6":
	default:
		return nil, fmt.Errorf("%s is not a supported network type", network)
	}

	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}

	if ip := net.ParseIP(host); ip != nil {
		if err := d.policy.Check(ip); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBlockedHost, err)
		}
		return d.dialer.DialContext(ctx, network, address)
	}

	addrs, err := d.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}

	var allowed []net.IPAddr
	for _, addr := range addrs {
		if d.policy.Check(addr.IP) == nil {
			allowed = append(allowed, addr)
		}
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("%w: %s resolves only to blocked addresses", ErrBlockedHost, host)
	}

	var firstErr error
	for _, addr := range allowed {
		conn, err := d.dialer.DialContext(ctx, network, net.JoinHostPort(addr.IP.String(), port))
		if err == nil {
			return conn, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
