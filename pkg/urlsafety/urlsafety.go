// Package urlsafety decides whether a caller-supplied URL may be fetched by the server.
// It rejects non-HTTP schemes, localhost and private, shared (CGNAT), loopback or link-local addresses,
// both as written in the URL and as resolved through DNS.
package urlsafety

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
)

// ErrUnsafe is wrapped by every rejection returned from Check.
var ErrUnsafe = errors.New("unsafe url")

// Resolver is the subset of net.Resolver the validator needs.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Guard vets an outbound fetch target before any request is sent.
type Guard interface {
	Check(ctx context.Context, raw string) error
}

var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"), // carrier-grade NAT
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("::/128"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
}

// Validator implements Guard using a DNS resolver.
type Validator struct {
	resolver Resolver
}

// New returns a Validator. A nil resolver uses net.DefaultResolver.
func New(resolver Resolver) *Validator {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Validator{resolver: resolver}
}

var defaultValidator = New(nil)

// IsSafeURL reports whether raw may be fetched, using the system resolver.
func IsSafeURL(ctx context.Context, raw string) bool {
	return defaultValidator.IsSafe(ctx, raw)
}

// IsSafe reports whether raw passes Check.
func (v *Validator) IsSafe(ctx context.Context, raw string) bool {
	return v.Check(ctx, raw) == nil
}

// Check returns nil when raw is an http(s) URL whose host, literally and after resolution,
// is not a private, loopback or link-local address. Resolution failures are rejections.
func (v *Validator) Check(ctx context.Context, raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: malformed url: %v", ErrUnsafe, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q not allowed", ErrUnsafe, u.Scheme)
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrUnsafe)
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w: localhost not allowed", ErrUnsafe)
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		if IsPrivateAddr(addr) {
			return fmt.Errorf("%w: address %s is private", ErrUnsafe, addr)
		}
		return nil
	}

	addrs, err := v.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %v", ErrUnsafe, host, err)
	}
	if len(addrs) == 0 {
		return fmt.Errorf("%w: %s resolved to no addresses", ErrUnsafe, host)
	}
	for _, ipAddr := range addrs {
		addr, ok := netip.AddrFromSlice(ipAddr.IP)
		if !ok {
			return fmt.Errorf("%w: %s resolved to an unparseable address", ErrUnsafe, host)
		}
		if IsPrivateAddr(addr) {
			return fmt.Errorf("%w: %s resolves to private address %s", ErrUnsafe, host, addr.Unmap())
		}
	}
	return nil
}

// IsPrivateAddr reports whether addr is loopback, private, link-local or unspecified.
// IPv4-mapped IPv6 addresses are checked as IPv4.
func IsPrivateAddr(addr netip.Addr) bool {
	addr = addr.Unmap().WithZone("")
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// DialControl is a net.Dialer Control hook refusing connections to private addresses.
// It closes the gap between the pre-flight DNS check and the address actually dialed.
func DialControl(_, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: dial address %q: %v", ErrUnsafe, address, err)
	}
	if IsPrivateAddr(ap.Addr()) {
		return fmt.Errorf("%w: refusing to dial private address %s", ErrUnsafe, ap.Addr())
	}
	return nil
}

type allowAll struct{}

func (allowAll) Check(context.Context, string) error { return nil }

// AllowAll is a Guard that accepts every URL. Only meant for tests against loopback servers.
var AllowAll Guard = allowAll{}
