package urlsafety

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"
)

type fakeResolver struct {
	addrs map[string][]string
	err   error
	calls int
}

func (f *fakeResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []net.IPAddr
	for _, a := range f.addrs[host] {
		out = append(out, net.IPAddr{IP: net.ParseIP(a)})
	}
	return out, nil
}

func TestCheckRejectsLiteralHosts(t *testing.T) {
	v := New(&fakeResolver{})
	cases := []string{
		"",
		"not a url\x7f",
		"ftp://example.com/file",
		"file:///etc/passwd",
		"javascript:alert(1)",
		"http://localhost:8080",
		"http://api.localhost/",
		"http://127.0.0.1/",
		"http://10.1.2.3/",
		"http://172.16.0.1/",
		"http://172.31.255.255/",
		"http://192.168.1.1/",
		"http://100.64.0.1/",
		"http://100.127.255.254/",
		"http://169.254.169.254/latest/meta-data",
		"http://0.0.0.0/",
		"http://[::1]/",
		"http://[fd00::1]/",
		"http://[fe80::1]/",
		"http://[::ffff:127.0.0.1]/",
		"https:///nohost",
	}
	for _, raw := range cases {
		if err := v.Check(context.Background(), raw); err == nil {
			t.Errorf("expected %q to be rejected", raw)
		} else if !errors.Is(err, ErrUnsafe) {
			t.Errorf("rejection for %q should wrap ErrUnsafe: %v", raw, err)
		}
	}
}

func TestCheckAllowsPublicLiteral(t *testing.T) {
	v := New(&fakeResolver{})
	for _, raw := range []string{"https://93.184.216.34/", "http://172.32.0.1/", "http://100.128.0.1/", "https://[2606:4700::1111]/"} {
		if err := v.Check(context.Background(), raw); err != nil {
			t.Errorf("expected %q to be allowed: %v", raw, err)
		}
	}
}

func TestCheckRejectsPublicNameResolvingPrivate(t *testing.T) {
	pairs := map[string]string{
		"rebind.example.com":   "127.0.0.1",
		"intranet.example.com": "10.0.0.5",
		"router.example.net":   "192.168.0.1",
		"cgnat.example.net":    "100.100.100.200",
		"metadata.example.org": "169.254.169.254",
		"v6.example.com":       "fd12:3456::1",
		"mapped.example.com":   "::ffff:10.0.0.1",
	}
	for host, ip := range pairs {
		res := &fakeResolver{addrs: map[string][]string{host: {"93.184.216.34", ip}}}
		if New(res).IsSafe(context.Background(), "https://"+host+"/wp-json") {
			t.Errorf("%s -> %s should be unsafe", host, ip)
		}
	}
}

func TestCheckResolvesPublicName(t *testing.T) {
	res := &fakeResolver{addrs: map[string][]string{"blog.example.com": {"93.184.216.34"}}}
	if err := New(res).Check(context.Background(), "https://blog.example.com/"); err != nil {
		t.Fatalf("expected public host to pass: %v", err)
	}
	if res.calls != 1 {
		t.Fatalf("expected one lookup, got %d", res.calls)
	}
}

func TestCheckFailsClosedOnResolutionError(t *testing.T) {
	res := &fakeResolver{err: errors.New("no such host")}
	if New(res).IsSafe(context.Background(), "https://missing.example.com/") {
		t.Fatalf("resolution failure must be unsafe")
	}
	if New(&fakeResolver{}).IsSafe(context.Background(), "https://empty.example.com/") {
		t.Fatalf("empty resolution must be unsafe")
	}
}

func TestDialControl(t *testing.T) {
	if err := DialControl("tcp", "127.0.0.1:443", nil); err == nil {
		t.Fatalf("expected loopback dial to be refused")
	}
	if err := DialControl("tcp", "[fe80::1]:80", nil); err == nil {
		t.Fatalf("expected link-local dial to be refused")
	}
	if err := DialControl("tcp", "93.184.216.34:443", nil); err != nil {
		t.Fatalf("public dial refused: %v", err)
	}
}

func TestIsPrivateAddrIgnoresZone(t *testing.T) {
	if !IsPrivateAddr(netip.MustParseAddr("fe80::1%eth0")) {
		t.Fatalf("zoned link-local should be private")
	}
}

func TestAllowAll(t *testing.T) {
	if err := AllowAll.Check(context.Background(), "http://127.0.0.1"); err != nil {
		t.Fatalf("AllowAll rejected: %v", err)
	}
}
