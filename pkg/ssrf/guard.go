package ssrf

import (
	"context"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

// Result describes the outcome of a URL validation.
type Result struct {
	// Allowed indicates whether the URL may be fetched.
	Allowed bool

	// Host is the hostname that was validated.
	Host string

	// Addresses is the full set of resolved addresses.
	Addresses []netip.Addr

	// BlockedAddr is the address that triggered rejection (zero when
	// allowed or when rejection happened before resolution).
	BlockedAddr netip.Addr

	// Reason is a human-readable rejection explanation.
	Reason string
}

// Error is returned when a URL fails validation. It wraps the structured
// result so callers can report which address tripped the guard.
type Error struct {
	URL    string
	Result *Result
}

func (e *Error) Error() string {
	return fmt.Sprintf("ssrf blocked %s: %s", e.URL, e.Result.Reason)
}

// Guard validates URLs before any network request is issued.
type Guard struct {
	resolver Resolver
	allow    []netip.Prefix
}

// NewGuard creates a guard using the system DNS resolver.
func NewGuard() *Guard {
	return &Guard{resolver: systemResolver{}}
}

// NewGuardWithResolver creates a guard with a custom resolver, for tests.
func NewGuardWithResolver(r Resolver) *Guard {
	return &Guard{resolver: r}
}

// AllowPrefixes exempts address prefixes from the class checks. This is
// for deliberately sanctioned internal targets (integration harnesses,
// an explicit on-prem mirror); a production guard keeps the list empty.
func (g *Guard) AllowPrefixes(prefixes ...netip.Prefix) {
	g.allow = append(g.allow, prefixes...)
}

func (g *Guard) allowed(addr netip.Addr) bool {
	for _, p := range g.allow {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Validate checks a URL. It returns a structured result, and an *Error
// when the URL is rejected. The scheme must be http or https; embedded
// userinfo is stripped before the host is examined; literal IPs are
// validated directly and hostnames are resolved to every A/AAAA address,
// all of which must be public.
func (g *Guard) Validate(ctx context.Context, rawURL string) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		res := &Result{Reason: fmt.Sprintf("unparseable URL: %v", err)}
		return res, &Error{URL: rawURL, Result: res}
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		res := &Result{Reason: fmt.Sprintf("scheme %q is not allowed", u.Scheme)}
		return res, &Error{URL: rawURL, Result: res}
	}

	// Credentials embedded in the URL never reach the wire.
	u.User = nil

	host := u.Hostname()
	if host == "" {
		res := &Result{Reason: "URL has no host"}
		return res, &Error{URL: rawURL, Result: res}
	}

	res := &Result{Host: host}

	// Literal addresses validate directly, including bracketed v6 with
	// zone; shorthand forms normalize through netip before the class
	// checks so decoded aliases cannot dodge them.
	if addr, err := netip.ParseAddr(host); err == nil {
		res.Addresses = []netip.Addr{addr.Unmap()}
	} else {
		addrs, err := g.resolver.LookupNetIP(ctx, host)
		if err != nil {
			res.Reason = fmt.Sprintf("DNS resolution failed for %s: %v", host, err)
			return res, &Error{URL: rawURL, Result: res}
		}
		if len(addrs) == 0 {
			res.Reason = fmt.Sprintf("no addresses resolved for %s", host)
			return res, &Error{URL: rawURL, Result: res}
		}
		for _, a := range addrs {
			res.Addresses = append(res.Addresses, a.Unmap())
		}
	}

	for _, addr := range res.Addresses {
		if g.allowed(addr) {
			continue
		}
		if reason := classifyAddr(addr); reason != "" {
			res.BlockedAddr = addr
			res.Reason = fmt.Sprintf("%s resolves to %s (%s)", host, addr, reason)
			return res, &Error{URL: rawURL, Result: res}
		}
	}

	res.Allowed = true
	return res, nil
}

// ResolveValidated resolves host through the guard's resolver and runs
// the class checks on every returned address; literal addresses are
// checked directly. Dialers use this so the address actually connected
// to is one that passed the checks: when the guard shares a
// request-scoped resolver with the dial path, validation and connect
// cannot see different answers, and even a divergent answer is
// re-classified before any connection is opened.
func (g *Guard) ResolveValidated(ctx context.Context, host string) ([]netip.Addr, error) {
	var addrs []netip.Addr
	if addr, err := netip.ParseAddr(host); err == nil {
		addrs = []netip.Addr{addr.Unmap()}
	} else {
		looked, err := g.resolver.LookupNetIP(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("ssrf blocked dial: DNS resolution failed for %s: %w", host, err)
		}
		if len(looked) == 0 {
			return nil, fmt.Errorf("ssrf blocked dial: no addresses resolved for %s", host)
		}
		for _, a := range looked {
			addrs = append(addrs, a.Unmap())
		}
	}

	for _, addr := range addrs {
		if g.allowed(addr) {
			continue
		}
		if reason := classifyAddr(addr); reason != "" {
			return nil, fmt.Errorf("ssrf blocked dial: %s resolves to %s (%s)", host, addr, reason)
		}
	}
	return addrs, nil
}

// zeroNet4 is 0.0.0.0/8, the "this network" block.
var zeroNet4 = netip.MustParsePrefix("0.0.0.0/8")

// reserved4 is 240.0.0.0/4, reserved for future use.
var reserved4 = netip.MustParsePrefix("240.0.0.0/4")

// classifyAddr returns a non-empty reason when the address belongs to a
// class that must never be reached from the gateway.
func classifyAddr(addr netip.Addr) string {
	switch {
	case !addr.IsValid():
		return "invalid address"
	case addr.IsUnspecified():
		return "unspecified address"
	case addr.IsLoopback():
		return "loopback address"
	case addr.IsLinkLocalUnicast():
		// Includes 169.254.0.0/16, the cloud metadata range.
		return "link-local address"
	case addr.IsLinkLocalMulticast(), addr.IsMulticast():
		return "multicast address"
	case addr.IsPrivate():
		// RFC 1918 for v4; ULA fc00::/7 for v6.
		return "private address"
	case addr.Is4() && zeroNet4.Contains(addr):
		return "this-network address"
	case addr.Is4() && reserved4.Contains(addr):
		return "reserved address"
	}
	return ""
}
