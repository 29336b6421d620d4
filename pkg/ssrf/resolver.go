package ssrf

import (
	"context"
	"net"
	"net/netip"
	"sync"
)

// Resolver resolves a hostname to its full set of A/AAAA addresses.
type Resolver interface {
	LookupNetIP(ctx context.Context, host string) ([]netip.Addr, error)
}

// systemResolver uses the process's default DNS resolver.
type systemResolver struct{}

func (systemResolver) LookupNetIP(ctx context.Context, host string) ([]netip.Addr, error) {
	return net.DefaultResolver.LookupNetIP(ctx, "ip", host)
}

// RequestScopedResolver caches lookups for the lifetime of a single
// request, so a fetch that validates several redirect hops does not
// re-resolve the same host. It must never be shared across requests:
// a fresh instance per request is what prevents DNS rebinding from
// reusing a stale approval.
type RequestScopedResolver struct {
	base Resolver

	mu    sync.Mutex
	cache map[string][]netip.Addr
}

// NewRequestScopedResolver wraps base with a per-request cache. A nil
// base uses the system resolver.
func NewRequestScopedResolver(base Resolver) *RequestScopedResolver {
	if base == nil {
		base = systemResolver{}
	}
	return &RequestScopedResolver{
		base:  base,
		cache: make(map[string][]netip.Addr),
	}
}

// LookupNetIP resolves host, serving repeats from the request-local
// cache. Failed lookups are not cached.
func (r *RequestScopedResolver) LookupNetIP(ctx context.Context, host string) ([]netip.Addr, error) {
	r.mu.Lock()
	if addrs, ok := r.cache[host]; ok {
		r.mu.Unlock()
		return addrs, nil
	}
	r.mu.Unlock()

	addrs, err := r.base.LookupNetIP(ctx, host)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[host] = addrs
	r.mu.Unlock()
	return addrs, nil
}
