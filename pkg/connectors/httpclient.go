package connectors

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"time"

	"sentry-hq/conduit/pkg/ssrf"
)

// DefaultMaxRedirects bounds redirect chains for guarded fetches.
const DefaultMaxRedirects = 5

// SafeClientConfig configures the SSRF-guarded HTTP client shared by the
// fetch and feed connectors.
type SafeClientConfig struct {
	// Timeout bounds the whole request, including redirects and body read.
	Timeout time.Duration

	// MaxRedirects caps the redirect chain. Zero selects
	// DefaultMaxRedirects.
	MaxRedirects int

	// UserAgent is sent on every request.
	UserAgent string

	// Resolver overrides DNS resolution, for tests. Nil uses the system
	// resolver.
	Resolver ssrf.Resolver

	// AllowedPrefixes exempts address ranges from the SSRF class checks.
	// Only sanctioned internal targets belong here.
	AllowedPrefixes []netip.Prefix
}

// SafeClient issues HTTP requests through the SSRF guard. Every target
// URL is validated before the connection is opened, and every redirect
// hop is re-validated. The transport's dialer resolves through the same
// request-scoped cache the guard validated with and re-runs the class
// checks on the address it is about to connect to, so a rebinding DNS
// answer cannot diverge between validation and connect.
type SafeClient struct {
	cfg SafeClientConfig
}

// NewSafeClient creates a guarded client.
func NewSafeClient(cfg SafeClientConfig) *SafeClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = DefaultMaxRedirects
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "conduit-gateway/1.0"
	}
	return &SafeClient{cfg: cfg}
}

// Get validates rawURL and issues a GET. The response body is the
// caller's to close.
func (c *SafeClient) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, rawURL, nil, nil)
}

// Do validates rawURL and issues a request with the given method,
// headers, and optional body, all under the guard. The response body is
// the caller's to close.
func (c *SafeClient) Do(ctx context.Context, method, rawURL string, headers map[string]string, body io.Reader) (*http.Response, error) {
	resolver := ssrf.NewRequestScopedResolver(c.cfg.Resolver)
	guard := ssrf.NewGuardWithResolver(resolver)
	guard.AllowPrefixes(c.cfg.AllowedPrefixes...)

	if _, err := guard.Validate(ctx, rawURL); err != nil {
		return nil, err
	}

	client := &http.Client{
		Timeout:   c.cfg.Timeout,
		Transport: c.newTransport(guard),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= c.cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", c.cfg.MaxRedirects)
			}
			// A redirect is a new target; it gets the same scrutiny as
			// the original URL, against the same request-scoped cache.
			if _, err := guard.Validate(req.Context(), req.URL.String()); err != nil {
				return err
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	return client.Do(req)
}

// newTransport builds a transport whose dialer is the enforcement
// point: the hostname resolves through the guard (and its
// request-scoped cache) and every candidate address is class-checked
// again immediately before the connection is opened. No proxy is ever
// consulted; a proxy would move the dial outside the guard.
func (c *SafeClient) newTransport(guard *ssrf.Guard) *http.Transport {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	return &http.Transport{
		Proxy: nil,
		DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(address)
			if err != nil {
				return nil, err
			}
			addrs, err := guard.ResolveValidated(ctx, host)
			if err != nil {
				return nil, err
			}
			var lastErr error
			for _, addr := range addrs {
				conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(addr.String(), port))
				if err == nil {
					return conn, nil
				}
				lastErr = err
			}
			return nil, lastErr
		},
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// Timeout returns the configured per-request timeout.
func (c *SafeClient) Timeout() time.Duration {
	return c.cfg.Timeout
}
