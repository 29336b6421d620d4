package connectors

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var loopback4 = netip.MustParsePrefix("127.0.0.0/8")

// mapResolver answers from a fixed table; hosts not in the table fall
// back to def when set.
type mapResolver struct {
	table map[string][]netip.Addr
	def   []netip.Addr
}

func (r mapResolver) LookupNetIP(_ context.Context, host string) ([]netip.Addr, error) {
	if addrs, ok := r.table[host]; ok {
		return addrs, nil
	}
	return r.def, nil
}

func serverPort(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	return u.Port()
}

// The dialer must resolve hostnames through the injected resolver, not
// the system one: an internal hostname unknown to system DNS still
// connects once the shared resolver maps it to a validated address.
func TestDialUsesGuardResolver(t *testing.T) {
	var gotHost string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewSafeClient(SafeClientConfig{
		Timeout: 5 * time.Second,
		Resolver: mapResolver{table: map[string][]netip.Addr{
			"svc.internal.test": {netip.MustParseAddr("127.0.0.1")},
		}},
		AllowedPrefixes: []netip.Prefix{loopback4},
	})

	resp, err := client.Get(context.Background(), "http://svc.internal.test:"+serverPort(t, srv)+"/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(gotHost, "svc.internal.test") {
		t.Errorf("server saw Host %q, want the original hostname", gotHost)
	}
}

// A resolver that answers with a public address for a host that system
// DNS would map to loopback must not let the transport reach the local
// listener: the connection goes to the validated address and nowhere
// else.
func TestDialNeverDivergesFromValidatedAddress(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	// Every lookup answers an unroutable public address (TEST-NET-1).
	client := NewSafeClient(SafeClientConfig{
		Timeout:  500 * time.Millisecond,
		Resolver: mapResolver{def: []netip.Addr{netip.MustParseAddr("192.0.2.1")}},
	})

	resp, err := client.Get(context.Background(), "http://localhost:"+serverPort(t, srv)+"/")
	if err == nil {
		resp.Body.Close()
		t.Fatal("request must not succeed against the unroutable validated address")
	}
	if hits.Load() != 0 {
		t.Fatalf("local listener was reached %d times through a diverged dial", hits.Load())
	}
}

// A literal loopback target without an allow prefix is refused before
// any connection attempt.
func TestDialBlocksLoopbackLiteral(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	client := NewSafeClient(SafeClientConfig{Timeout: time.Second})
	_, err := client.Get(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "ssrf blocked") {
		t.Fatalf("error = %v, want an ssrf rejection", err)
	}
	if hits.Load() != 0 {
		t.Fatal("blocked target must never be dialed")
	}
}

func TestDoSendsMethodHeadersBody(t *testing.T) {
	var (
		gotMethod string
		gotHeader string
		gotBody   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Request-Source")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewSafeClient(SafeClientConfig{
		Timeout:         5 * time.Second,
		AllowedPrefixes: []netip.Prefix{loopback4},
	})

	resp, err := client.Do(context.Background(), http.MethodPost, srv.URL,
		map[string]string{"X-Request-Source": "gateway"}, strings.NewReader("q=carbon"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if gotMethod != http.MethodPost {
		t.Errorf("method = %q", gotMethod)
	}
	if gotHeader != "gateway" {
		t.Errorf("X-Request-Source = %q", gotHeader)
	}
	if string(gotBody) != "q=carbon" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestDoDefaultsUserAgent(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	client := NewSafeClient(SafeClientConfig{
		Timeout:         5 * time.Second,
		AllowedPrefixes: []netip.Prefix{loopback4},
	})
	resp, err := client.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if gotAgent != "conduit-gateway/1.0" {
		t.Errorf("User-Agent = %q", gotAgent)
	}
}
