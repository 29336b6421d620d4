package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"net/netip"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sentry-hq/conduit/pkg/clock"
	"sentry-hq/conduit/pkg/comm"
	"sentry-hq/conduit/pkg/connectors"
	"sentry-hq/conduit/pkg/evidence"
	"sentry-hq/conduit/pkg/evidence/recorder"
	"sentry-hq/conduit/pkg/evidence/storage"
	"sentry-hq/conduit/pkg/limits/ratelimit"
	"sentry-hq/conduit/pkg/netmode"
	"sentry-hq/conduit/pkg/policy"
	"sentry-hq/conduit/pkg/ssrf"
	"sentry-hq/conduit/pkg/telemetry/metrics"
	"sentry-hq/conduit/pkg/trust"
)

type staticResolver map[string][]netip.Addr

func (s staticResolver) LookupNetIP(_ context.Context, host string) ([]netip.Addr, error) {
	if addrs, ok := s[host]; ok {
		return addrs, nil
	}
	return nil, fmt.Errorf("no such host: %s", host)
}

// testResolver answers for the hostnames the tests reach. localhost
// resolves to loopback; everything else is public.
func testResolver() staticResolver {
	public := []netip.Addr{netip.MustParseAddr("93.184.216.34")}
	return staticResolver{
		"localhost":   {netip.MustParseAddr("127.0.0.1")},
		"example.com": public,
		"epa.gov":     public,
		"evil.test":   public,
	}
}

type stubConn struct {
	connectors.Base
	fn func(ctx context.Context, operation string, params map[string]any) (any, error)
}

func (s *stubConn) Execute(ctx context.Context, operation string, params map[string]any) (any, error) {
	return s.fn(ctx, operation, params)
}

func okStub(kind comm.ConnectorKind, data any) *stubConn {
	return &stubConn{
		Base: connectors.NewBase(kind, "fetch", "search", "send"),
		fn: func(context.Context, string, map[string]any) (any, error) {
			return data, nil
		},
	}
}

type fixture struct {
	svc     *Service
	store   evidence.Storage
	clk     *clock.Virtual
	metrics *metrics.Collector
}

// newFixture assembles a full pipeline: mode ON, the given policies and
// connectors, a memory evidence store, and a virtual clock.
func newFixture(t *testing.T, policies []*policy.Policy, conns ...connectors.Connector) *fixture {
	t.Helper()
	ctx := context.Background()

	modeStore, err := netmode.OpenStore(filepath.Join(t.TempDir(), "mode.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { modeStore.Close() })

	clk := clock.NewVirtual(time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC))
	mode, err := netmode.NewManager(modeStore, clk, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mode.SetMode(ctx, netmode.ModeOn, "test", "enable external comms", nil); err != nil {
		t.Fatal(err)
	}

	polReg := policy.NewRegistry()
	for _, p := range policies {
		if err := polReg.Register(p); err != nil {
			t.Fatal(err)
		}
	}
	engine := policy.NewEngine(polReg, ssrf.NewGuardWithResolver(testResolver()), nil)

	connReg := connectors.NewRegistry()
	for _, c := range conns {
		if err := connReg.Register(c); err != nil {
			t.Fatal(err)
		}
	}

	store := storage.NewMemoryStorage()
	collector := metrics.NewCollector(nil)
	f := &fixture{
		svc: New(Config{
			Mode:       mode,
			Engine:     engine,
			Policies:   polReg,
			Limiter:    ratelimit.NewKeyedLimiter(0, clk),
			Connectors: connReg,
			Recorder:   recorder.NewRecorder(store, clk),
			Classifier: trust.NewClassifier(nil, nil),
			Metrics:    collector,
			Clock:      clk,
		}),
		store:   store,
		clk:     clk,
		metrics: collector,
	}
	return f
}

// scrape renders the fixture's metrics registry to text.
func (f *fixture) scrape(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(metrics.Handler(f.metrics))
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func (f *fixture) evidenceFor(t *testing.T, resp *comm.CommunicationResponse) *evidence.EvidenceRecord {
	t.Helper()
	rec, err := f.store.GetByRequest(context.Background(), resp.RequestID)
	if err != nil {
		t.Fatalf("no evidence for request %s: %v", resp.RequestID, err)
	}
	return rec
}

func TestPlanningPhaseOutboundDenied(t *testing.T) {
	f := newFixture(t, []*policy.Policy{policy.NewPolicy("email", comm.KindEmailSMTP)},
		okStub(comm.KindEmailSMTP, "sent"))

	resp := f.svc.Execute(context.Background(), ExecuteRequest{
		ConnectorKind: comm.KindEmailSMTP,
		Operation:     "send",
		Params:        map[string]any{"to": "a@example.com", "subject": "hi", "body": "hello"},
		Phase:         comm.PhasePlanning,
		ApprovalToken: "tok-123", // a token does not open the planning gate
	})

	if resp.Status != comm.StatusDenied {
		t.Fatalf("status = %s, want DENIED", resp.Status)
	}
	if resp.Metadata["reason_code"] != comm.ReasonOutboundForbiddenInPlanning {
		t.Errorf("reason_code = %v", resp.Metadata["reason_code"])
	}

	rec := f.evidenceFor(t, resp)
	if rec.Status != comm.StatusDenied {
		t.Errorf("evidence status = %s, want DENIED", rec.Status)
	}
	if rec.Metadata["reason_code"] != comm.ReasonOutboundForbiddenInPlanning {
		t.Errorf("evidence reason_code = %v", rec.Metadata["reason_code"])
	}
	if resp.EvidenceID == "" {
		t.Error("denial must still carry an evidence id")
	}
}

func TestOutboundRequiresApproval(t *testing.T) {
	f := newFixture(t, []*policy.Policy{policy.NewPolicy("slack", comm.KindSlack)},
		okStub(comm.KindSlack, "posted"))

	resp := f.svc.Execute(context.Background(), ExecuteRequest{
		ConnectorKind: comm.KindSlack,
		Operation:     "send",
		Params:        map[string]any{"channel": "#ops", "message": "deploy done"},
		Phase:         comm.PhaseExecution,
	})

	if resp.Status != comm.StatusRequireAdmin {
		t.Fatalf("status = %s, want REQUIRE_ADMIN", resp.Status)
	}
	if resp.Metadata["reason_code"] != comm.ReasonOutboundRequiresApproval {
		t.Errorf("reason_code = %v", resp.Metadata["reason_code"])
	}
}

func TestSSRFBlockedFetch(t *testing.T) {
	f := newFixture(t, []*policy.Policy{policy.NewPolicy("fetch", comm.KindWebFetch)},
		okStub(comm.KindWebFetch, nil))

	resp := f.svc.Execute(context.Background(), ExecuteRequest{
		ConnectorKind: comm.KindWebFetch,
		Operation:     "fetch",
		Params:        map[string]any{"url": "http://localhost:8080/admin"},
		Phase:         comm.PhaseExecution,
	})

	if resp.Status != comm.StatusDenied {
		t.Fatalf("status = %s, want DENIED", resp.Status)
	}
	if resp.Metadata["reason_code"] != comm.ReasonSSRFDetected {
		t.Errorf("reason_code = %v", resp.Metadata["reason_code"])
	}
	if f.evidenceFor(t, resp).Status != comm.StatusDenied {
		t.Error("SSRF denial must be audited")
	}
}

func TestRateLimitDenialCarriesRetryAfter(t *testing.T) {
	pol := policy.NewPolicy("search", comm.KindWebSearch)
	pol.RateLimitPerMinute = 2
	f := newFixture(t, []*policy.Policy{pol}, okStub(comm.KindWebSearch, "results"))

	req := ExecuteRequest{
		ConnectorKind: comm.KindWebSearch,
		Operation:     "search",
		Params:        map[string]any{"query": "carbon tax"},
		Phase:         comm.PhaseExecution,
	}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if resp := f.svc.Execute(ctx, req); resp.Status != comm.StatusSuccess {
			t.Fatalf("request %d: status = %s, want SUCCESS", i, resp.Status)
		}
		f.clk.Advance(time.Second)
	}

	resp := f.svc.Execute(ctx, req)
	if resp.Status != comm.StatusRateLimited {
		t.Fatalf("status = %s, want RATE_LIMITED", resp.Status)
	}
	if resp.Metadata["reason_code"] != comm.ReasonRateLimitExceeded {
		t.Errorf("reason_code = %v", resp.Metadata["reason_code"])
	}
	retry, ok := resp.Metadata["retry_after_seconds"].(int)
	if !ok || retry <= 0 || retry > 60 {
		t.Errorf("retry_after_seconds = %v, want 1..60", resp.Metadata["retry_after_seconds"])
	}

	// The window slides: after it passes, admission resumes.
	f.clk.Advance(time.Minute)
	if resp := f.svc.Execute(ctx, req); resp.Status != comm.StatusSuccess {
		t.Errorf("post-window status = %s, want SUCCESS", resp.Status)
	}
}

func TestSearchSuccessCarriesSearchResultTier(t *testing.T) {
	f := newFixture(t, []*policy.Policy{policy.NewPolicy("search", comm.KindWebSearch)},
		okStub(comm.KindWebSearch, map[string]any{"total": 3}))

	resp := f.svc.Execute(context.Background(), ExecuteRequest{
		ConnectorKind: comm.KindWebSearch,
		Operation:     "search",
		Params:        map[string]any{"query": "renewable portfolio standards"},
		Phase:         comm.PhaseExecution,
	})

	if resp.Status != comm.StatusSuccess {
		t.Fatalf("status = %s, error = %s", resp.Status, resp.Error)
	}
	if resp.Metadata["trust_tier"] != string(comm.TierSearchResult) {
		t.Errorf("trust_tier = %v, want %s", resp.Metadata["trust_tier"], comm.TierSearchResult)
	}
	if resp.EvidenceID == "" {
		t.Error("success must carry an evidence id")
	}

	rec := f.evidenceFor(t, resp)
	if rec.Status != comm.StatusSuccess {
		t.Errorf("evidence status = %s", rec.Status)
	}
	if rec.ResponseSummary["has_data"] != true {
		t.Errorf("response_summary = %v", rec.ResponseSummary)
	}
	if rec.Metadata["trust_tier"] != string(comm.TierSearchResult) {
		t.Errorf("evidence trust_tier = %v", rec.Metadata["trust_tier"])
	}
}

func TestFetchTierFromSourceDomain(t *testing.T) {
	f := newFixture(t, []*policy.Policy{policy.NewPolicy("fetch", comm.KindWebFetch)},
		okStub(comm.KindWebFetch, "body"))

	resp := f.svc.Execute(context.Background(), ExecuteRequest{
		ConnectorKind: comm.KindWebFetch,
		Operation:     "fetch",
		Params:        map[string]any{"url": "https://epa.gov/reports/2026"},
		Phase:         comm.PhaseExecution,
	})

	if resp.Status != comm.StatusSuccess {
		t.Fatalf("status = %s, error = %s", resp.Status, resp.Error)
	}
	if resp.Metadata["trust_tier"] != string(comm.TierAuthoritative) {
		t.Errorf("trust_tier = %v, want %s", resp.Metadata["trust_tier"], comm.TierAuthoritative)
	}
}

func TestModeOffDeniesEverything(t *testing.T) {
	f := newFixture(t, []*policy.Policy{policy.NewPolicy("search", comm.KindWebSearch)},
		okStub(comm.KindWebSearch, "results"))
	ctx := context.Background()

	if _, err := f.svc.mode.SetMode(ctx, netmode.ModeOff, "test", "lockdown", nil); err != nil {
		t.Fatal(err)
	}

	resp := f.svc.Execute(ctx, ExecuteRequest{
		ConnectorKind: comm.KindWebSearch,
		Operation:     "search",
		Params:        map[string]any{"query": "anything"},
		Phase:         comm.PhaseExecution,
	})
	if resp.Status != comm.StatusDenied {
		t.Fatalf("status = %s, want DENIED", resp.Status)
	}
	if resp.Metadata["reason_code"] != comm.ReasonNetworkModeBlocked {
		t.Errorf("reason_code = %v", resp.Metadata["reason_code"])
	}
	if resp.Metadata["mode"] != string(netmode.ModeOff) {
		t.Errorf("mode = %v", resp.Metadata["mode"])
	}
}

func TestReadOnlyModeDeniesWriteBeforePolicy(t *testing.T) {
	f := newFixture(t, []*policy.Policy{policy.NewPolicy("email", comm.KindEmailSMTP)},
		okStub(comm.KindEmailSMTP, "sent"))
	ctx := context.Background()

	if _, err := f.svc.mode.SetMode(ctx, netmode.ModeReadOnly, "test", "quiet hours", nil); err != nil {
		t.Fatal(err)
	}

	resp := f.svc.Execute(ctx, ExecuteRequest{
		ConnectorKind: comm.KindEmailSMTP,
		Operation:     "send",
		Params:        map[string]any{"to": "a@example.com", "subject": "s", "body": "b"},
		Phase:         comm.PhaseExecution,
		ApprovalToken: "tok-123",
	})
	if resp.Status != comm.StatusDenied {
		t.Fatalf("status = %s, want DENIED", resp.Status)
	}
	// The mode gate runs before the policy engine.
	if resp.Metadata["reason_code"] != comm.ReasonNetworkModeBlocked {
		t.Errorf("reason_code = %v", resp.Metadata["reason_code"])
	}
}

func TestMissingRequiredParam(t *testing.T) {
	f := newFixture(t, []*policy.Policy{policy.NewPolicy("fetch", comm.KindWebFetch)},
		okStub(comm.KindWebFetch, nil))

	resp := f.svc.Execute(context.Background(), ExecuteRequest{
		ConnectorKind: comm.KindWebFetch,
		Operation:     "fetch",
		Params:        map[string]any{},
		Phase:         comm.PhaseExecution,
	})
	if resp.Status != comm.StatusFailed {
		t.Fatalf("status = %s, want FAILED", resp.Status)
	}
	if !strings.Contains(resp.Error, `"url"`) {
		t.Errorf("error = %q, want the missing parameter named", resp.Error)
	}
}

func TestUnknownConnectorKind(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.svc.Execute(context.Background(), ExecuteRequest{
		ConnectorKind: comm.ConnectorKind("ftp"),
		Operation:     "fetch",
		Params:        map[string]any{"url": "ftp://example.com"},
		Phase:         comm.PhaseExecution,
	})
	if resp.Status != comm.StatusFailed {
		t.Fatalf("status = %s, want FAILED", resp.Status)
	}
}

func TestConnectorPanicBecomesFailure(t *testing.T) {
	panicky := &stubConn{
		Base: connectors.NewBase(comm.KindWebSearch, "search"),
		fn: func(context.Context, string, map[string]any) (any, error) {
			panic("driver exploded")
		},
	}
	f := newFixture(t, []*policy.Policy{policy.NewPolicy("search", comm.KindWebSearch)}, panicky)

	resp := f.svc.Execute(context.Background(), ExecuteRequest{
		ConnectorKind: comm.KindWebSearch,
		Operation:     "search",
		Params:        map[string]any{"query": "q"},
		Phase:         comm.PhaseExecution,
	})
	if resp.Status != comm.StatusFailed {
		t.Fatalf("status = %s, want FAILED", resp.Status)
	}
	if !strings.Contains(resp.Error, "panic") {
		t.Errorf("error = %q", resp.Error)
	}
	if f.evidenceFor(t, resp).Status != comm.StatusFailed {
		t.Error("panic must be audited as a failure")
	}
}

func TestDispatchTimeout(t *testing.T) {
	slow := &stubConn{
		Base: connectors.NewBase(comm.KindWebFetch, "fetch"),
		fn: func(ctx context.Context, _ string, _ map[string]any) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	pol := policy.NewPolicy("fetch", comm.KindWebFetch)
	pol.Timeout = 10 * time.Millisecond
	f := newFixture(t, []*policy.Policy{pol}, slow)

	resp := f.svc.Execute(context.Background(), ExecuteRequest{
		ConnectorKind: comm.KindWebFetch,
		Operation:     "fetch",
		Params:        map[string]any{"url": "https://example.com/slow"},
		Phase:         comm.PhaseExecution,
	})
	if resp.Status != comm.StatusFailed {
		t.Fatalf("status = %s, want FAILED", resp.Status)
	}
	if !strings.Contains(resp.Error, context.DeadlineExceeded.Error()) {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestConnectorErrorPropagates(t *testing.T) {
	failing := &stubConn{
		Base: connectors.NewBase(comm.KindWebFetch, "fetch"),
		fn: func(context.Context, string, map[string]any) (any, error) {
			return nil, errors.New("upstream returned 503")
		},
	}
	f := newFixture(t, []*policy.Policy{policy.NewPolicy("fetch", comm.KindWebFetch)}, failing)

	resp := f.svc.Execute(context.Background(), ExecuteRequest{
		ConnectorKind: comm.KindWebFetch,
		Operation:     "fetch",
		Params:        map[string]any{"url": "https://example.com"},
		Phase:         comm.PhaseExecution,
	})
	if resp.Status != comm.StatusFailed {
		t.Fatalf("status = %s, want FAILED", resp.Status)
	}
	if resp.Error != "upstream returned 503" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestDisabledConnectorDenied(t *testing.T) {
	stub := okStub(comm.KindWebSearch, "results")
	stub.SetEnabled(false)
	f := newFixture(t, []*policy.Policy{policy.NewPolicy("search", comm.KindWebSearch)}, stub)

	resp := f.svc.Execute(context.Background(), ExecuteRequest{
		ConnectorKind: comm.KindWebSearch,
		Operation:     "search",
		Params:        map[string]any{"query": "q"},
		Phase:         comm.PhaseExecution,
	})
	if resp.Status != comm.StatusDenied {
		t.Fatalf("status = %s, want DENIED", resp.Status)
	}
	if resp.Metadata["reason_code"] != comm.ReasonConnectorDisabled {
		t.Errorf("reason_code = %v", resp.Metadata["reason_code"])
	}
}

func TestOutputRedaction(t *testing.T) {
	leaky := okStub(comm.KindWebFetch, map[string]any{
		"content": "ok",
		"api_key": "sk-verysecretkey12345",
	})
	f := newFixture(t, []*policy.Policy{policy.NewPolicy("fetch", comm.KindWebFetch)}, leaky)

	resp := f.svc.Execute(context.Background(), ExecuteRequest{
		ConnectorKind: comm.KindWebFetch,
		Operation:     "fetch",
		Params:        map[string]any{"url": "https://example.com"},
		Phase:         comm.PhaseExecution,
	})
	if resp.Status != comm.StatusSuccess {
		t.Fatalf("status = %s, error = %s", resp.Status, resp.Error)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %T", resp.Data)
	}
	key, _ := data["api_key"].(string)
	if key == "sk-verysecretkey12345" || !strings.Contains(key, "*") {
		t.Errorf("api_key not redacted: %q", key)
	}
	if data["content"] != "ok" {
		t.Errorf("content = %v", data["content"])
	}
}

func TestOversizedResponseTruncated(t *testing.T) {
	pol := policy.NewPolicy("fetch", comm.KindWebFetch)
	pol.MaxResponseSizeBytes = 64
	big := okStub(comm.KindWebFetch, strings.Repeat("lorem ipsum ", 50))
	f := newFixture(t, []*policy.Policy{pol}, big)

	resp := f.svc.Execute(context.Background(), ExecuteRequest{
		ConnectorKind: comm.KindWebFetch,
		Operation:     "fetch",
		Params:        map[string]any{"url": "https://example.com/big"},
		Phase:         comm.PhaseExecution,
	})
	if resp.Status != comm.StatusSuccess {
		t.Fatalf("status = %s, error = %s", resp.Status, resp.Error)
	}
	str, _ := resp.Data.(string)
	if !strings.HasSuffix(str, "… [TRUNCATED]") {
		t.Errorf("data not truncated: %d bytes", len(str))
	}
	if resp.Metadata["truncated"] != true {
		t.Errorf("truncated flag = %v", resp.Metadata["truncated"])
	}
}

func TestInputSanitizationStripsInjection(t *testing.T) {
	var seenQuery string
	spy := &stubConn{
		Base: connectors.NewBase(comm.KindWebSearch, "search"),
		fn: func(_ context.Context, _ string, params map[string]any) (any, error) {
			seenQuery, _ = params["query"].(string)
			return "results", nil
		},
	}
	f := newFixture(t, []*policy.Policy{policy.NewPolicy("search", comm.KindWebSearch)}, spy)

	resp := f.svc.Execute(context.Background(), ExecuteRequest{
		ConnectorKind: comm.KindWebSearch,
		Operation:     "search",
		Params:        map[string]any{"query": "carbon tax; DROP TABLE users --"},
		Phase:         comm.PhaseExecution,
	})
	if resp.Status != comm.StatusSuccess {
		t.Fatalf("status = %s, error = %s", resp.Status, resp.Error)
	}
	for _, fragment := range []string{";", "DROP", "--"} {
		if strings.Contains(seenQuery, fragment) {
			t.Errorf("query still contains %q: %q", fragment, seenQuery)
		}
	}
}

func TestEvidenceRequestSummaryWhitelisted(t *testing.T) {
	f := newFixture(t, []*policy.Policy{policy.NewPolicy("email", comm.KindEmailSMTP)},
		okStub(comm.KindEmailSMTP, "sent"))

	resp := f.svc.Execute(context.Background(), ExecuteRequest{
		ConnectorKind: comm.KindEmailSMTP,
		Operation:     "send",
		Params: map[string]any{
			"to":       "a@example.com",
			"subject":  "quarterly report",
			"body":     strings.Repeat("b", 400),
			"password": "hunter2hunter2",
		},
		Phase:         comm.PhaseExecution,
		ApprovalToken: "tok-123",
	})
	if resp.Status != comm.StatusSuccess {
		t.Fatalf("status = %s, error = %s", resp.Status, resp.Error)
	}

	summary := f.evidenceFor(t, resp).RequestSummary
	if _, leaked := summary["password"]; leaked {
		t.Error("password leaked into the request summary")
	}
	if _, leaked := summary["subject"]; leaked {
		t.Error("subject is not a whitelisted summary field")
	}
	if summary["to"] != "a@example.com" {
		t.Errorf("to = %v", summary["to"])
	}
	body, _ := summary["body"].(string)
	if len(body) > 210 || !strings.HasSuffix(body, "…") {
		t.Errorf("body not truncated: %d bytes", len(body))
	}
}

func TestPipelineMetricsRecorded(t *testing.T) {
	f := newFixture(t, []*policy.Policy{policy.NewPolicy("fetch", comm.KindWebFetch)},
		okStub(comm.KindWebFetch, "body"))
	ctx := context.Background()

	ok := f.svc.Execute(ctx, ExecuteRequest{
		ConnectorKind: comm.KindWebFetch,
		Operation:     "fetch",
		Params:        map[string]any{"url": "https://example.com"},
		Phase:         comm.PhaseExecution,
	})
	if ok.Status != comm.StatusSuccess {
		t.Fatalf("status = %s, error = %s", ok.Status, ok.Error)
	}
	blocked := f.svc.Execute(ctx, ExecuteRequest{
		ConnectorKind: comm.KindWebFetch,
		Operation:     "fetch",
		Params:        map[string]any{"url": "http://localhost:8080/admin"},
		Phase:         comm.PhaseExecution,
	})
	if blocked.Status != comm.StatusDenied {
		t.Fatalf("status = %s, want DENIED", blocked.Status)
	}

	scrape := f.scrape(t)
	for _, want := range []string{
		`conduit_gateway_requests_total{connector_kind="web_fetch",status="SUCCESS"} 1`,
		`conduit_gateway_requests_total{connector_kind="web_fetch",status="DENIED"} 1`,
		`conduit_gateway_denials_total{reason_code="SSRF_DETECTED"} 1`,
		`conduit_gateway_ssrf_blocks_total 1`,
	} {
		if !strings.Contains(scrape, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}

func TestAssessRisk(t *testing.T) {
	cases := []struct {
		kind      comm.ConnectorKind
		operation string
		want      comm.RiskLevel
	}{
		{comm.KindWebSearch, "search", comm.RiskLow},
		{comm.KindRSS, "fetch", comm.RiskLow},
		{comm.KindWebFetch, "fetch", comm.RiskMedium},
		{comm.KindWebFetch, "download", comm.RiskMedium},
		{comm.KindWebFetch, "upload", comm.RiskHigh},
		{comm.KindEmailSMTP, "send", comm.RiskCritical},
		{comm.KindSlack, "send", comm.RiskCritical},
		{comm.KindSlack, "list", comm.RiskHigh},
	}
	for _, tc := range cases {
		if got := AssessRisk(tc.kind, tc.operation); got != tc.want {
			t.Errorf("AssessRisk(%s, %s) = %s, want %s", tc.kind, tc.operation, got, tc.want)
		}
	}
}
