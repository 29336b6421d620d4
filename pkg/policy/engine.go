package policy

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"sentry-hq/conduit/pkg/comm"
	"sentry-hq/conduit/pkg/ssrf"
)

// Engine evaluates requests against the hard rules and the registered
// per-connector policies. Evaluation is deterministic: first matching
// rule wins.
type Engine struct {
	registry *Registry
	guard    *ssrf.Guard
	verifier ApprovalVerifier
}

// NewEngine creates an engine. A nil verifier selects the opaque
// non-empty-token verifier.
func NewEngine(registry *Registry, guard *ssrf.Guard, verifier ApprovalVerifier) *Engine {
	if verifier == nil {
		verifier = OpaqueTokenVerifier{}
	}
	return &Engine{registry: registry, guard: guard, verifier: verifier}
}

// Evaluate runs the ordered rule chain for a request. The hard outbound
// rules run before any policy lookup so that no policy configuration can
// re-open them.
func (e *Engine) Evaluate(ctx context.Context, req *comm.CommunicationRequest) *Verdict {
	outbound := req.ConnectorKind.IsOutbound()

	// Rule 1: no outbound communication while an agent is planning.
	if req.Phase == comm.PhasePlanning && outbound {
		return &Verdict{
			Status:     comm.StatusDenied,
			ReasonCode: comm.ReasonOutboundForbiddenInPlanning,
			Hint:       "outbound connectors are not reachable during the planning phase",
		}
	}

	// Rule 2: outbound requires a human approval token.
	if outbound && !e.verifier.Verify(req.ApprovalToken, req) {
		return &Verdict{
			Status:     comm.StatusRequireAdmin,
			ReasonCode: comm.ReasonOutboundRequiresApproval,
			Hint:       "outbound connectors require an operator approval token",
		}
	}

	// Rule 3: policy lookup.
	pol := e.registry.Get(req.ConnectorKind)
	if pol == nil {
		return &Verdict{
			Status:     comm.StatusDenied,
			ReasonCode: comm.ReasonNoPolicy,
			Hint:       fmt.Sprintf("no policy registered for connector %s", req.ConnectorKind),
		}
	}
	if !pol.Enabled {
		return &Verdict{
			Status:     comm.StatusDenied,
			ReasonCode: comm.ReasonConnectorDisabled,
			Hint:       fmt.Sprintf("connector %s is disabled by policy %s", req.ConnectorKind, pol.Name),
		}
	}

	// Rule 4: operation allow-list.
	if len(pol.AllowedOperations) > 0 && !containsFold(pol.AllowedOperations, req.Operation) {
		return &Verdict{
			Status:     comm.StatusDenied,
			ReasonCode: comm.ReasonOperationNotAllowed,
			Hint:       fmt.Sprintf("operation %q is not in the allow-list of policy %s", req.Operation, pol.Name),
		}
	}

	// Rules 5 and 6 apply only to URL-bearing requests.
	if rawURL := comm.StringParam(req.Params, "url"); rawURL != "" {
		if v := e.checkDomains(pol, rawURL); v != nil {
			return v
		}
		if _, err := e.guard.Validate(ctx, rawURL); err != nil {
			return &Verdict{
				Status:     comm.StatusDenied,
				ReasonCode: comm.ReasonSSRFDetected,
				Hint:       err.Error(),
				Metadata:   map[string]any{"url": rawURL},
			}
		}
	}

	// Rule 7: per-policy approval, independent of the outbound gate.
	if pol.RequireApproval && !e.verifier.Verify(req.ApprovalToken, req) {
		return &Verdict{
			Status:     comm.StatusRequireAdmin,
			ReasonCode: comm.ReasonApprovalRequired,
			Hint:       fmt.Sprintf("policy %s requires an approval token", pol.Name),
		}
	}

	return &Verdict{
		Status:     comm.StatusApproved,
		ReasonCode: comm.ReasonRequestApproved,
	}
}

// checkDomains enforces the blocked and allowed domain sets. A host
// matches a set entry exactly or as a dotted suffix.
func (e *Engine) checkDomains(pol *Policy, rawURL string) *Verdict {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return &Verdict{
			Status:     comm.StatusDenied,
			ReasonCode: comm.ReasonDomainBlocked,
			Hint:       fmt.Sprintf("unparseable URL %q", rawURL),
		}
	}
	host := strings.ToLower(u.Hostname())

	for _, blocked := range pol.BlockedDomains {
		if domainMatches(host, blocked) {
			return &Verdict{
				Status:     comm.StatusDenied,
				ReasonCode: comm.ReasonDomainBlocked,
				Hint:       fmt.Sprintf("domain %s is blocked by policy %s", host, pol.Name),
				Metadata:   map[string]any{"domain": host},
			}
		}
	}

	if len(pol.AllowedDomains) > 0 {
		for _, allowed := range pol.AllowedDomains {
			if domainMatches(host, allowed) {
				return nil
			}
		}
		return &Verdict{
			Status:     comm.StatusDenied,
			ReasonCode: comm.ReasonDomainBlocked,
			Hint:       fmt.Sprintf("domain %s is not in the allow-list of policy %s", host, pol.Name),
			Metadata:   map[string]any{"domain": host},
		}
	}
	return nil
}

// domainMatches reports whether host equals domain or is a sub-domain of
// it.
func domainMatches(host, domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
