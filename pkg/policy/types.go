package policy

import (
	"time"

	"sentry-hq/conduit/pkg/comm"
)

// Policy governs one connector kind. The zero value denies everything;
// use NewPolicy for sensible defaults.
type Policy struct {
	// Name identifies the policy in logs and evidence.
	Name string `json:"name" yaml:"name"`

	// ConnectorKind is the connector class this policy governs.
	ConnectorKind comm.ConnectorKind `json:"connector_kind" yaml:"connector_kind"`

	// AllowedOperations restricts operations when non-empty.
	AllowedOperations []string `json:"allowed_operations,omitempty" yaml:"allowed_operations,omitempty"`

	// BlockedDomains denies matching hosts (exact or dotted-suffix).
	BlockedDomains []string `json:"blocked_domains,omitempty" yaml:"blocked_domains,omitempty"`

	// AllowedDomains, when non-empty, admits only matching hosts.
	AllowedDomains []string `json:"allowed_domains,omitempty" yaml:"allowed_domains,omitempty"`

	// RequireApproval demands a non-empty approval token for every
	// request, not just outbound ones.
	RequireApproval bool `json:"require_approval" yaml:"require_approval"`

	// RateLimitPerMinute is the per-connector sliding-window limit.
	RateLimitPerMinute int `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`

	// MaxResponseSizeBytes bounds connector responses.
	MaxResponseSizeBytes int64 `json:"max_response_size_bytes" yaml:"max_response_size_bytes"`

	// Timeout bounds each connector dispatch.
	Timeout time.Duration `json:"timeout_ms" yaml:"timeout_ms"`

	// SanitizeInputs runs the input sanitizer over request params.
	SanitizeInputs bool `json:"sanitize_inputs" yaml:"sanitize_inputs"`

	// SanitizeOutputs runs the output sanitizer over connector results.
	SanitizeOutputs bool `json:"sanitize_outputs" yaml:"sanitize_outputs"`

	// Enabled gates the whole connector kind.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// NewPolicy returns an enabled policy for kind with gateway defaults:
// 30 requests/minute, 5 MiB responses, 30 s timeout, both sanitizers on.
func NewPolicy(name string, kind comm.ConnectorKind) *Policy {
	return &Policy{
		Name:                 name,
		ConnectorKind:        kind,
		RateLimitPerMinute:   30,
		MaxResponseSizeBytes: 5 << 20,
		Timeout:              30 * time.Second,
		SanitizeInputs:       true,
		SanitizeOutputs:      true,
		Enabled:              true,
	}
}

// Verdict is the outcome of evaluating a request against policy.
type Verdict struct {
	// Status is one of APPROVED, DENIED, REQUIRE_ADMIN, RATE_LIMITED.
	Status comm.RequestStatus `json:"status"`

	// ReasonCode is the stable machine string callers branch on.
	ReasonCode string `json:"reason_code"`

	// Hint is a human-readable explanation.
	Hint string `json:"hint,omitempty"`

	// Metadata carries verdict-specific detail (blocked domain, SSRF
	// address, ...).
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Approved reports whether the verdict admits the request.
func (v *Verdict) Approved() bool {
	return v.Status == comm.StatusApproved
}

// ApprovalVerifier validates approval tokens. The default implementation
// accepts any non-empty opaque string; deployments can bind tokens to a
// principal and expiry by supplying their own verifier.
type ApprovalVerifier interface {
	// Verify reports whether the token sanctions the request.
	Verify(token string, req *comm.CommunicationRequest) bool
}

// OpaqueTokenVerifier accepts any non-empty token.
type OpaqueTokenVerifier struct{}

// Verify implements ApprovalVerifier.
func (OpaqueTokenVerifier) Verify(token string, _ *comm.CommunicationRequest) bool {
	return token != ""
}
