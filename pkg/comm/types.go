package comm

import (
	"time"

	"github.com/google/uuid"
)

// ConnectorKind identifies a class of external communication back-end.
type ConnectorKind string

const (
	KindWebSearch ConnectorKind = "web_search"
	KindWebFetch  ConnectorKind = "web_fetch"
	KindRSS       ConnectorKind = "rss"
	KindEmailSMTP ConnectorKind = "email_smtp"
	KindSlack     ConnectorKind = "slack"
)

// outboundKinds is the fixed set of connector kinds whose operations
// originate data leaving the platform. Outbound kinds are subject to the
// planning-phase block and the approval-token gate.
var outboundKinds = map[ConnectorKind]bool{
	KindEmailSMTP: true,
	KindSlack:     true,
}

// IsOutbound reports whether the connector kind sends data off-platform.
func (k ConnectorKind) IsOutbound() bool {
	return outboundKinds[k]
}

// Valid reports whether the kind is one of the known connector kinds.
func (k ConnectorKind) Valid() bool {
	switch k {
	case KindWebSearch, KindWebFetch, KindRSS, KindEmailSMTP, KindSlack:
		return true
	}
	return false
}

// RequestStatus is the lifecycle state of a communication request.
type RequestStatus string

const (
	StatusPending      RequestStatus = "PENDING"
	StatusApproved     RequestStatus = "APPROVED"
	StatusDenied       RequestStatus = "DENIED"
	StatusRequireAdmin RequestStatus = "REQUIRE_ADMIN"
	StatusInProgress   RequestStatus = "IN_PROGRESS"
	StatusSuccess      RequestStatus = "SUCCESS"
	StatusFailed       RequestStatus = "FAILED"
	StatusRateLimited  RequestStatus = "RATE_LIMITED"
)

// Terminal reports whether the status is a terminal lifecycle state.
func (s RequestStatus) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusDenied, StatusRequireAdmin, StatusRateLimited:
		return true
	}
	return false
}

// RiskLevel is the discrete risk classification of a request, derived from
// the connector kind and operation keywords.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ExecutionPhase distinguishes agent planning from sanctioned execution.
// Outbound connectors are never reachable during planning.
type ExecutionPhase string

const (
	PhasePlanning  ExecutionPhase = "planning"
	PhaseExecution ExecutionPhase = "execution"
)

// TrustTier is a coarse classification of how much weight downstream
// consumers may place on a retrieved artifact. Search results are never
// truth; only primary/authoritative tiers are decision-grade.
type TrustTier string

const (
	TierSearchResult  TrustTier = "search_result"
	TierExternal      TrustTier = "external_source"
	TierPrimary       TrustTier = "primary_source"
	TierAuthoritative TrustTier = "authoritative"
)

// Reason codes emitted by the policy engine and mode manager. These are
// stable machine-readable strings; callers branch on them.
const (
	ReasonOutboundForbiddenInPlanning = "OUTBOUND_FORBIDDEN_IN_PLANNING"
	ReasonOutboundRequiresApproval    = "OUTBOUND_REQUIRES_APPROVAL"
	ReasonNoPolicy                    = "NO_POLICY"
	ReasonConnectorDisabled           = "CONNECTOR_DISABLED"
	ReasonOperationNotAllowed         = "OPERATION_NOT_ALLOWED"
	ReasonDomainBlocked               = "DOMAIN_BLOCKED"
	ReasonSSRFDetected                = "SSRF_DETECTED"
	ReasonApprovalRequired            = "APPROVAL_REQUIRED"
	ReasonNetworkModeBlocked          = "NETWORK_MODE_BLOCKED"
	ReasonRateLimitExceeded           = "RATE_LIMIT_EXCEEDED"
	ReasonRequestApproved             = "REQUEST_APPROVED"
)

// CommunicationRequest is a single mediated external-communication attempt.
//
// ConnectorKind, Operation, and CreatedAt are immutable after creation;
// pipeline stages mutate only Status, RiskLevel, and UpdatedAt.
type CommunicationRequest struct {
	ID            string                 `json:"id"`
	ConnectorKind ConnectorKind          `json:"connector_kind"`
	Operation     string                 `json:"operation"`
	Params        map[string]any         `json:"params"`
	Context       map[string]any         `json:"context"` // session/task ids
	Status        RequestStatus          `json:"status"`
	RiskLevel     RiskLevel              `json:"risk_level"`
	ApprovalToken string                 `json:"approval_token,omitempty"`
	Phase         ExecutionPhase         `json:"execution_phase"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// CommunicationResponse is the single response emitted for a request.
// It is immutable after emission.
type CommunicationResponse struct {
	RequestID  string         `json:"request_id"`
	Status     RequestStatus  `json:"status"`
	Data       any            `json:"data,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	EvidenceID string         `json:"evidence_id,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// NewRequestID generates an opaque, collision-resistant request identifier
// (122 random bits, UUID v4).
func NewRequestID() string {
	return "req-" + uuid.NewString()
}

// ToMillis converts a time to UTC epoch-milliseconds for storage.
func ToMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// FromMillis converts UTC epoch-milliseconds back to a time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FormatTimestamp renders a time as ISO-8601 UTC with a trailing "Z",
// the wire format for all JSON I/O.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
