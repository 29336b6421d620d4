package evidence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sentry-hq/conduit/pkg/comm"
)

// EvidenceRecord is the audit row for one communication request.
//
// ConnectorKind, Operation, RequestSummary, and CreatedAt are fixed at
// insert; Save only updates ResponseSummary, Status, Metadata, and
// UpdatedAt on an existing row.
type EvidenceRecord struct {
	// ID is the record's own identifier (UUID v4).
	ID string `json:"id"`

	// RequestID is the gateway request this record audits. Unique.
	RequestID string `json:"request_id"`

	// ConnectorKind and Operation identify what was attempted.
	ConnectorKind comm.ConnectorKind `json:"connector_kind"`
	Operation     string             `json:"operation"`

	// RequestSummary holds whitelisted request parameters only.
	RequestSummary map[string]any `json:"request_summary"`

	// ResponseSummary holds the sanitized response digest: status,
	// error, whitelisted metadata, has_data, data_type.
	ResponseSummary map[string]any `json:"response_summary"`

	// Status is the request's lifecycle state at last save.
	Status comm.RequestStatus `json:"status"`

	// Metadata carries pipeline annotations (risk level, reason codes,
	// rate-limit detail).
	Metadata map[string]any `json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRecord creates a record for a request entering the pipeline.
func NewRecord(req *comm.CommunicationRequest, requestSummary map[string]any, now time.Time) *EvidenceRecord {
	return &EvidenceRecord{
		ID:             uuid.NewString(),
		RequestID:      req.ID,
		ConnectorKind:  req.ConnectorKind,
		Operation:      req.Operation,
		RequestSummary: requestSummary,
		Status:         req.Status,
		Metadata:       map[string]any{},
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}
}

// Filters selects records for Search and Count. Zero fields match
// everything.
type Filters struct {
	ConnectorKind comm.ConnectorKind `json:"connector_kind,omitempty"`
	Operation     string             `json:"operation,omitempty"`
	Status        comm.RequestStatus `json:"status,omitempty"`

	// Start and End bound created_at, inclusive.
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Storage is the evidence persistence contract. Implementations must be
// safe for concurrent use; Save must be durable before it returns.
type Storage interface {
	// Save upserts by request_id: insert when no row exists, otherwise
	// update response_summary, status, metadata, and updated_at only.
	Save(ctx context.Context, record *EvidenceRecord) error

	// Get returns the record with the given record ID.
	Get(ctx context.Context, id string) (*EvidenceRecord, error)

	// GetByRequest returns the record for a request ID.
	GetByRequest(ctx context.Context, requestID string) (*EvidenceRecord, error)

	// Search returns matching records ordered by created_at descending.
	// A limit <= 0 applies the backend default.
	Search(ctx context.Context, filters Filters, limit int) ([]*EvidenceRecord, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// CountByStatus returns the number of records in one status.
	CountByStatus(ctx context.Context, status comm.RequestStatus) (int64, error)

	// StatsByConnector returns record counts keyed by connector kind.
	StatsByConnector(ctx context.Context) (map[comm.ConnectorKind]int64, error)

	// PurgeOlderThan deletes records with created_at before the cutoff
	// and returns the number deleted.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases backend resources.
	Close() error
}
