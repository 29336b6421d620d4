package recorder

import (
	"context"
	"log/slog"

	"sentry-hq/conduit/pkg/clock"
	"sentry-hq/conduit/pkg/comm"
	"sentry-hq/conduit/pkg/evidence"
)

// Recorder writes the evidence trail for requests moving through the
// pipeline. All writes are synchronous upserts keyed by request_id.
type Recorder struct {
	store  evidence.Storage
	clock  clock.Clock
	logger *slog.Logger
}

// NewRecorder creates a recorder over a storage backend. A nil clock
// uses the system clock.
func NewRecorder(store evidence.Storage, clk clock.Clock) *Recorder {
	if clk == nil {
		clk = clock.System()
	}
	return &Recorder{
		store:  store,
		clock:  clk,
		logger: slog.Default().With("component", "evidence.recorder"),
	}
}

// Begin creates and persists the initial record for a request entering
// the pipeline.
func (r *Recorder) Begin(ctx context.Context, req *comm.CommunicationRequest) (*evidence.EvidenceRecord, error) {
	rec := evidence.NewRecord(req, BuildRequestSummary(req), r.clock.Now())
	if err := r.store.Save(ctx, rec); err != nil {
		return nil, evidence.NewRecorderError(req.ID, err)
	}
	return rec, nil
}

// Update persists a status transition with optional metadata merged into
// the record.
func (r *Recorder) Update(ctx context.Context, rec *evidence.EvidenceRecord, status comm.RequestStatus, metadata map[string]any) error {
	rec.Status = status
	rec.UpdatedAt = r.clock.Now()
	if rec.Metadata == nil {
		rec.Metadata = map[string]any{}
	}
	for k, v := range metadata {
		rec.Metadata[k] = v
	}
	if err := r.store.Save(ctx, rec); err != nil {
		return evidence.NewRecorderError(rec.RequestID, err)
	}
	return nil
}

// Complete persists the terminal state of a request together with its
// response summary.
func (r *Recorder) Complete(ctx context.Context, rec *evidence.EvidenceRecord, resp *comm.CommunicationResponse) error {
	rec.Status = resp.Status
	rec.ResponseSummary = BuildResponseSummary(resp)
	rec.UpdatedAt = r.clock.Now()
	if err := r.store.Save(ctx, rec); err != nil {
		return evidence.NewRecorderError(rec.RequestID, err)
	}
	r.logger.Debug("evidence recorded",
		"request_id", rec.RequestID,
		"status", rec.Status,
		"connector_kind", rec.ConnectorKind,
	)
	return nil
}
