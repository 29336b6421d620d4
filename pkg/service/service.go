package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"sentry-hq/conduit/pkg/clock"
	"sentry-hq/conduit/pkg/comm"
	"sentry-hq/conduit/pkg/connectors"
	"sentry-hq/conduit/pkg/evidence"
	"sentry-hq/conduit/pkg/evidence/recorder"
	"sentry-hq/conduit/pkg/limits/ratelimit"
	"sentry-hq/conduit/pkg/netmode"
	"sentry-hq/conduit/pkg/policy"
	"sentry-hq/conduit/pkg/sanitize"
	"sentry-hq/conduit/pkg/telemetry/metrics"
	"sentry-hq/conduit/pkg/trust"
)

// rateWindowSeconds is the span of the per-connector sliding window.
const rateWindowSeconds = 60

// Config wires the orchestrator's collaborators. All fields except
// Clock and Logger are required.
type Config struct {
	Mode       *netmode.Manager
	Engine     *policy.Engine
	Policies   *policy.Registry
	Limiter    *ratelimit.KeyedLimiter
	Connectors *connectors.Registry
	Recorder   *recorder.Recorder
	Classifier *trust.Classifier

	// Metrics is optional; a nil collector disables instrumentation.
	Metrics *metrics.Collector

	Clock  clock.Clock
	Logger *slog.Logger
}

// ExecuteRequest carries one communication attempt into the pipeline.
type ExecuteRequest struct {
	ConnectorKind comm.ConnectorKind
	Operation     string
	Params        map[string]any
	Context       map[string]any
	Phase         comm.ExecutionPhase
	ApprovalToken string
}

// Service is the gateway orchestrator.
type Service struct {
	mode       *netmode.Manager
	engine     *policy.Engine
	policies   *policy.Registry
	limiter    *ratelimit.KeyedLimiter
	connectors *connectors.Registry
	recorder   *recorder.Recorder
	classifier *trust.Classifier
	metrics    *metrics.Collector
	inputs     *sanitize.InputSanitizer
	outputs    *sanitize.OutputSanitizer
	clk        clock.Clock
	log        *slog.Logger
}

// New creates the orchestrator from its wired components.
func New(cfg Config) *Service {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.System()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		mode:       cfg.Mode,
		engine:     cfg.Engine,
		policies:   cfg.Policies,
		limiter:    cfg.Limiter,
		connectors: cfg.Connectors,
		recorder:   cfg.Recorder,
		classifier: cfg.Classifier,
		metrics:    cfg.Metrics,
		inputs:     sanitize.NewInputSanitizer(),
		outputs:    sanitize.NewOutputSanitizer(),
		clk:        clk,
		log:        logger.With("component", "service"),
	}
}

// Execute runs one request through the full pipeline and returns its
// response. Every outcome, denials included, completes the evidence
// record opened at entry.
func (s *Service) Execute(ctx context.Context, in ExecuteRequest) *comm.CommunicationResponse {
	now := s.clk.Now()
	phase := in.Phase
	if phase == "" {
		phase = comm.PhaseExecution
	}
	req := &comm.CommunicationRequest{
		ID:            comm.NewRequestID(),
		ConnectorKind: in.ConnectorKind,
		Operation:     in.Operation,
		Params:        in.Params,
		Context:       in.Context,
		Status:        comm.StatusPending,
		RiskLevel:     AssessRisk(in.ConnectorKind, in.Operation),
		ApprovalToken: in.ApprovalToken,
		Phase:         phase,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	rec := s.beginEvidence(ctx, req)

	if allowed, reason := s.mode.IsOperationAllowed(req.Operation); !allowed {
		return s.finish(ctx, req, rec, s.denied(req, comm.StatusDenied,
			comm.ReasonNetworkModeBlocked, reason,
			map[string]any{"mode": string(s.mode.Mode())}))
	}

	if err := validateRequest(req); err != nil {
		return s.finish(ctx, req, rec, s.failed(req, err.Error()))
	}

	verdict := s.engine.Evaluate(ctx, req)
	if !verdict.Approved() {
		return s.finish(ctx, req, rec, s.denied(req, verdict.Status,
			verdict.ReasonCode, verdict.Hint, verdict.Metadata))
	}

	// A verdict other than NO_POLICY guarantees the lookup succeeds.
	pol := s.policies.Get(req.ConnectorKind)

	limit := s.limiter.Check(string(req.ConnectorKind), pol.RateLimitPerMinute, rateWindowSeconds)
	if !limit.Allowed {
		return s.finish(ctx, req, rec, s.denied(req, comm.StatusRateLimited,
			comm.ReasonRateLimitExceeded, limit.Reason, map[string]any{
				"retry_after_seconds": int(math.Ceil(limit.RetryAfter.Seconds())),
				"limit":               limit.Limit,
				"limit_key":           limit.Key,
			}))
	}

	if pol.SanitizeInputs {
		req.Params = s.inputs.SanitizeParams(req.Params)
	}

	conn, err := s.connectors.Get(req.ConnectorKind)
	if err != nil {
		return s.finish(ctx, req, rec, s.failed(req, err.Error()))
	}
	if !conn.Enabled() {
		return s.finish(ctx, req, rec, s.denied(req, comm.StatusDenied,
			comm.ReasonConnectorDisabled,
			fmt.Sprintf("connector %s is administratively disabled", req.ConnectorKind), nil))
	}

	req.Status = comm.StatusInProgress
	if rec != nil {
		if err := s.recorder.Update(ctx, rec, comm.StatusInProgress, nil); err != nil {
			s.log.Warn("evidence update failed", "request_id", req.ID, "error", err)
		}
	}

	dispatchCtx := ctx
	if pol.Timeout > 0 {
		var cancel context.CancelFunc
		dispatchCtx, cancel = context.WithTimeout(ctx, pol.Timeout)
		defer cancel()
	}

	data, err := s.dispatch(dispatchCtx, conn, req)
	if err != nil {
		return s.finish(ctx, req, rec, s.failed(req, err.Error()))
	}

	metadata := map[string]any{"risk_level": string(req.RiskLevel)}
	if pol.SanitizeOutputs {
		data = s.outputs.SanitizeValue(data)
		var truncated bool
		if data, truncated = truncateData(data, pol.MaxResponseSizeBytes); truncated {
			metadata["truncated"] = true
		}
	}
	if tier, ok := s.tierFor(req); ok {
		metadata["trust_tier"] = string(tier)
	}

	req.Status = comm.StatusSuccess
	return s.finish(ctx, req, rec, &comm.CommunicationResponse{
		RequestID: req.ID,
		Status:    comm.StatusSuccess,
		Data:      data,
		Metadata:  metadata,
		CreatedAt: s.clk.Now(),
	})
}

// beginEvidence opens the audit record. A storage failure degrades to a
// response without an evidence id rather than refusing the request.
func (s *Service) beginEvidence(ctx context.Context, req *comm.CommunicationRequest) *evidence.EvidenceRecord {
	rec, err := s.recorder.Begin(ctx, req)
	if s.metrics != nil {
		s.metrics.RecordEvidenceWrite(err)
	}
	if err != nil {
		s.log.Warn("evidence record could not be opened",
			"request_id", req.ID, "connector_kind", req.ConnectorKind, "error", err)
		return nil
	}
	return rec
}

// dispatch invokes the connector, converting a panic into an execution
// error so one misbehaving connector cannot take the gateway down.
func (s *Service) dispatch(ctx context.Context, conn connectors.Connector, req *comm.CommunicationRequest) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("connector panicked",
				"connector_kind", req.ConnectorKind, "operation", req.Operation, "panic", r)
			err = connectors.NewExecutionError(req.ConnectorKind, req.Operation,
				fmt.Errorf("connector panic: %v", r))
		}
	}()
	return conn.Execute(ctx, req.Operation, req.Params)
}

// tierFor derives the trust tier recorded with a successful response.
// Search results are always the search-result tier; URL-bearing requests
// classify by source domain; requests with no source carry no tier.
func (s *Service) tierFor(req *comm.CommunicationRequest) (comm.TrustTier, bool) {
	if req.ConnectorKind == comm.KindWebSearch {
		return comm.TierSearchResult, true
	}
	source := comm.StringParam(req.Params, "url")
	if source == "" {
		source = comm.StringParam(req.Params, "feed_url")
	}
	if source == "" {
		return "", false
	}
	return s.classifier.Classify(source, req.ConnectorKind), true
}

// denied builds a terminal response for a request stopped before
// dispatch. The reason code lands in the response metadata.
func (s *Service) denied(req *comm.CommunicationRequest, status comm.RequestStatus, reasonCode, hint string, extra map[string]any) *comm.CommunicationResponse {
	req.Status = status
	metadata := map[string]any{
		"reason_code": reasonCode,
		"risk_level":  string(req.RiskLevel),
	}
	for k, v := range extra {
		metadata[k] = v
	}
	return &comm.CommunicationResponse{
		RequestID: req.ID,
		Status:    status,
		Metadata:  metadata,
		Error:     hint,
		CreatedAt: s.clk.Now(),
	}
}

// failed builds a terminal response for an execution failure.
func (s *Service) failed(req *comm.CommunicationRequest, errMsg string) *comm.CommunicationResponse {
	req.Status = comm.StatusFailed
	return &comm.CommunicationResponse{
		RequestID: req.ID,
		Status:    comm.StatusFailed,
		Metadata:  map[string]any{"risk_level": string(req.RiskLevel)},
		Error:     errMsg,
		CreatedAt: s.clk.Now(),
	}
}

// finish completes the evidence record and attaches its id to the
// response. A completion failure is logged, never surfaced.
func (s *Service) finish(ctx context.Context, req *comm.CommunicationRequest, rec *evidence.EvidenceRecord, resp *comm.CommunicationResponse) *comm.CommunicationResponse {
	s.observe(req, resp)
	if rec == nil {
		return resp
	}
	rec.Metadata["risk_level"] = string(req.RiskLevel)
	for _, key := range []string{"reason_code", "trust_tier", "retry_after_seconds"} {
		if v, ok := resp.Metadata[key]; ok {
			rec.Metadata[key] = v
		}
	}
	err := s.recorder.Complete(ctx, rec, resp)
	if s.metrics != nil {
		s.metrics.RecordEvidenceWrite(err)
	}
	if err != nil {
		s.log.Warn("evidence completion failed", "request_id", req.ID, "error", err)
		return resp
	}
	resp.EvidenceID = rec.ID
	return resp
}

// observe publishes the request's terminal metrics.
func (s *Service) observe(req *comm.CommunicationRequest, resp *comm.CommunicationResponse) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordRequest(req.ConnectorKind, resp.Status, s.clk.Now().Sub(req.CreatedAt))
	switch resp.Status {
	case comm.StatusDenied, comm.StatusRequireAdmin:
		if code, ok := resp.Metadata["reason_code"].(string); ok {
			s.metrics.RecordDenial(code)
		}
	case comm.StatusRateLimited:
		key, ok := resp.Metadata["limit_key"].(string)
		if !ok {
			key = string(req.ConnectorKind)
		}
		s.metrics.RecordRateLimited(key)
	}
}

// truncateData bounds the response payload. Strings are cut directly;
// structured data is measured by its JSON encoding and replaced with the
// truncated encoding when it exceeds the cap.
func truncateData(data any, maxBytes int64) (any, bool) {
	if maxBytes <= 0 || data == nil {
		return data, false
	}
	if str, ok := data.(string); ok {
		if int64(len(str)) <= maxBytes {
			return data, false
		}
		return sanitize.Truncate(str, int(maxBytes)), true
	}
	raw, err := json.Marshal(data)
	if err != nil || int64(len(raw)) <= maxBytes {
		return data, false
	}
	return sanitize.Truncate(string(raw), int(maxBytes)), true
}
