package service

import (
	"fmt"

	"sentry-hq/conduit/pkg/comm"
)

// requiredParams maps each connector kind to the parameters a request
// must carry before it is worth evaluating any further.
var requiredParams = map[comm.ConnectorKind][]string{
	comm.KindWebSearch: {"query"},
	comm.KindWebFetch:  {"url"},
	comm.KindRSS:       {"feed_url"},
	comm.KindEmailSMTP: {"to", "subject", "body"},
	comm.KindSlack:     {"channel", "message"},
}

// validateRequest checks the structural preconditions of a request: a
// known connector kind, a non-empty operation, and the kind-specific
// required parameters.
func validateRequest(req *comm.CommunicationRequest) error {
	if !req.ConnectorKind.Valid() {
		return fmt.Errorf("unknown connector kind %q", req.ConnectorKind)
	}
	if req.Operation == "" {
		return fmt.Errorf("operation is required")
	}
	if missing := comm.RequireParams(req.Params, requiredParams[req.ConnectorKind]...); missing != "" {
		return fmt.Errorf("missing required parameter %q for %s", missing, req.ConnectorKind)
	}
	return nil
}
