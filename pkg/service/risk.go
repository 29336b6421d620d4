package service

import (
	"strings"

	"sentry-hq/conduit/pkg/comm"
)

// riskVerbs are operation-name fragments that raise the risk level one
// step: they mutate remote state or move data off-platform.
var riskVerbs = []string{"send", "upload", "post", "delete", "put", "publish", "write"}

// AssessRisk derives the discrete risk level of a request from its
// connector kind and operation name. Outbound kinds start high, fetching
// starts medium, read-only retrieval starts low; an operation containing
// a mutating verb raises the level one step.
func AssessRisk(kind comm.ConnectorKind, operation string) comm.RiskLevel {
	level := baseRisk(kind)
	if containsRiskVerb(operation) {
		level = raise(level)
	}
	return level
}

func baseRisk(kind comm.ConnectorKind) comm.RiskLevel {
	switch {
	case kind.IsOutbound():
		return comm.RiskHigh
	case kind == comm.KindWebFetch:
		return comm.RiskMedium
	default:
		return comm.RiskLow
	}
}

func containsRiskVerb(operation string) bool {
	op := strings.ToLower(operation)
	for _, verb := range riskVerbs {
		if strings.Contains(op, verb) {
			return true
		}
	}
	return false
}

func raise(level comm.RiskLevel) comm.RiskLevel {
	switch level {
	case comm.RiskLow:
		return comm.RiskMedium
	case comm.RiskMedium:
		return comm.RiskHigh
	default:
		return comm.RiskCritical
	}
}
