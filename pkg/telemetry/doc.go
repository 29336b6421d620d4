// Package telemetry groups the gateway's observability subsystems:
// structured logging with credential redaction (logging), Prometheus
// metrics (metrics), and connector/storage health checking (health).
package telemetry
