package connectors

import (
	"fmt"

	"sentry-hq/conduit/pkg/comm"
)

// NotRegisteredError indicates no connector is registered for a kind.
type NotRegisteredError struct {
	Kind comm.ConnectorKind
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("no connector registered for kind %q", e.Kind)
}

// NewNotRegisteredError creates a NotRegisteredError.
func NewNotRegisteredError(kind comm.ConnectorKind) *NotRegisteredError {
	return &NotRegisteredError{Kind: kind}
}

// UnsupportedOperationError indicates a connector does not implement the
// requested operation.
type UnsupportedOperationError struct {
	Kind      comm.ConnectorKind
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("connector %q does not support operation %q", e.Kind, e.Operation)
}

// NewUnsupportedOperationError creates an UnsupportedOperationError.
func NewUnsupportedOperationError(kind comm.ConnectorKind, operation string) *UnsupportedOperationError {
	return &UnsupportedOperationError{Kind: kind, Operation: operation}
}

// MissingParamError indicates a required request parameter was absent or
// empty.
type MissingParamError struct {
	Kind  comm.ConnectorKind
	Param string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("connector %q requires parameter %q", e.Kind, e.Param)
}

// NewMissingParamError creates a MissingParamError.
func NewMissingParamError(kind comm.ConnectorKind, param string) *MissingParamError {
	return &MissingParamError{Kind: kind, Param: param}
}

// ExecutionError wraps a back-end failure during an operation.
type ExecutionError struct {
	Kind      comm.ConnectorKind
	Operation string
	Cause     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("connector %q operation %q failed: %v", e.Kind, e.Operation, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// NewExecutionError creates an ExecutionError.
func NewExecutionError(kind comm.ConnectorKind, operation string, cause error) *ExecutionError {
	return &ExecutionError{Kind: kind, Operation: operation, Cause: cause}
}

// ResponseTooLargeError indicates a back-end response exceeded the policy
// size limit.
type ResponseTooLargeError struct {
	Kind  comm.ConnectorKind
	Limit int64
}

func (e *ResponseTooLargeError) Error() string {
	return fmt.Sprintf("connector %q response exceeds limit of %d bytes", e.Kind, e.Limit)
}

// NewResponseTooLargeError creates a ResponseTooLargeError.
func NewResponseTooLargeError(kind comm.ConnectorKind, limit int64) *ResponseTooLargeError {
	return &ResponseTooLargeError{Kind: kind, Limit: limit}
}
