package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument signals bad builder input (empty string, start<0, rows<1).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTransportFailure signals a network or IO failure reported by the transport.
	ErrTransportFailure = errors.New("transport failure")
	// ErrServerError signals an unsuccessful response from the search server.
	ErrServerError = errors.New("server error")
	// ErrUnknownType signals a snapshot whose document type has no registered constructor.
	ErrUnknownType = errors.New("unknown document type")
	// ErrTypeMismatch signals a registered document type bound to a different Go type.
	ErrTypeMismatch = errors.New("document type mismatch")

	// ErrSnapshotNotFound signals a missing or expired stored snapshot.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrSnapshotStoreDisabled signals that no snapshot store is configured.
	ErrSnapshotStoreDisabled = errors.New("snapshot store not configured")
)

// ParseFailureMessage is used when an error response body cannot be decoded.
const ParseFailureMessage = "unable to parse server error response"

// InvalidArgument wraps ErrInvalidArgument with a formatted reason.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// TransportError wraps ErrTransportFailure with the underlying cause.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", ErrTransportFailure.Error(), e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is/As.
func (e *TransportError) Unwrap() []error { return []error{ErrTransportFailure, e.Err} }

// ServerError is an unsuccessful response decoded from the server's error envelope.
type ServerError struct {
	StatusCode  int
	Message     string
	Description string
}

func (e *ServerError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s %d: %s (%s)", ErrServerError.Error(), e.StatusCode, e.Message, e.Description)
	}
	return fmt.Sprintf("%s %d: %s", ErrServerError.Error(), e.StatusCode, e.Message)
}

func (e *ServerError) Unwrap() error { return ErrServerError }
