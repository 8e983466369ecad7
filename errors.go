package docquery

import "github.com/kailas-cloud/docquery/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidArgument       = domain.ErrInvalidArgument
	ErrTransportFailure      = domain.ErrTransportFailure
	ErrServerError           = domain.ErrServerError
	ErrUnknownType           = domain.ErrUnknownType
	ErrTypeMismatch          = domain.ErrTypeMismatch
	ErrSnapshotNotFound      = domain.ErrSnapshotNotFound
	ErrSnapshotStoreDisabled = domain.ErrSnapshotStoreDisabled
)

// ParseFailureMessage is the ServerError message used when the error body
// could not be decoded.
const ParseFailureMessage = domain.ParseFailureMessage

// ServerError is delivered for unsuccessful responses. Use errors.As().
type ServerError = domain.ServerError

// TransportError is delivered for network and IO failures. Use errors.As().
type TransportError = domain.TransportError
