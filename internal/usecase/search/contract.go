package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/docquery/internal/domain/search/query"
	"github.com/kailas-cloud/docquery/internal/domain/search/record"
	"github.com/kailas-cloud/docquery/internal/domain/search/state"
)

// Transport executes a query against the search server.
// Search blocks until the call completes or ctx is canceled.
type Transport interface {
	Search(ctx context.Context, q query.Query, flags state.Flags) (*record.Response, error)
}

// ErrorDecoder decodes the server's structured error envelope.
type ErrorDecoder interface {
	DecodeError(body []byte) (message, description string, err error)
}

// Observer receives one event per finished or discarded call.
type Observer interface {
	Observe(op string, start time.Time, err error)
}
