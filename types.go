package docquery

import (
	"github.com/kailas-cloud/docquery/internal/domain/search/query"
	"github.com/kailas-cloud/docquery/internal/domain/search/record"
	"github.com/kailas-cloud/docquery/internal/domain/search/state"
	searchuc "github.com/kailas-cloud/docquery/internal/usecase/search"
)

// Transport executes a rendered query. Search blocks until the call
// completes or ctx is canceled; non-2xx responses are returned as a Response
// with ErrorBody set, not as an error.
type Transport = searchuc.Transport

// ErrorDecoder decodes the server's structured error body into a message and
// an optional description.
type ErrorDecoder = searchuc.ErrorDecoder

// Query is the immutable, wire-ready rendering of a builder.
type Query = query.Query

// Flags are the visibility and content toggles sent alongside a Query.
type Flags = state.Flags

// Response is a completed transport call.
type Response = record.Response

// Page is one page of raw hits.
type Page = record.Page

// Record is a raw document as returned by the server.
type Record = record.Record

// TypeField is the raw-record key holding the classification tag.
const TypeField = record.TypeField
