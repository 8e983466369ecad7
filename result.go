package docquery

import (
	"slices"

	"github.com/kailas-cloud/docquery/internal/domain/search/page"
	"github.com/kailas-cloud/docquery/internal/domain/search/params"
	"github.com/kailas-cloud/docquery/internal/domain/search/state"
)

// DefaultRows is the page size assumed by NextPage and PreviousPage when the
// producing search never set one.
const DefaultRows = page.DefaultRows

// Result is one page of typed documents together with the request that
// produced it. It is immutable.
type Result[T any] struct {
	numFound int
	docs     []T
	client   *Client
	docType  DocumentType[T]
	params   *params.Params // frozen at submission, never mutated
	flags    Flags
}

// NumFound returns the total number of matches on the server.
func (r *Result[T]) NumFound() int { return r.numFound }

// Documents returns a copy of the page's documents.
func (r *Result[T]) Documents() []T { return slices.Clone(r.docs) }

// Len returns the number of documents on the page.
func (r *Result[T]) Len() int { return len(r.docs) }

// Start returns the offset of the producing search (0 when unset).
func (r *Result[T]) Start() int {
	n, _ := r.params.Start()
	return n
}

// Rows returns the page size of the producing search and whether it was set.
func (r *Result[T]) Rows() (int, bool) { return r.params.Rows() }

// Query returns the query that produced the result.
func (r *Result[T]) Query() Query { return r.params.Build() }

// NextPage returns a new builder positioned one page forward. It never fails:
// paging past the end yields an empty result.
func (r *Result[T]) NextPage() *SearchBuilder[T] {
	return newBuilder(r.client, r.docType, page.Next(r.params), r.flags)
}

// PreviousPage returns a new builder positioned one page back, or false when
// the result is already the first page.
func (r *Result[T]) PreviousPage() (*SearchBuilder[T], bool) {
	p, ok := page.Previous(r.params)
	if !ok {
		return nil, false
	}
	return newBuilder(r.client, r.docType, p, r.flags), true
}

// Snapshot captures the producing request.
func (r *Result[T]) Snapshot() (Snapshot, error) {
	st, err := state.New(r.docType.Name, r.params, r.flags)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{st: st}, nil
}
