package docquery

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/docquery/internal/domain/search/params"
	"github.com/kailas-cloud/docquery/internal/domain/search/record"
	"github.com/kailas-cloud/docquery/internal/domain/search/state"
	searchuc "github.com/kailas-cloud/docquery/internal/usecase/search"
)

// SearchBuilder is a fluent builder for typed searches. It owns its
// parameters and at most one in-flight call. Not safe for concurrent
// configuration; Then, Error and Cancel may be called from any goroutine.
//
// The first invalid input is recorded and returned by Err and Get; later
// setters still apply.
type SearchBuilder[T any] struct {
	client  *Client
	docType DocumentType[T]
	params  *params.Params
	flags   Flags // ProtectedContent and CompleteContext only
	err     error
	ctrl    *searchuc.Controller[*Result[T]]
}

// Search starts a new search for documents of type dt.
func Search[T any](c *Client, dt DocumentType[T]) *SearchBuilder[T] {
	b := newBuilder(c, dt, params.New(), c.defaults)
	if err := dt.validate(); err != nil {
		b.err = err
	}
	return b
}

func newBuilder[T any](c *Client, dt DocumentType[T], p *params.Params, flags Flags) *SearchBuilder[T] {
	return &SearchBuilder[T]{
		client:  c,
		docType: dt,
		params:  p,
		flags:   Flags{ProtectedContent: flags.ProtectedContent, CompleteContext: flags.CompleteContext},
		ctrl: searchuc.New[*Result[T]](c.transport, c.decoder, c.logger).
			WithObserver(c.obs),
	}
}

// restore rebuilds a builder from a captured state.
func restore[T any](c *Client, dt DocumentType[T], st state.State) *SearchBuilder[T] {
	return newBuilder(c, dt, st.Params(), st.Flags())
}

func (b *SearchBuilder[T]) record(err error) *SearchBuilder[T] {
	if err != nil && b.err == nil {
		b.err = err
	}
	return b
}

// SortBy adds or updates a sort rule. Re-specifying a field overwrites its
// direction and moves it to the end of the sort order.
func (b *SearchBuilder[T]) SortBy(field string, ascending bool) *SearchBuilder[T] {
	return b.record(b.params.SortBy(field, ascending))
}

// FilterBy adds a "field:value" filter clause.
func (b *SearchBuilder[T]) FilterBy(field, value string) *SearchBuilder[T] {
	return b.record(b.params.FilterBy(field, value))
}

// FilterQuery adds a raw filter clause verbatim.
func (b *SearchBuilder[T]) FilterQuery(clause string) *SearchBuilder[T] {
	return b.record(b.params.FilterQuery(clause))
}

// SearchByText replaces the free-text query. Default: match everything.
func (b *SearchBuilder[T]) SearchByText(text string) *SearchBuilder[T] {
	return b.record(b.params.SearchByText(text))
}

// SelectFields requests explicit fields in addition to (or, with
// IncludeAllFields(false), instead of) the full document.
func (b *SearchBuilder[T]) SelectFields(names ...string) *SearchBuilder[T] {
	return b.record(b.params.SelectFields(names...))
}

// Rows sets the page size. Must be at least 1.
func (b *SearchBuilder[T]) Rows(n int) *SearchBuilder[T] {
	return b.record(b.params.SetRows(n))
}

// Start sets the result offset. Must not be negative.
func (b *SearchBuilder[T]) Start(n int) *SearchBuilder[T] {
	return b.record(b.params.SetStart(n))
}

// IncludeDraft adds draft documents to the result.
func (b *SearchBuilder[T]) IncludeDraft(v bool) *SearchBuilder[T] {
	b.params.SetIncludeDraft(v)
	return b
}

// IncludeRetired adds retired documents to the result.
func (b *SearchBuilder[T]) IncludeRetired(v bool) *SearchBuilder[T] {
	b.params.SetIncludeRetired(v)
	return b
}

// IncludeAllFields toggles the wildcard and full-document field selectors.
// Default: true.
func (b *SearchBuilder[T]) IncludeAllFields(v bool) *SearchBuilder[T] {
	b.params.SetIncludeAllFields(v)
	return b
}

// ProtectedContent targets the protected select endpoint.
func (b *SearchBuilder[T]) ProtectedContent(v bool) *SearchBuilder[T] {
	b.flags.ProtectedContent = v
	return b
}

// CompleteContext requests documents with their complete context.
func (b *SearchBuilder[T]) CompleteContext(v bool) *SearchBuilder[T] {
	b.flags.CompleteContext = v
	return b
}

// Err returns the first invalid input recorded by a setter.
func (b *SearchBuilder[T]) Err() error { return b.err }

// DocumentType returns the classification tag the builder targets.
func (b *SearchBuilder[T]) DocumentType() string { return b.docType.Name }

// Query renders the current parameters.
func (b *SearchBuilder[T]) Query() Query { return b.params.Build() }

// Then registers a one-shot result listener. A result that already arrived
// is delivered immediately.
func (b *SearchBuilder[T]) Then(fn func(*Result[T])) *SearchBuilder[T] {
	b.ctrl.OnResult(fn)
	return b
}

// Error registers a one-shot error listener. An error that already arrived
// is delivered immediately.
func (b *SearchBuilder[T]) Error(fn func(error)) *SearchBuilder[T] {
	b.ctrl.OnError(fn)
	return b
}

// Get submits the search and returns immediately. Any earlier call of this
// builder is canceled and its outcome discarded. Only invalid input is
// returned here; transport and server failures go to the Error listener.
func (b *SearchBuilder[T]) Get(ctx context.Context) error {
	if b.err != nil {
		return b.err
	}

	frozen := b.params.Clone()
	flags := b.transportFlags()
	dt := b.docType
	client := b.client

	b.ctrl.Submit(ctx, frozen.Build(), flags, searchuc.Target[*Result[T]]{
		Type:     dt.Name,
		Classify: dt.classifier(),
		Map: func(numFound int, records []record.Record) (*Result[T], error) {
			docs, err := dt.decodeAll(records)
			if err != nil {
				return nil, err
			}
			return &Result[T]{
				numFound: numFound,
				docs:     docs,
				client:   client,
				docType:  dt,
				params:   frozen,
				flags:    flags,
			}, nil
		},
	})
	return nil
}

// Do submits the search and blocks until its outcome arrives or ctx is done.
// It replaces any listeners registered with Then and Error.
func (b *SearchBuilder[T]) Do(ctx context.Context) (*Result[T], error) {
	type outcome struct {
		res *Result[T]
		err error
	}
	// Listeners attach only after Submit has discarded any earlier outcome;
	// the new one stays buffered until they do.
	b.ctrl.Detach()
	if err := b.Get(ctx); err != nil {
		return nil, err
	}
	ch := make(chan outcome, 1)
	b.ctrl.Listen(
		func(r *Result[T]) { ch <- outcome{res: r} },
		func(err error) { ch <- outcome{err: err} },
	)
	select {
	case o := <-ch:
		if o.err != nil {
			return nil, fmt.Errorf("search %s: %w", b.docType.Name, o.err)
		}
		return o.res, nil
	case <-ctx.Done():
		b.Cancel()
		return nil, ctx.Err()
	}
}

// Cancel aborts the in-flight call and discards any undelivered outcome.
func (b *SearchBuilder[T]) Cancel() {
	b.ctrl.Cancel()
}

// Snapshot captures the builder's current parameters and flags.
func (b *SearchBuilder[T]) Snapshot() (Snapshot, error) {
	if b.err != nil {
		return Snapshot{}, b.err
	}
	st, err := state.New(b.docType.Name, b.params, b.transportFlags())
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{st: st}, nil
}

func (b *SearchBuilder[T]) transportFlags() Flags {
	return Flags{
		Draft:            b.params.IncludeDraft(),
		Retired:          b.params.IncludeRetired(),
		ProtectedContent: b.flags.ProtectedContent,
		CompleteContext:  b.flags.CompleteContext,
	}
}
