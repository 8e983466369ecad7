package docquery

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/docquery/internal/domain/search/state"
	searchuc "github.com/kailas-cloud/docquery/internal/usecase/search"
)

type article struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

var articles = NewDocumentType("article", DecodeJSON[article]())

type image struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

var images = NewDocumentType("image", DecodeJSON[image]())

// --- Transport mock ---

type fakeCall struct {
	query Query
	flags Flags
}

type fakeTransport struct {
	mu     sync.Mutex
	calls  []fakeCall
	handle func(ctx context.Context, q Query, flags Flags) (*Response, error)
}

func (f *fakeTransport) Search(ctx context.Context, q Query, flags Flags) (*Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{query: q, flags: flags})
	h := f.handle
	f.mu.Unlock()
	if h == nil {
		return okResponse(0), nil
	}
	return h(ctx, q, flags)
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTransport) last() fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func okResponse(numFound int, recs ...Record) *Response {
	return &Response{StatusCode: 200, Page: &Page{NumFound: numFound, Records: recs}}
}

// pagingHandler serves total articles, honoring start and rows.
func pagingHandler(total int) func(context.Context, Query, Flags) (*Response, error) {
	return func(_ context.Context, q Query, _ Flags) (*Response, error) {
		start, _ := q.Start()
		rows, ok := q.Rows()
		if !ok {
			rows = DefaultRows
		}
		var recs []Record
		for i := start; i < min(start+rows, total); i++ {
			recs = append(recs, Record{"id": fmt.Sprintf("doc-%d", i), "type": "article"})
		}
		return okResponse(total, recs...), nil
	}
}

// --- snapshotStore mock ---

type mockSnapshotStore struct {
	saveFn   func(ctx context.Context, st state.State) (string, error)
	loadFn   func(ctx context.Context, id string) (state.State, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockSnapshotStore) Save(ctx context.Context, st state.State) (string, error) {
	return m.saveFn(ctx, st)
}

func (m *mockSnapshotStore) Load(ctx context.Context, id string) (state.State, error) {
	return m.loadFn(ctx, id)
}

func (m *mockSnapshotStore) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// --- helpers ---

func newTestClient(t *testing.T, tr Transport, opts ...Option) *Client {
	t.Helper()
	c, err := New(context.Background(), append([]Option{WithTransport(tr)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func waitState[T any](t *testing.T, b *SearchBuilder[T], want searchuc.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.ctrl.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("state = %s, want %s", b.ctrl.State(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
