package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/docquery/internal/domain/search/params"
	"github.com/kailas-cloud/docquery/internal/domain/search/query"
	"github.com/kailas-cloud/docquery/internal/domain/search/state"
	"github.com/kailas-cloud/docquery/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterTransportMetrics()
	os.Exit(m.Run())
}

// newServer starts a fake select API and records the last query string.
func newServer(t *testing.T, lastQuery *url.Values, lastPath *string) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	handler := func(w http.ResponseWriter, req *http.Request) {
		*lastQuery = req.URL.Query()
		*lastPath = req.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":{"numFound":25,"start":0,"docs":[
			{"id":"a","type":"article","title":"First"},
			{"id":"b","type":"image"}
		]}}`))
	}
	r.Get("/api"+SelectPath, handler)
	r.Get("/api"+ProtectedSelectPath, handler)
	r.Get("/api/broken"+SelectPath, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad query"}}`))
	})
	r.Get("/api/garbage"+SelectPath, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})
	r.Get("/api/slow"+SelectPath, func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-req.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTransport(t *testing.T, baseURL string) *Transport {
	t.Helper()
	tr, err := New(Config{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tr
}

func TestSearch_Success(t *testing.T) {
	var q url.Values
	var path string
	srv := newServer(t, &q, &path)
	tr := newTransport(t, srv.URL+"/api/")

	p := params.New()
	_ = p.FilterBy("tags", "x")
	_ = p.SortBy("title", true)
	_ = p.SetRows(10)
	p.SetIncludeDraft(true)

	resp, err := tr.Search(context.Background(), p.Build(), state.Flags{Draft: true, CompleteContext: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("StatusCode = %d", resp.StatusCode)
	}
	if resp.Page.NumFound != 25 || len(resp.Page.Records) != 2 {
		t.Fatalf("page = %+v", resp.Page)
	}
	if resp.Page.Records[0].String("title") != "First" {
		t.Errorf("title = %q", resp.Page.Records[0].String("title"))
	}

	if path != "/api"+SelectPath {
		t.Errorf("path = %q", path)
	}
	if q.Get("q") != query.MatchAll {
		t.Errorf("q = %q", q.Get("q"))
	}
	wantFQ := []string{"tags:x", query.DraftClause}
	if !slices.Equal(q["fq"], wantFQ) {
		t.Errorf("fq = %v, want %v", q["fq"], wantFQ)
	}
	if q.Get("fl") != "*,[document]" {
		t.Errorf("fl = %q", q.Get("fl"))
	}
	if q.Get("sort") != "title asc" {
		t.Errorf("sort = %q", q.Get("sort"))
	}
	if q.Get("rows") != "10" {
		t.Errorf("rows = %q", q.Get("rows"))
	}
	if q.Has("start") {
		t.Errorf("start sent although unset: %q", q.Get("start"))
	}
	if q.Get("draft") != "true" || q.Get("context") != "complete" {
		t.Errorf("flags = draft:%q context:%q", q.Get("draft"), q.Get("context"))
	}
	if q.Has("retired") {
		t.Error("retired sent although false")
	}
}

func TestSearch_ProtectedEndpoint(t *testing.T) {
	var q url.Values
	var path string
	srv := newServer(t, &q, &path)
	tr := newTransport(t, srv.URL+"/api")

	if _, err := tr.Search(context.Background(), params.New().Build(), state.Flags{ProtectedContent: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/api"+ProtectedSelectPath {
		t.Errorf("path = %q, want protected endpoint", path)
	}
}

func TestSearch_ErrorStatus(t *testing.T) {
	var q url.Values
	var path string
	srv := newServer(t, &q, &path)
	tr := newTransport(t, srv.URL+"/api/broken")

	resp, err := tr.Search(context.Background(), params.New().Build(), state.Flags{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.OK() || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("StatusCode = %d", resp.StatusCode)
	}
	msg, _, err := ErrorDecoder{}.DecodeError(resp.ErrorBody)
	if err != nil || msg != "bad query" {
		t.Errorf("decoded (%q, %v)", msg, err)
	}
}

func TestSearch_MalformedBody(t *testing.T) {
	var q url.Values
	var path string
	srv := newServer(t, &q, &path)
	tr := newTransport(t, srv.URL+"/api/garbage")

	_, err := tr.Search(context.Background(), params.New().Build(), state.Flags{})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestSearch_ContextCanceled(t *testing.T) {
	var q url.Values
	var path string
	srv := newServer(t, &q, &path)
	tr := newTransport(t, srv.URL+"/api/slow")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := tr.Search(ctx, params.New().Build(), state.Flags{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestEncodeQuery_StartZeroIsSent(t *testing.T) {
	p := params.New()
	_ = p.SetStart(0)
	p.SetIncludeAllFields(false)

	values, err := EncodeQuery(p.Build(), state.Flags{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values.Get("start") != "0" {
		t.Errorf("start = %q, want 0", values.Get("start"))
	}
	if values.Has("rows") {
		t.Error("rows sent although unset")
	}
	if values.Has("fl") {
		t.Error("fl sent although no fields selected")
	}
	if values.Get("wt") != "json" {
		t.Errorf("wt = %q", values.Get("wt"))
	}
}

func TestPing(t *testing.T) {
	var q url.Values
	var path string
	srv := newServer(t, &q, &path)

	if err := newTransport(t, srv.URL+"/api").Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Get("rows") != "0" || q.Get("q") != query.MatchAll {
		t.Errorf("ping query = %v", q)
	}

	if err := newTransport(t, srv.URL+"/api/broken").Ping(context.Background()); err == nil {
		t.Error("expected error for error status")
	}
}

func TestNew_Validation(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com", "::bad"} {
		if _, err := New(Config{BaseURL: u}); err == nil {
			t.Errorf("New(%q): expected error", u)
		}
	}
}
