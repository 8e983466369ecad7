package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/docquery"
	"github.com/kailas-cloud/docquery/internal/config"
)

func TestDocumentType(t *testing.T) {
	if got := documentType(""); got.Name != docquery.Records.Name {
		t.Errorf("documentType(\"\") = %q", got.Name)
	}
	if got := documentType("record"); got.Name != "record" {
		t.Errorf("documentType(record) = %q", got.Name)
	}
	if got := documentType("article"); got.Name != "article" {
		t.Errorf("documentType(article) = %q", got.Name)
	}
}

func TestBuildSearch(t *testing.T) {
	client, err := docquery.New(context.Background(), docquery.WithEndpoint("http://localhost:8983"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	b := buildSearch(client, documentType("article"), config.QueryConfig{
		Text: "release",
		Filters: []config.Filter{
			{Field: "tags", Value: "news"},
			{Raw: "modified:[NOW-1DAY TO *]"},
		},
		Sort:         []config.SortRule{{Field: "modified", Order: "desc"}, {Field: "title"}},
		Fields:       []string{"id", "title"},
		IncludeDraft: true,
	}, 25)
	if err := b.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := b.Query()
	if q.Text() != "release" {
		t.Errorf("Text() = %q", q.Text())
	}
	wantFilters := []string{"tags:news", "modified:[NOW-1DAY TO *]", "status:ready OR status:draft OR draftStatus:*"}
	if !slices.Equal(q.Filters(), wantFilters) {
		t.Errorf("Filters() = %v, want %v", q.Filters(), wantFilters)
	}
	if q.Sort() != "modified desc,title asc" {
		t.Errorf("Sort() = %q", q.Sort())
	}
	if rows, _ := q.Rows(); rows != 25 {
		t.Errorf("Rows() = %d, want default 25", rows)
	}
	if start, ok := q.Start(); !ok || start != 0 {
		t.Errorf("Start() = %d,%v, want 0,true", start, ok)
	}
}

func TestBuildSearch_InvalidFilter(t *testing.T) {
	client, err := docquery.New(context.Background(), docquery.WithEndpoint("http://localhost:8983"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	b := buildSearch(client, docquery.Records, config.QueryConfig{
		Filters: []config.Filter{{Field: "tags"}},
	}, 10)
	if b.Err() == nil {
		t.Fatal("expected error for filter without value")
	}
}

type staticHealth docquery.HealthStatus

func (s staticHealth) Health(_ context.Context) docquery.HealthStatus {
	return docquery.HealthStatus(s)
}

func TestMetricsRouter(t *testing.T) {
	srv := httptest.NewServer(newMetricsRouter(staticHealth{Status: "ok"}, zap.NewNop()))
	defer srv.Close()

	for _, path := range []string{"/metrics", "/healthz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d", path, resp.StatusCode)
		}
	}
}

func TestMetricsRouter_Unhealthy(t *testing.T) {
	hc := staticHealth{Status: "error", Checks: map[string]string{"search": "error"}}
	srv := httptest.NewServer(newMetricsRouter(hc, zap.NewNop()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "error" || body.Checks["search"] != "error" {
		t.Errorf("body = %+v", body)
	}
}

func newRunClient(t *testing.T, cfg config.Config, logger *zap.Logger) *docquery.Client {
	t.Helper()
	client, err := docquery.New(context.Background(), clientOptions(cfg, logger)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

// newSelectServer serves total records through the select API.
func newSelectServer(t *testing.T, total int) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/select", func(w http.ResponseWriter, req *http.Request) {
		start, _ := strconv.Atoi(req.URL.Query().Get("start"))
		rows, err := strconv.Atoi(req.URL.Query().Get("rows"))
		if err != nil {
			rows = 10
		}
		docs := ""
		for i := start; i < min(start+rows, total); i++ {
			if docs != "" {
				docs += ","
			}
			docs += fmt.Sprintf(`{"id":"doc-%d","type":"article"}`, i)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"response":{"numFound":%d,"docs":[%s]}}`, total, docs)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_WalksPages(t *testing.T) {
	srv := newSelectServer(t, 25)
	core, logs := observer.New(zapcore.InfoLevel)

	cfg := config.Config{
		Search: config.SearchConfig{Endpoint: srv.URL},
		Query:  config.QueryConfig{Rows: 10, Pages: 5},
	}
	cfg.ApplyDefaults()

	logger := zap.New(core)
	if err := run(context.Background(), newRunClient(t, cfg, logger), cfg, logger); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pages := logs.FilterMessage("Page").All()
	if len(pages) != 3 {
		t.Fatalf("pages logged = %d, want 3", len(pages))
	}
	var starts []int64
	for _, e := range pages {
		starts = append(starts, e.ContextMap()["start"].(int64))
	}
	if !slices.Equal(starts, []int64{0, 10, 20}) {
		t.Errorf("starts = %v, want [0 10 20]", starts)
	}
	if logs.FilterMessage("Reached last page").Len() != 1 {
		t.Error("last page not reported")
	}
}

func TestRun_ResumeWithoutStore(t *testing.T) {
	srv := newSelectServer(t, 5)
	t.Setenv(resumeEnv, "7f1c1d2e-3b4a-4c5d-8e9f-0a1b2c3d4e5f")

	cfg := config.Config{Search: config.SearchConfig{Endpoint: srv.URL}}
	cfg.ApplyDefaults()

	if err := run(context.Background(), newRunClient(t, cfg, zap.NewNop()), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error resuming without a snapshot store")
	}
}
