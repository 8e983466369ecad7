// Package rest implements the search transport over the server's HTTP select API.
package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docquery/internal/domain/search/query"
	"github.com/kailas-cloud/docquery/internal/domain/search/record"
	"github.com/kailas-cloud/docquery/internal/domain/search/state"
	logpkg "github.com/kailas-cloud/docquery/internal/logger"
	"github.com/kailas-cloud/docquery/internal/metrics"
)

// Endpoint paths relative to the base URL.
const (
	SelectPath          = "/select"
	ProtectedSelectPath = "/protected/select"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 32 << 20
)

// ErrMalformedResponse signals a successful status with an undecodable body.
var ErrMalformedResponse = errors.New("malformed search response")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config holds the transport settings.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client  // optional; built from Timeout when nil
	Timeout    time.Duration // default 30s
	Logger     *zap.Logger
}

// Transport executes queries against the select endpoints.
type Transport struct {
	baseURL *url.URL
	client  *http.Client
	logger  *zap.Logger
}

// New creates a Transport.
func New(cfg Config) (*Transport, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", cfg.BaseURL)
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Transport{baseURL: u, client: client, logger: logger}, nil
}

// Search executes q. Non-2xx responses are returned with their raw body,
// not as an error.
func (t *Transport) Search(ctx context.Context, q query.Query, flags state.Flags) (*record.Response, error) {
	path, endpoint := SelectPath, "select"
	if flags.ProtectedContent {
		path, endpoint = ProtectedSelectPath, "protected_select"
	}
	log := logpkg.FromContextOr(ctx, t.logger).With(zap.String("endpoint", endpoint))

	values, err := EncodeQuery(q, flags)
	if err != nil {
		return nil, err
	}
	target := t.baseURL.JoinPath(path)
	target.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		metrics.TransportRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		metrics.TransportErrorsTotal.WithLabelValues(endpoint, "network").Inc()
		log.Warn("search request failed", zap.Error(err))
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.TransportRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	metrics.TransportRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	if err != nil {
		metrics.TransportErrorsTotal.WithLabelValues(endpoint, "network").Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.TransportErrorsTotal.WithLabelValues(endpoint, "status").Inc()
		log.Warn("search returned error status", zap.Int("status", resp.StatusCode))
		return &record.Response{StatusCode: resp.StatusCode, ErrorBody: body}, nil
	}

	page, err := decodePage(body)
	if err != nil {
		metrics.TransportErrorsTotal.WithLabelValues(endpoint, "decode").Inc()
		return nil, err
	}
	metrics.TransportRecordsTotal.WithLabelValues(endpoint).Add(float64(len(page.Records)))
	log.Debug("search completed",
		zap.Int("num_found", page.NumFound),
		zap.Int("records", len(page.Records)),
		zap.Duration("latency", time.Since(start)),
	)

	return &record.Response{StatusCode: resp.StatusCode, Page: page}, nil
}

// Ping issues a zero-row match-all query against the public select endpoint.
func (t *Transport) Ping(ctx context.Context) error {
	target := t.baseURL.JoinPath(SelectPath)
	target.RawQuery = url.Values{"q": {query.MatchAll}, "rows": {"0"}, "wt": {"json"}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ping: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// EncodeQuery renders q and the transport flags as select query parameters.
// Unset start/rows are omitted so the server default applies.
func EncodeQuery(q query.Query, flags state.Flags) (url.Values, error) {
	values := url.Values{}
	add := func(name string, explode bool, v any) error {
		frag, err := runtime.StyleParamWithLocation("form", explode, name, runtime.ParamLocationQuery, v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		parsed, err := url.ParseQuery(frag)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		for k, vs := range parsed {
			for _, v := range vs {
				values.Add(k, v)
			}
		}
		return nil
	}

	if err := add("q", true, q.Text()); err != nil {
		return nil, err
	}
	if fq := q.Filters(); len(fq) > 0 {
		if err := add("fq", true, fq); err != nil {
			return nil, err
		}
	}
	if fl := q.Fields(); len(fl) > 0 {
		if err := add("fl", false, fl); err != nil {
			return nil, err
		}
	}
	if s := q.Sort(); s != "" {
		if err := add("sort", true, s); err != nil {
			return nil, err
		}
	}
	if n, ok := q.Start(); ok {
		if err := add("start", true, n); err != nil {
			return nil, err
		}
	}
	if n, ok := q.Rows(); ok {
		if err := add("rows", true, n); err != nil {
			return nil, err
		}
	}
	if flags.Draft {
		values.Set("draft", "true")
	}
	if flags.Retired {
		values.Set("retired", "true")
	}
	if flags.CompleteContext {
		values.Set("context", "complete")
	}
	values.Set("wt", "json")
	return values, nil
}

type selectResponse struct {
	Response *struct {
		NumFound int              `json:"numFound"`
		Docs     []map[string]any `json:"docs"`
	} `json:"response"`
}

func decodePage(body []byte) (*record.Page, error) {
	var sr selectResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if sr.Response == nil {
		return nil, fmt.Errorf("%w: missing response object", ErrMalformedResponse)
	}
	if sr.Response.NumFound < 0 {
		return nil, fmt.Errorf("%w: negative numFound", ErrMalformedResponse)
	}

	recs := make([]record.Record, len(sr.Response.Docs))
	for i, d := range sr.Response.Docs {
		recs[i] = record.Record(d)
	}
	return &record.Page{NumFound: sr.Response.NumFound, Records: recs}, nil
}
