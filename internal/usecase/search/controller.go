package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docquery/internal/domain"
	"github.com/kailas-cloud/docquery/internal/domain/search/query"
	"github.com/kailas-cloud/docquery/internal/domain/search/record"
	"github.com/kailas-cloud/docquery/internal/domain/search/state"
)

// Observer operation names.
const (
	OpSearch     = "search"
	OpSuperseded = "search_superseded"
	OpCanceled   = "search_canceled"
)

// State is the controller lifecycle state.
type State int

// Controller states.
const (
	Idle State = iota
	InFlight
	BufferedResult
	BufferedError
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in_flight"
	case BufferedResult:
		return "buffered_result"
	case BufferedError:
		return "buffered_error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Target selects which raw records a request wants and maps them into the
// delivered outcome.
type Target[R any] struct {
	// Type is the classification the request targets. Untagged records inherit it.
	Type string
	// Classify extracts a record's tag. Defaults to record.Record.Type.
	Classify record.Classifier
	// Map builds the outcome from the total match count and the selected records.
	Map func(numFound int, records []record.Record) (R, error)
}

// call identifies one transport invocation.
type call struct {
	cancel context.CancelFunc
}

// Controller owns at most one in-flight search and delivers its outcome
// exactly once to whichever listener is attached.
type Controller[R any] struct {
	transport Transport
	decoder   ErrorDecoder
	observer  Observer
	logger    *zap.Logger

	mu       sync.Mutex
	state    State
	current  *call
	result   R
	err      error
	onResult func(R)
	onError  func(error)
}

// New creates an idle controller. A nil logger disables logging.
func New[R any](transport Transport, decoder ErrorDecoder, logger *zap.Logger) *Controller[R] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller[R]{transport: transport, decoder: decoder, logger: logger}
}

// WithObserver attaches an observer for lifecycle events.
func (c *Controller[R]) WithObserver(o Observer) *Controller[R] {
	c.observer = o
	return c
}

// State returns the current lifecycle state.
func (c *Controller[R]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit issues q, superseding any in-flight call and discarding any
// undelivered outcome. It returns immediately.
func (c *Controller[R]) Submit(ctx context.Context, q query.Query, flags state.Flags, target Target[R]) {
	callCtx, cancel := context.WithCancel(ctx)
	cl := &call{cancel: cancel}

	c.mu.Lock()
	if c.current != nil {
		c.current.cancel()
		c.logger.Debug("superseding in-flight search")
	}
	c.clearLocked()
	c.current = cl
	c.state = InFlight
	c.mu.Unlock()

	go c.run(callCtx, cl, q, flags, target)
}

// Cancel aborts the in-flight call and discards any undelivered outcome.
func (c *Controller[R]) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.cancel()
		c.current = nil
		c.observe(OpCanceled, time.Now(), nil)
	}
	c.clearLocked()
	c.state = Idle
}

// Detach drops both listeners. The call and any buffered outcome are kept.
func (c *Controller[R]) Detach() {
	c.mu.Lock()
	c.onResult, c.onError = nil, nil
	c.mu.Unlock()
}

// Listen registers both one-shot listeners at once, so a delivery can never
// leave one of them attached.
func (c *Controller[R]) Listen(onResult func(R), onError func(error)) {
	c.mu.Lock()
	c.onResult, c.onError = onResult, onError
	d := c.takeLocked()
	c.mu.Unlock()
	d.run()
}

// OnResult registers a one-shot result listener. A buffered result is
// delivered immediately.
func (c *Controller[R]) OnResult(fn func(R)) {
	c.mu.Lock()
	c.onResult = fn
	d := c.takeLocked()
	c.mu.Unlock()
	d.run()
}

// OnError registers a one-shot error listener. A buffered error is
// delivered immediately.
func (c *Controller[R]) OnError(fn func(error)) {
	c.mu.Lock()
	c.onError = fn
	d := c.takeLocked()
	c.mu.Unlock()
	d.run()
}

func (c *Controller[R]) run(ctx context.Context, cl *call, q query.Query, flags state.Flags, target Target[R]) {
	start := time.Now()

	resp, err := c.transport.Search(ctx, q, flags)

	var res R
	if err != nil {
		err = &domain.TransportError{Err: err}
	} else {
		res, err = c.outcome(resp, target)
	}

	c.complete(cl, res, err, start)
}

func (c *Controller[R]) outcome(resp *record.Response, target Target[R]) (R, error) {
	var zero R
	if resp == nil {
		return zero, &domain.TransportError{Err: errors.New("empty response")}
	}
	if !resp.OK() {
		return zero, c.serverError(resp)
	}

	page := resp.Page
	if page == nil {
		page = &record.Page{}
	}
	selected := record.Select(page.Records, target.Type, target.Classify)

	res, err := target.Map(page.NumFound, selected)
	if err != nil {
		return zero, &domain.ServerError{
			StatusCode:  resp.StatusCode,
			Message:     domain.ParseFailureMessage,
			Description: err.Error(),
		}
	}
	return res, nil
}

func (c *Controller[R]) serverError(resp *record.Response) error {
	if c.decoder != nil && len(resp.ErrorBody) > 0 {
		msg, desc, err := c.decoder.DecodeError(resp.ErrorBody)
		if err == nil && msg != "" {
			return &domain.ServerError{StatusCode: resp.StatusCode, Message: msg, Description: desc}
		}
	}
	return &domain.ServerError{StatusCode: resp.StatusCode, Message: domain.ParseFailureMessage}
}

// complete buffers the outcome of cl unless cl has been superseded, then
// delivers it if a matching listener is attached.
func (c *Controller[R]) complete(cl *call, res R, err error, start time.Time) {
	c.mu.Lock()
	if c.current != cl {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded search outcome", zap.Error(err))
		c.observe(OpSuperseded, start, nil)
		return
	}
	cl.cancel()
	c.current = nil
	if err != nil {
		c.state = BufferedError
		c.err = err
	} else {
		c.state = BufferedResult
		c.result = res
	}
	d := c.takeLocked()
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("search failed", zap.Error(err))
	}
	c.observe(OpSearch, start, err)
	d.run()
}

// delivery is an outcome taken out of the buffer together with its listener.
type delivery[R any] struct {
	onResult func(R)
	result   R
	onError  func(error)
	err      error
}

func (d delivery[R]) run() {
	switch {
	case d.onResult != nil:
		d.onResult(d.result)
	case d.onError != nil:
		d.onError(d.err)
	}
}

// takeLocked hands the buffered outcome to the matching listener, if any.
// Both listeners are released on delivery; the mismatched one never fires.
func (c *Controller[R]) takeLocked() delivery[R] {
	var d delivery[R]
	switch {
	case c.state == BufferedResult && c.onResult != nil:
		d.onResult, d.result = c.onResult, c.result
	case c.state == BufferedError && c.onError != nil:
		d.onError, d.err = c.onError, c.err
	default:
		return d
	}
	c.clearLocked()
	c.onResult, c.onError = nil, nil
	c.state = Idle
	return d
}

func (c *Controller[R]) clearLocked() {
	var zero R
	c.result = zero
	c.err = nil
}

func (c *Controller[R]) observe(op string, start time.Time, err error) {
	if c.observer != nil {
		c.observer.Observe(op, start, err)
	}
}
