// Package page derives adjacent-page parameters from a prior request.
// Derivation never mutates its input.
package page

import (
	"math"

	"github.com/kailas-cloud/docquery/internal/domain/search/params"
)

// DefaultRows is the page size assumed when rows was never set.
const DefaultRows = 10

// Next returns a copy of p positioned one page forward.
// There is no last-page check: paging past the end yields an empty result.
// The offset saturates at math.MaxInt.
func Next(p *params.Params) *params.Params {
	next, start, rows := resolve(p)
	offset := math.MaxInt
	if start <= math.MaxInt-rows {
		offset = start + rows
	}
	_ = next.SetStart(offset)
	return next
}

// Previous returns a copy of p positioned one page back, or false when p
// already starts at offset zero.
func Previous(p *params.Params) (*params.Params, bool) {
	prev, start, rows := resolve(p)
	if start == 0 {
		return nil, false
	}
	_ = prev.SetStart(max(start-rows, 0))
	return prev, true
}

// resolve clones p and fills in default start/rows. The rows default is
// persisted into the clone; start is left for the caller to set.
func resolve(p *params.Params) (*params.Params, int, int) {
	c := p.Clone()
	start, _ := c.Start()
	rows, ok := c.Rows()
	if !ok {
		rows = DefaultRows
		_ = c.SetRows(rows)
	}
	return c, start, rows
}
