package params

import (
	"slices"
	"strings"

	"github.com/kailas-cloud/docquery/internal/domain"
	"github.com/kailas-cloud/docquery/internal/domain/search/query"
)

// SortRule is a single sort directive.
type SortRule struct {
	Field     string
	Ascending bool
}

// Params accumulates search intent and renders it into a query.Query.
// Not safe for concurrent use.
type Params struct {
	text      string
	fields    map[string]struct{}
	filters   []string
	sorts     []SortRule
	start     *int
	rows      *int
	draft     bool
	retired   bool
	allFields bool
}

// New returns Params with defaults: match-all text, all fields selected.
func New() *Params {
	return &Params{
		text:      query.MatchAll,
		fields:    make(map[string]struct{}),
		allFields: true,
	}
}

// Reconstruct rebuilds Params from stored values without validation.
func Reconstruct(
	text string, fields, filters []string, sorts []SortRule,
	start, rows *int, draft, retired, allFields bool,
) *Params {
	p := &Params{
		text:      text,
		fields:    make(map[string]struct{}, len(fields)),
		filters:   slices.Clone(filters),
		sorts:     slices.Clone(sorts),
		start:     cloneInt(start),
		rows:      cloneInt(rows),
		draft:     draft,
		retired:   retired,
		allFields: allFields,
	}
	for _, f := range fields {
		p.fields[f] = struct{}{}
	}
	return p
}

// Clone returns a deep copy.
func (p *Params) Clone() *Params {
	return Reconstruct(p.text, p.Fields(), p.filters, p.sorts,
		p.start, p.rows, p.draft, p.retired, p.allFields)
}

// SortBy inserts or updates a sort rule. An existing field is moved to the end.
func (p *Params) SortBy(field string, ascending bool) error {
	if field == "" {
		return domain.InvalidArgument("sort field is required")
	}
	if i := slices.IndexFunc(p.sorts, func(r SortRule) bool { return r.Field == field }); i >= 0 {
		p.sorts = slices.Delete(p.sorts, i, i+1)
	}
	p.sorts = append(p.sorts, SortRule{Field: field, Ascending: ascending})
	return nil
}

// FilterBy appends a "field:value" clause.
func (p *Params) FilterBy(field, value string) error {
	if field == "" {
		return domain.InvalidArgument("filter field is required")
	}
	if value == "" {
		return domain.InvalidArgument("filter value is required for field %q", field)
	}
	p.filters = append(p.filters, field+":"+value)
	return nil
}

// FilterQuery appends a raw clause verbatim.
func (p *Params) FilterQuery(clause string) error {
	if clause == "" {
		return domain.InvalidArgument("filter clause is required")
	}
	p.filters = append(p.filters, clause)
	return nil
}

// SearchByText replaces the free-text query.
func (p *Params) SearchByText(text string) error {
	if text == "" {
		return domain.InvalidArgument("search text is required")
	}
	p.text = text
	return nil
}

// SelectFields adds explicit field selectors.
func (p *Params) SelectFields(names ...string) error {
	for _, n := range names {
		if n == "" {
			return domain.InvalidArgument("field name is required")
		}
	}
	for _, n := range names {
		p.fields[n] = struct{}{}
	}
	return nil
}

// SetRows sets the page size.
func (p *Params) SetRows(n int) error {
	if n < 1 {
		return domain.InvalidArgument("rows must be at least 1, got %d", n)
	}
	p.rows = &n
	return nil
}

// SetStart sets the result offset.
func (p *Params) SetStart(n int) error {
	if n < 0 {
		return domain.InvalidArgument("start must not be negative, got %d", n)
	}
	p.start = &n
	return nil
}

// SetIncludeDraft toggles draft visibility.
func (p *Params) SetIncludeDraft(v bool) { p.draft = v }

// SetIncludeRetired toggles retired visibility.
func (p *Params) SetIncludeRetired(v bool) { p.retired = v }

// SetIncludeAllFields toggles the wildcard and full-document selectors.
func (p *Params) SetIncludeAllFields(v bool) { p.allFields = v }

// Text returns the free-text query.
func (p *Params) Text() string { return p.text }

// Fields returns explicit field selectors, sorted.
func (p *Params) Fields() []string {
	out := make([]string, 0, len(p.fields))
	for f := range p.fields {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Filters returns explicit filter clauses in insertion order.
func (p *Params) Filters() []string { return slices.Clone(p.filters) }

// Sorts returns sort rules in access order.
func (p *Params) Sorts() []SortRule { return slices.Clone(p.sorts) }

// Start returns the offset and whether it was set.
func (p *Params) Start() (int, bool) {
	if p.start == nil {
		return 0, false
	}
	return *p.start, true
}

// Rows returns the page size and whether it was set.
func (p *Params) Rows() (int, bool) {
	if p.rows == nil {
		return 0, false
	}
	return *p.rows, true
}

// IncludeDraft reports whether drafts are requested.
func (p *Params) IncludeDraft() bool { return p.draft }

// IncludeRetired reports whether retired documents are requested.
func (p *Params) IncludeRetired() bool { return p.retired }

// IncludeAllFields reports whether the wildcard selectors are added.
func (p *Params) IncludeAllFields() bool { return p.allFields }

// Build renders an immutable query.
func (p *Params) Build() query.Query {
	filters := slices.Clone(p.filters)
	if clause := query.VisibilityClause(p.draft, p.retired); clause != "" {
		filters = append(filters, clause)
	}

	fields := p.Fields()
	if p.allFields {
		fields = append(fields, query.WildcardField, query.DocumentField)
	}

	return query.New(p.text, filters, fields, p.renderSort(), p.start, p.rows)
}

func (p *Params) renderSort() string {
	if len(p.sorts) == 0 {
		return ""
	}
	parts := make([]string, len(p.sorts))
	for i, r := range p.sorts {
		dir := "desc"
		if r.Ascending {
			dir = "asc"
		}
		parts[i] = r.Field + " " + dir
	}
	return strings.Join(parts, query.SortSeparator)
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
