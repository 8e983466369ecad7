package query

// Rendering constants.
const (
	// MatchAll is the free-text sentinel matching every document.
	MatchAll = "*:*"

	// WildcardField selects all stored fields.
	WildcardField = "*"
	// DocumentField selects the full document body.
	DocumentField = "[document]"

	// SortSeparator joins rendered sort rules.
	SortSeparator = ","
)

// Visibility clauses derived from the draft/retired flags.
const (
	DraftClause   = "status:ready OR status:draft OR draftStatus:*"
	RetiredClause = "status:ready OR status:retired"
	// CombinedClause is used when both drafts and retired documents are requested.
	CombinedClause = "status:ready OR status:draft OR status:retired OR draftStatus:*"
)

// VisibilityClause picks the single derived clause for the given flags.
// Returns "" when neither flag is set.
func VisibilityClause(draft, retired bool) string {
	switch {
	case draft && retired:
		return CombinedClause
	case draft:
		return DraftClause
	case retired:
		return RetiredClause
	default:
		return ""
	}
}

// Query is an immutable, wire-ready search query.
type Query struct {
	text    string
	filters []string
	fields  []string
	sort    string
	start   *int
	rows    *int
}

// New creates a Query. Slices are copied; nil start/rows mean "unset".
func New(text string, filters, fields []string, sort string, start, rows *int) Query {
	return Query{
		text:    text,
		filters: cloneStrings(filters),
		fields:  cloneStrings(fields),
		sort:    sort,
		start:   cloneInt(start),
		rows:    cloneInt(rows),
	}
}

// Text returns the free-text query.
func (q Query) Text() string { return q.text }

// Filters returns the filter clauses, derived visibility clause last.
func (q Query) Filters() []string { return cloneStrings(q.filters) }

// Fields returns the field selectors.
func (q Query) Fields() []string { return cloneStrings(q.fields) }

// Sort returns the rendered sort string ("" when no sort rules).
func (q Query) Sort() string { return q.sort }

// Start returns the result offset and whether it was set.
func (q Query) Start() (int, bool) {
	if q.start == nil {
		return 0, false
	}
	return *q.start, true
}

// Rows returns the page size and whether it was set.
func (q Query) Rows() (int, bool) {
	if q.rows == nil {
		return 0, false
	}
	return *q.rows, true
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
