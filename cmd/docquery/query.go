package main

import (
	"github.com/kailas-cloud/docquery"
	"github.com/kailas-cloud/docquery/internal/config"
)

// documentType maps the configured tag to a raw-record document type.
// "record" keeps every hit regardless of its tag.
func documentType(name string) docquery.DocumentType[docquery.Record] {
	if name == "" || name == docquery.Records.Name {
		return docquery.Records
	}
	return docquery.RecordsOf(name)
}

// buildSearch applies the configured query to a new builder. Invalid input is
// reported through the builder's Err.
func buildSearch(
	client *docquery.Client,
	dt docquery.DocumentType[docquery.Record],
	q config.QueryConfig,
	defaultRows int,
) *docquery.SearchBuilder[docquery.Record] {
	b := docquery.Search(client, dt)
	if q.Text != "" {
		b.SearchByText(q.Text)
	}
	for _, f := range q.Filters {
		if f.Raw != "" {
			b.FilterQuery(f.Raw)
			continue
		}
		b.FilterBy(f.Field, f.Value)
	}
	for _, s := range q.Sort {
		b.SortBy(s.Field, s.Order != "desc")
	}
	if len(q.Fields) > 0 {
		b.SelectFields(q.Fields...)
	}

	rows := q.Rows
	if rows == 0 {
		rows = defaultRows
	}
	return b.
		Rows(rows).
		Start(0).
		IncludeDraft(q.IncludeDraft).
		IncludeRetired(q.IncludeRetired)
}
