// Package docquery provides a Go client for paginated, asynchronous document
// search against a select-style search endpoint.
//
// A search is described with a fluent, typed builder, submitted with Get, and
// its outcome is delivered exactly once to whichever listener is attached,
// before or after the call completes. Results know how to derive the next and
// previous page, and any request can be captured as a Snapshot and restored
// later, optionally through a Valkey/Redis snapshot store.
//
//	client, _ := docquery.New(ctx, docquery.WithEndpoint("http://localhost:8983/solr/docs"))
//
//	articles := docquery.NewDocumentType("article", docquery.DecodeJSON[Article]())
//	b := docquery.Search(client, articles).
//	    FilterBy("tags", "news").
//	    SortBy("modified", false).
//	    Rows(20)
//
//	b.Then(func(r *docquery.Result[Article]) { ... }).
//	    Error(func(err error) { ... })
//	if err := b.Get(ctx); err != nil { ... } // validation errors only
//
//	// Blocking form:
//	res, err := docquery.Search(client, articles).Rows(20).Do(ctx)
//	next, _ := res.NextPage().Do(ctx)
package docquery
