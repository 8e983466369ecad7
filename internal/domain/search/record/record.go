package record

import "strings"

// TypeField is the raw-record key holding the classification tag.
const TypeField = "type"

// Record is a raw document as decoded from the server response.
type Record map[string]any

// String returns a string field or "" when absent or of another type.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Type returns the record's classification tag ("" when untagged).
func (r Record) Type() string { return r.String(TypeField) }

// Page is one page of raw search hits.
type Page struct {
	NumFound int
	Records  []Record
}

// Response is what a transport returns for a completed call.
// Page is set for successful responses, ErrorBody otherwise.
type Response struct {
	StatusCode int
	Page       *Page
	ErrorBody  []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Classifier extracts a classification tag from a raw record.
type Classifier func(Record) string

// Select keeps records whose tag matches target case-insensitively.
// Untagged records inherit target and are kept.
func Select(records []Record, target string, classify Classifier) []Record {
	if classify == nil {
		classify = Record.Type
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		tag := classify(r)
		if tag == "" || strings.EqualFold(tag, target) {
			out = append(out, r)
		}
	}
	return out
}
