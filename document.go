package docquery

import (
	"fmt"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/kailas-cloud/docquery/internal/domain"
	"github.com/kailas-cloud/docquery/internal/domain/search/record"
	"github.com/kailas-cloud/docquery/internal/domain/search/state"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DocumentType describes one kind of document: the classification tag a
// search targets and how raw records become typed documents.
type DocumentType[T any] struct {
	// Name is the classification tag. Matching is case-insensitive.
	Name string
	// Classify extracts a record's tag. Defaults to the "type" field.
	Classify func(Record) string
	// Decode maps a raw record into a document.
	Decode func(Record) (T, error)
}

// NewDocumentType builds a DocumentType classified by the "type" field.
func NewDocumentType[T any](name string, decode func(Record) (T, error)) DocumentType[T] {
	return DocumentType[T]{Name: name, Decode: decode}
}

// Records is a DocumentType that keeps every record regardless of its tag
// and returns it unchanged.
var Records = DocumentType[Record]{
	Name:     "record",
	Classify: func(Record) string { return "" },
	Decode:   func(r Record) (Record, error) { return r, nil },
}

// RecordsOf is a DocumentType that keeps records tagged name and returns them
// unchanged.
func RecordsOf(name string) DocumentType[Record] {
	return DocumentType[Record]{
		Name:   name,
		Decode: func(r Record) (Record, error) { return r, nil },
	}
}

// DecodeJSON returns a decoder that round-trips a raw record through JSON
// into T, honoring T's json tags.
func DecodeJSON[T any]() func(Record) (T, error) {
	return func(r Record) (T, error) {
		var v T
		data, err := json.Marshal(r)
		if err != nil {
			return v, fmt.Errorf("encode record: %w", err)
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return v, fmt.Errorf("decode record into %T: %w", v, err)
		}
		return v, nil
	}
}

func (d DocumentType[T]) validate() error {
	if d.Name == "" {
		return domain.InvalidArgument("document type name is required")
	}
	if d.Decode == nil {
		return domain.InvalidArgument("document type %q has no decoder", d.Name)
	}
	return nil
}

func (d DocumentType[T]) classifier() record.Classifier {
	if d.Classify == nil {
		return nil
	}
	return record.Classifier(d.Classify)
}

// decodeAll maps records in order, failing on the first bad one.
func (d DocumentType[T]) decodeAll(records []record.Record) ([]T, error) {
	docs := make([]T, 0, len(records))
	for i, r := range records {
		doc, err := d.Decode(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Request is the type-erased view of a SearchBuilder, returned when the
// document type is only known at run time.
type Request interface {
	DocumentType() string
	Snapshot() (Snapshot, error)
	Err() error
	Cancel()
}

// restoreFunc rebuilds a typed builder from a captured state.
type restoreFunc func(c *Client, st state.State) Request

// Registry maps classification tags to document types so snapshots can be
// restored without knowing their type at compile time. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	restores map[string]restoreFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{restores: make(map[string]restoreFunc)}
}

// Register adds dt to r. Registering a tag twice fails.
func Register[T any](r *Registry, dt DocumentType[T]) error {
	if err := dt.validate(); err != nil {
		return err
	}
	key := strings.ToLower(dt.Name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.restores[key]; ok {
		return domain.InvalidArgument("document type %q already registered", dt.Name)
	}
	r.restores[key] = func(c *Client, st state.State) Request {
		return restore(c, dt, st)
	}
	return nil
}

// Registered reports whether a tag has a registered document type.
func (r *Registry) Registered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.restores[strings.ToLower(name)]
	return ok
}

// Restore rebuilds the request captured by snap. It fails with
// ErrUnknownType when the snapshot's tag is not registered.
func (r *Registry) Restore(c *Client, snap Snapshot) (Request, error) {
	if snap.IsZero() {
		return nil, domain.InvalidArgument("snapshot is empty")
	}
	r.mu.RLock()
	fn, ok := r.restores[strings.ToLower(snap.DocumentType())]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownType, snap.DocumentType())
	}
	return fn(c, snap.st), nil
}

// Restore rebuilds a typed builder from snap. It fails with ErrUnknownType
// for unregistered tags and ErrTypeMismatch when the tag is bound to a
// document type other than T.
func Restore[T any](r *Registry, c *Client, snap Snapshot) (*SearchBuilder[T], error) {
	req, err := r.Restore(c, snap)
	if err != nil {
		return nil, err
	}
	b, ok := req.(*SearchBuilder[T])
	if !ok {
		var zero T
		return nil, fmt.Errorf("%w: %q is not %T", domain.ErrTypeMismatch, snap.DocumentType(), zero)
	}
	return b, nil
}
