// Package state captures a search request in an immutable, transferable form
// that can be reconstructed into an equivalent request later.
package state

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/kailas-cloud/docquery/internal/domain"
	"github.com/kailas-cloud/docquery/internal/domain/search/params"
)

// Version is the current wire format version.
const Version = 1

// Unknown keys are rejected so a hand-edited snapshot cannot carry settings
// that restoring would silently ignore.
var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

// Flags are the visibility and content toggles passed to the transport.
// Draft and Retired always mirror the captured params.
type Flags struct {
	Draft            bool
	Retired          bool
	ProtectedContent bool
	CompleteContext  bool
}

// State is an immutable capture of a request.
type State struct {
	docType string
	params  *params.Params
	flags   Flags
}

// New captures docType, a copy of p, and flags. Draft and Retired are taken
// from p; the values in flags are ignored.
func New(docType string, p *params.Params, flags Flags) (State, error) {
	if docType == "" {
		return State{}, domain.InvalidArgument("document type is required")
	}
	if p == nil {
		return State{}, domain.InvalidArgument("params are required")
	}
	flags.Draft, flags.Retired = p.IncludeDraft(), p.IncludeRetired()
	return State{docType: docType, params: p.Clone(), flags: flags}, nil
}

// DocumentType returns the classification tag selecting the request type.
func (s State) DocumentType() string { return s.docType }

// Params returns a fresh copy of the captured parameters.
func (s State) Params() *params.Params {
	if s.params == nil {
		return params.New()
	}
	return s.params.Clone()
}

// Flags returns the captured visibility/content flags.
func (s State) Flags() Flags { return s.flags }

// IsZero reports whether s was never initialized.
func (s State) IsZero() bool { return s.docType == "" }

type sortDTO struct {
	Field     string `json:"field"`
	Ascending bool   `json:"asc"`
}

type paramsDTO struct {
	Text      string    `json:"text"`
	Fields    []string  `json:"fields,omitempty"`
	Filters   []string  `json:"filters,omitempty"`
	Sorts     []sortDTO `json:"sorts,omitempty"`
	Start     *int      `json:"start,omitempty"`
	Rows      *int      `json:"rows,omitempty"`
	Draft     bool      `json:"draft"`
	Retired   bool      `json:"retired"`
	AllFields bool      `json:"all_fields"`
}

type stateDTO struct {
	Version          int       `json:"v"`
	DocumentType     string    `json:"type"`
	Params           paramsDTO `json:"params"`
	ProtectedContent bool      `json:"protected"`
	CompleteContext  bool      `json:"complete_context"`
}

// Marshal encodes s into its wire form.
func (s State) Marshal() ([]byte, error) {
	if s.IsZero() {
		return nil, domain.InvalidArgument("cannot marshal empty state")
	}
	p := s.params
	dto := stateDTO{
		Version:      Version,
		DocumentType: s.docType,
		Params: paramsDTO{
			Text:      p.Text(),
			Fields:    p.Fields(),
			Filters:   p.Filters(),
			Draft:     p.IncludeDraft(),
			Retired:   p.IncludeRetired(),
			AllFields: p.IncludeAllFields(),
		},
		ProtectedContent: s.flags.ProtectedContent,
		CompleteContext:  s.flags.CompleteContext,
	}
	if n, ok := p.Start(); ok {
		dto.Params.Start = &n
	}
	if n, ok := p.Rows(); ok {
		dto.Params.Rows = &n
	}
	for _, r := range p.Sorts() {
		dto.Params.Sorts = append(dto.Params.Sorts, sortDTO{Field: r.Field, Ascending: r.Ascending})
	}

	data, err := json.Marshal(&dto)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a wire-form state.
func Unmarshal(data []byte) (State, error) {
	var dto stateDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return State{}, fmt.Errorf("%w: decode state: %w", domain.ErrInvalidArgument, err)
	}
	if dto.Version != Version {
		return State{}, domain.InvalidArgument("unsupported state version %d", dto.Version)
	}
	if dto.DocumentType == "" {
		return State{}, domain.InvalidArgument("state has no document type")
	}
	if dto.Params.Start != nil && *dto.Params.Start < 0 {
		return State{}, domain.InvalidArgument("state start must not be negative")
	}
	if dto.Params.Rows != nil && *dto.Params.Rows < 1 {
		return State{}, domain.InvalidArgument("state rows must be at least 1")
	}

	sorts := make([]params.SortRule, len(dto.Params.Sorts))
	for i, r := range dto.Params.Sorts {
		sorts[i] = params.SortRule{Field: r.Field, Ascending: r.Ascending}
	}
	p := params.Reconstruct(
		dto.Params.Text, dto.Params.Fields, dto.Params.Filters, sorts,
		dto.Params.Start, dto.Params.Rows,
		dto.Params.Draft, dto.Params.Retired, dto.Params.AllFields,
	)

	return State{
		docType: dto.DocumentType,
		params:  p,
		flags: Flags{
			Draft:            dto.Params.Draft,
			Retired:          dto.Params.Retired,
			ProtectedContent: dto.ProtectedContent,
			CompleteContext:  dto.CompleteContext,
		},
	}, nil
}
