package docquery

import (
	"github.com/kailas-cloud/docquery/internal/domain/search/state"
)

// Snapshot is an immutable, transferable capture of a search request. It
// survives MarshalBinary/UnmarshalBinary unchanged and can be restored into an
// equivalent builder through a Registry.
type Snapshot struct {
	st state.State
}

// ParseSnapshot decodes a snapshot produced by MarshalBinary.
func ParseSnapshot(data []byte) (Snapshot, error) {
	st, err := state.Unmarshal(data)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{st: st}, nil
}

// DocumentType returns the classification tag of the captured request.
func (s Snapshot) DocumentType() string { return s.st.DocumentType() }

// Flags returns the captured visibility and content flags.
func (s Snapshot) Flags() Flags { return s.st.Flags() }

// Query renders the captured parameters.
func (s Snapshot) Query() Query { return s.st.Params().Build() }

// IsZero reports whether s holds no request.
func (s Snapshot) IsZero() bool { return s.st.IsZero() }

// MarshalBinary implements encoding.BinaryMarshaler.
func (s Snapshot) MarshalBinary() ([]byte, error) {
	return s.st.Marshal()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	st, err := state.Unmarshal(data)
	if err != nil {
		return err
	}
	s.st = st
	return nil
}
