package snapshot

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/kailas-cloud/docquery/internal/db"
	"github.com/kailas-cloud/docquery/internal/domain"
	"github.com/kailas-cloud/docquery/internal/domain/search/params"
	"github.com/kailas-cloud/docquery/internal/domain/search/state"
)

const testID = "7f1c1d2e-3b4a-4c5d-8e9f-0a1b2c3d4e5f"

func testState(t *testing.T) state.State {
	t.Helper()
	p := params.New()
	_ = p.FilterBy("tags", "x")
	_ = p.SetRows(5)
	st, err := state.New("article", p, state.Flags{Draft: true})
	if err != nil {
		t.Fatalf("state.New: %v", err)
	}
	return st
}

func TestSave_Load_RoundTrip(t *testing.T) {
	s := newMockStore()
	r := New(s, "", time.Hour)
	r.newID = func() string { return testID }

	id, err := r.Save(context.Background(), testState(t))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id != testID {
		t.Errorf("id = %q", id)
	}
	key := "docquery:snapshot:" + testID
	if _, ok := s.data[key]; !ok {
		t.Fatalf("key %q not written; have %v", key, s.data)
	}
	if s.ttls[key] != time.Hour {
		t.Errorf("ttl = %v, want 1h", s.ttls[key])
	}

	got, err := r.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.DocumentType() != "article" || !got.Flags().Draft {
		t.Errorf("loaded = %q %+v", got.DocumentType(), got.Flags())
	}
	if f := got.Params().Filters(); !slices.Equal(f, []string{"tags:x"}) {
		t.Errorf("Filters() = %v", f)
	}
	if s.expCalls != 1 {
		t.Errorf("Expire calls = %d, want 1", s.expCalls)
	}
}

func TestNew_Defaults(t *testing.T) {
	r := New(newMockStore(), "", 0)
	if r.TTL() != DefaultTTL {
		t.Errorf("TTL() = %v, want %v", r.TTL(), DefaultTTL)
	}
	if r.key("x") != DefaultKeyPrefix+"snapshot:x" {
		t.Errorf("key = %q", r.key("x"))
	}

	r = New(newMockStore(), "custom:", time.Minute)
	if r.key("x") != "custom:snapshot:x" {
		t.Errorf("key = %q", r.key("x"))
	}
}

func TestSave_GeneratesUUID(t *testing.T) {
	r := New(newMockStore(), "", time.Hour)
	id, err := r.Save(context.Background(), testState(t))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := validateID(id); err != nil {
		t.Errorf("generated id %q is not a uuid: %v", id, err)
	}
}

func TestSave_Errors(t *testing.T) {
	r := New(newMockStore(), "", time.Hour)
	if _, err := r.Save(context.Background(), state.State{}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("zero state: error = %v, want ErrInvalidArgument", err)
	}

	s := newMockStore()
	s.setErr = &db.Error{Op: db.OpSet, Err: errors.New("OOM")}
	r = New(s, "", time.Hour)
	_, err := r.Save(context.Background(), testState(t))
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Errorf("error = %v, want wrapped db.Error", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		setup   func(s *mockStore)
		wantErr error
	}{
		{"invalid id", "not-a-uuid", nil, domain.ErrInvalidArgument},
		{"not found", testID, nil, domain.ErrSnapshotNotFound},
		{"store failure", testID, func(s *mockStore) { s.getErr = errors.New("conn reset") }, nil},
		{"corrupt payload", testID, func(s *mockStore) {
			s.data["docquery:snapshot:"+testID] = []byte("{")
		}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newMockStore()
			if tc.setup != nil {
				tc.setup(s)
			}
			_, err := New(s, "", time.Hour).Load(context.Background(), tc.id)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_ExpiredBetweenGetAndRefresh(t *testing.T) {
	s := newMockStore()
	r := New(s, "", time.Hour)
	r.newID = func() string { return testID }
	if _, err := r.Save(context.Background(), testState(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.expErr = db.ErrKeyNotFound

	if _, err := r.Load(context.Background(), testID); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	s.expErr = errors.New("READONLY")
	if _, err := r.Load(context.Background(), testID); err == nil {
		t.Error("expected refresh error")
	}
}

func TestDelete(t *testing.T) {
	s := newMockStore()
	r := New(s, "", time.Hour)
	r.newID = func() string { return testID }
	if _, err := r.Save(context.Background(), testState(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := r.Delete(context.Background(), testID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := r.Delete(context.Background(), testID); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Errorf("second Delete error = %v, want ErrSnapshotNotFound", err)
	}
	if err := r.Delete(context.Background(), "bad"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("bad id error = %v, want ErrInvalidArgument", err)
	}
}
