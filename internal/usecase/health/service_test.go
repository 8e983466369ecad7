package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks[ComponentSearch] != CheckOK {
		t.Errorf("expected search %q, got %q", CheckOK, r.Checks[ComponentSearch])
	}
	if r.Checks[ComponentSnapshot] != CheckOK {
		t.Errorf("expected snapshot store %q, got %q", CheckOK, r.Checks[ComponentSnapshot])
	}
}

func TestCheck_StoreError(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{err: errors.New("conn refused")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentSnapshot] != CheckError {
		t.Errorf("expected snapshot store %q, got %q", CheckError, r.Checks[ComponentSnapshot])
	}
	if r.Checks[ComponentSearch] != CheckOK {
		t.Errorf("expected search %q, got %q", CheckOK, r.Checks[ComponentSearch])
	}
}

func TestCheck_SearchError(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("timeout")}, &mockPinger{err: errors.New("conn refused")})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[ComponentSearch] != CheckError {
		t.Errorf("expected search %q, got %q", CheckError, r.Checks[ComponentSearch])
	}
}

func TestCheck_NilComponentsSkipped(t *testing.T) {
	r := New(nil, nil).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 0 {
		t.Errorf("expected no checks, got %v", r.Checks)
	}
}
