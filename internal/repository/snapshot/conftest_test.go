package snapshot

import (
	"context"
	"time"

	"github.com/kailas-cloud/docquery/internal/db"
)

// mockStore is an in-memory store with optional error injection.
type mockStore struct {
	data     map[string][]byte
	ttls     map[string]time.Duration
	getErr   error
	setErr   error
	delErr   error
	expErr   error
	expCalls int
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	if _, ok := m.data[key]; !ok {
		return db.ErrKeyNotFound
	}
	delete(m.data, key)
	delete(m.ttls, key)
	return nil
}

func (m *mockStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.expCalls++
	if m.expErr != nil {
		return m.expErr
	}
	if _, ok := m.data[key]; !ok {
		return db.ErrKeyNotFound
	}
	m.ttls[key] = ttl
	return nil
}
