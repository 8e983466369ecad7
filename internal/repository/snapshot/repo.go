// Package snapshot persists transferable search states in Valkey/Redis so a
// paging session can be handed off and resumed elsewhere.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/docquery/internal/db"
	"github.com/kailas-cloud/docquery/internal/domain"
	"github.com/kailas-cloud/docquery/internal/domain/search/state"
)

// DefaultKeyPrefix namespaces all keys written by the repository.
const DefaultKeyPrefix = "docquery:"

// DefaultTTL is used when New receives a non-positive ttl.
const DefaultTTL = 24 * time.Hour

// store is the consumer interface for snapshots (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Repo stores snapshots under <prefix>snapshot:<uuid>.
type Repo struct {
	store  store
	prefix string
	ttl    time.Duration
	newID  func() string
}

// New creates a snapshot repository.
func New(s store, prefix string, ttl time.Duration) *Repo {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repo{store: s, prefix: prefix, ttl: ttl, newID: uuid.NewString}
}

// TTL returns the expiry applied to saved snapshots.
func (r *Repo) TTL() time.Duration { return r.ttl }

// Save stores st and returns its id.
func (r *Repo) Save(ctx context.Context, st state.State) (string, error) {
	if st.IsZero() {
		return "", domain.InvalidArgument("snapshot is empty")
	}
	data, err := st.Marshal()
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	id := r.newID()
	if err := r.store.SetWithTTL(ctx, r.key(id), data, r.ttl); err != nil {
		return "", fmt.Errorf("save snapshot %s: %w", id, err)
	}
	return id, nil
}

// Load fetches a snapshot and slides its expiry forward.
func (r *Repo) Load(ctx context.Context, id string) (state.State, error) {
	if err := validateID(id); err != nil {
		return state.State{}, err
	}
	key := r.key(id)

	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return state.State{}, domain.ErrSnapshotNotFound
		}
		return state.State{}, fmt.Errorf("load snapshot %s: %w", id, err)
	}

	st, err := state.Unmarshal(data)
	if err != nil {
		return state.State{}, fmt.Errorf("decode snapshot %s: %w", id, err)
	}

	// Key may expire between GET and EXPIRE; the loaded state is still valid.
	if err := r.store.Expire(ctx, key, r.ttl); err != nil && !errors.Is(err, db.ErrKeyNotFound) {
		return state.State{}, fmt.Errorf("refresh snapshot %s: %w", id, err)
	}
	return st, nil
}

// Delete removes a snapshot.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrSnapshotNotFound
		}
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	return nil
}

func (r *Repo) key(id string) string {
	return r.prefix + "snapshot:" + id
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.InvalidArgument("invalid snapshot id %q", id)
	}
	return nil
}
