package docquery

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docquery/internal/db"
	dbRedis "github.com/kailas-cloud/docquery/internal/db/redis"
	"github.com/kailas-cloud/docquery/internal/domain"
	"github.com/kailas-cloud/docquery/internal/domain/search/state"
	snapshotrepo "github.com/kailas-cloud/docquery/internal/repository/snapshot"
	"github.com/kailas-cloud/docquery/internal/transport/rest"
)

const defaultReadinessTimeout = 10 * time.Second

// Observer operation names for snapshot store calls.
const (
	opSnapshotSave   = "snapshot_save"
	opSnapshotLoad   = "snapshot_load"
	opSnapshotDelete = "snapshot_delete"
)

// snapshotStore is the consumer interface over the snapshot repository.
type snapshotStore interface {
	Save(ctx context.Context, st state.State) (string, error)
	Load(ctx context.Context, id string) (state.State, error)
	Delete(ctx context.Context, id string) error
}

// Client is the docquery SDK entry point. It is safe for concurrent use;
// builders created from it are not.
type Client struct {
	transport Transport
	decoder   ErrorDecoder
	defaults  Flags
	logger    *zap.Logger
	obs       *observer

	store     db.Store
	snapshots snapshotStore
	healthSvc healthUseCase
}

// New creates a Client. When a snapshot store is configured, ctx bounds the
// initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := cfg.transport
	if transport == nil {
		if cfg.endpoint == "" {
			return nil, fmt.Errorf("docquery: search endpoint required (use WithEndpoint or WithTransport)")
		}
		t, err := rest.New(rest.Config{
			BaseURL:    cfg.endpoint,
			HTTPClient: cfg.httpClient,
			Timeout:    cfg.timeout,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("docquery: create transport: %w", err)
		}
		transport = t
	}

	decoder := cfg.decoder
	if decoder == nil {
		decoder = rest.ErrorDecoder{}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		transport: transport,
		decoder:   decoder,
		defaults:  Flags{ProtectedContent: cfg.protectedContent, CompleteContext: cfg.completeContext},
		logger:    logger,
		obs:       obs,
	}

	if len(cfg.addrs) > 0 {
		store, err := createStore(cfg)
		if err != nil {
			return nil, err
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("docquery: snapshot store not ready: %w", err)
		}
		c.store = store
		c.snapshots = snapshotrepo.New(store, cfg.keyPrefix, cfg.snapshotTTL)
		c.healthSvc = newHealthService(transport, store)
	} else {
		c.healthSvc = newHealthService(transport, nil)
	}

	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.addrs,
			Username:   cfg.username,
			Password:   cfg.password,
			DB:         cfg.db,
			Standalone: cfg.standalone,
		})
		if err != nil {
			return nil, fmt.Errorf("docquery: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("docquery: unknown driver %q", cfg.driver)
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks snapshot store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return domain.ErrSnapshotStoreDisabled
	}
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// SaveSnapshot stores snap and returns an id for LoadSnapshot.
func (c *Client) SaveSnapshot(ctx context.Context, snap Snapshot) (id string, err error) {
	if c.snapshots == nil {
		return "", domain.ErrSnapshotStoreDisabled
	}
	defer func(start time.Time) { c.obs.Observe(opSnapshotSave, start, err) }(time.Now())

	id, err = c.snapshots.Save(ctx, snap.st)
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return id, nil
}

// LoadSnapshot fetches a stored snapshot and extends its lifetime.
func (c *Client) LoadSnapshot(ctx context.Context, id string) (snap Snapshot, err error) {
	if c.snapshots == nil {
		return Snapshot{}, domain.ErrSnapshotStoreDisabled
	}
	defer func(start time.Time) { c.obs.Observe(opSnapshotLoad, start, err) }(time.Now())

	st, err := c.snapshots.Load(ctx, id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return Snapshot{st: st}, nil
}

// DeleteSnapshot removes a stored snapshot.
func (c *Client) DeleteSnapshot(ctx context.Context, id string) (err error) {
	if c.snapshots == nil {
		return domain.ErrSnapshotStoreDisabled
	}
	defer func(start time.Time) { c.obs.Observe(opSnapshotDelete, start, err) }(time.Now())

	if err := c.snapshots.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
