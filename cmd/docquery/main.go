package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docquery"
	"github.com/kailas-cloud/docquery/internal/config"
	logpkg "github.com/kailas-cloud/docquery/internal/logger"
	"github.com/kailas-cloud/docquery/internal/metrics"
	"github.com/kailas-cloud/docquery/internal/version"
)

// resumeEnv names the variable holding a stored snapshot id to resume from.
const resumeEnv = "RESUME_SNAPSHOT"

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docquery",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("endpoint", cfg.Search.Endpoint),
		zap.String("document_type", cfg.Query.DocumentType),
		zap.Bool("snapshots", cfg.Snapshots.Enabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logpkg.ContextWithLogger(ctx, logger)

	// Register transport metrics explicitly (no init())
	metrics.RegisterTransportMetrics()

	client, err := docquery.New(ctx, clientOptions(cfg, logger)...)
	if err != nil {
		logger.Fatal("Failed to create client", zap.Error(err))
	}
	defer client.Close()

	var metricsSrv *metricsServer
	if cfg.Metrics.Addr != "" {
		metricsSrv = startMetricsServer(cfg.Metrics.Addr, client, logger)
	}

	code := 0
	if err := run(ctx, client, cfg, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Received shutdown signal")
		} else {
			logger.Error("Search run failed", zap.Error(err))
			code = 1
		}
	}

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Metrics.ShutdownSec)*time.Second)
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during metrics shutdown", zap.Error(err))
		}
		cancel()
	}

	logger.Info("Stopped")
	if code != 0 {
		client.Close()
		_ = logger.Sync()
		os.Exit(code)
	}
}

func run(ctx context.Context, client *docquery.Client, cfg config.Config, logger *zap.Logger) error {
	dt := documentType(cfg.Query.DocumentType)
	registry := docquery.NewRegistry()
	if err := docquery.Register(registry, dt); err != nil {
		return err
	}

	b, err := initialSearch(ctx, client, registry, dt, cfg)
	if err != nil {
		return err
	}

	var next *docquery.SearchBuilder[docquery.Record]
	for i := 0; i < cfg.Query.Pages; i++ {
		res, err := b.Do(ctx)
		if err != nil {
			return err
		}
		logPage(logger, i+1, res)

		next = res.NextPage()
		rows, ok := res.Rows()
		if !ok {
			rows = docquery.DefaultRows
		}
		if res.Start()+rows >= res.NumFound() {
			logger.Info("Reached last page", zap.Int("num_found", res.NumFound()))
			next = nil
			break
		}
		b = next
	}

	if next != nil && cfg.Snapshots.Enabled() {
		return saveResumePoint(ctx, client, next, logger)
	}
	return nil
}

func clientOptions(cfg config.Config, logger *zap.Logger) []docquery.Option {
	opts := []docquery.Option{
		docquery.WithEndpoint(cfg.Search.Endpoint),
		docquery.WithTimeout(time.Duration(cfg.Search.TimeoutSec) * time.Second),
		docquery.WithLogger(logger),
		docquery.WithPrometheus(prometheus.DefaultRegisterer),
	}
	if cfg.Search.ProtectedContent {
		opts = append(opts, docquery.WithProtectedContent())
	}
	if cfg.Search.CompleteContext {
		opts = append(opts, docquery.WithCompleteContext())
	}
	if s := cfg.Snapshots; s.Enabled() {
		opts = append(opts,
			docquery.WithSnapshotStore(s.Driver, s.Addrs, s.Username, s.Password, s.DB),
			docquery.WithSnapshotTTL(time.Duration(s.TTLSec)*time.Second),
			docquery.WithKeyPrefix(s.KeyPrefix),
		)
	}
	return opts
}

func initialSearch(
	ctx context.Context,
	client *docquery.Client,
	registry *docquery.Registry,
	dt docquery.DocumentType[docquery.Record],
	cfg config.Config,
) (*docquery.SearchBuilder[docquery.Record], error) {
	id := os.Getenv(resumeEnv)
	if id == "" {
		b := buildSearch(client, dt, cfg.Query, cfg.Search.DefaultRows)
		return b, b.Err()
	}

	snap, err := client.LoadSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	b, err := docquery.Restore[docquery.Record](registry, client, snap)
	if err != nil {
		return nil, err
	}
	logpkg.FromContext(ctx).Info("Resuming from snapshot",
		zap.String("id", id),
		zap.String("document_type", snap.DocumentType()),
	)
	return b, nil
}

func saveResumePoint(
	ctx context.Context,
	client *docquery.Client,
	next *docquery.SearchBuilder[docquery.Record],
	logger *zap.Logger,
) error {
	snap, err := next.Snapshot()
	if err != nil {
		return err
	}
	id, err := client.SaveSnapshot(ctx, snap)
	if err != nil {
		return err
	}
	start, _ := snap.Query().Start()
	logger.Info("Saved resume point",
		zap.String("id", id),
		zap.Int("start", start),
		zap.String("resume_with", resumeEnv+"="+id),
	)
	return nil
}

func logPage(logger *zap.Logger, n int, res *docquery.Result[docquery.Record]) {
	ids := make([]string, 0, res.Len())
	for _, d := range res.Documents() {
		ids = append(ids, d.String("id"))
	}
	logger.Info("Page",
		zap.Int("page", n),
		zap.Int("start", res.Start()),
		zap.Int("count", res.Len()),
		zap.Int("num_found", res.NumFound()),
		zap.Strings("ids", ids),
	)
}
