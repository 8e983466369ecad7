package docquery

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	searchuc "github.com/kailas-cloud/docquery/internal/usecase/search"
)

// Status label values of docquery_sdk_operations_total.
const (
	statusOK        = "ok"
	statusError     = "error"
	statusDiscarded = "discarded"
)

type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docquery",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Searches and snapshot operations by outcome.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docquery",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "Time from submission to outcome, in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse lets several clients share one registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("docquery: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("docquery: metric already registered with incompatible type: %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer is shared by the client and every controller it creates.
// Either field may be nil.
type observer struct {
	logger  *zap.Logger
	metrics *sdkMetrics
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// statusOf labels an outcome. Superseded and canceled searches never reach
// a listener, so they are not counted as ok.
func statusOf(op string, err error) string {
	switch {
	case err != nil:
		return statusError
	case op == searchuc.OpSuperseded, op == searchuc.OpCanceled:
		return statusDiscarded
	default:
		return statusOK
	}
}

// Observe records one finished search or snapshot operation.
func (o *observer) Observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	status := statusOf(op, err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}

	fields := []zap.Field{zap.String("op", op), zap.String("status", status), zap.Duration("duration", dur)}
	if err != nil {
		o.logger.Warn("docquery operation failed", append(fields, zap.Error(err))...)
		return
	}
	o.logger.Debug("docquery operation finished", fields...)
}
