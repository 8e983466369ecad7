package docquery

import (
	"context"

	healthuc "github.com/kailas-cloud/docquery/internal/usecase/health"
)

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

// Health checks the search endpoint and, when configured, the snapshot store.
// Custom transports are checked only if they implement Ping(ctx) error.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

func newHealthService(t Transport, store healthuc.Pinger) *healthuc.Service {
	var search healthuc.Pinger
	if p, ok := t.(healthuc.Pinger); ok {
		search = p
	}
	return healthuc.New(search, store)
}
