package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the search endpoint is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used in Report.Checks.
const (
	ComponentSearch   = "search"
	ComponentSnapshot = "snapshot_store"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	search Pinger
	store  Pinger
}

// New creates a Service. Either pinger can be nil, in which case its check is skipped.
func New(search, store Pinger) *Service {
	return &Service{search: search, store: store}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			checks[ComponentSnapshot] = CheckError
			status = Degraded
		} else {
			checks[ComponentSnapshot] = CheckOK
		}
	}

	if s.search != nil {
		if err := s.search.Ping(ctx); err != nil {
			checks[ComponentSearch] = CheckError
			status = Unhealthy
		} else {
			checks[ComponentSearch] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
