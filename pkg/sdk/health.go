package simdex

import "context"

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok" or "degraded"
	Checks map[string]string // component → "ok" or an error message
}

// Health checks the health of all configured components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = v
	}
	return HealthStatus{
		Status: report.Status,
		Checks: checks,
	}
}
