// Package health implements the readiness probe: data dir writability,
// the optional cache store, and the optional remote vectorizer provider.
package health

import (
	"context"
	"os"
)

// Pinger checks cache store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// VectorizerChecker verifies remote vectorizer availability.
type VectorizerChecker interface {
	HealthCheck(ctx context.Context) error
}

// Service aggregates component health checks. cache and vec may be nil
// when the corresponding component is not configured.
type Service struct {
	dataDir string
	cache   Pinger
	vec     VectorizerChecker
}

// New creates a health service.
func New(dataDir string, cache Pinger, vec VectorizerChecker) *Service {
	return &Service{dataDir: dataDir, cache: cache, vec: vec}
}

// Status is the aggregate health report.
type Status struct {
	Status string            `json:"status"` // "ok" or "degraded"
	Checks map[string]string `json:"checks"`
}

// Check runs all configured component checks.
func (s *Service) Check(ctx context.Context) Status {
	st := Status{Status: "ok", Checks: make(map[string]string)}

	if err := s.checkDataDir(); err != nil {
		st.Status = "degraded"
		st.Checks["storage"] = err.Error()
	} else {
		st.Checks["storage"] = "ok"
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			st.Status = "degraded"
			st.Checks["cache"] = err.Error()
		} else {
			st.Checks["cache"] = "ok"
		}
	}

	if s.vec != nil {
		if err := s.vec.HealthCheck(ctx); err != nil {
			st.Status = "degraded"
			st.Checks["vectorizer"] = err.Error()
		} else {
			st.Checks["vectorizer"] = "ok"
		}
	}

	return st
}

// checkDataDir verifies the data dir exists and is writable.
func (s *Service) checkDataDir() error {
	if err := os.MkdirAll(s.dataDir, 0o750); err != nil {
		return err
	}
	probe, err := os.CreateTemp(s.dataDir, ".health-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}
