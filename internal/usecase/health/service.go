// Package health aggregates dependency readiness checks.
package health

import (
	"context"
	"time"
)

// Checker verifies one dependency.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// Service runs named dependency checks with a shared deadline.
type Service struct {
	checks map[string]Checker
}

// New creates a health service over the given named checkers.
func New(checks map[string]Checker) *Service {
	return &Service{checks: checks}
}

// Check runs every check and reports per-dependency status.
// Returns true when all dependencies are healthy.
func (s *Service) Check(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	statuses := make(map[string]string, len(s.checks))
	healthy := true
	for name, c := range s.checks {
		if err := c.HealthCheck(ctx); err != nil {
			statuses[name] = err.Error()
			healthy = false
			continue
		}
		statuses[name] = "ok"
	}
	return statuses, healthy
}
