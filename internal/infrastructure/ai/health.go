package ai

import (
	"context"
	"time"

	"github.com/alchemorsel/pantrychef/pkg/healthcheck"
)

// HealthChecker reports whether the LLM provider answers
type HealthChecker struct {
	provider *Provider
	timeout  time.Duration
}

// NewHealthChecker creates a health checker for the provider
func NewHealthChecker(provider *Provider) *HealthChecker {
	return &HealthChecker{provider: provider, timeout: 10 * time.Second}
}

// Check implements healthcheck.Checker.
// An unreachable LLM degrades the service since stored recipes can still be served.
func (h *HealthChecker) Check(ctx context.Context) healthcheck.Check {
	start := time.Now()
	check := healthcheck.Check{
		Name:        "llm",
		LastChecked: start,
		Metadata:    map[string]string{"provider": h.provider.Name()},
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.provider.HealthCheck(ctx); err != nil {
		check.Status = healthcheck.StatusDegraded
		check.Message = err.Error()
	} else {
		check.Status = healthcheck.StatusHealthy
	}
	check.Duration = time.Since(start)
	return check
}
