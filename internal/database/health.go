package database

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Check pings one backing service
type Check func(ctx context.Context) error

// Health runs named checks for the /health endpoint
type Health struct {
	checks  map[string]Check
	timeout time.Duration
}

// NewHealth creates an empty checker. timeout bounds each check.
func NewHealth(timeout time.Duration) *Health {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Health{checks: make(map[string]Check), timeout: timeout}
}

// Register adds a named check
func (h *Health) Register(name string, check Check) {
	h.checks[name] = check
}

// Report runs every check and returns "ok" or the error text per name,
// plus whether all of them passed.
func (h *Health) Report(ctx context.Context) (map[string]string, bool) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	report := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := h.checks[name](checkCtx)
		cancel()

		if err != nil {
			report[name] = err.Error()
			healthy = false
			continue
		}
		report[name] = "ok"
	}
	return report, healthy
}

// Handle serves GET /health: 200 when every check passes, 503 otherwise
func (h *Health) Handle(c *gin.Context) {
	report, healthy := h.Report(c.Request.Context())

	status, label := http.StatusOK, "healthy"
	if !healthy {
		status, label = http.StatusServiceUnavailable, "degraded"
	}
	c.JSON(status, gin.H{
		"status": label,
		"checks": report,
	})
}
