// Package health serves liveness and readiness for the API process.
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

const checkTimeout = 5 * time.Second

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

type Response struct {
	Status     Status                 `json:"status"`
	Version    string                 `json:"version,omitempty"`
	Uptime     string                 `json:"uptime,omitempty"`
	Checks     map[string]CheckResult `json:"checks,omitempty"`
	ReportedAt time.Time              `json:"reported_at"`
}

// Pinger is anything with a cheap connectivity check, such as *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

// Probe is a check that also reports a short detail when it passes, e.g. the label of
// the current effectivity revision.
type Probe func(ctx context.Context) (string, error)

type check struct {
	probe    Probe
	critical bool
}

type Checker struct {
	version string
	started time.Time
	ready   atomic.Bool

	mu     sync.RWMutex
	checks map[string]check
}

func NewChecker(version string) *Checker {
	return &Checker{
		version: version,
		started: time.Now(),
		checks:  make(map[string]check),
	}
}

// AddCheck registers a connectivity check. A failing non-critical check degrades the
// service instead of failing readiness.
func (c *Checker) AddCheck(name string, pinger Pinger, critical bool) {
	c.AddProbe(name, func(ctx context.Context) (string, error) {
		return "", pinger.PingContext(ctx)
	}, critical)
}

func (c *Checker) AddProbe(name string, probe Probe, critical bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check{probe: probe, critical: critical}
}

func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

func (c *Checker) IsReady() bool {
	return c.ready.Load()
}

// RunChecks runs every registered check concurrently, each under its own timeout.
func (c *Checker) RunChecks(ctx context.Context) map[string]CheckResult {
	c.mu.RLock()
	checks := make(map[string]check, len(c.checks))
	for name, chk := range c.checks {
		checks[name] = chk
	}
	c.mu.RUnlock()

	var mu sync.Mutex
	results := make(map[string]CheckResult, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for name, chk := range checks {
		g.Go(func() error {
			result := chk.run(gctx)
			mu.Lock()
			results[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (chk check) run(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	detail, err := chk.probe(ctx)
	latency := time.Since(start).String()
	if err == nil {
		return CheckResult{Status: StatusHealthy, Message: detail, Latency: latency}
	}

	status := StatusDegraded
	if chk.critical {
		status = StatusUnhealthy
	}
	return CheckResult{Status: status, Message: err.Error(), Latency: latency}
}

func overall(results map[string]CheckResult) Status {
	status := StatusHealthy
	for _, r := range results {
		if r.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
		if r.Status == StatusDegraded {
			status = StatusDegraded
		}
	}
	return status
}

func (c *Checker) respond(ec echo.Context, results map[string]CheckResult) error {
	status := overall(results)
	code := http.StatusOK
	if status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	return ec.JSON(code, Response{
		Status:     status,
		Version:    c.version,
		Uptime:     time.Since(c.started).Round(time.Second).String(),
		Checks:     results,
		ReportedAt: time.Now().UTC(),
	})
}

// Health runs every check.
func (c *Checker) Health(ec echo.Context) error {
	return c.respond(ec, c.RunChecks(ec.Request().Context()))
}

// Live only proves the process is serving.
func (c *Checker) Live(ec echo.Context) error {
	return c.respond(ec, nil)
}

// Ready fails until startup completes, then behaves like Health.
func (c *Checker) Ready(ec echo.Context) error {
	if !c.IsReady() {
		return c.respond(ec, map[string]CheckResult{
			"startup": {Status: StatusUnhealthy, Message: "service is still starting up"},
		})
	}
	return c.Health(ec)
}

// RegisterRoutes mounts /api/v1/health, /api/v1/health/live and /api/v1/health/ready.
func (c *Checker) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/health")
	g.GET("", c.Health)
	g.GET("/live", c.Live)
	g.GET("/ready", c.Ready)
}
