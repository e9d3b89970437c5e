package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/segyhp/library-engine/pkg/response"
)

// Check reports whether one dependency is reachable
type Check func(ctx context.Context) error

// Pinger is satisfied by *sqlx.DB and *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

func DatabaseCheck(db Pinger) Check {
	return db.PingContext
}

func RedisCheck(rdb redis.Cmdable) Check {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

type dependency struct {
	name  string
	check Check
}

// HealthHandler answers liveness from memory and readiness by pinging every
// registered dependency in parallel under one deadline.
type HealthHandler struct {
	deps      []dependency
	timeout   time.Duration
	startedAt time.Time
}

func NewHealthHandler(timeout time.Duration) *HealthHandler {
	return &HealthHandler{timeout: timeout, startedAt: time.Now()}
}

// With registers a readiness dependency and returns h for chaining
func (h *HealthHandler) With(name string, check Check) *HealthHandler {
	h.deps = append(h.deps, dependency{name: name, check: check})
	return h
}

type CheckResult struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latencyMs"`
}

type HealthReport struct {
	Status    string                 `json:"status"`
	Uptime    string                 `json:"uptime"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, HealthReport{
		Status:    "ok",
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Timestamp: time.Now(),
	})
}

// Ready handles GET /health/ready; any failing dependency answers 503
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	results := make([]CheckResult, len(h.deps))
	var wg sync.WaitGroup
	for i, dep := range h.deps {
		wg.Add(1)
		go func(i int, check Check) {
			defer wg.Done()
			start := time.Now()
			err := check(ctx)
			results[i] = CheckResult{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				results[i].Status = "failed"
				results[i].Error = err.Error()
			}
		}(i, dep.check)
	}
	wg.Wait()

	report := HealthReport{
		Status:    "ok",
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Timestamp: time.Now(),
		Checks:    make(map[string]CheckResult, len(h.deps)),
	}
	for i, dep := range h.deps {
		report.Checks[dep.name] = results[i]
		if results[i].Status != "ok" {
			report.Status = "error"
		}
	}

	if report.Status != "ok" {
		response.ServiceUnavailable(w, report)
		return
	}
	response.Success(w, report)
}
