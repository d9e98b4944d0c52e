package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/echomail/echomail/config"
	"github.com/labstack/echo/v4"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Version   string           `json:"version,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
}

// Check represents an individual health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// StatsResponse represents system statistics
type StatsResponse struct {
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	Uptime       string `json:"uptime,omitempty"`
}

var startTime = time.Now()

// LivenessHandler returns 200 whenever the process is up, for liveness
// probes.
func LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessHandler returns 200 only when the service can actually take
// traffic: the database must answer. Redis is reported but optional,
// since idempotency keys degrade gracefully without it.
func ReadinessHandler(c echo.Context) error {
	checks := make(map[string]Check)
	allHealthy := true

	dbCheck := checkDatabase()
	checks["database"] = dbCheck
	if dbCheck.Status != "ok" {
		allHealthy = false
	}

	checks["redis"] = checkRedis()

	status := "ok"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// StatsHandler returns runtime statistics for monitoring.
func StatsHandler(c echo.Context) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return c.JSON(http.StatusOK, StatsResponse{
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
		MemAlloc:     m.Alloc,
		MemSys:       m.Sys,
		Uptime:       time.Since(startTime).Round(time.Second).String(),
	})
}

func checkDatabase() Check {
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := config.DB.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  "error",
			Message: "Database connection failed",
			Latency: latency.String(),
		}
	}

	return Check{
		Status:  "ok",
		Latency: latency.String(),
	}
}

func checkRedis() Check {
	if config.RedisClient == nil {
		return Check{Status: "disabled", Message: "Redis not configured"}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := config.RedisClient.Ping(ctx).Err()
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  "error",
			Message: "Redis connection failed",
			Latency: latency.String(),
		}
	}
	return Check{Status: "ok", Latency: latency.String()}
}
