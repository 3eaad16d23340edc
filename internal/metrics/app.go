package metrics

import (
	"time"

	"github.com/animeverse/animeverse/internal/core/fetch"
	"github.com/animeverse/animeverse/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Fetch cache metrics
	CacheLookupsTotal = "animeverse_cache_lookups_total"
	UpstreamTotal     = "animeverse_upstream_requests_total"
	UpstreamDuration  = "animeverse_upstream_request_duration_ms"

	// Rate gate metrics
	GateWaitsTotal   = "animeverse_rate_gate_waits_total"
	GateWaitDuration = "animeverse_rate_gate_wait_ms"

	// Watchlist metrics
	WatchlistOpsTotal = "animeverse_watchlist_operations_total"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
	ServerUptime    = "app_server_uptime_seconds"
)

// Recorder reports fetch cache and watchlist activity to telemetry. The zero
// value is ready to use and is a no-op until InitMetrics has run.
type Recorder struct{}

var _ fetch.Recorder = Recorder{}

// CacheLookup counts a cache hit or miss for the named cache.
func (Recorder) CacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			CacheLookupsTotal,
			1,
			map[string]string{
				"cache":  cache,
				"result": result,
			},
		)
	}
}

// Upstream counts one outbound request and its latency by outcome.
func (Recorder) Upstream(cache string, kind fetch.Kind, elapsed time.Duration) {
	outcome := string(kind)
	if kind == fetch.KindNone {
		outcome = "ok"
	}
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			UpstreamTotal,
			1,
			map[string]string{
				"cache":   cache,
				"outcome": outcome,
			},
		)
		_ = observability.TelemetrySystem.Histogram(
			UpstreamDuration,
			elapsed,
			map[string]string{
				"cache": cache,
			},
		)
	}
}

// WatchlistOp counts a watchlist operation with its status.
func (Recorder) WatchlistOp(op string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			WatchlistOpsTotal,
			1,
			map[string]string{
				"operation": op,
				"status":    status,
			},
		)
	}
}

// GateWait returns a rate gate wait hook that records delays for gate.
func GateWait(gate string) func(time.Duration) {
	return func(wait time.Duration) {
		RecordGateWait(gate, wait)
	}
}

// RecordGateWait records a delay imposed by an outbound rate gate.
func RecordGateWait(gate string, wait time.Duration) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			GateWaitsTotal,
			1,
			map[string]string{
				"gate": gate,
			},
		)
		_ = observability.TelemetrySystem.Histogram(
			GateWaitDuration,
			wait,
			map[string]string{
				"gate": gate,
			},
		)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}

// SetServerUptime records the server uptime in seconds
func SetServerUptime(seconds int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerUptime,
			float64(seconds),
			nil,
		)
	}
}
