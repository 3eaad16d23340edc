package metrics

import (
	"strconv"

	"github.com/animeverse/animeverse/internal/observability"
)

// Error metric names. The exporter namespace is prepended on export.
const (
	ErrorsTotalName      = "errors_total"
	PanicsTotalName      = "panics_total"
	ErrorsByEndpointName = "errors_by_endpoint"
)

// RecordError counts an API error response by envelope code and status.
func RecordError(errorCode string, httpStatus int) {
	counter(ErrorsTotalName, map[string]string{
		"error_code":  errorCode,
		"http_status": strconv.Itoa(httpStatus),
	})
}

// RecordPanic counts a recovered handler panic.
func RecordPanic() {
	counter(PanicsTotalName, nil)
}

// RecordErrorByEndpoint counts an error against a route pattern such as
// /api/anime/{provider}/{id}. Pass patterns, not raw paths.
func RecordErrorByEndpoint(endpoint string, errorCode string) {
	if endpoint == "" {
		endpoint = "/unknown"
	}
	counter(ErrorsByEndpointName, map[string]string{
		"endpoint":   endpoint,
		"error_code": errorCode,
	})
}

func counter(name string, labels map[string]string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(name, 1, labels)
}
