package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom metrics for the service
type Metrics struct {
	HTTPRequestsTotal metric.Int64Counter
	HTTPDurationMs    metric.Float64Histogram

	RecordOperationsTotal metric.Int64Counter

	AuthFailuresTotal       metric.Int64Counter
	PermissionCheckDuration metric.Float64Histogram

	AIRequestsTotal metric.Int64Counter
	AIDurationMs    metric.Float64Histogram
}

// InitMetrics registers the service instruments on the global meter
// provider. With no provider configured the instruments are no-ops.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/family-health-keeper/backend")

	httpRequestsTotal, err := meter.Int64Counter(
		"http_server_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	httpDurationMs, err := meter.Float64Histogram(
		"http_server_duration_milliseconds",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	recordOperationsTotal, err := meter.Int64Counter(
		"health_record_operations_total",
		metric.WithDescription("Total number of health record operations by resource"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	authFailuresTotal, err := meter.Int64Counter(
		"auth_failures_total",
		metric.WithDescription("Total number of authentication failures"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	permissionCheckDuration, err := meter.Float64Histogram(
		"permission_check_duration_ms",
		metric.WithDescription("Permission check duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	aiRequestsTotal, err := meter.Int64Counter(
		"ai_upstream_requests_total",
		metric.WithDescription("Total number of calls to the generative AI service"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	aiDurationMs, err := meter.Float64Histogram(
		"ai_upstream_duration_milliseconds",
		metric.WithDescription("Generative AI call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		HTTPRequestsTotal:       httpRequestsTotal,
		HTTPDurationMs:          httpDurationMs,
		RecordOperationsTotal:   recordOperationsTotal,
		AuthFailuresTotal:       authFailuresTotal,
		PermissionCheckDuration: permissionCheckDuration,
		AIRequestsTotal:         aiRequestsTotal,
		AIDurationMs:            aiDurationMs,
	}, nil
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, durationMs float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http_method", method),
		attribute.String("http_route", route),
		attribute.Int("http_status_code", statusCode),
	}

	m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.HTTPDurationMs.Record(ctx, durationMs, metric.WithAttributes(attrs...))
}

// RecordOperation counts a create/update/delete on a resource.
func (m *Metrics) RecordOperation(ctx context.Context, resource, operation string) {
	m.RecordOperationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("operation", operation),
	))
}

// RecordAuthFailure records an authentication failure metric
func (m *Metrics) RecordAuthFailure(ctx context.Context, reason string) {
	m.AuthFailuresTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordPermissionCheck records a permission check duration metric
func (m *Metrics) RecordPermissionCheck(ctx context.Context, permission string, durationMs float64, allowed bool) {
	m.PermissionCheckDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("permission", permission),
		attribute.Bool("allowed", allowed),
	))
}

// RecordAIRequest records one upstream AI call. statusCode is 0 when the
// call failed before a response arrived.
func (m *Metrics) RecordAIRequest(ctx context.Context, operation string, statusCode int, durationMs float64) {
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Int("status_code", statusCode),
	}
	m.AIRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.AIDurationMs.Record(ctx, durationMs, metric.WithAttributes(attrs...))
}
