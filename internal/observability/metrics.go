package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "plexport"

// HTTPMetrics holds request-level metrics for the HTTP surface.
type HTTPMetrics struct {
	requestDuration metric.Float64Histogram
	requestCounter  metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
}

// InitHTTPMetrics initializes the HTTP request metrics.
func InitHTTPMetrics() (*HTTPMetrics, error) {
	meter := otel.Meter(meterName)

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("Duration of HTTP requests in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request duration histogram: %w", err)
	}

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http.requests.active",
		metric.WithDescription("Number of in-flight HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active requests counter: %w", err)
	}

	return &HTTPMetrics{
		requestDuration: requestDuration,
		requestCounter:  requestCounter,
		activeRequests:  activeRequests,
	}, nil
}

// RecordRequestStart marks a request in flight.
func (m *HTTPMetrics) RecordRequestStart(ctx context.Context) {
	m.activeRequests.Add(ctx, 1)
}

// RecordRequestEnd records completion of a request.
func (m *HTTPMetrics) RecordRequestEnd(ctx context.Context, route string, status int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.activeRequests.Add(ctx, -1)
	m.requestCounter.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// ExplorerMetrics holds metrics for admin database explorer queries.
type ExplorerMetrics struct {
	queryDuration metric.Float64Histogram
	rowsReturned  metric.Int64Histogram
	facetFailures metric.Int64Counter
}

// InitExplorerMetrics initializes the explorer query metrics.
func InitExplorerMetrics() (*ExplorerMetrics, error) {
	meter := otel.Meter(meterName)

	queryDuration, err := meter.Float64Histogram(
		"explorer.query.duration",
		metric.WithDescription("Duration of explorer queries in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create query duration histogram: %w", err)
	}

	rowsReturned, err := meter.Int64Histogram(
		"explorer.query.rows",
		metric.WithDescription("Number of rows returned per explorer query"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rows histogram: %w", err)
	}

	facetFailures, err := meter.Int64Counter(
		"explorer.facet.failures",
		metric.WithDescription("Number of per-column facet derivations that failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create facet failure counter: %w", err)
	}

	return &ExplorerMetrics{
		queryDuration: queryDuration,
		rowsReturned:  rowsReturned,
		facetFailures: facetFailures,
	}, nil
}

// RecordQuery records one completed explorer query.
func (m *ExplorerMetrics) RecordQuery(ctx context.Context, table string, duration time.Duration, rows int) {
	attrs := metric.WithAttributes(attribute.String("db.table", table))
	m.queryDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	m.rowsReturned.Record(ctx, int64(rows), attrs)
}

// RecordFacetFailure records one isolated facet derivation failure.
func (m *ExplorerMetrics) RecordFacetFailure(ctx context.Context, table string) {
	m.facetFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("db.table", table)))
}
