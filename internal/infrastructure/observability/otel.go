package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Metrics holds all application metrics
type Metrics struct {
	AvailabilityRowsWritten metric.Int64Counter
	ProviderSyncFailures    metric.Int64Counter
	DateSyncFailures        metric.Int64Counter
	ScheduleCacheHits       metric.Int64Counter
	ScheduleCacheMisses     metric.Int64Counter
	TicksSkipped            metric.Int64Counter
}

// Setup initializes OpenTelemetry
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	// Set up trace exporter
	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	// Set up trace provider
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Shutdown function
	shutdown := func(ctx context.Context) error {
		return tracerProvider.Shutdown(ctx)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/carebridge/availability-sync")

	rowsWritten, err := meter.Int64Counter(
		"availability.rows.written",
		metric.WithDescription("Number of availability rows written by sync"),
	)
	if err != nil {
		return nil, err
	}

	providerSyncFailures, err := meter.Int64Counter(
		"availability.provider.sync.failures",
		metric.WithDescription("Number of providers that failed to sync"),
	)
	if err != nil {
		return nil, err
	}

	dateSyncFailures, err := meter.Int64Counter(
		"schedule.date.sync.failures",
		metric.WithDescription("Number of per-date wide-window sync failures"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"schedule.cache.hit.count",
		metric.WithDescription("Number of schedule cache hits"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"schedule.cache.miss.count",
		metric.WithDescription("Number of schedule cache misses"),
	)
	if err != nil {
		return nil, err
	}

	ticksSkipped, err := meter.Int64Counter(
		"sync.ticks.skipped",
		metric.WithDescription("Number of sync ticks skipped due to lock contention"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		AvailabilityRowsWritten: rowsWritten,
		ProviderSyncFailures:    providerSyncFailures,
		DateSyncFailures:        dateSyncFailures,
		ScheduleCacheHits:       cacheHits,
		ScheduleCacheMisses:     cacheMisses,
		TicksSkipped:            ticksSkipped,
	}, nil
}
