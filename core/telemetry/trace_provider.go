package telemetry

import (
	"context"

	"github.com/anoideaopen/feeledger/core/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation name of the ledger tracer.
const TracerName = "github.com/anoideaopen/feeledger"

// InstallTraceProvider sets the global trace provider. Spans are exported over
// OTLP/HTTP when endpoint is set, otherwise a noop provider is installed.
// The returned function flushes and stops the exporter.
func InstallTraceProvider(
	endpoint string,
	serviceName string,
) func(context.Context) error {
	var tracerProvider trace.TracerProvider
	shutdown := func(context.Context) error { return nil }

	defer func() {
		otel.SetTracerProvider(tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	}()

	tracerProvider = noop.NewTracerProvider()
	if len(endpoint) == 0 {
		return shutdown
	}

	client := otlptracehttp.NewClient(
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)

	exporter, err := otlptrace.New(context.Background(), client)
	if err != nil {
		logger.Logger().WithError(err).Error("creating OTLP trace exporter")
		return shutdown
	}

	r, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(semconv.ServiceName(serviceName)))
	if err != nil {
		logger.Logger().WithError(err).Error("creating trace resource")
		return shutdown
	}

	sdkProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(r))
	tracerProvider = sdkProvider

	return sdkProvider.Shutdown
}

// Tracer returns the ledger tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
