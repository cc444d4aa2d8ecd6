package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/liftoffbuild/liftoff/internal"
)

// Installs the global tracer provider, exporting spans to stdout.
//
// Returns a shutdown function that flushes pending spans; callers
// should invoke it before exit. When the exporter cannot be created
// tracing is disabled and the returned shutdown is a no-op.
func Init(ctx context.Context) func(context.Context) error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
		return func(context.Context) error { return nil }
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(internal.Name),
			semconv.ServiceVersion(internal.Version()),
		)),
	)

	otel.SetTracerProvider(provider)

	return provider.Shutdown
}
