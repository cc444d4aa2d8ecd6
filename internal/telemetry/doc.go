// Package telemetry wires up distributed tracing for the process.
//
// Example usage:
//
//	shutdown := telemetry.Init(ctx)
//	defer shutdown(context.Background())
package telemetry
