// Package tracer provides OpenTelemetry tracing for the session daemon.
//
// When tracing is disabled the provider hands out a no-op tracer, so
// instrumented code never needs to check whether tracing is on.
// When enabled, spans are exported as JSON lines to the configured writer.
package tracer
