// Package instrumentation provides OpenTelemetry metrics and tracing.
//
// A Provider is constructed once at startup from environment-driven Config
// and owns the meter and tracer providers. Metrics cover the bot's four
// operational concerns: conversation turns by outcome, chat completion
// calls, task-storage operations and tool dispatches. The Prometheus
// exporter (default) registers to the global registry served by the
// dedicated metrics server; OTLP and stdout exporters are available for
// collector-based setups and local debugging.
//
// The zero-value Metrics recorder is a safe no-op, so instrumented code
// paths never branch on whether instrumentation is enabled.
package instrumentation
